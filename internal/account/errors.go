package account

import "errors"

// Sentinel errors for the account service layer.
var (
	ErrNotFound = errors.New("account not found")
)
