package domain

import "time"

// Account represents a single subscriber account keyed by email address.
type Account struct {
	ID                string    `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	VerificationToken string    `json:"-" db:"verification_token"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// NeedsVerification reports whether the account has not yet been flagged
// for email re-verification. An empty token means no bounce or complaint
// has been recorded against the address.
func (a *Account) NeedsVerification() bool {
	return a.VerificationToken == ""
}

// SuppressionReason enumerates why an address was pushed to the SES
// account-level suppression list.
type SuppressionReason string

const (
	ReasonBounce    SuppressionReason = "BOUNCE"
	ReasonComplaint SuppressionReason = "COMPLAINT"
)
