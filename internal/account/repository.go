package account

import (
	"context"

	"github.com/ignite/ses-bounce-handler/internal/domain"
)

// Repository defines the data access contract for the account store.
type Repository interface {
	// FindByEmail returns the account with the exact email address.
	// Returns ErrNotFound if no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// SetVerificationToken assigns a token to the account, but only if the
	// stored token is currently empty. Returns true when the write landed
	// and false when another writer got there first (or the account was
	// already flagged). The empty-token guard must be enforced atomically
	// at the store: SNS delivers duplicates, and two deliveries of the
	// same bounce can race.
	SetVerificationToken(ctx context.Context, id, token string) (bool, error)
}
