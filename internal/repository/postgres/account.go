package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/ses-bounce-handler/internal/account"
	"github.com/ignite/ses-bounce-handler/internal/domain"
)

// AccountRepo implements account.Repository against PostgreSQL.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo creates a Postgres-backed account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var a domain.Account
	var token sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, verification_token, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &token, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	a.VerificationToken = token.String
	return &a, nil
}

// SetVerificationToken is a conditional write: the WHERE clause only
// matches while the stored token is empty, so concurrent writers for the
// same account cannot overwrite each other. RowsAffected tells the caller
// whether this writer won.
func (r *AccountRepo) SetVerificationToken(ctx context.Context, id, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET verification_token = $2, updated_at = NOW()
		WHERE id = $1 AND (verification_token IS NULL OR verification_token = '')
	`, id, token)
	if err != nil {
		return false, fmt.Errorf("set verification token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set verification token: %w", err)
	}
	return n > 0, nil
}
