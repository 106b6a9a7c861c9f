package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignite/ses-bounce-handler/internal/domain"
	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
)

// Suppressor pushes an address onto the provider-level suppression list.
// Implementations must be non-blocking failures: an error is logged by the
// caller and never propagated to the webhook response.
type Suppressor interface {
	Suppress(ctx context.Context, reason domain.SuppressionReason, email string) error
}

// Service reconciles bounce and complaint recipients against the account
// store. It never fails the enclosing request: once a notification has been
// authenticated and classified, the provider gets an acknowledgment no
// matter how many individual lookups or writes were no-ops. Returning an
// error would only make SNS retry-storm a message that cannot succeed
// differently.
type Service struct {
	repo       Repository
	suppressor Suppressor
	log        *logger.Logger
}

// NewService creates a reconciliation service. suppressor may be nil, in
// which case provider-level suppression sync is skipped.
func NewService(repo Repository, suppressor Suppressor, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{repo: repo, suppressor: suppressor, log: log}
}

// Reconcile processes each destination address in order. Duplicate
// occurrences are processed independently; the empty-token guard makes the
// repeats harmless, and the redundant lookups are cheaper than surprising
// anyone with reordered side effects.
func (s *Service) Reconcile(ctx context.Context, reason domain.SuppressionReason, destinations []string) {
	for _, email := range destinations {
		s.reconcileOne(ctx, reason, email)
	}
}

func (s *Service) reconcileOne(ctx context.Context, reason domain.SuppressionReason, email string) {
	acct, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Not every recipient is an account holder. Expected, no log.
		return
	}
	if err != nil {
		s.log.Error("account lookup failed", "email", email, "error", err.Error())
		return
	}

	if !acct.NeedsVerification() {
		// Already flagged. Do not regenerate or overwrite the token.
		return
	}

	token := uuid.New().String()
	set, err := s.repo.SetVerificationToken(ctx, acct.ID, token)
	if err != nil {
		s.log.Error("verification token write failed",
			"account_id", acct.ID, "email", email, "error", err.Error())
		return
	}
	if !set {
		// Lost the race to a duplicate delivery. The token is in place.
		return
	}

	s.log.Debug("set new verification token for account",
		"account_id", acct.ID, "email", email, "reason", string(reason))

	if s.suppressor != nil {
		if err := s.suppressor.Suppress(ctx, reason, email); err != nil {
			s.log.Warn("suppression sync failed",
				"email", email, "reason", string(reason), "error", err.Error())
		}
	}
}
