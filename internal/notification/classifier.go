package notification

import (
	"context"

	"github.com/ignite/ses-bounce-handler/internal/domain"
	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
)

// Outcome is the terminal result of classifying one notification.
type Outcome int

const (
	// OutcomeAcknowledged means the notification was valid and needs no
	// further action (Delivery events).
	OutcomeAcknowledged Outcome = iota
	// OutcomeSuppressed means the notification matched the Transient/General
	// false-positive pattern and was deliberately ignored.
	OutcomeSuppressed
	// OutcomeReconciled means the recipient list was handed to the reconciler.
	OutcomeReconciled
	// OutcomeUnknownType means the notificationType is outside the known set.
	OutcomeUnknownType
	// OutcomeMalformed means the inner document could not be parsed.
	OutcomeMalformed
)

// Reconciler applies the bounce side effect to affected accounts.
type Reconciler interface {
	Reconcile(ctx context.Context, reason domain.SuppressionReason, destinations []string)
}

// Classifier decides what a verified notification means and routes
// qualifying bounces and complaints to the reconciler.
type Classifier struct {
	reconciler Reconciler
	log        *logger.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(reconciler Reconciler, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.Default()
	}
	return &Classifier{reconciler: reconciler, log: log}
}

// Classify parses the inner message and applies the decision table.
// Bounce and Complaint are treated identically: both carry recipient lists
// that qualify the affected accounts for re-verification.
func (c *Classifier) Classify(ctx context.Context, rawMessage string) Outcome {
	n, err := Parse(rawMessage)
	if err != nil {
		c.log.Warn("notification payload is not valid JSON", "error", err.Error())
		return OutcomeMalformed
	}

	switch n.NotificationType {
	case TypeBounce, TypeComplaint:
		if n.isTransientGeneral() {
			// gmx and some autoresponders emit Transient/General for mail
			// that was actually accepted, so this pattern is ignored.
			c.log.Debug("ignoring Transient/General bounce",
				"message_id", n.Mail.MessageID,
				"destinations", len(n.Mail.Destination))
			return OutcomeSuppressed
		}

		reason := domain.ReasonBounce
		if n.NotificationType == TypeComplaint {
			reason = domain.ReasonComplaint
		}
		c.reconciler.Reconcile(ctx, reason, n.Mail.Destination)
		return OutcomeReconciled

	case TypeDelivery:
		// Delivery confirmations are not tracked.
		return OutcomeAcknowledged

	default:
		c.log.Warn("unknown notificationType in message",
			"notification_type", n.NotificationType,
			"message_id", n.Mail.MessageID)
		return OutcomeUnknownType
	}
}
