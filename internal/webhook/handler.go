// Package webhook exposes the single inbound HTTP endpoint that receives
// SNS delivery-status envelopes and dispatches them by type.
package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/ignite/ses-bounce-handler/internal/notification"
	"github.com/ignite/ses-bounce-handler/internal/pkg/httputil"
	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
	"github.com/ignite/ses-bounce-handler/internal/sns"
)

// maxBodySize caps inbound payloads. SNS messages are limited to 256KB;
// anything larger is not an SNS message.
const maxBodySize = 512 * 1024

// Verifier authenticates an envelope before any field is trusted.
type Verifier interface {
	Verify(ctx context.Context, env *sns.Envelope) bool
}

// Classifier handles the inner document of a verified Notification.
type Classifier interface {
	Classify(ctx context.Context, rawMessage string) notification.Outcome
}

// DedupeGuard reports whether an envelope was already processed.
type DedupeGuard interface {
	Seen(ctx context.Context, messageID string) bool
}

// Fetcher executes the subscription-confirmation GET.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handler is the envelope dispatcher. Each request runs one of a closed
// set of terminal outcomes; unknown envelope types are never silently
// swallowed because they may signal an upstream protocol change.
type Handler struct {
	verifier   Verifier
	classifier Classifier
	dedupe     DedupeGuard
	confirm    Fetcher
	topicArn   string
	log        *logger.Logger
}

// NewHandler creates the webhook handler. topicArn, when non-empty,
// restricts processing to envelopes published on that topic. dedupe may
// be nil.
func NewHandler(verifier Verifier, classifier Classifier, dedupe DedupeGuard, confirm Fetcher, topicArn string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		verifier:   verifier,
		classifier: classifier,
		dedupe:     dedupe,
		confirm:    confirm,
		topicArn:   topicArn,
		log:        log,
	}
}

// HandleSES processes one inbound SNS envelope.
func (h *Handler) HandleSES(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		httputil.BadRequest(w, "failed to read body")
		return
	}

	env, err := sns.Parse(body)
	if err != nil {
		h.log.Warn("envelope is not valid JSON", "error", err.Error())
		httputil.BadRequest(w, "invalid JSON")
		return
	}

	h.log.Info("envelope received",
		"message_id", env.MessageID, "type", env.Type, "topic_arn", env.TopicArn)

	if !h.verifier.Verify(r.Context(), env) {
		// Verify has already logged the reason.
		httputil.BadRequest(w, "message could not be validated")
		return
	}

	if h.topicArn != "" && env.TopicArn != h.topicArn {
		h.log.Warn("envelope from unexpected topic",
			"message_id", env.MessageID, "topic_arn", env.TopicArn)
		httputil.BadRequest(w, "unexpected topic")
		return
	}

	switch env.Type {
	case sns.TypeSubscriptionConfirmation:
		h.confirmSubscription(r.Context(), env)
		httputil.OK(w)

	case sns.TypeNotification:
		if h.dedupe != nil && h.dedupe.Seen(r.Context(), env.MessageID) {
			h.log.Debug("duplicate delivery, already processed",
				"message_id", env.MessageID)
			httputil.OK(w)
			return
		}
		h.dispatchNotification(w, r, env)

	default:
		h.log.Warn("no handler for message type",
			"message_id", env.MessageID, "type", env.Type)
		httputil.NotFound(w, "no handler found for message type")
	}
}

// confirmSubscription performs the one-time handshake GET. The action is
// idempotent and low-risk, so the target's response never affects ours:
// SNS re-sends the confirmation if the handshake did not complete.
func (h *Handler) confirmSubscription(ctx context.Context, env *sns.Envelope) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.SubscribeURL, nil)
	if err != nil {
		h.log.Warn("bad subscribe URL",
			"message_id", env.MessageID, "error", err.Error())
		return
	}

	resp, err := h.confirm.Do(req)
	if err != nil {
		h.log.Warn("subscription confirmation fetch failed",
			"message_id", env.MessageID, "error", err.Error())
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	h.log.Info("subscription confirmed",
		"topic_arn", env.TopicArn, "status", resp.StatusCode)
}

func (h *Handler) dispatchNotification(w http.ResponseWriter, r *http.Request, env *sns.Envelope) {
	switch h.classifier.Classify(r.Context(), env.Message) {
	case notification.OutcomeAcknowledged, notification.OutcomeSuppressed, notification.OutcomeReconciled:
		httputil.OK(w)
	case notification.OutcomeUnknownType:
		httputil.NotFound(w, "unknown notificationType")
	case notification.OutcomeMalformed:
		httputil.BadRequest(w, "notification could not be parsed")
	default:
		httputil.NotFound(w, "unknown")
	}
}
