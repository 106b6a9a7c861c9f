// Package dedupe guards against duplicate SNS deliveries.
//
// SNS is at-least-once: the same notification can arrive more than once,
// and two deliveries can land close together. Reconciliation is idempotent
// on its own, so the guard is an optimization, not a correctness
// requirement — a disabled or unreachable Redis degrades to processing
// every delivery.
package dedupe

import (
	"context"
	"time"

	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Guard records which envelope MessageIds have already been processed.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewGuard creates a Guard. A nil client disables deduplication entirely:
// Seen always reports false.
func NewGuard(client *redis.Client, ttl time.Duration, log *logger.Logger) *Guard {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = logger.Default()
	}
	return &Guard{client: client, ttl: ttl, log: log}
}

// Seen atomically marks messageID as processed and reports whether it had
// been marked before. SET NX EX makes the mark-and-check a single round
// trip. Redis errors are logged and treated as "not seen" so that an
// outage never drops notifications.
func (g *Guard) Seen(ctx context.Context, messageID string) bool {
	if g.client == nil || messageID == "" {
		return false
	}

	set, err := g.client.SetNX(ctx, "sns:seen:"+messageID, 1, g.ttl).Result()
	if err != nil {
		g.log.Warn("dedupe check failed, processing anyway",
			"message_id", messageID, "error", err.Error())
		return false
	}
	return !set
}
