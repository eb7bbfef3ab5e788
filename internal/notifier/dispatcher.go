package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StreamDispatcher enqueues purchase-confirmed notifications onto a redis
// stream on a best-effort basis. It is invoked only after the purchase has
// committed: failures are logged and swallowed, and the enqueue is bounded
// by its own timeout so it can never delay the caller's response for long.
type StreamDispatcher struct {
	client  *redis.Client
	stream  string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewStreamDispatcher(client *redis.Client, timeout time.Duration, logger zerolog.Logger) *StreamDispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &StreamDispatcher{
		client:  client,
		stream:  Stream,
		timeout: timeout,
		logger:  logger,
	}
}

// DispatchPurchaseConfirmed publishes the notification. The purchase is
// already durable at this point, so the parent context's cancellation is
// deliberately not inherited; only the dispatcher's own timeout applies.
func (d *StreamDispatcher) DispatchPurchaseConfirmed(ctx context.Context, n PurchaseConfirmed) {
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	payload, err := json.Marshal(n)
	if err != nil {
		d.logger.Error().Err(err).Int64("user_id", n.UserID).Msg("failed to marshal notification")
		return
	}

	err = d.client.XAdd(dispatchCtx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]any{
			"user_id":   n.UserID,
			"type":      TypeTicketPurchase,
			"payload":   string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		d.logger.Warn().Err(err).
			Int64("user_id", n.UserID).
			Str("ticket_number", n.TicketNumber).
			Msg("failed to enqueue purchase notification")
	}
}
