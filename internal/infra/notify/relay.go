package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

// Relay consumes the published domain event stream and fans guest-facing
// notifications out of it. Delivery channels (push, email) hang off the
// log for now; the consumer group offset management makes the relay
// restartable without replaying old notifications.
type Relay struct {
	Logger *slog.Logger
}

// Topics lists the event streams the relay subscribes to, matching the
// topic naming the outbox publisher uses.
func Topics(prefix string) []string {
	return []string{
		prefix + "booking.events.v1",
		prefix + "wallet.events.v1",
	}
}

type envelope struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Data   map[string]any `json:"data"`
}

func (r *Relay) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt envelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// Malformed envelopes are dropped, not retried.
		r.logger().Warn("dropping malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}

	switch evt.Type {
	case "booking.confirmed.v1":
		r.logger().Info("notify: booking confirmed",
			"booking_id", string(msg.Key),
			"event_id", evt.ID,
		)
	case "booking.cancelled.v1":
		r.logger().Info("notify: booking cancelled",
			"booking_id", string(msg.Key),
			"event_id", evt.ID,
		)
	case "booking.payment_failed.v1":
		r.logger().Info("notify: booking payment failed",
			"booking_id", string(msg.Key),
			"event_id", evt.ID,
		)
	case "wallet.points_earned.v1":
		r.logger().Info("notify: reward points earned",
			"user_id", string(msg.Key),
			"event_id", evt.ID,
		)
	default:
		r.logger().Debug("notify: ignoring event", "type", evt.Type, "topic", msg.Topic)
	}
	return nil
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
