// AngelaMos | 2026
// broker.go

package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Broker fans events out through a Redis channel so that every instance can
// reach its own sockets. Without Redis, or when a publish fails, the event
// is delivered to the local hub only.
type Broker struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
}

func NewBroker(
	rdb *redis.Client,
	channel string,
	hub *Hub,
	logger *slog.Logger,
) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

// Publish never returns an error: notification is best effort and must not
// fail the operation that produced the event.
func (b *Broker) Publish(ctx context.Context, userID string, event Event) {
	payload, err := json.Marshal(envelope{UserID: userID, Event: event})
	if err != nil {
		b.logger.Error("encode event", "error", err, "type", event.Type)
		return
	}

	if b.rdb != nil && b.channel != "" {
		err := b.rdb.Publish(ctx, b.channel, payload).Err()
		if err == nil {
			return
		}
		b.logger.Warn("publish event failed, delivering locally",
			"error", err,
			"type", event.Type,
		)
	}

	b.deliverLocal(payload)
}

// Run consumes the Redis channel until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) error {
	if b.rdb == nil || b.channel == "" {
		<-ctx.Done()
		return nil
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() {
		_ = sub.Close()
	}()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliverLocal([]byte(msg.Payload))
		}
	}
}

func (b *Broker) deliverLocal(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.logger.Warn("discarding malformed event", "error", err)
		return
	}
	if env.UserID == "" {
		return
	}

	payload, err := json.Marshal(env.Event)
	if err != nil {
		return
	}
	b.hub.Deliver(env.UserID, payload)
}
