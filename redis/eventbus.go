package redis

import (
	"context"
	log "log/slog"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/encoding"
)

// EventBus carries completion events across processes over Redis pub/sub: the
// worker publishes as jobs complete, each serving process forwards what it
// receives into its local broadcaster for connected /events subscribers.
// There is no replay; a process that was down misses events, by design.
type EventBus struct {
	conn    *Connection
	channel string
}

func NewEventBus(conn *Connection, channel string) *EventBus {
	return &EventBus{conn: conn, channel: channel}
}

// PublishCompletion implements biaslens.CompletionPublisher.
func (b *EventBus) PublishCompletion(ctx context.Context, event biaslens.CompletionEvent) error {
	ba, err := encoding.DefaultMarshaler.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.conn.Client.Publish(ctx, b.channel, ba).Err(); err != nil {
		return biaslens.NewError(biaslens.QueueUnavailable, err)
	}
	return nil
}

// Forward subscribes to the bus and hands every decoded completion event to
// sink until ctx is canceled. Malformed payloads are logged and skipped.
func (b *EventBus) Forward(ctx context.Context, sink biaslens.CompletionPublisher) error {
	sub := b.conn.Client.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event biaslens.CompletionEvent
			if err := encoding.DefaultMarshaler.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn("dropping malformed completion event", "error", err)
				continue
			}
			if err := sink.PublishCompletion(ctx, event); err != nil {
				log.Warn("forwarding completion event failed", "hash", event.Hash, "error", err)
			}
		}
	}
}
