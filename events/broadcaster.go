// Package events implements the in-process fan-out feeding the /events
// stream. Completions observed by this process (inline classifications, or
// events forwarded off the Redis bus) are pushed to every subscriber.
package events

import (
	"context"
	log "log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/biaslens/biaslens"
)

const subscriberBuffer = 16

// Broadcaster fans completion events out to any number of concurrent
// subscribers. Delivery is per-subscriber in the order this process observed
// the completions. A subscriber that cannot keep up has events dropped rather
// than slowing everyone else; there is no replay.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]chan biaslens.CompletionEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[uuid.UUID]chan biaslens.CompletionEvent),
	}
}

// Subscribe registers a new listener and returns its ID and event channel.
// Call Unsubscribe with the ID when the listener's connection closes.
func (b *Broadcaster) Subscribe() (uuid.UUID, <-chan biaslens.CompletionEvent) {
	id := uuid.New()
	ch := make(chan biaslens.CompletionEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the listener and closes its channel.
func (b *Broadcaster) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	ch, found := b.subs[id]
	if found {
		delete(b.subs, id)
	}
	b.mu.Unlock()
	if found {
		close(ch)
	}
}

// SubscriberCount returns the number of registered listeners.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// PublishCompletion implements biaslens.CompletionPublisher. Never blocks.
func (b *Broadcaster) PublishCompletion(ctx context.Context, event biaslens.CompletionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Warn("subscriber too slow, dropping completion event", "subscriber", id, "hash", event.Hash)
		}
	}
	return nil
}
