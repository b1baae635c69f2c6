package inmemory

import (
	"context"
	"time"

	"github.com/biaslens/biaslens"
)

type queue struct {
	messages   chan biaslens.JobMessage
	popTimeout time.Duration
}

// NewQueue returns a channel-backed work queue implementing both
// biaslens.Queue and biaslens.QueueConsumer, for standalone deployments where
// the worker runs inside the serving process.
func NewQueue(bufferSize int, popTimeout time.Duration) interface {
	biaslens.Queue
	biaslens.QueueConsumer
} {
	return &queue{
		messages:   make(chan biaslens.JobMessage, bufferSize),
		popTimeout: popTimeout,
	}
}

func (q *queue) Publish(ctx context.Context, msg biaslens.JobMessage) error {
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return biaslens.NewError(biaslens.QueueUnavailable, ctx.Err())
	}
}

func (q *queue) Receive(ctx context.Context) (biaslens.JobMessage, bool, error) {
	timer := time.NewTimer(q.popTimeout)
	defer timer.Stop()
	select {
	case msg := <-q.messages:
		return msg, true, nil
	case <-timer.C:
		return biaslens.JobMessage{}, false, nil
	case <-ctx.Done():
		return biaslens.JobMessage{}, false, ctx.Err()
	}
}
