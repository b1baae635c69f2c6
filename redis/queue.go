package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/encoding"
)

// Queue is a Redis list-backed work queue. Producers LPUSH job messages and
// the worker BRPOPs them, giving at-least-once handoff between the serving
// process and the out-of-band classification worker.
type Queue struct {
	conn       *Connection
	name       string
	popTimeout time.Duration
}

// NewQueue returns a queue over the named Redis list. popTimeout bounds each
// blocking receive so consumers can observe context cancellation.
func NewQueue(conn *Connection, name string, popTimeout time.Duration) *Queue {
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	return &Queue{conn: conn, name: name, popTimeout: popTimeout}
}

func (q *Queue) Publish(ctx context.Context, msg biaslens.JobMessage) error {
	ba, err := encoding.DefaultMarshaler.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.conn.Client.LPush(ctx, q.name, ba).Err(); err != nil {
		return biaslens.NewError(biaslens.QueueUnavailable, err)
	}
	return nil
}

func (q *Queue) Receive(ctx context.Context) (biaslens.JobMessage, bool, error) {
	res, err := q.conn.Client.BRPop(ctx, q.popTimeout, q.name).Result()
	if err == redis.Nil {
		return biaslens.JobMessage{}, false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return biaslens.JobMessage{}, false, ctx.Err()
		}
		return biaslens.JobMessage{}, false, biaslens.NewError(biaslens.QueueUnavailable, err)
	}
	// BRPOP returns [list name, value].
	var msg biaslens.JobMessage
	if err := encoding.DefaultMarshaler.Unmarshal([]byte(res[1]), &msg); err != nil {
		return biaslens.JobMessage{}, false, err
	}
	return msg, true, nil
}
