package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/events"
	"github.com/biaslens/biaslens/inmemory"
)

type staticClassifier struct {
	calls      int32
	categories []biaslens.ClassificationCategory
}

func (c *staticClassifier) Classify(ctx context.Context, text string) ([]biaslens.ClassificationCategory, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.categories, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWorkerCompletesQueuedJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := inmemory.NewJobStore()
	queue := inmemory.NewQueue(8, 20*time.Millisecond)
	broadcaster := events.NewBroadcaster()
	classifier := &staticClassifier{categories: []biaslens.ClassificationCategory{
		{Name: "neutral", Confidence: 0.9},
		{Name: "minimal", Confidence: 0.7},
	}}

	key := biaslens.ComputeJobKey("u1", "sample")
	created, err := store.TryCreatePending(ctx, key, "sample", "")
	require.NoError(t, err)
	require.True(t, created)

	_, eventCh := broadcaster.Subscribe()

	w := New(queue, classifier, store, broadcaster, 2)
	go w.Run(ctx)

	require.NoError(t, queue.Publish(ctx, biaslens.JobMessage{Key: key, Text: "sample"}))

	waitFor(t, 2*time.Second, func() bool {
		rec, found, err := store.Get(ctx, key)
		return err == nil && found && rec.Status == biaslens.JobCompleted
	})

	rec, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, biaslens.BiasNeutral, rec.Bias)
	assert.Equal(t, biaslens.ExtentMinimal, rec.Extent)

	event := <-eventCh
	assert.Equal(t, key, event.Hash)
	assert.Equal(t, biaslens.BiasNeutral, event.Bias)
	assert.Equal(t, biaslens.ExtentMinimal, event.Extent)
}

func TestWorkerToleratesDuplicateDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := inmemory.NewJobStore()
	queue := inmemory.NewQueue(8, 20*time.Millisecond)
	classifier := &staticClassifier{categories: []biaslens.ClassificationCategory{
		{Name: "left", Confidence: 0.8},
		{Name: "strong", Confidence: 0.6},
	}}

	key := biaslens.ComputeJobKey("u1", "dup")
	_, err := store.TryCreatePending(ctx, key, "dup", "")
	require.NoError(t, err)

	w := New(queue, classifier, store, nil, 1)
	go w.Run(ctx)

	// At-least-once delivery: the same message lands twice.
	require.NoError(t, queue.Publish(ctx, biaslens.JobMessage{Key: key, Text: "dup"}))
	require.NoError(t, queue.Publish(ctx, biaslens.JobMessage{Key: key, Text: "dup"}))

	waitFor(t, 2*time.Second, func() bool {
		return atomic.LoadInt32(&classifier.calls) >= 2
	})

	rec, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, biaslens.JobCompleted, rec.Status)
	assert.Equal(t, biaslens.BiasLeft, rec.Bias)
	assert.Equal(t, biaslens.ExtentStrong, rec.Extent)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := inmemory.NewJobStore()
	queue := inmemory.NewQueue(1, 10*time.Millisecond)

	w := New(queue, &staticClassifier{}, store, nil, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
