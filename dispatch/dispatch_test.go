package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/inmemory"
)

type fakeClassifier struct {
	categories []biaslens.ClassificationCategory
	err        error
	delay      time.Duration
	calls      int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) ([]biaslens.ClassificationCategory, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, biaslens.NewError(biaslens.ClassificationFailed, ctx.Err())
		}
	}
	return f.categories, f.err
}

func TestInlineDispatch(t *testing.T) {
	t.Run("classifies and resolves", func(t *testing.T) {
		c := &fakeClassifier{categories: []biaslens.ClassificationCategory{
			{Name: "right", Confidence: 0.9},
			{Name: "strong", Confidence: 0.8},
		}}
		d := NewInline(c, time.Second)

		res, err := d.Dispatch(context.Background(), biaslens.Job{Key: "k", Text: "t"})
		require.NoError(t, err)
		assert.False(t, res.Processing)
		assert.Equal(t, biaslens.BiasRight, res.Bias)
		assert.Equal(t, biaslens.ExtentStrong, res.Extent)
	})

	t.Run("classifier error surfaces as ClassificationFailed", func(t *testing.T) {
		c := &fakeClassifier{err: errors.New("boom")}
		d := NewInline(c, time.Second)

		_, err := d.Dispatch(context.Background(), biaslens.Job{Key: "k", Text: "t"})
		require.Error(t, err)
		assert.True(t, biaslens.IsErrorCode(err, biaslens.ClassificationFailed))
	})

	t.Run("timeout surfaces as ClassificationFailed", func(t *testing.T) {
		c := &fakeClassifier{delay: 500 * time.Millisecond, categories: []biaslens.ClassificationCategory{
			{Name: "left", Confidence: 0.5},
			{Name: "minimal", Confidence: 0.5},
		}}
		d := NewInline(c, 20*time.Millisecond)

		_, err := d.Dispatch(context.Background(), biaslens.Job{Key: "k", Text: "t"})
		require.Error(t, err)
		assert.True(t, biaslens.IsErrorCode(err, biaslens.ClassificationFailed))
	})

	t.Run("malformed output keeps its own code", func(t *testing.T) {
		c := &fakeClassifier{categories: []biaslens.ClassificationCategory{
			{Name: "left", Confidence: 0.5},
		}}
		d := NewInline(c, time.Second)

		_, err := d.Dispatch(context.Background(), biaslens.Job{Key: "k", Text: "t"})
		require.Error(t, err)
		assert.True(t, biaslens.IsErrorCode(err, biaslens.MalformedClassifierOutput))
	})
}

func TestQueuedDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending then enqueues", func(t *testing.T) {
		store := inmemory.NewJobStore()
		queue := inmemory.NewQueue(4, 50*time.Millisecond)
		d := NewQueued(store, queue)

		res, err := d.Dispatch(ctx, biaslens.Job{Key: "k1", Text: "effective", SourceText: "original", SourceURL: "http://u"})
		require.NoError(t, err)
		assert.True(t, res.Processing)

		rec, found, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, biaslens.JobPending, rec.Status)
		assert.Equal(t, "original", rec.SourceText)
		assert.Equal(t, "http://u", rec.SourceURL)

		msg, received, err := queue.Receive(ctx)
		require.NoError(t, err)
		require.True(t, received)
		assert.Equal(t, biaslens.JobMessage{Key: "k1", Text: "effective"}, msg)
	})

	t.Run("lost creation race enqueues nothing", func(t *testing.T) {
		store := inmemory.NewJobStore()
		queue := inmemory.NewQueue(4, 50*time.Millisecond)
		d := NewQueued(store, queue)

		_, err := store.TryCreatePending(ctx, "k1", "text", "")
		require.NoError(t, err)

		res, err := d.Dispatch(ctx, biaslens.Job{Key: "k1", Text: "text"})
		require.NoError(t, err)
		assert.True(t, res.Raced)
		assert.False(t, res.Processing)

		_, received, err := queue.Receive(ctx)
		require.NoError(t, err)
		assert.False(t, received)
	})
}
