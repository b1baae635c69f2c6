package inmemory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biaslens/biaslens"
)

func TestJobStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	created, err := store.TryCreatePending(ctx, "k1", "some text", "http://example.com")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.TryCreatePending(ctx, "k1", "some text", "")
	require.NoError(t, err)
	assert.False(t, created)

	rec, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, biaslens.JobPending, rec.Status)
	assert.Equal(t, "some text", rec.SourceText)
	assert.Empty(t, rec.Bias)
	assert.Empty(t, rec.Extent)

	_, found, err = store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJobStoreCompleteIdempotence(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	_, err := store.TryCreatePending(ctx, "k1", "text", "")
	require.NoError(t, err)

	require.NoError(t, store.Complete(ctx, "k1", biaslens.BiasLeft, biaslens.ExtentModerate))
	// Same values again is a no-op.
	require.NoError(t, store.Complete(ctx, "k1", biaslens.BiasLeft, biaslens.ExtentModerate))

	// Conflicting values are rejected and the original result kept.
	err = store.Complete(ctx, "k1", biaslens.BiasRight, biaslens.ExtentMinimal)
	require.Error(t, err)
	assert.True(t, biaslens.IsErrorCode(err, biaslens.AlreadyCompleted))

	rec, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, biaslens.JobCompleted, rec.Status)
	assert.Equal(t, biaslens.BiasLeft, rec.Bias)
	assert.Equal(t, biaslens.ExtentModerate, rec.Extent)
	// Source inputs are dropped once completed.
	assert.Empty(t, rec.SourceText)
}

func TestJobStoreCompleteWithoutPendingRecord(t *testing.T) {
	// The inline strategy writes the record directly in Completed state.
	ctx := context.Background()
	store := NewJobStore()

	require.NoError(t, store.Complete(ctx, "k1", biaslens.BiasNeutral, biaslens.ExtentMinimal))
	rec, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, biaslens.JobCompleted, rec.Status)
}

func TestJobStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	const callers = 32
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := store.TryCreatePending(ctx, "same-key", "text", "")
			require.NoError(t, err)
			if created {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestQueuePublishReceive(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(4, 50*time.Millisecond)

	require.NoError(t, q.Publish(ctx, biaslens.JobMessage{Key: "k1", Text: "body"}))

	msg, received, err := q.Receive(ctx)
	require.NoError(t, err)
	require.True(t, received)
	assert.Equal(t, "k1", msg.Key)
	assert.Equal(t, "body", msg.Text)

	// Empty queue times out without error.
	_, received, err = q.Receive(ctx)
	require.NoError(t, err)
	assert.False(t, received)
}
