package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biaslens/biaslens"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	ctx := context.Background()

	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	event := biaslens.CompletionEvent{Hash: "h1", Bias: biaslens.BiasLeft, Extent: biaslens.ExtentStrong}
	require.NoError(t, b.PublishCompletion(ctx, event))

	assert.Equal(t, event, <-ch1)
	assert.Equal(t, event, <-ch2)

	b.Unsubscribe(id1)
	assert.Equal(t, 1, b.SubscriberCount())
	_, open := <-ch1
	assert.False(t, open)

	// Remaining subscriber still receives.
	require.NoError(t, b.PublishCompletion(ctx, event))
	assert.Equal(t, event, <-ch2)

	b.Unsubscribe(id2)
}

func TestBroadcasterSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ctx := context.Background()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// Overfill the subscriber buffer; publishes must not block.
	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, b.PublishCompletion(ctx, biaslens.CompletionEvent{Hash: "h"}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcasterUnsubscribeUnknownID(t *testing.T) {
	b := NewBroadcaster()
	id, _ := b.Subscribe()
	b.Unsubscribe(id)
	// Second call is a no-op.
	b.Unsubscribe(id)
}
