package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/events"
)

// Retrieval serves the poll and stream sides of the queued strategy.
type Retrieval struct {
	store       biaslens.JobStore
	broadcaster *events.Broadcaster
}

func NewRetrieval(store biaslens.JobStore, broadcaster *events.Broadcaster) *Retrieval {
	return &Retrieval{store: store, broadcaster: broadcaster}
}

// Poll returns the record for key only once it is completed. A pending job
// and an unknown key both report found=false: job keys are caller-computable,
// so callers already know whether they are polling a key they submitted.
func (r *Retrieval) Poll(ctx context.Context, key string) (biaslens.JobRecord, bool, error) {
	rec, found, err := r.store.Get(ctx, key)
	if err != nil {
		return biaslens.JobRecord{}, false, err
	}
	if !found || rec.Status != biaslens.JobCompleted {
		return biaslens.JobRecord{}, false, nil
	}
	return rec, true, nil
}

// Subscribe registers a completion event listener.
func (r *Retrieval) Subscribe() (uuid.UUID, <-chan biaslens.CompletionEvent) {
	return r.broadcaster.Subscribe()
}

// Unsubscribe drops the listener registered under id.
func (r *Retrieval) Unsubscribe(id uuid.UUID) {
	r.broadcaster.Unsubscribe(id)
}
