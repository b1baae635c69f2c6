// Package dispatch implements the two deployment-time strategies for getting
// a job classified: inline (classify now, block until done) and queued (hand
// the job to the work queue for the out-of-band worker).
package dispatch

import (
	"context"
	"time"

	"github.com/biaslens/biaslens"
)

// Inline calls the classifier synchronously and resolves the label pair. It
// never touches the job store; the submission service commits the result, so
// a failed classification leaves no record behind and the identical
// submission can be retried.
type Inline struct {
	classifier biaslens.Classifier
	timeout    time.Duration
}

func NewInline(classifier biaslens.Classifier, timeout time.Duration) *Inline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Inline{classifier: classifier, timeout: timeout}
}

func (d *Inline) Dispatch(ctx context.Context, job biaslens.Job) (biaslens.DispatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	categories, err := d.classifier.Classify(ctx, job.Text)
	if err != nil {
		if biaslens.IsErrorCode(err, biaslens.ClassificationFailed) {
			return biaslens.DispatchResult{}, err
		}
		return biaslens.DispatchResult{}, biaslens.NewError(biaslens.ClassificationFailed, err)
	}
	bias, extent, err := biaslens.ResolveCategories(categories)
	if err != nil {
		return biaslens.DispatchResult{}, err
	}
	return biaslens.DispatchResult{Bias: bias, Extent: extent}, nil
}

// Queued records a Pending job and publishes it to the work queue. The create
// happens before the enqueue so the worker always finds a Pending record to
// complete; losing the creation race reports Raced and publishes nothing,
// keeping the enqueue count at one per distinct key.
type Queued struct {
	store biaslens.JobStore
	queue biaslens.Queue
}

func NewQueued(store biaslens.JobStore, queue biaslens.Queue) *Queued {
	return &Queued{store: store, queue: queue}
}

func (d *Queued) Dispatch(ctx context.Context, job biaslens.Job) (biaslens.DispatchResult, error) {
	created, err := d.store.TryCreatePending(ctx, job.Key, job.SourceText, job.SourceURL)
	if err != nil {
		return biaslens.DispatchResult{}, err
	}
	if !created {
		return biaslens.DispatchResult{Raced: true}, nil
	}
	if err := d.queue.Publish(ctx, biaslens.JobMessage{Key: job.Key, Text: job.Text}); err != nil {
		return biaslens.DispatchResult{}, err
	}
	return biaslens.DispatchResult{Processing: true}, nil
}
