// Package worker implements the out-of-band consumer for the queued dispatch
// strategy: receive a job message, classify it, commit the result, and
// announce the completion. Queue delivery is at-least-once; the idempotent
// Complete makes redundant deliveries harmless.
package worker

import (
	"context"
	"fmt"
	log "log/slog"

	retry "github.com/sethvargo/go-retry"

	"github.com/biaslens/biaslens"
)

// Worker drains the work queue with a bounded pool of classification tasks.
type Worker struct {
	consumer    biaslens.QueueConsumer
	classifier  biaslens.Classifier
	store       biaslens.JobStore
	completions biaslens.CompletionPublisher
	concurrency int
}

func New(consumer biaslens.QueueConsumer, classifier biaslens.Classifier, store biaslens.JobStore, completions biaslens.CompletionPublisher, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Worker{
		consumer:    consumer,
		classifier:  classifier,
		store:       store,
		completions: completions,
		concurrency: concurrency,
	}
}

// Run consumes until ctx is canceled, then waits for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	tr := biaslens.NewTaskRunner(ctx, w.concurrency)
	for {
		msg, received, err := w.consumer.Receive(ctx)
		if ctx.Err() != nil {
			tr.Wait()
			return ctx.Err()
		}
		if err != nil {
			log.Warn("receiving from work queue failed", "error", err)
			continue
		}
		if !received {
			continue
		}
		job := msg
		tr.Go(func() error {
			w.process(ctx, job)
			// Job failures are logged, not fatal to the pool.
			return nil
		})
	}
}

// process classifies one delivery. A job that cannot be classified stays
// Pending; there is no failed terminal state.
func (w *Worker) process(ctx context.Context, msg biaslens.JobMessage) {
	var categories []biaslens.ClassificationCategory
	err := biaslens.Retry(ctx, func(ctx context.Context) error {
		var cerr error
		categories, cerr = w.classifier.Classify(ctx, msg.Text)
		if cerr != nil && biaslens.ShouldRetry(cerr) {
			return retry.RetryableError(cerr)
		}
		return cerr
	}, nil)
	if err != nil {
		log.Error("classifying queued job failed, leaving it pending", "hash", msg.Key, "error", err)
		return
	}

	bias, extent, err := biaslens.ResolveCategories(categories)
	if err != nil {
		log.Error("classifier output unusable, leaving job pending", "hash", msg.Key, "error", err)
		return
	}

	err = biaslens.Retry(ctx, func(ctx context.Context) error {
		cerr := w.store.Complete(ctx, msg.Key, bias, extent)
		if cerr != nil && biaslens.ShouldRetry(cerr) {
			return retry.RetryableError(cerr)
		}
		return cerr
	}, nil)
	if err != nil {
		if biaslens.IsErrorCode(err, biaslens.AlreadyCompleted) {
			// Correctness alarm: a duplicate delivery produced a different
			// result than the committed one. The original value stands.
			log.Error("completion conflict", "hash", msg.Key, "error",
				fmt.Errorf("conflicting completion for already published result: %w", err))
		} else {
			log.Error("committing classification failed, leaving job pending", "hash", msg.Key, "error", err)
		}
		return
	}

	if w.completions != nil {
		if err := w.completions.PublishCompletion(ctx, biaslens.CompletionEvent{
			Hash:   msg.Key,
			Bias:   bias,
			Extent: extent,
		}); err != nil {
			log.Warn("publishing completion event failed", "hash", msg.Key, "error", err)
		}
	}
	log.Info("job completed", "hash", msg.Key, "bias", bias, "extent", extent)
}
