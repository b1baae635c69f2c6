// Package service orchestrates submissions and retrievals over the job store,
// dispatch strategy, and completion broadcaster.
package service

import (
	"context"
	log "log/slog"

	"github.com/biaslens/biaslens"
)

// SubmitRequest carries one caller submission: the caller-generated content
// identity, the text, and an optional URL whose extracted article text
// supersedes the given text when the fetch succeeds.
type SubmitRequest struct {
	ID   string
	Text string
	URL  string
}

// SubmissionResult is the outcome of a submission: either the classification
// (available now or cached), or a processing acknowledgment carrying the job
// hash to poll.
type SubmissionResult struct {
	Processing bool
	Hash       string
	Bias       biaslens.Bias
	Extent     biaslens.Extent
}

// Submission computes job identity, consults the store, and dispatches work
// that has not been seen before. All collaborators are injected; the service
// holds no state of its own beyond them.
type Submission struct {
	store       biaslens.JobStore
	dispatcher  biaslens.Dispatcher
	extractor   biaslens.Extractor
	completions biaslens.CompletionPublisher
}

// NewSubmission wires a submission service. extractor may be nil when URL
// extraction is not deployed; completions may be nil when no event feed is
// served from this process.
func NewSubmission(store biaslens.JobStore, dispatcher biaslens.Dispatcher, extractor biaslens.Extractor, completions biaslens.CompletionPublisher) *Submission {
	return &Submission{
		store:       store,
		dispatcher:  dispatcher,
		extractor:   extractor,
		completions: completions,
	}
}

// Submit processes one submission. Repeated submissions of identical content
// are answered from the store; concurrent identical submissions dispatch at
// most once.
func (s *Submission) Submit(ctx context.Context, req SubmitRequest) (SubmissionResult, error) {
	text := s.effectiveText(ctx, req)
	key := biaslens.ComputeJobKey(req.ID, text)

	// Cache check first; completed and in-flight jobs never dispatch again.
	if res, answered, err := s.answerFromStore(ctx, key); answered || err != nil {
		return res, err
	}

	dres, err := s.dispatcher.Dispatch(ctx, biaslens.Job{
		Key:        key,
		Text:       text,
		SourceText: req.Text,
		SourceURL:  req.URL,
	})
	if err != nil {
		return SubmissionResult{}, err
	}
	if dres.Raced {
		// Another submission created the record between our read and the
		// dispatcher's conditional create; answer from whatever it left.
		if res, answered, err := s.answerFromStore(ctx, key); answered || err != nil {
			return res, err
		}
		return SubmissionResult{Processing: true, Hash: key}, nil
	}
	if dres.Processing {
		return SubmissionResult{Processing: true, Hash: key}, nil
	}

	// Inline strategy: commit the result. The record is written directly in
	// completed state; there was never a pending phase for this key.
	if err := s.store.Complete(ctx, key, dres.Bias, dres.Extent); err != nil {
		return SubmissionResult{}, err
	}
	if s.completions != nil {
		if err := s.completions.PublishCompletion(ctx, biaslens.CompletionEvent{
			Hash:   key,
			Bias:   dres.Bias,
			Extent: dres.Extent,
		}); err != nil {
			log.Warn("publishing completion event failed", "hash", key, "error", err)
		}
	}
	return SubmissionResult{Hash: key, Bias: dres.Bias, Extent: dres.Extent}, nil
}

// answerFromStore reports answered=true when the store already has a record
// for key, completed or pending.
func (s *Submission) answerFromStore(ctx context.Context, key string) (SubmissionResult, bool, error) {
	rec, found, err := s.store.Get(ctx, key)
	if err != nil {
		return SubmissionResult{}, false, err
	}
	if !found {
		return SubmissionResult{}, false, nil
	}
	if rec.Status == biaslens.JobCompleted {
		return SubmissionResult{Hash: key, Bias: rec.Bias, Extent: rec.Extent}, true, nil
	}
	return SubmissionResult{Processing: true, Hash: key}, true, nil
}

// effectiveText resolves what actually gets classified: extracted article
// text when a URL is given and the fetch succeeds, the submitted text
// otherwise. Fetch failure is not an error for a submission.
func (s *Submission) effectiveText(ctx context.Context, req SubmitRequest) string {
	if req.URL == "" || s.extractor == nil {
		return req.Text
	}
	text, err := s.extractor.Extract(ctx, req.URL)
	if err != nil || text == "" {
		log.Debug("article extraction failed, using submitted text", "url", req.URL, "error", err)
		return req.Text
	}
	return text
}
