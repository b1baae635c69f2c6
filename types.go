package biaslens

import (
	"context"
	"encoding/json"
	"fmt"
)

// Bias is the directional classification label of a piece of text.
type Bias string

const (
	BiasLeft    Bias = "left"
	BiasRight   Bias = "right"
	BiasNeutral Bias = "neutral"
)

// Extent is the intensity classification label of a piece of text.
type Extent string

const (
	ExtentMinimal  Extent = "minimal"
	ExtentModerate Extent = "moderate"
	ExtentStrong   Extent = "strong"
	ExtentExtreme  Extent = "extreme"
)

// IsValidBias reports whether name is one of the fixed bias vocabulary values.
func IsValidBias(name string) bool {
	switch Bias(name) {
	case BiasLeft, BiasRight, BiasNeutral:
		return true
	}
	return false
}

// IsValidExtent reports whether name is one of the fixed extent vocabulary values.
func IsValidExtent(name string) bool {
	switch Extent(name) {
	case ExtentMinimal, ExtentModerate, ExtentStrong, ExtentExtreme:
		return true
	}
	return false
}

// UnmarshalJSON rejects values outside the fixed bias vocabulary. The empty
// string is allowed so optional fields can round-trip.
func (b *Bias) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" && !IsValidBias(s) {
		return fmt.Errorf("invalid bias value: %q", s)
	}
	*b = Bias(s)
	return nil
}

// UnmarshalJSON rejects values outside the fixed extent vocabulary. The empty
// string is allowed so optional fields can round-trip.
func (e *Extent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" && !IsValidExtent(s) {
		return fmt.Errorf("invalid extent value: %q", s)
	}
	*e = Extent(s)
	return nil
}

// ClassificationCategory is a single labeled confidence score returned by the
// external classifier. Confidence is in [0,1].
type ClassificationCategory struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// JobStatus is the lifecycle state of a job record. Two states only; a queued
// job the worker never finishes stays Pending.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
)

// JobRecord is the persisted unit of work, keyed by its content-addressed job
// hash. Bias and Extent are empty while Pending and set as a pair, atomically,
// when the record transitions to Completed.
type JobRecord struct {
	Key        string    `json:"hash"`
	Status     JobStatus `json:"status"`
	SourceText string    `json:"source_text,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	Bias       Bias      `json:"bias,omitempty"`
	Extent     Extent    `json:"extent,omitempty"`
}

// JobStore is the single source of truth for job records. Implementations must
// be safe for unbounded concurrent readers and writers, with per-key atomicity.
type JobStore interface {
	// TryCreatePending atomically inserts a Pending record iff none exists for
	// key, and reports whether insertion occurred. Exactly one of any set of
	// concurrent callers racing on the same key observes true.
	TryCreatePending(ctx context.Context, key string, sourceText string, sourceURL string) (bool, error)
	// Get returns the record for key, or found=false when the key is unknown.
	Get(ctx context.Context, key string) (JobRecord, bool, error)
	// Complete commits the classification result for key. It creates the record
	// directly in Completed state when absent, transitions a Pending record, and
	// is idempotent when called again with equal values. A completion attempt
	// that disagrees with an existing completed value fails with the
	// AlreadyCompleted code and leaves the original values intact.
	Complete(ctx context.Context, key string, bias Bias, extent Extent) error
}

// JobMessage is the unit handed to the work queue by the queued dispatch
// strategy and consumed by the out-of-band worker.
type JobMessage struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Queue publishes job messages for out-of-band classification. Delivery is
// at-least-once; consumers must tolerate duplicates.
type Queue interface {
	Publish(ctx context.Context, msg JobMessage) error
}

// QueueConsumer receives job messages. received=false with a nil error means
// the blocking receive timed out with nothing available; callers loop.
type QueueConsumer interface {
	Receive(ctx context.Context) (msg JobMessage, received bool, err error)
}

// Classifier is the external classification engine: given text, a flat set of
// labeled confidence scores covering both label families. May fail or time out.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]ClassificationCategory, error)
}

// Extractor fetches a URL and returns best-effort plain text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Job carries the inputs of one submission into a dispatch strategy.
type Job struct {
	Key        string
	Text       string
	SourceText string
	SourceURL  string
}

// DispatchResult is the outcome of handing a job to a Dispatcher.
type DispatchResult struct {
	// Processing is true when the job was handed to the work queue and the
	// result will become available out of band.
	Processing bool
	// Raced is true when a concurrent submission created the record first;
	// the caller should re-read the store and answer from it.
	Raced bool
	// Bias and Extent are set when the strategy classified inline.
	Bias   Bias
	Extent Extent
}

// Dispatcher is the strategy for getting a job classified, selected at
// deployment time. The inline strategy classifies now and returns the labels;
// the queued strategy records a Pending job, enqueues it, and returns
// immediately with Processing set.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) (DispatchResult, error)
}

// CompletionEvent is emitted when a queued job's result becomes available.
type CompletionEvent struct {
	Hash   string `json:"hash"`
	Bias   Bias   `json:"bias"`
	Extent Extent `json:"extent"`
}

// CompletionPublisher notifies listeners that a job completed. Best effort;
// there is no replay for subscribers that were not connected.
type CompletionPublisher interface {
	PublishCompletion(ctx context.Context, event CompletionEvent) error
}
