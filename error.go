package biaslens

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	Unknown ErrorCode = iota
	// MalformedClassifierOutput means the classifier returned no usable category
	// in one or both label families.
	MalformedClassifierOutput
	// ClassificationFailed means the classifier call errored or timed out.
	// No job record is persisted when this is reported; the identical submission
	// can be safely retried.
	ClassificationFailed
	// StorageUnavailable means a job store operation failed. Not retried by the
	// job logic; retry policy belongs to the storage backend/infrastructure.
	StorageUnavailable
	// QueueUnavailable means the work queue rejected a publish or receive.
	QueueUnavailable
	// AlreadyCompleted means a completion attempt disagreed with an existing
	// completed value. The original value is preserved.
	AlreadyCompleted
)

// Biaslens custom error.
type Error struct {
	Code     ErrorCode
	Err      error
	UserData any
}

func (e Error) Error() string {
	if e.UserData == nil {
		return fmt.Sprintf("error code: %d, details: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("error code: %d, user data: %v, details: %v", e.Code, e.UserData, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a biaslens error code.
func NewError(code ErrorCode, err error) error {
	return Error{Code: code, Err: err}
}

// IsErrorCode reports whether err carries the given biaslens error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
