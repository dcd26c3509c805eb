package retention

import (
	"errors"
	"fmt"
)

// ErrRealmNotFound is returned when an operation names a realm that does not
// exist.
var ErrRealmNotFound = errors.New("realm not found")

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage dialect ("sqlite", "postgres")
	Operation string // Operation that failed ("open", "migrate", "exec", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// StepError identifies the pipeline step that aborted a run. Steps that
// committed before it stay committed.
type StepError struct {
	Pipeline string
	Step     string
	Cause    error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %q failed: %v", e.Pipeline, e.Step, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// NewStepError creates a new StepError.
func NewStepError(pipeline, step string, cause error) *StepError {
	return &StepError{
		Pipeline: pipeline,
		Step:     step,
		Cause:    cause,
	}
}

// BlobError represents a failed blob deletion. The archive row that points
// at the blob is kept so the next run retries it.
type BlobError struct {
	PathID string
	Cause  error
}

// Error implements the error interface.
func (e *BlobError) Error() string {
	return fmt.Sprintf("blob deletion failed [path_id=%s]: %v", e.PathID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *BlobError) Unwrap() error {
	return e.Cause
}

// NewBlobError creates a new BlobError.
func NewBlobError(pathID string, cause error) *BlobError {
	return &BlobError{
		PathID: pathID,
		Cause:  cause,
	}
}
