package ingest

import "fmt"

// ValidationError indicates a rejected upload: the fault is the caller's and
// no side effects have taken place. Maps to HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError indicates an environment fault while persisting the audio
// asset, the extracted cover or the catalog record. Side effects from earlier
// steps may remain in place; there is no rollback. Maps to HTTP 500.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
