package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any adapter runs when the request is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllSourcesFailed is returned when no adapter produced a usable result.
	ErrAllSourcesFailed = errors.New("all weather sources failed")

	// ErrDisabled marks an adapter that is not configured (e.g. missing API key).
	ErrDisabled = errors.New("source disabled")
)

// SourceError records why a single adapter failed. It never escapes a pass;
// it is kept on the failed SourceResult for logging and metadata.
type SourceError struct {
	Provider string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Provider, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
