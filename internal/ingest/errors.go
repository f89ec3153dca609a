package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerUnavailable means the background worker could not be started
	// or exited without answering. Loads recover from it by running inline.
	ErrWorkerUnavailable = errors.New("ingest worker unavailable")

	// ErrWorkerFailed wraps an error reported by the worker itself.
	ErrWorkerFailed = errors.New("ingest worker failed")

	// ErrNoAvailabilitySource is returned for a plan without an availability URI.
	ErrNoAvailabilitySource = errors.New("availability source is required")
)

// FetchFailure reports a source that could not be retrieved. StatusCode is
// set when the server answered with a non-success status.
type FetchFailure struct {
	URI        string
	StatusCode int
	Err        error
}

func (e *FetchFailure) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URI, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d", e.URI, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
	}
}

func (e *FetchFailure) Unwrap() error { return e.Err }

// DecodeFailure reports source bytes that could not be decoded to text.
type DecodeFailure struct {
	URI      string
	Encoding string
	Err      error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.URI, e.Encoding, e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }
