package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes that abort a run.
var (
	// ErrConfig indicates an invalid caller-supplied parameter.
	ErrConfig = errors.New("invalid configuration")

	// ErrData indicates a malformed or empty chart snapshot.
	ErrData = errors.New("invalid chart data")

	// ErrSchema indicates a row missing a required output field at
	// serialization time. This is an assembler bug, never patched over.
	ErrSchema = errors.New("output schema violation")

	// ErrNotFound indicates a resource that does not exist or has been made
	// private. Callers treat this as an empty result, not a run failure.
	ErrNotFound = errors.New("resource not found")
)

// APIError describes a failed call to the metadata API. Retryable errors
// (network failures, 429, 5xx) are retried with backoff; everything else
// aborts the run.
type APIError struct {
	Status    int
	Reason    string
	Retryable bool
	Err       error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error (status %d, reason %q): %v", e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("api error (reason %q): %v", e.Reason, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is an API error worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// IsFatalAPI reports whether err is an API error that must abort the whole
// run: auth rejection, permanent quota exhaustion, or a retry ceiling that
// was already exceeded.
func IsFatalAPI(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && !apiErr.Retryable
}
