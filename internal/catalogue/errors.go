package catalogue

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the catalogue has no record for the requested BID.
// Callers treat this as "title no longer circulating", not as a failure.
var ErrNotFound = errors.New("catalogue record not found")

// ErrRateLimited indicates the catalogue rejected the call with HTTP 429.
// The client never retries; back-off policy belongs to the caller.
var ErrRateLimited = errors.New("catalogue API rate limit exceeded")

// UpstreamError represents any other non-success catalogue response. The raw
// status and body are kept for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("catalogue upstream error: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether an error may succeed on a later attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
