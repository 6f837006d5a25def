package generator

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited maps HTTP 429 from the generation backend. Soft:
	// the poller retries after a cooldown without counting a failure.
	ErrRateLimited = errors.New("generator: rate limited")

	// ErrTaskNotFound maps HTTP 404 on a task status check. Soft only
	// when the task already reported high progress and a partial result
	// exists (the backend may evict a task slightly before the last
	// poll observes completion).
	ErrTaskNotFound = errors.New("generator: task not found")

	// ErrTimeout is returned when an operation exceeds its wall-clock
	// ceiling, independent of the per-poll interval.
	ErrTimeout = errors.New("generator: operation timed out")

	// ErrMalformedResponse is returned when a non-streaming response
	// body cannot be decoded. Per-frame SSE decode failures are logged
	// and skipped instead.
	ErrMalformedResponse = errors.New("generator: malformed response")

	// ErrNotConfigured is returned when the backend reports it has no
	// generation capability available.
	ErrNotConfigured = errors.New("generator: backend not configured")
)

// Classification buckets an error for fallback decisions and logging.
type Classification string

const (
	ClassRateLimited Classification = "rate_limited"
	ClassTimeout     Classification = "timeout"
	ClassNotFound    Classification = "not_found"
	ClassMalformed   Classification = "malformed"
	ClassNetwork     Classification = "network"
	ClassNone        Classification = ""
)

// Classify maps an error onto the fallback taxonomy. Unknown transport
// failures classify as network: the fallback chain treats them the
// same way, by descending to the next source.
func Classify(err error) Classification {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrRateLimited):
		return ClassRateLimited
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.Is(err, ErrTaskNotFound):
		return ClassNotFound
	case errors.Is(err, ErrMalformedResponse):
		return ClassMalformed
	default:
		return ClassNetwork
	}
}
