// internal/errors/errors.go
package errors

import (
	"fmt"
	"math"
	"time"
)

// ThrottledError is returned when the GitHub API signals that the rate limit
// was exceeded. RetryAfter holds the time until the limit resets. For range
// scrapes, LastID carries the id of the last fully processed user so the
// caller can resume; Resumable reports whether LastID is meaningful.
type ThrottledError struct {
	StatusCode int
	RetryAfter time.Duration
	LastID     int64
	Resumable  bool
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("github rate limit exceeded (status %d), resets in %s", e.StatusCode, e.RetryAfter)
}

// NewThrottledError builds a ThrottledError from the server-declared reset
// time. The wait is rounded up to whole seconds and never negative, so clock
// skew cannot produce a wait in the past.
func NewThrottledError(statusCode int, reset time.Time) *ThrottledError {
	seconds := math.Ceil(time.Until(reset).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return &ThrottledError{
		StatusCode: statusCode,
		RetryAfter: time.Duration(seconds) * time.Second,
	}
}

// ValidationError is returned when a record fetched from the GitHub API is
// missing a required field and cannot be persisted. Such records are skipped,
// not fatal.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: field %q %s", e.Entity, e.Field, e.Reason)
}
