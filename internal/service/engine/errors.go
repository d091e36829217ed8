package engine

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports an invalid CampaignConfig. It is raised before any
// backend call; the caller can correct the input and retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid campaign config: %s: %s", e.Field, e.Message)
}

// GenerationError reports a backend rejection or failure during description
// generation or dispatch.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// TimeoutError marks a generation call that exceeded its deadline. It counts
// as a generation failure for retry purposes but is logged distinctly.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// IsTimeout reports whether the error chain contains a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// ErrorChecker decides whether an error is temporary and worth retrying.
type ErrorChecker func(err error) bool

// temporary is implemented by errors that know whether a retry may succeed.
type temporary interface {
	Temporary() bool
}

// DefaultErrorChecker treats timeouts and errors that declare themselves
// temporary as retryable; everything else is permanent.
func DefaultErrorChecker(err error) bool {
	if IsTimeout(err) {
		return true
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}
