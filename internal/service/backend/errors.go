package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a backend failure. Each wire-level failure mode maps to
// exactly one kind so callers can decide whether to retry.
type Kind string

const (
	KindAuth        Kind = "auth"
	KindRateLimit   Kind = "rate_limit"
	KindTimeout     Kind = "timeout"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"
)

// Error is a classified backend failure.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.statusLabel(), e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.statusLabel())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether a retry may succeed. Authentication failures and
// malformed responses never resolve on their own.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindRateLimit, KindTimeout, KindUnavailable:
		return true
	default:
		return false
	}
}

func (e *Error) statusLabel() string {
	if e.StatusCode == 0 {
		return "no response"
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// KindOf extracts the Kind from an error chain; it returns an empty Kind when
// the error did not originate from a backend call.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsTimeout reports whether the error chain contains a backend timeout.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}
