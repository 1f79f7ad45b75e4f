// Package errkind classifies the error kinds named in the design's error
// handling policy: ConfigError, UpstreamTransient, UpstreamFatal,
// BackendFailure, DataShape and Cancellation. It is grounded on the
// classification style of a GitHub API error inspector elsewhere in the
// source tree, adapted from HTTP-status string sniffing to wrapped sentinel
// errors since this service owns both ends of the upstream HTTP call.
package errkind

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies one of the error categories.
type Kind string

const (
	Config            Kind = "ConfigError"
	UpstreamTransient Kind = "UpstreamTransient"
	UpstreamFatal     Kind = "UpstreamFatal"
	BackendFailure    Kind = "BackendFailure"
	DataShape         Kind = "DataShape"
	Cancellation      Kind = "Cancellation"
)

// Error wraps an underlying error with a Kind, preserving %w-unwrapping.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind. Returns nil if err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf is a convenience constructor formatting a message into Kind.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Of extracts the Kind of err, walking the wrap chain. Returns ("", false)
// when no *Error is present.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err's Kind (anywhere in its wrap chain) equals kind.
func Is(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}

// IsRetryable reports whether a run-failing error should be retried at the
// coordinator's next tick rather than treated as needing operator
// intervention. UpstreamTransient, UpstreamFatal and BackendFailure all
// report true, since each is retried at the same cadence; an UpstreamFatal
// error such as an auth failure still needs operator attention, so callers
// surface its message even when IsRetryable is true. Cancellation and every
// other kind report false.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	k, ok := Of(err)
	if !ok {
		return false
	}
	switch k {
	case UpstreamTransient, UpstreamFatal, BackendFailure:
		return true
	default:
		return false
	}
}

// IsCancellation reports whether err represents a clean shutdown-triggered
// exit rather than a failure that should be reported.
func IsCancellation(err error) bool {
	return Is(err, Cancellation) || errors.Is(err, context.Canceled)
}
