// Package simerrors defines the structured error taxonomy shared by every
// fallible constructor in the simulator: configuration/initialization
// failures at setup time, resource exhaustion at runtime, malformed trace
// input, and programmer-error assertions.
package simerrors

import (
	"errors"
	"fmt"
)

// Kind is the high-level error category. Kinds are distinct, not types:
// callers branch on Kind, never on the underlying Go type.
type Kind string

const (
	// ConfigurationError covers unknown presets, density mismatches,
	// missing mandatory parameters, and conflicting overrides. Fatal at
	// device/config init.
	ConfigurationError Kind = "configuration"
	// InitializationError covers internal construction failures (logger,
	// node tree) unrelated to user-supplied configuration. Fatal.
	InitializationError Kind = "initialization"
	// ResourceExhausted is returned (never panics) when a bounded buffer
	// is full on enqueue; callers retry on a later cycle.
	ResourceExhausted Kind = "resource_exhausted"
	// TraceFormatError covers a malformed trace line. Fatal at load time.
	TraceFormatError Kind = "trace_format"
	// Assertion marks a programmer-error invariant violation (invalid
	// state reached in a prerequisite resolver, out-of-range child
	// index). Never returned to a caller: raised via Abort.
	Assertion Kind = "assertion"
)

// Error is the single structured error type used across the simulator.
type Error struct {
	Op    string // operation that failed, e.g. "NewDevice", "LoadConfig"
	Kind  Kind
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is comparisons keyed only on Kind, so callers can
// write errors.Is(err, &simerrors.Error{Kind: simerrors.ResourceExhausted})
// (or compare KindOf(err)) instead of matching on message text.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs a structured error of the given kind.
func New(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Newf constructs a structured error with a formatted message.
func Newf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches an operation and kind to an existing error.
func Wrap(op string, kind Kind, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Msg: inner.Error(), Inner: inner}
}

// KindOf extracts the Kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// assertPanic is the payload recovered by cmd/aimsim's top-level recover,
// so an Assertion can be told apart from an unrelated runtime panic.
type assertPanic struct{ err *Error }

// Abort raises a programmer-error assertion: it logs nothing itself
// (callers are expected to have logged context already) and panics with a
// diagnostic naming the level and child index, mirroring the original's
// spdlog::error + exit(-1) path. It never returns.
func Abort(op string, level, childIdx int, msg string) {
	err := Newf(op, Assertion, "level=%d child_idx=%d: %s", level, childIdx, msg)
	panic(assertPanic{err})
}

// Recovered converts a recover() value produced by Abort back into its
// *Error, or returns (nil, false) if v was not raised by Abort.
func Recovered(v any) (*Error, bool) {
	if ap, ok := v.(assertPanic); ok {
		return ap.err, true
	}
	return nil, false
}
