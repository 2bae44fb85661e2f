package engine

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an engine error without tying callers to a Go error
// type hierarchy.
type Kind string

const (
	KindMissingReference    Kind = "MissingReference"
	KindArithmetic          Kind = "Arithmetic"
	KindTypeValue           Kind = "TypeValue"
	KindCrossRegulation     Kind = "CrossRegulation"
	KindDelegation          Kind = "Delegation"
	KindAmbiguousResolve    Kind = "AmbiguousResolve"
	KindRecursionLimit      Kind = "RecursionLimit"
	KindDivisionByZero      Kind = "DivisionByZero"
	KindOutputNotFound      Kind = "OutputNotFound"
	KindLawNotFound         Kind = "LawNotFound"
)

// Error is the engine's structured error value: a Kind plus a
// human-readable message that always names the URI or (law_id, output)
// involved, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewError constructs a Kind-classified error for callers outside this
// package (pkg/service's URI resolution, chiefly) that need to surface a
// LawNotFound/OutputNotFound failure through the same taxonomy the engine
// itself uses.
func NewError(kind Kind, format string, args ...any) *Error {
	return newError(kind, format, args...)
}

// WrapError is NewError with an additional wrapped cause, inspectable via
// errors.Unwrap/errors.Is.
func WrapError(kind Kind, cause error, format string, args ...any) *Error {
	return wrapError(kind, cause, format, args...)
}

// isCritical reports whether err must always propagate, never be swallowed
// by resolve candidate probing: context cancellation or deadline expiry.
func isCritical(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
