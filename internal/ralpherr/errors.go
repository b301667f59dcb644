// Package ralpherr defines the error taxonomy shared by every core
// component: validation, not-found, planning conflicts, merge conflicts,
// fatal loop terminations, and on-disk corruption.
package ralpherr

import "fmt"

// Kind classifies an error for callers that branch on taxonomy rather
// than on a specific error value.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindPlanning   Kind = "planning_conflict"
	KindMerge      Kind = "merge_conflict"
	KindFatal      Kind = "fatal"
	KindCorruption Kind = "corruption"
)

// Error is a taxonomy-tagged error. It wraps an underlying cause so
// errors.Is/errors.As still see through to it.
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

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a bad requirement id, unknown agent kind, invalid
// branch name, or a self/cyclic dependency. Surfaced to the caller; not
// logged as an error.
func Validation(format string, args ...any) *Error {
	return newErr(KindValidation, format, args...)
}

// NotFound reports an absent workflow/story/execution/project.
func NotFound(format string, args ...any) *Error {
	return newErr(KindNotFound, format, args...)
}

// Planning reports a cycle or orphan detected during add or validate.
func Planning(format string, args ...any) *Error {
	return newErr(KindPlanning, format, args...)
}

// Merge reports a merge-time conflict. Recorded on the coordinator's
// conflict list; does not fail the loop.
func Merge(format string, args ...any) *Error {
	return newErr(KindMerge, format, args...)
}

// Fatal reports max-iterations, max-cost, or no-runnable-stories:
// transitions the execution to Failed and halts the loop.
func Fatal(format string, args ...any) *Error {
	return newErr(KindFatal, format, args...)
}

// Corruption reports a JSON parse failure on an authoritative file.
// Halts the affected workflow; never auto-repaired.
func Corruption(cause error, format string, args ...any) *Error {
	e := newErr(KindCorruption, format, args...)
	e.Cause = cause
	return e
}

// Wrap attaches a cause to an existing taxonomy error, preserving its kind.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := newErr(kind, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return false
	}
	return e.Kind == kind
}
