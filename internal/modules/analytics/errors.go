package analytics

import (
	"errors"
	"fmt"
)

// Kind classifies why an analytic operation produced no result
type Kind string

const (
	// KindInsufficientData means too few observations or assets
	KindInsufficientData Kind = "InsufficientData"
	// KindNotFound means the portfolio is missing or has no usable positions
	KindNotFound Kind = "NotFound"
	// KindMissingBenchmark means the benchmark series was empty
	KindMissingBenchmark Kind = "MissingBenchmark"
	// KindNoValue means the portfolio's total market value is zero
	KindNoValue Kind = "NoValue"
	// KindInternal covers collaborator failures and recovered panics
	KindInternal Kind = "Internal"
)

// Error is the uniform failure result of every analytic operation
type Error struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// asError converts any error into *Error
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Reason: err.Error()}
}
