// Package errors defines the typed domain errors shared by services and transport.
//
// Services return *Error values carrying a Code. Stores never construct these;
// they return sentinel facts (see pkg/platform/sentinel) that services translate.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies a domain error so callers can decide how to recover.
type Code string

const (
	// CodeValidation: malformed or missing required input.
	CodeValidation Code = "validation_error"
	// CodeBadRequest: the request could not be decoded at all.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound: a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict: natural-key collision or entity not in the expected precondition state.
	CodeConflict Code = "conflict"
	// CodeInvalidTransition: the requested status change is not in the transition table.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeNotEligible: the entity cannot take part in the operation in its current state.
	CodeNotEligible Code = "not_eligible"
	// CodeTimeout: a bounded operation exceeded its budget.
	CodeTimeout Code = "timeout"
	// CodeUnauthorized: the caller identity could not be verified.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal: record-store or infrastructure failure.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a stable code and a caller-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// A nil err yields nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if stderrors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	if !stderrors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
