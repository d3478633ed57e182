// Package errors provides structured error types for cablenet.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so that the CLI, the HTTP API and callers embedding the library can
// react to the category of the failure rather than to its text.
//
// # Error Codes
//
// Codes are grouped by the stage that reports them:
//   - INPUT_* / NUMERIC_*: instance geometry rejected before any model is built
//   - INVALID_*: option or file validation failures
//   - SOLVER_*: the solver finished without a usable optimal layout
//   - NOT_FOUND / FILE_NOT_FOUND: missing runs, cache entries or files
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInputDegenerate, "points %d and %d coincide", i, j)
//	if errors.Is(err, errors.ErrCodeInputDegenerate) {
//	    // reject the instance
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Instance geometry errors
	ErrCodeInputDegenerate   Code = "INPUT_DEGENERATE"
	ErrCodeNumericDegenerate Code = "NUMERIC_DEGENERATE"

	// Solver outcomes that are not an optimal layout
	ErrCodeSolverInfeasible Code = "SOLVER_INFEASIBLE"
	ErrCodeSolverTimeout    Code = "SOLVER_TIMEOUT"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidMode   Code = "INVALID_MODE"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Backend errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeUnavailable Code = "UNAVAILABLE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err rejects the instance itself, as opposed to
// a solver outcome or an infrastructure failure. The API maps these to 422.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInputDegenerate, ErrCodeNumericDegenerate,
		ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidMode:
		return true
	}
	return false
}
