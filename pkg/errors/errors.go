// Package errors provides structured error types for the osm2svg pipeline.
//
// Error codes distinguish recoverable per-feature failures (skip the feature,
// log, continue the batch) from failures that abort the whole run. Only
// file-level I/O problems are fatal to a run; every geometric failure is
// attributable to a single feature id.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInsufficientGeometry, "way %s has %d points", id, n)
//	if errors.Is(err, errors.ErrCodeInsufficientGeometry) {
//	    // Skip this feature, keep processing the batch.
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the pipeline failure taxonomy.
const (
	// Per-feature geometric failures (recoverable, batch continues)
	ErrCodeInsufficientGeometry Code = "INSUFFICIENT_GEOMETRY"
	ErrCodeDegenerateTangent    Code = "DEGENERATE_TANGENT"
	ErrCodeOffsetNoGeometry     Code = "OFFSET_NO_GEOMETRY"
	ErrCodeMalformedPathGrammar Code = "MALFORMED_PATH_GRAMMAR"
	ErrCodeMissingGeometry      Code = "MISSING_GEOMETRY"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidStyle Code = "INVALID_STYLE"

	// Run-fatal errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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

// Recoverable reports whether the error's code marks a per-feature failure
// that should be logged and skipped rather than aborting the run.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeInsufficientGeometry,
		ErrCodeDegenerateTangent,
		ErrCodeOffsetNoGeometry,
		ErrCodeMalformedPathGrammar,
		ErrCodeMissingGeometry:
		return true
	}
	return false
}
