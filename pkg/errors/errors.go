// Package errors provides structured error types for planestack.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the debug server
//   - Machine-readable error codes for scenario expectations
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - UNKNOWN_* / *_NOT_FOUND: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Scenario steps name these codes in their expect field, so the codes are
// part of the scenario file format.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidScenario, "step %d: unknown op %q", i, op)
//	if errors.Is(err, errors.ErrCodeInvalidScenario) {
//	    // Handle validation error
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidScenario Code = "INVALID_SCENARIO"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidName     Code = "INVALID_NAME"

	// Plane operation errors
	ErrCodeInvalidBinding  Code = "INVALID_BINDING"
	ErrCodeInvalidGeometry Code = "INVALID_GEOMETRY"
	ErrCodeCursorRange     Code = "CURSOR_OUT_OF_RANGE"
	ErrCodeStdPlane        Code = "STD_PLANE"
	ErrCodeSelfTarget      Code = "SELF_TARGET"
	ErrCodeDuplicateName   Code = "DUPLICATE_NAME"
	ErrCodeClosed          Code = "CONTEXT_CLOSED"

	// Resource not found errors
	ErrCodeUnknownPlane Code = "UNKNOWN_PLANE"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// Known reports whether code is one of the codes defined in this package.
func Known(code Code) bool {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidScenario, ErrCodeInvalidFormat,
		ErrCodeInvalidPath, ErrCodeInvalidName, ErrCodeInvalidBinding,
		ErrCodeInvalidGeometry, ErrCodeCursorRange, ErrCodeStdPlane,
		ErrCodeSelfTarget, ErrCodeDuplicateName, ErrCodeClosed,
		ErrCodeUnknownPlane, ErrCodeFileNotFound, ErrCodeInternal,
		ErrCodeUnsupported:
		return true
	}
	return false
}
