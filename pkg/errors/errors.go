// Package errors provides structured error types for the flowviz application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, pipeline, and server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - *_FAILED: A processing stage failed
//   - INTERNAL_*: Unexpected internal errors
//
// Parse and validation diagnostics for flow source are NOT errors in this
// sense: the parser and validator report them as values (topology.ParseError,
// topology.ValidationResult) and keep going. This package is for the
// infrastructure around the core: pipeline, cache, store, server, CLI.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidScene, "invalid scene name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidScene) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "failed to load scene %s", id)
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
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidScene  Code = "INVALID_SCENE"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Processing errors
	ErrCodeParseFailed  Code = "PARSE_FAILED"
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSceneNotFound   Code = "SCENE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Storage and session errors
	ErrCodeStore        Code = "STORE_ERROR"
	ErrCodeCache        Code = "CACHE_ERROR"
	ErrCodeSessionLimit Code = "SESSION_LIMIT"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// SessionLimitError reports that the server refused to create a simulation
// session because it is already running the configured maximum.
type SessionLimitError struct {
	Limit int // Maximum number of concurrent sessions
}

// Error implements the error interface.
func (e *SessionLimitError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("session limit reached: at most %d concurrent sessions", e.Limit)
	}
	return "session limit reached"
}

// Code returns the error code for this error type.
func (e *SessionLimitError) Code() Code {
	return ErrCodeSessionLimit
}
