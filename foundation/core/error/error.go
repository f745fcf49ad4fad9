// File: error.go
// Title: Core Error Type Implementation
// Description: Implements the central mCW error type with message, cause
//              chain, code, severity, structured details and operation
//              context. Provides constructors, fluent builders and chain
//              inspection helpers.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-03
// Modified: 2026-02-03
//
// Change History:
// - 2026-02-03 v0.1.0: Initial implementation with wrapping and builders

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// maxChainDepth limits how deep error chains may grow through Wrap.
// Deeper chains indicate a wrapping loop and are truncated.
const maxChainDepth = 32

// Error is the central error type of the mCW platform
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	timestamp time.Time
	operation string
	details   map[string]interface{}
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an additional message. Code and
// severity of a wrapped *Error are inherited unless overridden later.
// Wrapping nil returns nil.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if chainDepth(err) >= maxChainDepth {
		// Refuse to grow the chain further; replace instead of nesting
		return New(message).WithCode(GetCode(err)).WithSeverity(GetSeverity(err))
	}

	e := &Error{
		message:   message,
		cause:     err,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
	}

	var inner *Error
	if errors.As(err, &inner) {
		e.code = inner.code
		e.severity = inner.severity
	}

	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// chainDepth counts the number of errors in the cause chain
func chainDepth(err error) int {
	depth := 0
	for err != nil {
		depth++
		err = errors.Unwrap(err)
	}
	return depth
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap returns the wrapped cause for errors.Is/errors.As support
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCode sets the error code and derives the severity from it
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	e.severity = GetSeverityFromCode(code)
	return e
}

// WithSeverity overrides the severity level
func (e *Error) WithSeverity(severity Severity) *Error {
	e.severity = severity
	return e
}

// WithDetail attaches a single structured detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.details == nil {
		e.details = make(map[string]interface{})
	}
	e.details[key] = value
	return e
}

// WithDetails attaches multiple structured details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	if e.details == nil {
		e.details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.details[k] = v
	}
	return e
}

// WithOperation records the operation that failed (e.g. "store.LoadProfile")
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the severity level
func (e *Error) Severity() Severity {
	return e.severity
}

// Timestamp returns the creation time of the error
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Operation returns the recorded operation
func (e *Error) Operation() string {
	return e.operation
}

// Details returns a copy of the structured details
func (e *Error) Details() map[string]interface{} {
	if e.details == nil {
		return nil
	}
	out := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// RootCause returns the innermost error of the chain
func (e *Error) RootCause() error {
	var cur error = e
	for {
		next := errors.Unwrap(cur)
		if next == nil {
			return cur
		}
		cur = next
	}
}

// String returns a formatted single-line representation
func (e *Error) String() string {
	s := fmt.Sprintf("[%s/%s] %s", e.code, e.severity, e.Error())
	if e.operation != "" {
		s += " (" + e.operation + ")"
	}
	return s
}

// MarshalJSON serializes the error for API responses
func (e *Error) MarshalJSON() ([]byte, error) {
	payload := map[string]interface{}{
		"message":   e.message,
		"code":      e.code,
		"severity":  e.severity.String(),
		"timestamp": e.timestamp.Format(time.RFC3339),
	}
	if e.operation != "" {
		payload["operation"] = e.operation
	}
	if len(e.details) > 0 {
		payload["details"] = e.details
	}
	if e.cause != nil {
		payload["cause"] = e.cause.Error()
	}
	return json.Marshal(payload)
}

// HasCode reports whether err or any error in its chain carries the code
func HasCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if errors.As(err, &e) {
			if e.code == code {
				return true
			}
			err = e.cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost *Error, or CodeUnknown
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// GetSeverity returns the severity of the outermost *Error, or SeverityMedium
func GetSeverity(err error) Severity {
	var e *Error
	if errors.As(err, &e) {
		return e.severity
	}
	return SeverityMedium
}
