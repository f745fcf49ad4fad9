// File: codes.go
// Title: Error Code Definitions
// Description: Defines standardized error codes for consistent error
//              classification across the mCW platform. Codes enable
//              structured error handling, API response formatting and
//              monitoring.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-03
// Modified: 2026-02-03
//
// Change History:
// - 2026-02-03 v0.1.0: Initial implementation with core and domain codes

package error

// Code represents a structured error code for categorizing errors
type Code string

// Core error codes for the mCW platform
const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"
	CodeCanceled     Code = "CANCELED"

	// Configuration
	CodeConfigNotFound Code = "CONFIG_NOT_FOUND"
	CodeConfigParse    Code = "CONFIG_PARSE"
	CodeConfigInvalid  Code = "CONFIG_INVALID"

	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeRequiredField    Code = "REQUIRED_FIELD"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeValueOutOfRange  Code = "VALUE_OUT_OF_RANGE"

	// Storage
	CodeDatabaseError    Code = "DATABASE_ERROR"
	CodeConnectionFailed Code = "CONNECTION_FAILED"
	CodeDataCorruption   Code = "DATA_CORRUPTION"
	CodeDuplicateEntry   Code = "DUPLICATE_ENTRY"
	CodeFileAccess       Code = "FILE_ACCESS"

	// Profile management
	CodeProfileNotFound Code = "PROFILE_NOT_FOUND"
	CodeProfileExists   Code = "PROFILE_EXISTS"
	CodeDictionaryParse Code = "DICTIONARY_PARSE"
	CodeSnippetNotFound Code = "SNIPPET_NOT_FOUND"

	// Annotation engine collaborators
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeDocumentTooLarge Code = "DOCUMENT_TOO_LARGE"

	// Service and network
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeNetworkError       Code = "NETWORK_ERROR"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}

// IsValid returns true if the code is a known mCW error code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput,
		CodeTimeout, CodeCanceled,
		CodeConfigNotFound, CodeConfigParse, CodeConfigInvalid,
		CodeValidationFailed, CodeRequiredField, CodeInvalidFormat,
		CodeValueOutOfRange,
		CodeDatabaseError, CodeConnectionFailed, CodeDataCorruption,
		CodeDuplicateEntry, CodeFileAccess,
		CodeProfileNotFound, CodeProfileExists, CodeDictionaryParse,
		CodeSnippetNotFound,
		CodeSessionNotFound, CodeDocumentTooLarge,
		CodeServiceUnavailable, CodeNetworkError:
		return true
	}
	return false
}
