// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors to enable proper
//              prioritization, logging and alerting. Severity levels help
//              decide how an error should surface to the user.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-03
// Modified: 2026-02-03
//
// Change History:
// - 2026-02-03 v0.1.0: Initial implementation with severity levels

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a minor error that does not affect core functionality
	// Examples: invalid user input, a dictionary entry that fails validation
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that affects functionality but has workarounds
	// Examples: a profile that cannot be loaded, a canceled annotation pass
	SeverityMedium

	// SeverityHigh indicates a serious error that significantly impacts functionality
	// Examples: database connection issues, corrupted profile storage
	SeverityHigh

	// SeverityCritical indicates a critical error that makes the system unusable
	// Examples: data corruption, unusable configuration
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Level returns the numeric level of the severity (0-3)
func (s Severity) Level() int {
	return int(s)
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines the appropriate severity level for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	// Critical system errors
	case CodeDataCorruption, CodeServiceUnavailable:
		return SeverityCritical

	// High severity errors
	case CodeDatabaseError, CodeConnectionFailed, CodeFileAccess,
		CodeConfigNotFound, CodeConfigParse:
		return SeverityHigh

	// Medium severity errors
	case CodeInternal, CodeTimeout, CodeCanceled, CodeNetworkError,
		CodeDictionaryParse, CodeDuplicateEntry, CodeProfileExists,
		CodeDocumentTooLarge:
		return SeverityMedium

	// Low severity errors
	case CodeInvalidInput, CodeNotFound, CodeValidationFailed,
		CodeRequiredField, CodeInvalidFormat, CodeValueOutOfRange,
		CodeProfileNotFound, CodeSnippetNotFound, CodeSessionNotFound,
		CodeConfigInvalid:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
