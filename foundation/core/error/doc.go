// Package error provides structured error handling for the mCW platform.
//
// Package: error
// Title: mCW Structured Error Framework
// Description: This package implements a rich error type carrying machine
//              readable codes, severity levels, structured details and the
//              failing operation. It supports error wrapping with bounded
//              chain depth and integrates with the logging framework.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-03
// Modified: 2026-02-03
//
// Change History:
// - 2026-02-03 v0.1.0: Initial implementation with codes and severities
//
// Features:
// - Structured errors with code, severity, details and operation
// - Error wrapping with cause chains and depth limiting
// - Severity-based classification for logging and alerting
// - JSON marshaling for API responses
//
// Usage:
//
//	err := mcwerror.New("profile not found").
//		WithCode(mcwerror.CodeProfileNotFound).
//		WithOperation("store.LoadProfile").
//		WithDetail("profile", name)
package error
