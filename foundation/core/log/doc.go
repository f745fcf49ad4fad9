// Package log provides structured logging capabilities for the mCW platform.
//
// Package: log
// Title: mCW Structured Logging Framework
// Description: This package implements a structured logging system with
//              contextual fields, multiple output formats, log levels and
//              integration with the mCW error handling system. It includes
//              performance timers for measuring annotation passes.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-03
// Modified: 2026-02-03
//
// Change History:
// - 2026-02-03 v0.1.0: Initial implementation with levels, formats and timers
//
// Features:
// - Structured logging with JSON, text and console formats
// - Log levels with filtering, audit events bypass the filter
// - Contextual loggers via WithField/WithFields cloning
// - Severity-aware logging of mCW errors
// - Performance timers with checkpoints
//
// Usage:
//
//	logger := log.New("jacquard")
//	logger.Info("profile switched", log.Fields{"profile": name})
//
//	timer := logger.StartTimer("annotate document")
//	defer timer.Stop()
package log
