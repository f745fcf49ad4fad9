// Package stringx provides string utility functions for the mCW platform.
//
// Package: stringx
// Title: mCW String Utilities
// Description: This package collects the string helpers used across the
//              platform: blank checks for user input, Unicode-aware
//              truncation for log and TUI output, and line splitting for
//              document processing.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation
package stringx
