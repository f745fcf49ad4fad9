// Package filex provides file system utility functions for the mCW platform.
//
// Package: filex
// Title: mCW File Utilities
// Description: This package collects the file helpers used by the profile
//              stores and the CLI: existence checks, whole-file read/write,
//              directory creation and timestamped backups before
//              destructive writes.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation
package filex
