// Package integration contains cross-package tests for the mCW
// foundation module.
//
// Package: integration
// Title: Foundation Integration Tests
// Description: Verifies that the foundation packages work together the
//              way the services consume them: validated dictionary
//              entries flowing into the annotation engine, error codes
//              and severities surviving package boundaries, and logging
//              of engine operations. These tests use only foundation
//              packages; service-level flows live in the repository's
//              top-level test directory.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation for the annotation engine
package integration
