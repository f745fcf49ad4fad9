// Package validation provides reusable value validation for the mCW platform.
//
// Package: validation
// Title: mCW Validation Framework
// Description: This package implements a small chain-based validation
//              framework used to check user-editable data such as profile
//              names and dictionary entries before they reach storage or
//              the annotation engine.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation with chain and common rules
//
// Usage:
//
//	chain := validation.NewChain("profile name",
//		validation.NotEmpty(),
//		validation.MaxLength(64),
//		validation.NoControlChars(),
//	)
//	if err := chain.Validate(name); err != nil {
//		return err
//	}
package validation
