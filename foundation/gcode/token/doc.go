// Package token defines the lexical elements of G-code programs.
//
// Package: token
// Title: G-Code Token Grammar
// Description: Defines the token types produced by the line tokenizer:
//              word tokens (letter plus numeric value), program markers,
//              block skips, checksums, macro variables and unrecognized
//              fragments, together with the Line container that preserves
//              exact source offsets for editor highlighting.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation of the token grammar
package token
