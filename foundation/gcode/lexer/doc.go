// Package lexer tokenizes single lines of G-code into token.Line values.
//
// Package: lexer
// Title: G-Code Line Tokenizer
// Description: Splits a raw source line into word tokens, program markers,
//              block skips, checksums, macro variables, comments and
//              unknown fragments. Tokenization never fails: malformed
//              input degrades to unknown tokens that preserve the raw
//              text and its column offset.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation of the line tokenizer
package lexer
