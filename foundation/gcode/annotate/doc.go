// Package annotate resolves tokens into human-readable descriptions.
//
// Package: annotate
// Title: Token Annotation Resolver
// Description: Pure resolution step that maps a token plus the current
//              modal context onto a description using the active
//              dictionary. The resolver never mutates its inputs and
//              yields a defined placeholder for every token it cannot
//              explain, so annotation is total over arbitrary input.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation of the resolver
package annotate
