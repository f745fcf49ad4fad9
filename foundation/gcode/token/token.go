// File: token.go
// Title: G-Code Token Types
// Description: Token and Line types produced by the tokenizer. Every token
//              records its exact source text and column offset so callers
//              can map annotations back onto the original line.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package token

import (
	"strconv"
	"strings"
)

// Kind classifies a token produced by the tokenizer.
type Kind int

const (
	// Word is a letter followed by a numeric value, e.g. G01, X-12.5, ,R1.
	Word Kind = iota

	// ProgramMarker is the bare % that starts or ends a program.
	ProgramMarker

	// BlockSkip is the leading / that marks an optionally executed block.
	BlockSkip

	// Checksum is a *nn block checksum word.
	Checksum

	// MacroVariable is a #nnn macro variable reference.
	MacroVariable

	// Unknown is a fragment the tokenizer could not classify. The raw
	// text is preserved so the fragment can still be displayed.
	Unknown
)

// String returns a human-readable name for the token kind.
func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case ProgramMarker:
		return "program-marker"
	case BlockSkip:
		return "block-skip"
	case Checksum:
		return "checksum"
	case MacroVariable:
		return "macro-variable"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Recognized word letters. Letters outside this set degrade to Unknown
// tokens rather than producing word tokens with unreliable semantics.
var recognizedLetters = map[string]bool{
	"G": true, "M": true, "T": true, "F": true, "S": true,
	"X": true, "Y": true, "Z": true,
	"I": true, "J": true, "K": true,
	"R": true, "Q": true, "N": true, "C": true, "P": true,
}

// IsRecognizedLetter reports whether letter is a recognized word letter
// class. Comma-prefixed forms such as ",R" are recognized when their base
// letter is.
func IsRecognizedLetter(letter string) bool {
	base := strings.ToUpper(letter)
	base = strings.TrimPrefix(base, ",")
	return recognizedLetters[base]
}

// Token is a single lexical element of a G-code line.
type Token struct {
	// Kind classifies the token.
	Kind Kind

	// Letter is the normalized upper-case letter class for Word tokens,
	// e.g. "G", "X" or the comma form ",R". It is empty for marker,
	// skip, checksum, macro and unknown tokens.
	Letter string

	// Raw is the exact source substring, preserved byte for byte.
	Raw string

	// Value is the parsed numeric value for Word, Checksum and
	// MacroVariable tokens. Only meaningful when HasValue is true.
	Value float64

	// ValueText is the numeric portion of Raw, e.g. "-12.5" for X-12.5.
	ValueText string

	// HasValue reports whether Value and ValueText are meaningful.
	HasValue bool

	// Column is the byte offset of the token's first character within
	// the source line.
	Column int
}

// CanonicalValue renders the numeric value without superfluous digits,
// e.g. 1 for G01 and -12.5 for X-12.5. It returns "" for tokens without
// a value.
func (t Token) CanonicalValue() string {
	if !t.HasValue {
		return ""
	}
	return strconv.FormatFloat(t.Value, 'f', -1, 64)
}

// Display renders the token in its canonical letter+value form, e.g.
// "G1" for raw "g01". Tokens without letter or value fall back to Raw.
func (t Token) Display() string {
	if t.Kind == Word && t.HasValue {
		return t.Letter + t.CanonicalValue()
	}
	return t.Raw
}

// End returns the byte offset one past the token's last character.
func (t Token) End() int {
	return t.Column + len(t.Raw)
}

// CommentSpan records a comment found on a line, including its
// delimiters, so the original line remains reconstructable.
type CommentSpan struct {
	// Column is the byte offset of the opening delimiter.
	Column int

	// Raw is the comment including its delimiters, e.g. "(rough pass)"
	// or "; finish here".
	Raw string
}

// Text returns the comment content without delimiters, trimmed.
func (c CommentSpan) Text() string {
	s := c.Raw
	switch {
	case strings.HasPrefix(s, ";"):
		s = s[1:]
	case strings.HasPrefix(s, "("):
		s = strings.TrimPrefix(s, "(")
		s = strings.TrimSuffix(s, ")")
	}
	return strings.TrimSpace(s)
}

// End returns the byte offset one past the span's last character.
func (c CommentSpan) End() int {
	return c.Column + len(c.Raw)
}

// Line is the tokenized form of a single source line. Tokens and comment
// spans cover every non-whitespace byte of Raw, each at its recorded
// column, so the original text can always be rebuilt from the parts.
type Line struct {
	// Number is the 1-based line number in the source document.
	Number int

	// Raw is the original line text without its trailing newline.
	Raw string

	// Tokens are the lexical elements in source order.
	Tokens []Token

	// Comments are the comment spans in source order.
	Comments []CommentSpan

	// UnterminatedComment is set when a parenthesized comment was not
	// closed before the end of the line. The comment text still covers
	// the rest of the line.
	UnterminatedComment bool
}

// CommentText merges all comment spans into a single display string.
// Multiple comments on one line are joined with a single space.
func (l Line) CommentText() string {
	if len(l.Comments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(l.Comments))
	for _, c := range l.Comments {
		if t := c.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// HasComment reports whether the line carries at least one comment span.
func (l Line) HasComment() bool {
	return len(l.Comments) > 0
}

// IsEmpty reports whether the line contains neither tokens nor comments.
func (l Line) IsEmpty() bool {
	return len(l.Tokens) == 0 && len(l.Comments) == 0
}

// Reconstruct rebuilds the original line text from the recorded tokens,
// comment spans and the whitespace gaps between them. The result is
// byte-identical to Raw for any line produced by the tokenizer.
func (l Line) Reconstruct() string {
	type span struct {
		col int
		raw string
	}
	spans := make([]span, 0, len(l.Tokens)+len(l.Comments))
	for _, t := range l.Tokens {
		spans = append(spans, span{t.Column, t.Raw})
	}
	for _, c := range l.Comments {
		spans = append(spans, span{c.Column, c.Raw})
	}
	// Insertion sort by column; lines carry few spans.
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j-1].col > spans[j].col; j-- {
			spans[j-1], spans[j] = spans[j], spans[j-1]
		}
	}

	var b strings.Builder
	b.Grow(len(l.Raw))
	pos := 0
	for _, s := range spans {
		if s.col > pos && s.col <= len(l.Raw) {
			b.WriteString(l.Raw[pos:s.col])
		}
		b.WriteString(s.raw)
		pos = s.col + len(s.raw)
	}
	if pos < len(l.Raw) {
		b.WriteString(l.Raw[pos:])
	}
	return b.String()
}
