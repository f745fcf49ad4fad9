// File: lexer.go
// Title: G-Code Line Tokenizer
// Description: Character-level scanner that converts one source line into
//              a token.Line. The scanner is total: every non-whitespace
//              byte ends up in exactly one token or comment span, so the
//              original line can always be reconstructed.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package lexer

import (
	"strconv"
	"strings"

	"github.com/msto63/mCW/foundation/gcode/token"
)

// lexer walks a single line byte by byte.
type lexer struct {
	input string
	pos   int  // index of ch within input
	ch    byte // current character, 0 at end of input
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, pos: -1}
	l.readChar()
	return l
}

// readChar advances to the next character. ch becomes 0 at end of input.
func (l *lexer) readChar() {
	l.pos++
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
}

// peekChar returns the character after ch without advancing.
func (l *lexer) peekChar() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

// startsNumber reports whether ch can begin a numeric value.
func startsNumber(ch byte) bool {
	return isDigit(ch) || ch == '.' || ch == '+' || ch == '-'
}

// Tokenize splits one raw source line into its lexical elements. The
// lineNumber is recorded on the returned Line; a trailing newline or
// carriage return is stripped before scanning. Tokenize never returns
// an error: fragments it cannot classify become Unknown tokens.
func Tokenize(raw string, lineNumber int) token.Line {
	raw = strings.TrimRight(raw, "\r\n")
	line := token.Line{Number: lineNumber, Raw: raw}

	l := newLexer(raw)
	for l.ch != 0 {
		if isSpace(l.ch) {
			l.readChar()
			continue
		}

		start := l.pos
		switch {
		case l.ch == ';':
			line.Comments = append(line.Comments, token.CommentSpan{
				Column: start,
				Raw:    raw[start:],
			})
			l.pos = len(raw)
			l.ch = 0

		case l.ch == '(':
			span, terminated := l.scanParenComment()
			line.Comments = append(line.Comments, span)
			if !terminated {
				line.UnterminatedComment = true
			}

		case l.ch == '%':
			l.readChar()
			line.Tokens = append(line.Tokens, token.Token{
				Kind:   token.ProgramMarker,
				Raw:    "%",
				Column: start,
			})

		case l.ch == '/':
			l.readChar()
			line.Tokens = append(line.Tokens, token.Token{
				Kind:   token.BlockSkip,
				Raw:    "/",
				Column: start,
			})

		case l.ch == '*':
			line.Tokens = append(line.Tokens, l.scanPrefixed(token.Checksum))

		case l.ch == '#':
			line.Tokens = append(line.Tokens, l.scanPrefixed(token.MacroVariable))

		case l.ch == ',':
			line.Tokens = append(line.Tokens, l.scanCommaWord())

		case isLetter(l.ch):
			line.Tokens = append(line.Tokens, l.scanWord())

		case startsNumber(l.ch):
			text := l.scanNumberText()
			line.Tokens = append(line.Tokens, token.Token{
				Kind:   token.Unknown,
				Raw:    text,
				Column: start,
			})

		default:
			l.readChar()
			line.Tokens = append(line.Tokens, token.Token{
				Kind:   token.Unknown,
				Raw:    raw[start : start+1],
				Column: start,
			})
		}
	}

	return line
}

// TokenizeDocument splits a whole document into lines and tokenizes each
// of them. Line numbers are 1-based. Windows and legacy Mac line endings
// are handled; a trailing newline does not create a phantom line.
func TokenizeDocument(text string) []token.Line {
	rawLines := splitLines(text)
	lines := make([]token.Line, len(rawLines))
	for i, raw := range rawLines {
		lines[i] = Tokenize(raw, i+1)
	}
	return lines
}

// splitLines splits on \n, \r\n and bare \r. An empty document yields a
// single empty line; a trailing line break does not add an empty line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// scanParenComment consumes a parenthesized comment starting at '('.
// It reports whether the comment was closed before the end of the line.
func (l *lexer) scanParenComment() (token.CommentSpan, bool) {
	start := l.pos
	for l.ch != 0 {
		if l.ch == ')' {
			l.readChar()
			return token.CommentSpan{
				Column: start,
				Raw:    l.input[start:l.pos],
			}, true
		}
		l.readChar()
	}
	return token.CommentSpan{
		Column: start,
		Raw:    l.input[start:],
	}, false
}

// scanWord consumes a letter followed by a numeric value. A letter run
// without a value, an unrecognized letter class or a malformed value all
// degrade to a single Unknown token covering the consumed text.
func (l *lexer) scanWord() token.Token {
	start := l.pos
	letter := l.ch

	if !startsNumber(l.peekChar()) {
		// No value follows: consume the whole letter run as one fragment.
		for isLetter(l.ch) {
			l.readChar()
		}
		return token.Token{
			Kind:   token.Unknown,
			Raw:    l.input[start:l.pos],
			Column: start,
		}
	}

	l.readChar()
	text, value, ok := l.scanNumber()
	raw := l.input[start:l.pos]
	if !ok || !token.IsRecognizedLetter(string(letter)) {
		return token.Token{Kind: token.Unknown, Raw: raw, Column: start}
	}
	return token.Token{
		Kind:      token.Word,
		Letter:    strings.ToUpper(string(letter)),
		Raw:       raw,
		Value:     value,
		ValueText: text,
		HasValue:  true,
		Column:    start,
	}
}

// scanCommaWord consumes a comma-prefixed word such as ,R1 or ,C0.5.
// A comma not followed by letter and value degrades to Unknown.
func (l *lexer) scanCommaWord() token.Token {
	start := l.pos
	if !isLetter(l.peekChar()) {
		l.readChar()
		return token.Token{Kind: token.Unknown, Raw: ",", Column: start}
	}

	l.readChar()
	letter := l.ch
	if !startsNumber(l.peekChar()) {
		for isLetter(l.ch) {
			l.readChar()
		}
		return token.Token{
			Kind:   token.Unknown,
			Raw:    l.input[start:l.pos],
			Column: start,
		}
	}

	l.readChar()
	text, value, ok := l.scanNumber()
	raw := l.input[start:l.pos]
	if !ok || !token.IsRecognizedLetter(string(letter)) {
		return token.Token{Kind: token.Unknown, Raw: raw, Column: start}
	}
	return token.Token{
		Kind:      token.Word,
		Letter:    "," + strings.ToUpper(string(letter)),
		Raw:       raw,
		Value:     value,
		ValueText: text,
		HasValue:  true,
		Column:    start,
	}
}

// scanPrefixed consumes a checksum (*nn) or macro variable (#nnn). The
// value part must be an unsigned integer; anything else degrades to an
// Unknown token covering just the prefix character.
func (l *lexer) scanPrefixed(kind token.Kind) token.Token {
	start := l.pos
	l.readChar()
	if !isDigit(l.ch) {
		return token.Token{
			Kind:   token.Unknown,
			Raw:    l.input[start : start+1],
			Column: start,
		}
	}

	numStart := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	text := l.input[numStart:l.pos]
	value, _ := strconv.ParseFloat(text, 64)
	return token.Token{
		Kind:      kind,
		Raw:       l.input[start:l.pos],
		Value:     value,
		ValueText: text,
		HasValue:  true,
		Column:    start,
	}
}

// scanNumber consumes a numeric value: an optional sign, digits and at
// most one decimal point. It reports ok=false when no digit was seen or
// a second decimal point appeared; the malformed text is still consumed
// so the caller can wrap it into an Unknown token.
func (l *lexer) scanNumber() (string, float64, bool) {
	start := l.pos
	if l.ch == '+' || l.ch == '-' {
		l.readChar()
	}

	digits := 0
	dots := 0
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			dots++
		} else {
			digits++
		}
		l.readChar()
	}

	text := l.input[start:l.pos]
	if digits == 0 || dots > 1 {
		return text, 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text, 0, false
	}
	return text, value, true
}

// scanNumberText consumes a numeric-looking fragment that appeared
// without a leading letter. The text is returned for an Unknown token.
func (l *lexer) scanNumberText() string {
	start := l.pos
	if l.ch == '+' || l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.input[start:l.pos]
}
