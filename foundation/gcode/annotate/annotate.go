// File: annotate.go
// Title: Token Annotation Resolver
// Description: Maps tokens to descriptions. Exact dictionary hits render
//              the description verbatim, range and wildcard hits append
//              the token's value, misses yield the fixed placeholder
//              "Unknown code: <letter><value>". Coordinate and feed
//              words additionally carry a modal context qualifier.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package annotate

import (
	"github.com/msto63/mCW/foundation/gcode/dictionary"
	"github.com/msto63/mCW/foundation/gcode/modal"
	"github.com/msto63/mCW/foundation/gcode/token"
)

// Fallback descriptions for tokens the dictionary does not cover.
const (
	programMarkerFallback = "Program start/end marker"
	blockSkipFallback     = "Block skip"
	checksumFallback      = "Checksum = "
	macroFallback         = "Macro variable #"
	unknownCodePrefix     = "Unknown code: "
	unrecognizedPrefix    = "Unrecognized fragment: "
)

// Result is the annotation produced for a single token.
type Result struct {
	// Token is the annotated token, offsets included, so callers can
	// highlight the source span this result explains.
	Token token.Token

	// Description is the human-readable explanation.
	Description string

	// ModalCarry is true when the explanation depends on modal state
	// inherited from an earlier line rather than declared on this one.
	ModalCarry bool
}

// Resolve annotates a single token against the dictionary and the modal
// context valid after the token's line has been applied. Resolve is
// pure: it reads its inputs and returns a fresh Result. The ModalCarry
// flag is left false; callers obtain it from the modal tracker.
func Resolve(tok token.Token, ctx modal.Context, dict *dictionary.Dictionary) Result {
	return Result{Token: tok, Description: describe(tok, ctx, dict)}
}

// ResolveLine annotates every token of a line. carryFlags comes from
// modal.Apply for the same line; a nil slice leaves all flags false.
func ResolveLine(line token.Line, ctx modal.Context, carryFlags []bool, dict *dictionary.Dictionary) []Result {
	results := make([]Result, len(line.Tokens))
	for i, tok := range line.Tokens {
		results[i] = Resolve(tok, ctx, dict)
		if i < len(carryFlags) {
			results[i].ModalCarry = carryFlags[i]
		}
	}
	return results
}

func describe(tok token.Token, ctx modal.Context, dict *dictionary.Dictionary) string {
	switch tok.Kind {
	case token.Word:
		return describeWord(tok, ctx, dict)

	case token.ProgramMarker:
		if m, ok := dict.LookupValueless("%"); ok {
			return m.Entry.Description
		}
		return programMarkerFallback

	case token.BlockSkip:
		if m, ok := dict.LookupValueless("/"); ok {
			return m.Entry.Description
		}
		return blockSkipFallback

	case token.Checksum:
		if m, ok := dict.Lookup("*", tok.Value); ok {
			return renderMatch(m, tok)
		}
		return checksumFallback + tok.CanonicalValue()

	case token.MacroVariable:
		if m, ok := dict.Lookup("#", tok.Value); ok {
			return renderMatch(m, tok)
		}
		return macroFallback + tok.CanonicalValue()

	default:
		return unrecognizedPrefix + tok.Raw
	}
}

func describeWord(tok token.Token, ctx modal.Context, dict *dictionary.Dictionary) string {
	m, ok := dict.Lookup(tok.Letter, tok.Value)
	if !ok {
		// The placeholder is fixed wording; no qualifiers are added so
		// that unknown codes render identically everywhere.
		return unknownCodePrefix + tok.Letter + tok.CanonicalValue()
	}
	return renderMatch(m, tok) + qualifier(tok.Letter, ctx)
}

// renderMatch renders an exact hit verbatim and appends the concrete
// value for range and wildcard hits, e.g. "Vorschub = 250".
func renderMatch(m dictionary.Match, tok token.Token) string {
	if m.Kind == dictionary.PatternExact {
		return m.Entry.Description
	}
	return m.Entry.Description + " = " + tok.CanonicalValue()
}

// qualifier appends the modal context a word is interpreted under. Axis
// targets name the positioning mode, arc offsets the motion mode, feed
// values the feed mode.
func qualifier(letter string, ctx modal.Context) string {
	switch letter {
	case "X", "Y", "Z":
		s := ctx.Get(modal.GroupPositioning)
		if !s.Set {
			return " (undefined positioning mode)"
		}
		if s.Value == 91 {
			return " (incremental positioning)"
		}
		return " (absolute positioning)"

	case "I", "J", "K":
		s := ctx.Get(modal.GroupMotion)
		if !s.Set {
			return " (motion mode undefined)"
		}
		return " (motion " + s.Word() + ")"

	case "F":
		s := ctx.Get(modal.GroupFeedMode)
		if !s.Set {
			return ""
		}
		switch s.Value {
		case 93:
			return " (inverse time feed)"
		case 95:
			return " (feed per revolution)"
		default:
			return " (feed per minute)"
		}
	}
	return ""
}
