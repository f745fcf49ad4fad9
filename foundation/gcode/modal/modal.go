// File: modal.go
// Title: Modal Group Tracking
// Description: Group and Context types plus the Apply step that folds one
//              tokenized line into the modal state. Context is immutable
//              from the caller's point of view: Apply returns an updated
//              copy together with per-token carry flags.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package modal

import (
	"strconv"
	"strings"

	"github.com/msto63/mCW/foundation/gcode/token"
)

// Group identifies one modal group tracked across program lines.
type Group int

const (
	// GroupMotion is set by G0 through G3.
	GroupMotion Group = iota

	// GroupPlane is set by G17, G18 and G19.
	GroupPlane

	// GroupUnits is set by G20 and G21.
	GroupUnits

	// GroupPositioning is set by G90 and G91.
	GroupPositioning

	// GroupFeedMode is set by G93, G94 and G95.
	GroupFeedMode

	// GroupTool is set by any T word.
	GroupTool

	// GroupSpindle is set by any S word.
	GroupSpindle

	groupCount
)

// String returns a stable name for the group, used in logs and tests.
func (g Group) String() string {
	switch g {
	case GroupMotion:
		return "motion"
	case GroupPlane:
		return "plane"
	case GroupUnits:
		return "units"
	case GroupPositioning:
		return "positioning"
	case GroupFeedMode:
		return "feed-mode"
	case GroupTool:
		return "tool"
	case GroupSpindle:
		return "spindle"
	default:
		return "invalid"
	}
}

// AllGroups returns every tracked modal group in declaration order.
func AllGroups() []Group {
	groups := make([]Group, groupCount)
	for i := range groups {
		groups[i] = Group(i)
	}
	return groups
}

// State is the current value of one modal group.
type State struct {
	// Set reports whether the group has been assigned since the pass
	// started. An unset group means the program has not declared it yet.
	Set bool

	// Letter and Value identify the word that set the group, e.g. G/90
	// or T/3.
	Letter string
	Value  float64

	// SetAtLine is the 1-based line number of the word that set the
	// group, 0 when unset.
	SetAtLine int
}

// Word renders the state as its canonical word form, e.g. "G90" or "T3".
// It returns "" for an unset state.
func (s State) Word() string {
	if !s.Set {
		return ""
	}
	return s.Letter + strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// Context holds the value of every modal group during a document pass.
// The zero value is a fresh context with all groups unset. Context is a
// plain value: callers thread it through Apply and may keep old copies,
// which makes concurrent passes over different documents safe as long as
// each pass owns its own Context.
type Context struct {
	states [groupCount]State
}

// NewContext returns a context with all modal groups unset.
func NewContext() Context {
	return Context{}
}

// Get returns the state of the given group. Unknown groups read as unset.
func (c Context) Get(g Group) State {
	if g < 0 || g >= groupCount {
		return State{}
	}
	return c.states[g]
}

// IsSet reports whether the group has been assigned in this pass.
func (c Context) IsSet(g Group) bool {
	return c.Get(g).Set
}

// With returns a copy of the context with the given group assigned.
func (c Context) With(g Group, letter string, value float64, line int) Context {
	if g < 0 || g >= groupCount {
		return c
	}
	c.states[g] = State{Set: true, Letter: letter, Value: value, SetAtLine: line}
	return c
}

// String renders the context for logging, e.g.
// "motion=G1 plane=? units=G21 positioning=G90 feed-mode=? tool=T3 spindle=?".
func (c Context) String() string {
	var b strings.Builder
	for i := Group(0); i < groupCount; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(i.String())
		b.WriteByte('=')
		if s := c.states[i]; s.Set {
			b.WriteString(s.Word())
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// SetterGroup returns the modal group a word assigns, if any. G words
// outside the modal ranges (e.g. G4, G28) assign no group.
func SetterGroup(letter string, value float64) (Group, bool) {
	switch letter {
	case "G":
		switch value {
		case 0, 1, 2, 3:
			return GroupMotion, true
		case 17, 18, 19:
			return GroupPlane, true
		case 20, 21:
			return GroupUnits, true
		case 90, 91:
			return GroupPositioning, true
		case 93, 94, 95:
			return GroupFeedMode, true
		}
	case "T":
		return GroupTool, true
	case "S":
		return GroupSpindle, true
	}
	return 0, false
}

// ConsultedGroups returns the modal groups whose state colors the
// meaning of a word letter. Axis targets depend on motion and
// positioning mode, arc offsets on motion and plane, feed values on the
// feed mode. Letters not listed here stand on their own.
func ConsultedGroups(letter string) []Group {
	switch letter {
	case "X", "Y", "Z":
		return []Group{GroupMotion, GroupPositioning}
	case "I", "J", "K":
		return []Group{GroupMotion, GroupPlane}
	case "F":
		return []Group{GroupFeedMode}
	}
	return nil
}

// Apply folds one tokenized line into the modal context. It returns the
// updated context and one carry flag per token: a flag is true when the
// token's meaning depends on modal state inherited from an earlier line,
// false when the relevant state is undefined, was set on this same line,
// or when the token sets state itself.
func Apply(line token.Line, ctx Context) (Context, []bool) {
	flags := make([]bool, len(line.Tokens))

	var setThisLine [groupCount]bool
	for _, tok := range line.Tokens {
		if tok.Kind != token.Word || !tok.HasValue {
			continue
		}
		if g, ok := SetterGroup(tok.Letter, tok.Value); ok {
			ctx = ctx.With(g, tok.Letter, tok.Value, line.Number)
			setThisLine[g] = true
		}
	}

	for i, tok := range line.Tokens {
		if tok.Kind != token.Word {
			continue
		}
		for _, g := range ConsultedGroups(tok.Letter) {
			if ctx.IsSet(g) && !setThisLine[g] {
				flags[i] = true
				break
			}
		}
	}

	return ctx, flags
}
