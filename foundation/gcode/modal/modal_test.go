// File: modal_test.go
// Title: Tests for Modal Group Tracking
// Description: Table-driven tests for setter classification, context
//              threading across lines, carry flag computation and the
//              isolation of independent passes.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package modal

import (
	"testing"

	"github.com/msto63/mCW/foundation/gcode/lexer"
)

func TestSetterGroup(t *testing.T) {
	tests := []struct {
		letter    string
		value     float64
		wantGroup Group
		wantOK    bool
	}{
		{"G", 0, GroupMotion, true},
		{"G", 1, GroupMotion, true},
		{"G", 2, GroupMotion, true},
		{"G", 3, GroupMotion, true},
		{"G", 17, GroupPlane, true},
		{"G", 19, GroupPlane, true},
		{"G", 20, GroupUnits, true},
		{"G", 21, GroupUnits, true},
		{"G", 90, GroupPositioning, true},
		{"G", 91, GroupPositioning, true},
		{"G", 93, GroupFeedMode, true},
		{"G", 94, GroupFeedMode, true},
		{"G", 95, GroupFeedMode, true},
		{"T", 3, GroupTool, true},
		{"S", 12000, GroupSpindle, true},
		{"G", 4, 0, false},
		{"G", 28, 0, false},
		{"X", 10, 0, false},
		{"M", 6, 0, false},
	}

	for _, tt := range tests {
		g, ok := SetterGroup(tt.letter, tt.value)
		if ok != tt.wantOK || (ok && g != tt.wantGroup) {
			t.Errorf("SetterGroup(%q, %v) = (%v, %v), want (%v, %v)",
				tt.letter, tt.value, g, ok, tt.wantGroup, tt.wantOK)
		}
	}
}

func TestContextWithAndGet(t *testing.T) {
	ctx := NewContext()
	if ctx.IsSet(GroupMotion) {
		t.Fatal("fresh context should have no groups set")
	}

	updated := ctx.With(GroupMotion, "G", 1, 5)
	if !updated.IsSet(GroupMotion) {
		t.Error("updated context should have motion set")
	}
	if ctx.IsSet(GroupMotion) {
		t.Error("original context must stay unchanged")
	}

	s := updated.Get(GroupMotion)
	if s.Letter != "G" || s.Value != 1 || s.SetAtLine != 5 {
		t.Errorf("state = %+v", s)
	}
	if s.Word() != "G1" {
		t.Errorf("Word() = %q, want G1", s.Word())
	}
}

func TestContextString(t *testing.T) {
	ctx := NewContext().
		With(GroupMotion, "G", 1, 1).
		With(GroupUnits, "G", 21, 1).
		With(GroupTool, "T", 3, 2)

	want := "motion=G1 plane=? units=G21 positioning=? feed-mode=? tool=T3 spindle=?"
	if got := ctx.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestApplyPersistsAcrossLines(t *testing.T) {
	ctx := NewContext()

	ctx, _ = Apply(lexer.Tokenize("G90 G21", 1), ctx)
	ctx, _ = Apply(lexer.Tokenize("G1 X10 F100", 2), ctx)
	ctx, _ = Apply(lexer.Tokenize("X20", 3), ctx)

	tests := []struct {
		group Group
		word  string
		line  int
	}{
		{GroupPositioning, "G90", 1},
		{GroupUnits, "G21", 1},
		{GroupMotion, "G1", 2},
	}
	for _, tt := range tests {
		s := ctx.Get(tt.group)
		if !s.Set || s.Word() != tt.word || s.SetAtLine != tt.line {
			t.Errorf("group %v = %+v, want %s from line %d", tt.group, s, tt.word, tt.line)
		}
	}
	if ctx.IsSet(GroupPlane) {
		t.Error("plane was never declared and must stay unset")
	}
}

func TestApplyCarryFlags(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		// wantFlags holds the expected carry flags for the tokens of the
		// last line.
		wantFlags []bool
	}{
		{
			name:      "coordinate inherits positioning from earlier line",
			lines:     []string{"G90", "X10"},
			wantFlags: []bool{true},
		},
		{
			name:      "same line setter is not a carry",
			lines:     []string{"G90 X10"},
			wantFlags: []bool{false, false},
		},
		{
			name:      "undefined context is not a carry",
			lines:     []string{"X10"},
			wantFlags: []bool{false},
		},
		{
			name:      "motion inherited, positioning same line",
			lines:     []string{"G1", "G90 X10"},
			wantFlags: []bool{false, true},
		},
		{
			name:      "feed inherits feed mode",
			lines:     []string{"G94", "F250"},
			wantFlags: []bool{true},
		},
		{
			name:      "arc offsets inherit motion and plane",
			lines:     []string{"G2 G17", "I1 J2"},
			wantFlags: []bool{true, true},
		},
		{
			name:      "setters never carry",
			lines:     []string{"G90", "G91 T2 S500"},
			wantFlags: []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext()
			var flags []bool
			for i, raw := range tt.lines {
				ctx, flags = Apply(lexer.Tokenize(raw, i+1), ctx)
			}
			if len(flags) != len(tt.wantFlags) {
				t.Fatalf("got %d flags, want %d", len(flags), len(tt.wantFlags))
			}
			for i, want := range tt.wantFlags {
				if flags[i] != want {
					t.Errorf("token %d carry = %v, want %v", i, flags[i], want)
				}
			}
		})
	}
}

func TestApplyIgnoresNonWords(t *testing.T) {
	ctx, flags := Apply(lexer.Tokenize("% / *71 #100 GOTO", 1), NewContext())

	for _, g := range AllGroups() {
		if ctx.IsSet(g) {
			t.Errorf("group %v must stay unset", g)
		}
	}
	for i, f := range flags {
		if f {
			t.Errorf("token %d should not carry", i)
		}
	}
}

// Two passes threading their own contexts must not interfere.
func TestIndependentPasses(t *testing.T) {
	a := NewContext()
	b := NewContext()

	a, _ = Apply(lexer.Tokenize("G90", 1), a)
	b, _ = Apply(lexer.Tokenize("G91", 1), b)

	if a.Get(GroupPositioning).Word() != "G90" {
		t.Errorf("pass a positioning = %q", a.Get(GroupPositioning).Word())
	}
	if b.Get(GroupPositioning).Word() != "G91" {
		t.Errorf("pass b positioning = %q", b.Get(GroupPositioning).Word())
	}
}
