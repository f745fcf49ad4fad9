// File: dictionary.go
// Title: Annotation Dictionary Compilation and Lookup
// Description: Entry parsing, pattern compilation and the lookup order
//              exact > range > wildcard with declaration order breaking
//              ties. A compiled Dictionary never changes, so any number
//              of annotation passes may read it concurrently.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package dictionary

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// PatternKind classifies how an entry matches values.
type PatternKind int

const (
	// PatternExact matches a single numeric value.
	PatternExact PatternKind = iota

	// PatternRange matches any value inside a closed interval.
	PatternRange

	// PatternWildcard matches every value of the letter class.
	PatternWildcard
)

// String returns a stable name for the pattern kind.
func (k PatternKind) String() string {
	switch k {
	case PatternExact:
		return "exact"
	case PatternRange:
		return "range"
	case PatternWildcard:
		return "wildcard"
	default:
		return "invalid"
	}
}

// Entry is one dictionary line as stored in a profile. Pattern is either
// a single number ("1", "12.5"), a numeric range ("0-3", "-5..5") or the
// wildcard "*".
type Entry struct {
	Letter      string `json:"letter"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	ModalGroup  string `json:"modal_group,omitempty"`
}

// compiledEntry is an Entry with its pattern parsed and its declaration
// position recorded for tie-breaking.
type compiledEntry struct {
	entry Entry
	kind  PatternKind
	exact float64
	lo    float64
	hi    float64
	order int
}

// matches reports whether the compiled pattern covers the value.
func (c compiledEntry) matches(value float64) bool {
	switch c.kind {
	case PatternExact:
		return value == c.exact
	case PatternRange:
		return value >= c.lo && value <= c.hi
	case PatternWildcard:
		return true
	default:
		return false
	}
}

// Match is a successful dictionary lookup.
type Match struct {
	Entry Entry
	Kind  PatternKind
}

// Dictionary is a compiled, immutable set of annotation entries.
type Dictionary struct {
	entries     []Entry
	invalid     []Entry
	byLetter    map[string][]compiledEntry
	fingerprint string
}

// Compile parses and indexes the given entries. Entries with an empty
// letter or an unparsable pattern are never matched; they are collected
// and exposed via Invalid so callers can report them. Compile accepts an
// empty or nil slice, which yields a dictionary that matches nothing.
func Compile(entries []Entry) *Dictionary {
	d := &Dictionary{
		byLetter: make(map[string][]compiledEntry),
	}

	h := sha256.New()
	for i, e := range entries {
		e.Letter = strings.ToUpper(strings.TrimSpace(e.Letter))
		e.Pattern = strings.TrimSpace(e.Pattern)

		h.Write([]byte(e.Letter))
		h.Write([]byte{0x1f})
		h.Write([]byte(e.Pattern))
		h.Write([]byte{0x1f})
		h.Write([]byte(e.Description))
		h.Write([]byte{0x1f})
		h.Write([]byte(e.ModalGroup))
		h.Write([]byte{0x1e})

		ce, ok := compilePattern(e)
		if !ok {
			d.invalid = append(d.invalid, e)
			continue
		}
		ce.order = i
		d.entries = append(d.entries, e)
		d.byLetter[e.Letter] = append(d.byLetter[e.Letter], ce)
	}
	d.fingerprint = hex.EncodeToString(h.Sum(nil))

	// Exact entries are consulted before ranges, ranges before
	// wildcards. Within one kind the first declared entry wins.
	for letter := range d.byLetter {
		list := d.byLetter[letter]
		sort.Slice(list, func(a, b int) bool {
			if list[a].kind != list[b].kind {
				return list[a].kind < list[b].kind
			}
			return list[a].order < list[b].order
		})
		d.byLetter[letter] = list
	}

	return d
}

// compilePattern parses the entry's pattern string.
func compilePattern(e Entry) (compiledEntry, bool) {
	ce := compiledEntry{entry: e}
	if e.Letter == "" {
		return ce, false
	}

	p := e.Pattern
	switch {
	case p == "*":
		ce.kind = PatternWildcard
		return ce, true

	case p == "":
		return ce, false
	}

	if v, err := strconv.ParseFloat(p, 64); err == nil {
		ce.kind = PatternExact
		ce.exact = v
		return ce, true
	}

	if lo, hi, ok := parseRange(p); ok {
		ce.kind = PatternRange
		ce.lo = lo
		ce.hi = hi
		return ce, true
	}

	return ce, false
}

// parseRange accepts "lo..hi" and "lo-hi" range notations. Negative
// bounds are supported by trying every interior split point for the
// dash form. Reversed bounds are normalized.
func parseRange(p string) (float64, float64, bool) {
	if left, right, found := strings.Cut(p, ".."); found {
		return parseBounds(left, right)
	}

	for i := 1; i < len(p); i++ {
		if p[i] != '-' {
			continue
		}
		if lo, hi, ok := parseBounds(p[:i], p[i+1:]); ok {
			return lo, hi, true
		}
	}
	return 0, 0, false
}

func parseBounds(left, right string) (float64, float64, bool) {
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(left), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// Lookup resolves a letter/value pair against the dictionary. The letter
// is matched case-insensitively. The most specific matching entry wins:
// exact before range before wildcard, first declared on a tie.
func (d *Dictionary) Lookup(letter string, value float64) (Match, bool) {
	for _, ce := range d.byLetter[strings.ToUpper(letter)] {
		if ce.matches(value) {
			return Match{Entry: ce.entry, Kind: ce.kind}, true
		}
	}
	return Match{}, false
}

// LookupValueless resolves a letter without a value, as used by program
// markers and block skips. Only wildcard entries can match.
func (d *Dictionary) LookupValueless(letter string) (Match, bool) {
	for _, ce := range d.byLetter[strings.ToUpper(letter)] {
		if ce.kind == PatternWildcard {
			return Match{Entry: ce.entry, Kind: ce.kind}, true
		}
	}
	return Match{}, false
}

// Len returns the number of valid entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the valid entries in declaration order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Invalid returns a copy of the entries that failed to compile.
func (d *Dictionary) Invalid() []Entry {
	out := make([]Entry, len(d.invalid))
	copy(out, d.invalid)
	return out
}

// Fingerprint returns a stable content hash over the input entries,
// suitable as a cache key component for annotation results.
func (d *Dictionary) Fingerprint() string {
	return d.fingerprint
}
