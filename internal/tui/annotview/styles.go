// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     annotview
// Description: Styles for the annotation viewer TUI
// Author:      Mike Stoffels with Claude
// Created:     2026-03-08
// License:     MIT
// ============================================================================

package annotview

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/mCW/foundation/gcode/token"
)

// Color Palette - Same as other TUI components for consistency
var (
	// Primary colors
	ColorPrimary = lipgloss.Color("#8B5CF6") // Violet
	ColorAccent  = lipgloss.Color("#F59E0B") // Amber
	ColorSuccess = lipgloss.Color("#10B981") // Emerald
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorDimmed  = lipgloss.Color("#374151") // Dark Gray

	// Background colors
	ColorBgPanel = lipgloss.Color("#1E293B") // Slate 800

	// Text colors
	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500

	// Letter class colors
	ColorMotion   = lipgloss.Color("#8B5CF6") // Violet - G words
	ColorMachine  = lipgloss.Color("#F59E0B") // Amber - M words
	ColorGeometry = lipgloss.Color("#06B6D4") // Cyan - axes and arc parameters
	ColorTech     = lipgloss.Color("#10B981") // Emerald - F/S/T words
)

// Logo/Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	TitlePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	ProfileBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)
)

// Annotation area styles
var (
	ViewPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	LineNumberStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	SourceGapStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	NoteStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	CommentStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true)

	CarryStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)
)

// Token letter class styles
var (
	StyleWordMotion = lipgloss.NewStyle().
			Foreground(ColorMotion).
			Bold(true)

	StyleWordMachine = lipgloss.NewStyle().
				Foreground(ColorMachine).
				Bold(true)

	StyleWordGeometry = lipgloss.NewStyle().
				Foreground(ColorGeometry)

	StyleWordTech = lipgloss.NewStyle().
			Foreground(ColorTech)

	StyleWordLineNo = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	StyleMarker = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleUnknown = lipgloss.NewStyle().
			Foreground(ColorError)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	StatusCachedStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess)
)

// Help styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)

// IconCarry marks descriptions that depend on modal state from an
// earlier line.
const IconCarry = "⟲"

// Logo
const Logo = "mCW AnnotView"

// StyleForToken returns the style for a token's letter class
func StyleForToken(tok token.Token) lipgloss.Style {
	if tok.Kind != token.Word {
		if tok.Kind == token.Unknown {
			return StyleUnknown
		}
		return StyleMarker
	}

	letter := tok.Letter
	if len(letter) > 1 && letter[0] == ',' {
		letter = letter[1:]
	}

	switch letter {
	case "G":
		return StyleWordMotion
	case "M":
		return StyleWordMachine
	case "X", "Y", "Z", "I", "J", "K", "R", "Q", "P", "C":
		return StyleWordGeometry
	case "F", "S", "T":
		return StyleWordTech
	case "N":
		return StyleWordLineNo
	default:
		return NoteStyle
	}
}

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}
