// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     version
// Description: Central version management for all components
// Author:      Mike Stoffels with Claude
// Created:     2026-03-07
// License:     MIT
// ============================================================================

package version

// Version constants for all mCW components
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Jacquard = "0.1.0"
	Engine   = "0.1.0"
	CLI      = "0.1.0"
	TUI      = "0.1.0"
)

// ServiceVersion returns the version for a given component name
func ServiceVersion(name string) string {
	switch name {
	case "jacquard":
		return Jacquard
	case "engine", "gcode":
		return Engine
	case "mcw", "cli":
		return CLI
	case "tui", "annotview":
		return TUI
	default:
		return Platform
	}
}
