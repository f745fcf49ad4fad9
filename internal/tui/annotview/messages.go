// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     annotview
// Description: Message types for async operations in the annotation viewer
// Author:      Mike Stoffels with Claude
// Created:     2026-03-08
// License:     MIT
// ============================================================================

package annotview

import (
	"github.com/msto63/mCW/internal/jacquard/service"
)

// Message types for tea.Cmd async operations

// fileLoadedMsg is sent when a G-code file has been read from disk
type fileLoadedMsg struct {
	path string
	text string
	err  error
}

// annotatedMsg is sent when an annotation pass has finished
type annotatedMsg struct {
	resp *service.AnnotateResponse
	err  error
}

// profilesLoadedMsg is sent when the profile catalog has been loaded
type profilesLoadedMsg struct {
	names []string
	err   error
}
