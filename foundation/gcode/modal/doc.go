// Package modal tracks the modal state of a G-code program.
//
// Package: modal
// Title: Modal Context Tracking
// Description: Maintains the modal groups that persist across lines of a
//              program: motion mode, plane selection, units, positioning
//              mode, feed mode, active tool and spindle speed. Context is
//              a value type that is threaded explicitly through a document
//              pass, never shared between concurrent passes.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation of modal group tracking
package modal
