// Package gcode is the annotation engine for G-code documents.
//
// Package: gcode
// Title: G-Code Annotation Engine
// Description: Coordinates the tokenizer, modal tracker, dictionary and
//              resolver into a document-level annotation pass. The engine
//              holds the active dictionary behind an atomic pointer:
//              running passes keep the snapshot they started with while
//              profile switches install a new dictionary for later runs.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation of the engine facade
package gcode
