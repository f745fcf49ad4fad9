// File: gcode.go
// Title: G-Code Engine Facade
// Description: High-level API for annotating whole documents. Wires the
//              lexer, modal tracker, dictionary and resolver together,
//              checks cancellation between lines and exposes atomic
//              dictionary swapping for profile changes.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation

package gcode

import (
	"context"
	"sync/atomic"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	mcwlog "github.com/msto63/mCW/foundation/core/log"
	"github.com/msto63/mCW/foundation/gcode/annotate"
	"github.com/msto63/mCW/foundation/gcode/dictionary"
	"github.com/msto63/mCW/foundation/gcode/lexer"
	"github.com/msto63/mCW/foundation/gcode/modal"
	"github.com/msto63/mCW/foundation/gcode/token"
)

// DefaultMaxDocumentBytes bounds document size when the caller does not
// configure a limit.
const DefaultMaxDocumentBytes = 4 << 20

// Options configures the annotation engine.
type Options struct {
	// Logger for engine operations (optional, defaults to the package
	// default logger).
	Logger *mcwlog.Logger

	// MaxDocumentBytes limits the size of a document per annotation
	// call. Values <= 0 select DefaultMaxDocumentBytes.
	MaxDocumentBytes int

	// Dictionary is the initial set of annotation entries. May be empty;
	// every lookup then yields the unknown-code placeholder.
	Dictionary []dictionary.Entry
}

// Engine annotates G-code documents against an exchangeable dictionary.
// An Engine is safe for concurrent use: every document pass reads one
// dictionary snapshot and threads its own modal context.
type Engine struct {
	dict    atomic.Pointer[dictionary.Dictionary]
	logger  *mcwlog.Logger
	options Options
}

// LineAnnotation pairs a tokenized line with the annotations of its
// tokens. The line keeps comment spans and exact offsets so callers can
// render highlights next to the descriptions.
type LineAnnotation struct {
	Line    token.Line
	Results []annotate.Result
}

// Comment returns the merged comment text of the line, "" if none.
func (la LineAnnotation) Comment() string {
	return la.Line.CommentText()
}

// NewEngine creates an annotation engine with the specified options.
func NewEngine(opts ...Options) *Engine {
	options := Options{
		Logger:           mcwlog.Default(),
		MaxDocumentBytes: DefaultMaxDocumentBytes,
	}

	if len(opts) > 0 {
		provided := opts[0]
		if provided.Logger != nil {
			options.Logger = provided.Logger
		}
		if provided.MaxDocumentBytes > 0 {
			options.MaxDocumentBytes = provided.MaxDocumentBytes
		}
		options.Dictionary = provided.Dictionary
	}

	logger := options.Logger.WithField("component", "gcode-engine")

	e := &Engine{
		logger:  logger,
		options: options,
	}
	initial := dictionary.Compile(options.Dictionary)
	e.dict.Store(initial)

	logger.Info("annotation engine initialized", mcwlog.Fields{
		"max_document_bytes": options.MaxDocumentBytes,
		"dictionary_entries": initial.Len(),
	})

	return e
}

// SetActiveDictionary compiles the entries and installs them as the
// active dictionary. Annotation passes already running keep the snapshot
// they started with; later passes see the new dictionary. The compiled
// dictionary is returned so callers can inspect rejected entries.
func (e *Engine) SetActiveDictionary(entries []dictionary.Entry) *dictionary.Dictionary {
	d := dictionary.Compile(entries)
	e.dict.Store(d)

	e.logger.Info("active dictionary swapped", mcwlog.Fields{
		"entries":     d.Len(),
		"invalid":     len(d.Invalid()),
		"fingerprint": d.Fingerprint()[:12],
	})
	return d
}

// ActiveDictionary returns the currently installed dictionary snapshot.
func (e *Engine) ActiveDictionary() *dictionary.Dictionary {
	return e.dict.Load()
}

// AnnotateDocument tokenizes and annotates the whole document. The
// result holds one slice of annotations per source line, in order.
// Cancellation is checked between lines; a canceled pass returns an
// error and no partial results.
func (e *Engine) AnnotateDocument(ctx context.Context, text string) ([][]annotate.Result, error) {
	detailed, err := e.AnnotateDocumentDetailed(ctx, text)
	if err != nil {
		return nil, err
	}

	results := make([][]annotate.Result, len(detailed))
	for i, la := range detailed {
		results[i] = la.Results
	}
	return results, nil
}

// AnnotateDocumentDetailed works like AnnotateDocument but keeps the
// tokenized lines alongside the annotations, which presentation layers
// need for comments and highlighting.
func (e *Engine) AnnotateDocumentDetailed(ctx context.Context, text string) ([]LineAnnotation, error) {
	timer := e.logger.StartTimer("document annotation")

	if err := e.validateInput(text); err != nil {
		timer.StopWithError(err)
		return nil, err
	}

	// One snapshot per pass: a concurrent SetActiveDictionary must not
	// change resolution semantics mid-document.
	dict := e.dict.Load()

	lines := lexer.TokenizeDocument(text)
	out := make([]LineAnnotation, 0, len(lines))
	mctx := modal.NewContext()

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			wrapped := mcwerror.Wrap(err, "document annotation canceled").
				WithCode(mcwerror.CodeCanceled).
				WithDetail("line", line.Number)
			timer.StopWithError(wrapped)
			return nil, wrapped
		}

		var flags []bool
		mctx, flags = modal.Apply(line, mctx)
		out = append(out, LineAnnotation{
			Line:    line,
			Results: annotate.ResolveLine(line, mctx, flags, dict),
		})
	}

	timer.Stop()
	e.logger.Debug("document annotated", mcwlog.Fields{
		"lines":       len(out),
		"bytes":       len(text),
		"fingerprint": dict.Fingerprint()[:12],
	})

	return out, nil
}

// AnnotateLine annotates a single line under a caller-managed modal
// context and returns the updated context. Streaming consumers use this
// to annotate documents incrementally with the same semantics as a full
// document pass.
func (e *Engine) AnnotateLine(raw string, lineNumber int, mctx modal.Context) (LineAnnotation, modal.Context) {
	dict := e.dict.Load()
	line := lexer.Tokenize(raw, lineNumber)

	var flags []bool
	mctx, flags = modal.Apply(line, mctx)
	return LineAnnotation{
		Line:    line,
		Results: annotate.ResolveLine(line, mctx, flags, dict),
	}, mctx
}

// validateInput enforces the configured document size limit.
func (e *Engine) validateInput(text string) error {
	if len(text) > e.options.MaxDocumentBytes {
		return mcwerror.Newf("document exceeds maximum size: %d > %d bytes",
			len(text), e.options.MaxDocumentBytes).
			WithCode(mcwerror.CodeDocumentTooLarge)
	}
	return nil
}
