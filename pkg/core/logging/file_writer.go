// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     logging
// Description: FileWriter appends log entries to a local log file in batches
// Author:      Mike Stoffels with Claude
// Created:     2026-03-07
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWriter implements io.Writer and appends logs to a local file.
// Entries are buffered and written in batches so that hot paths never
// block on disk I/O.
type FileWriter struct {
	// Configuration
	path        string
	batchSize   int
	flushPeriod time.Duration

	// Destination
	file *os.File

	// Batching
	buffer   [][]byte
	bufferMu sync.Mutex
	flushCh  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}

	// Fallback
	fallback io.Writer
	enabled  bool
}

// FileWriterConfig holds configuration for FileWriter
type FileWriterConfig struct {
	Path        string        // Log file path (e.g., "./data/logs/mcw.log")
	BatchSize   int           // Number of entries to batch (default: 100)
	FlushPeriod time.Duration // How often to flush (default: 5s)
	Fallback    io.Writer     // Fallback writer for local visibility (default: os.Stdout)
}

// DefaultFileWriterConfig returns default configuration
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		Path:        "./data/logs/mcw.log",
		BatchSize:   100,
		FlushPeriod: 5 * time.Second,
		Fallback:    os.Stdout,
	}
}

// NewFileWriter creates a new FileWriter
func NewFileWriter(cfg FileWriterConfig) (*FileWriter, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushPeriod <= 0 {
		cfg.FlushPeriod = 5 * time.Second
	}
	if cfg.Fallback == nil {
		cfg.Fallback = os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	w := &FileWriter{
		path:        cfg.Path,
		batchSize:   cfg.BatchSize,
		flushPeriod: cfg.FlushPeriod,
		file:        file,
		buffer:      make([][]byte, 0, cfg.BatchSize),
		flushCh:     make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		fallback:    cfg.Fallback,
		enabled:     true,
	}

	// Start flush worker
	go w.flushWorker()

	return w, nil
}

// Write implements io.Writer
func (w *FileWriter) Write(p []byte) (n int, err error) {
	// Always write to fallback first (for local visibility)
	n, err = w.fallback.Write(p)
	if err != nil {
		return n, err
	}

	// If not enabled, we're done
	w.bufferMu.Lock()
	if !w.enabled {
		w.bufferMu.Unlock()
		return n, nil
	}
	w.bufferMu.Unlock()

	// Copy the entry; the caller may reuse p after Write returns
	entry := make([]byte, len(p))
	copy(entry, p)

	// Add to buffer
	w.bufferMu.Lock()
	w.buffer = append(w.buffer, entry)
	shouldFlush := len(w.buffer) >= w.batchSize
	w.bufferMu.Unlock()

	// Trigger flush if buffer is full
	if shouldFlush {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	}

	return n, nil
}

// flushWorker periodically flushes the buffer
func (w *FileWriter) flushWorker() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.flushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			// Final flush
			w.flush()
			return
		case <-w.flushCh:
			w.flush()
		case <-ticker.C:
			w.flush()
		}
	}
}

// flush writes buffered entries to the log file
func (w *FileWriter) flush() {
	w.bufferMu.Lock()
	if len(w.buffer) == 0 || w.file == nil {
		w.bufferMu.Unlock()
		return
	}

	// Copy and clear buffer
	entries := make([][]byte, len(w.buffer))
	copy(entries, w.buffer)
	w.buffer = w.buffer[:0]
	file := w.file
	w.bufferMu.Unlock()

	for _, entry := range entries {
		if _, err := file.Write(entry); err != nil {
			// Write failed - remaining entries are lost but were
			// already written to the fallback
			return
		}
	}
}

// Close gracefully shuts down the FileWriter
func (w *FileWriter) Close() error {
	close(w.stopCh)
	<-w.doneCh // Wait for final flush

	w.bufferMu.Lock()
	defer w.bufferMu.Unlock()

	w.enabled = false
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// Path returns the log file path
func (w *FileWriter) Path() string {
	return w.path
}

// IsEnabled returns whether the file sink is active
func (w *FileWriter) IsEnabled() bool {
	w.bufferMu.Lock()
	defer w.bufferMu.Unlock()
	return w.enabled
}
