// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating loggers with file integration
// Author:      Mike Stoffels with Claude
// Created:     2026-03-07
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"
	"time"

	mcwlog "github.com/msto63/mCW/foundation/core/log"
)

var (
	// Global FileWriter instance (singleton)
	globalFileWriter *FileWriter
	fileWriterOnce   sync.Once
	fileWriterMu     sync.RWMutex
)

var (
	// Defaults applied by New, settable once at process startup
	defaultsMu   sync.RWMutex
	defaultLevel = "info"
	defaultFile  string
)

// SetDefaultLevel sets the log level used by loggers created with New.
// Call it before the first component creates its logger.
func SetDefaultLevel(level string) {
	defaultsMu.Lock()
	defaultLevel = level
	defaultsMu.Unlock()
}

// SetDefaultFile routes loggers created with New into a shared log file
func SetDefaultFile(path string) {
	defaultsMu.Lock()
	defaultFile = path
	defaultsMu.Unlock()
}

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (trace, debug, info, warn, error, fatal)
	Level string

	// Log file configuration (optional)
	FilePath string // If empty, file integration is disabled

	// Output format
	Format string // "json", "text" or "console" (default: json)

	// Additional outputs (besides stdout and the log file)
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
	}
}

// NewLogger creates a new Foundation logger with optional file integration
func NewLogger(cfg LoggerConfig) *mcwlog.Logger {
	// Determine log level
	level := parseLevel(cfg.Level)

	// Build output writer
	var output io.Writer = os.Stdout

	// Add file writer if configured
	if cfg.FilePath != "" {
		fileWriter := getOrCreateFileWriter(cfg.FilePath)
		if fileWriter != nil {
			// FileWriter already writes to stdout internally, so just use it
			output = fileWriter
		}
	}

	// Add additional outputs if specified
	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	// Determine format
	format := mcwlog.FormatJSON
	switch cfg.Format {
	case "text":
		format = mcwlog.FormatText
	case "console":
		format = mcwlog.FormatConsole
	}

	// Create logger
	logger := mcwlog.NewWithConfig(mcwlog.Config{
		Level:  level,
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})

	return logger
}

// NewServiceLogger creates a logger for a service with standard configuration
func NewServiceLogger(serviceName string, filePath string) *mcwlog.Logger {
	cfg := DefaultLoggerConfig(serviceName)
	cfg.FilePath = filePath
	return NewLogger(cfg)
}

// NewSimpleLogger creates a simple logger without file integration
func NewSimpleLogger(serviceName string) *mcwlog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

// getOrCreateFileWriter returns the global FileWriter, creating it if necessary
func getOrCreateFileWriter(path string) *FileWriter {
	fileWriterOnce.Do(func() {
		writer, err := NewFileWriter(FileWriterConfig{
			Path:        path,
			BatchSize:   100,
			FlushPeriod: 5 * time.Second,
			Fallback:    os.Stdout,
		})
		if err != nil {
			return
		}
		globalFileWriter = writer
	})

	return globalFileWriter
}

// GetGlobalFileWriter returns the global FileWriter instance
func GetGlobalFileWriter() *FileWriter {
	fileWriterMu.RLock()
	defer fileWriterMu.RUnlock()
	return globalFileWriter
}

// CloseGlobalFileWriter closes the global FileWriter
func CloseGlobalFileWriter() error {
	fileWriterMu.Lock()
	defer fileWriterMu.Unlock()

	if globalFileWriter != nil {
		err := globalFileWriter.Close()
		globalFileWriter = nil
		return err
	}
	return nil
}

// parseLevel converts a string level to mcwlog.Level
func parseLevel(level string) mcwlog.Level {
	switch level {
	case "trace":
		return mcwlog.LevelTrace
	case "debug":
		return mcwlog.LevelDebug
	case "info":
		return mcwlog.LevelInfo
	case "warn", "warning":
		return mcwlog.LevelWarn
	case "error":
		return mcwlog.LevelError
	case "fatal":
		return mcwlog.LevelFatal
	default:
		return mcwlog.LevelInfo
	}
}

// Compatibility layer for code using the simple key/value Logger

// Logger wraps the Foundation logger for compatibility
type Logger struct {
	*mcwlog.Logger
	name string
}

// New creates a new simple logger (compatibility with existing code)
func New(name string) *Logger {
	defaultsMu.RLock()
	level, file := defaultLevel, defaultFile
	defaultsMu.RUnlock()

	cfg := DefaultLoggerConfig(name)
	cfg.Level = level
	cfg.FilePath = file

	return &Logger{
		Logger: NewLogger(cfg),
		name:   name,
	}
}

// WithLevel returns a new logger with the specified level (compatibility)
func (l *Logger) WithLevel(level Level) *Logger {
	cfg := DefaultLoggerConfig(l.name)
	cfg.Level = level.String()

	return &Logger{
		Logger: NewLogger(cfg),
		name:   l.name,
	}
}

// Debug logs a debug message (compatibility with key-value pairs)
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message (compatibility with key-value pairs)
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message (compatibility with key-value pairs)
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message (compatibility with key-value pairs)
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to mcwlog.Fields
func toFields(keysAndValues ...interface{}) mcwlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(mcwlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
