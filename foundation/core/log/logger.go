// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the central logger with level filtering, pluggable
//              formatters, contextual field inheritance and severity-aware
//              logging of mCW errors. Loggers are safe for concurrent use.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-03
// Modified: 2026-02-03
//
// Change History:
// - 2026-02-03 v0.1.0: Initial implementation

package log

import (
	"errors"
	"io"
	"os"
	"sync"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
)

// Logger represents a structured logger with contextual information
type Logger struct {
	mu            sync.RWMutex
	name          string
	level         Level
	formatter     Formatter
	output        io.Writer
	contextFields Fields
	requestID     string
}

// Config holds logger configuration
type Config struct {
	// Name identifies the logger in output (usually the component name)
	Name string

	// Level is the minimum level that gets logged
	Level Level

	// Format selects the output format
	Format Format

	// Output is the destination writer; defaults to os.Stdout
	Output io.Writer
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:  DefaultLevel(),
		Format: FormatConsole,
		Output: os.Stdout,
	}
}

// New creates a logger with the given name and default configuration
func New(name string) *Logger {
	cfg := DefaultConfig()
	cfg.Name = name
	return NewWithConfig(cfg)
}

// NewWithConfig creates a logger with the given configuration
func NewWithConfig(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Logger{
		name:      cfg.Name,
		level:     cfg.Level,
		formatter: GetFormatter(cfg.Format),
		output:    cfg.Output,
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Level returns the current minimum level
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetLevel changes the minimum level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput changes the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetFormatter changes the formatter
func (l *Logger) SetFormatter(f Formatter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formatter = f
}

// clone creates a copy of the logger sharing output and formatter
func (l *Logger) clone() *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		name:          l.name,
		level:         l.level,
		formatter:     l.formatter,
		output:        l.output,
		contextFields: l.contextFields.Clone(),
		requestID:     l.requestID,
	}
}

// WithField returns a new logger that adds the field to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	c := l.clone()
	if c.contextFields == nil {
		c.contextFields = make(Fields)
	}
	c.contextFields[key] = value
	return c
}

// WithFields returns a new logger that adds the fields to every entry
func (l *Logger) WithFields(fields Fields) *Logger {
	c := l.clone()
	if c.contextFields == nil {
		c.contextFields = make(Fields, len(fields))
	}
	for k, v := range fields {
		c.contextFields[k] = v
	}
	return c
}

// WithRequestID returns a new logger carrying the request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	c := l.clone()
	c.requestID = requestID
	return c
}

// log builds and writes an entry if the level passes the filter
func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	if !level.ShouldLog(l.Level()) {
		return
	}

	entry := NewEntry(level, message).WithLogger(l.name)

	l.mu.RLock()
	if l.requestID != "" {
		entry.WithRequestID(l.requestID)
	}
	if len(l.contextFields) > 0 {
		entry.WithFields(l.contextFields)
	}
	l.mu.RUnlock()

	for _, f := range fields {
		entry.WithFields(f)
	}
	if err != nil {
		entry.WithError(err)
	}

	l.write(entry)
}

// write formats and emits a finished entry
func (l *Logger) write(entry *Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.formatter.Format(entry)
	if err != nil {
		io.WriteString(os.Stderr, "log: formatting failed: "+err.Error()+"\n")
		return
	}
	l.output.Write(data)
}

// Trace logs a message at trace level
func (l *Logger) Trace(message string, fields ...Fields) {
	l.log(LevelTrace, message, nil, fields...)
}

// Debug logs a message at debug level
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(LevelDebug, message, nil, fields...)
}

// Info logs a message at info level
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(LevelInfo, message, nil, fields...)
}

// Warn logs a message at warn level
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(LevelWarn, message, nil, fields...)
}

// Error logs a message at error level
func (l *Logger) Error(message string, fields ...Fields) {
	l.log(LevelError, message, nil, fields...)
}

// ErrorWithErr logs a message together with an error at error level
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// Fatal logs a message at fatal level and terminates the program
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	os.Exit(1)
}

// Audit logs an audit event; audit events bypass the level filter
func (l *Logger) Audit(message string, fields ...Fields) {
	l.log(LevelAudit, message, nil, fields...)
}

// LogError logs an error with severity-appropriate level and full context
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	var mcwErr *mcwerror.Error
	if !errors.As(err, &mcwErr) {
		l.log(LevelError, err.Error(), err)
		return
	}

	fields := Fields{
		"error_code":     mcwErr.Code().String(),
		"error_severity": mcwErr.Severity().String(),
	}
	if op := mcwErr.Operation(); op != "" {
		fields["error_operation"] = op
	}
	for k, v := range mcwErr.Details() {
		fields["error_"+k] = v
	}

	switch mcwErr.Severity() {
	case mcwerror.SeverityLow:
		l.log(LevelInfo, err.Error(), err, fields)
	case mcwerror.SeverityMedium:
		l.log(LevelWarn, err.Error(), err, fields)
	default:
		l.log(LevelError, err.Error(), err, fields)
	}
}

// StartTimer creates and starts a performance timer bound to this logger
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// defaultLogger is the package-level logger used by the package functions
var (
	defaultLogger   = New("mcw")
	defaultLoggerMu sync.RWMutex
)

// SetDefault replaces the package-level default logger
func SetDefault(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if logger != nil {
		defaultLogger = logger
	}
}

// Default returns the package-level default logger
func Default() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// Trace logs at trace level using the default logger
func Trace(message string, fields ...Fields) { Default().Trace(message, fields...) }

// Debug logs at debug level using the default logger
func Debug(message string, fields ...Fields) { Default().Debug(message, fields...) }

// Info logs at info level using the default logger
func Info(message string, fields ...Fields) { Default().Info(message, fields...) }

// Warn logs at warn level using the default logger
func Warn(message string, fields ...Fields) { Default().Warn(message, fields...) }

// Error logs at error level using the default logger
func Error(message string, fields ...Fields) { Default().Error(message, fields...) }
