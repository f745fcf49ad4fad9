// File: config.go
// Title: Configuration Loading and Access
// Description: Implements the Config type with TOML/YAML parsing, format
//              auto-detection, environment overrides, defaults merging and
//              dotted-path getters with type coercion.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
)

// Format identifies a configuration file format
type Format int

const (
	// FormatAuto detects the format from the file extension
	FormatAuto Format = iota

	// FormatTOML forces TOML parsing
	FormatTOML

	// FormatYAML forces YAML parsing
	FormatYAML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// Config holds parsed configuration data with thread-safe access
type Config struct {
	mu        sync.RWMutex
	data      map[string]interface{}
	filePath  string
	format    Format
	envPrefix string
}

// LoadOptions controls configuration loading behavior
type LoadOptions struct {
	// Format forces a specific file format; FormatAuto detects by extension
	Format Format

	// EnvPrefix enables environment overrides, e.g. "MCW" turns the key
	// "jacquard.port" into the variable MCW_JACQUARD_PORT
	EnvPrefix string

	// Defaults are merged for keys absent from the file (dotted paths)
	Defaults map[string]interface{}
}

// Load reads a configuration file with default options
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions reads a configuration file with the given options
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mcwerror.Wrap(err, "configuration file not found").
				WithCode(mcwerror.CodeConfigNotFound).
				WithOperation("config.Load").
				WithDetail("path", path)
		}
		return nil, mcwerror.Wrap(err, "configuration file not readable").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("config.Load").
			WithDetail("path", path)
	}

	format := opts.Format
	if format == FormatAuto {
		format = detectFormat(path)
	}

	data, err := parseContent(content, format)
	if err != nil {
		return nil, mcwerror.Wrap(err, "configuration parsing failed").
			WithCode(mcwerror.CodeConfigParse).
			WithOperation("config.Load").
			WithDetail("path", path).
			WithDetail("format", format.String())
	}

	cfg := &Config{
		data:      data,
		filePath:  path,
		format:    format,
		envPrefix: opts.EnvPrefix,
	}
	cfg.mergeDefaults(opts.Defaults)

	return cfg, nil
}

// LoadFromString parses configuration from a string, mainly for tests
func LoadFromString(content string, format Format) (*Config, error) {
	if format == FormatAuto {
		format = FormatTOML
	}

	data, err := parseContent([]byte(content), format)
	if err != nil {
		return nil, mcwerror.Wrap(err, "configuration parsing failed").
			WithCode(mcwerror.CodeConfigParse).
			WithOperation("config.LoadFromString").
			WithDetail("format", format.String())
	}

	return &Config{data: data, format: format}, nil
}

// detectFormat determines the format from the file extension
func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// parseContent unmarshals raw bytes according to the format
func parseContent(content []byte, format Format) (map[string]interface{}, error) {
	data := make(map[string]interface{})

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, err
		}
	default:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// mergeDefaults sets defaults for keys that are absent
func (c *Config) mergeDefaults(defaults map[string]interface{}) {
	for key, value := range defaults {
		if c.getValue(key) == nil {
			c.set(key, value)
		}
	}
}

// SetEnvPrefix enables environment variable overrides
func (c *Config) SetEnvPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envPrefix = prefix
}

// getValue resolves a dotted path in the nested data; nil when absent
func (c *Config) getValue(key string) interface{} {
	parts := strings.Split(key, ".")
	var current interface{} = c.data

	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}

	return current
}

// getEnvValue returns the environment override for a key, if any
func (c *Config) getEnvValue(key string) string {
	if c.envPrefix == "" {
		return ""
	}
	envKey := c.envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return os.Getenv(envKey)
}

// GetString returns a string value with optional default
func (c *Config) GetString(key string, defaultValue ...string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if env := c.getEnvValue(key); env != "" {
		return env
	}

	value := c.getValue(key)
	if value == nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetInt returns an integer value with optional default
func (c *Config) GetInt(key string, defaultValue ...int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if env := c.getEnvValue(key); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			return n
		}
	}

	switch v := c.getValue(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetBool returns a boolean value with optional default
func (c *Config) GetBool(key string, defaultValue ...bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if env := c.getEnvValue(key); env != "" {
		if b, err := strconv.ParseBool(env); err == nil {
			return b
		}
	}

	switch v := c.getValue(key).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetFloat returns a float64 value with optional default
func (c *Config) GetFloat(key string, defaultValue ...float64) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if env := c.getEnvValue(key); env != "" {
		if f, err := strconv.ParseFloat(env, 64); err == nil {
			return f
		}
	}

	switch v := c.getValue(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetDuration returns a duration value with optional default.
// Strings are parsed with time.ParseDuration, numbers are seconds.
func (c *Config) GetDuration(key string, defaultValue ...time.Duration) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if env := c.getEnvValue(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}

	switch v := c.getValue(key).(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetStringSlice returns a string slice value with optional default
func (c *Config) GetStringSlice(key string, defaultValue ...[]string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch v := c.getValue(key).(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// Has returns true if the key is present in the configuration
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getValue(key) != nil
}

// Set stores a value under a dotted path, creating intermediate maps
func (c *Config) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// set is the lock-free core of Set
func (c *Config) set(key string, value interface{}) {
	if c.data == nil {
		c.data = make(map[string]interface{})
	}

	parts := strings.Split(key, ".")
	current := c.data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

// FilePath returns the path the configuration was loaded from
func (c *Config) FilePath() string {
	return c.filePath
}

// Format returns the detected or forced format
func (c *Config) Format() Format {
	return c.format
}

// S is shorthand for GetString
func (c *Config) S(key string, defaultValue ...string) string {
	return c.GetString(key, defaultValue...)
}

// I is shorthand for GetInt
func (c *Config) I(key string, defaultValue ...int) int {
	return c.GetInt(key, defaultValue...)
}

// B is shorthand for GetBool
func (c *Config) B(key string, defaultValue ...bool) bool {
	return c.GetBool(key, defaultValue...)
}

// F is shorthand for GetFloat
func (c *Config) F(key string, defaultValue ...float64) float64 {
	return c.GetFloat(key, defaultValue...)
}

// D is shorthand for GetDuration
func (c *Config) D(key string, defaultValue ...time.Duration) time.Duration {
	return c.GetDuration(key, defaultValue...)
}

// SS is shorthand for GetStringSlice
func (c *Config) SS(key string, defaultValue ...[]string) []string {
	return c.GetStringSlice(key, defaultValue...)
}
