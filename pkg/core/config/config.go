package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
)

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Engine   EngineConfig   `toml:"engine"`
	Jacquard JacquardConfig `toml:"jacquard"`
	Store    StoreConfig    `toml:"store"`
	TUI      TUIConfig      `toml:"tui"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
}

// EngineConfig holds annotation engine settings
type EngineConfig struct {
	MaxDocumentBytes int64  `toml:"max_document_bytes"`
	DefaultProfile   string `toml:"default_profile"`
}

// JacquardConfig holds annotation service configuration
type JacquardConfig struct {
	Port            int        `toml:"port"`
	Host            string     `toml:"host"`
	ReadTimeout     Duration   `toml:"read_timeout"`
	WriteTimeout    Duration   `toml:"write_timeout"`
	ShutdownTimeout Duration   `toml:"shutdown_timeout"`
	SessionTTL      Duration   `toml:"session_ttl"`
	ResultCacheSize int        `toml:"result_cache_size"`
	CORS            CORSConfig `toml:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
}

// StoreConfig holds profile store configuration
type StoreConfig struct {
	Type    string `toml:"type"` // "file" or "sqlite"
	Path    string `toml:"path"`
	Backups bool   `toml:"backups"`
}

// TUIConfig holds annotation viewer settings
type TUIConfig struct {
	Profile   string `toml:"profile"`
	ShowCarry bool   `toml:"show_carry"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, mcwerror.Newf("config file not found: %s", path).
			WithCode(mcwerror.CodeConfigNotFound).
			WithDetail("path", path)
	}

	// Bool defaults must be set before decoding so that an absent key
	// keeps the default while an explicit false wins
	var cfg Config
	cfg.TUI.ShowCarry = true
	cfg.Jacquard.CORS.Enabled = true

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, mcwerror.Wrap(err, "failed to parse config").
			WithCode(mcwerror.CodeConfigParse).
			WithDetail("path", path)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Expand environment variables in path fields
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from the MCW_CONFIG environment variable
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("MCW_CONFIG")
	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"./mcw.toml",
			"./configs/mcw.toml",
			filepath.Join(os.Getenv("HOME"), ".config/meincodewerk/mcw.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, mcwerror.New("no config file found, set MCW_CONFIG or create mcw.toml").
			WithCode(mcwerror.CodeConfigNotFound)
	}

	return Load(path)
}

// Default returns the configuration with all defaults applied and no file read
func Default() *Config {
	var cfg Config
	cfg.TUI.ShowCarry = true
	cfg.Jacquard.CORS.Enabled = true
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return &cfg
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "meinCODEWERK"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}

	// Engine
	if c.Engine.MaxDocumentBytes == 0 {
		c.Engine.MaxDocumentBytes = 4 << 20
	}
	if c.Engine.DefaultProfile == "" {
		c.Engine.DefaultProfile = "Standard"
	}

	// Jacquard
	if c.Jacquard.Port == 0 {
		c.Jacquard.Port = 9300
	}
	if c.Jacquard.Host == "" {
		c.Jacquard.Host = "127.0.0.1"
	}
	if c.Jacquard.ReadTimeout.Duration == 0 {
		c.Jacquard.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Jacquard.WriteTimeout.Duration == 0 {
		c.Jacquard.WriteTimeout.Duration = 120 * time.Second
	}
	if c.Jacquard.ShutdownTimeout.Duration == 0 {
		c.Jacquard.ShutdownTimeout.Duration = 10 * time.Second
	}
	if c.Jacquard.SessionTTL.Duration == 0 {
		c.Jacquard.SessionTTL.Duration = 30 * time.Minute
	}
	if c.Jacquard.ResultCacheSize == 0 {
		c.Jacquard.ResultCacheSize = 128
	}
	if len(c.Jacquard.CORS.AllowedOrigins) == 0 {
		c.Jacquard.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.Jacquard.CORS.AllowedMethods) == 0 {
		c.Jacquard.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}

	// Store
	if c.Store.Type == "" {
		c.Store.Type = "file"
	}
	if c.Store.Path == "" {
		switch c.Store.Type {
		case "sqlite":
			c.Store.Path = filepath.Join(c.General.DataDir, "mcw.db")
		default:
			c.Store.Path = filepath.Join(c.General.DataDir, "profiles")
		}
	}

	// TUI
	if c.TUI.Profile == "" {
		c.TUI.Profile = c.Engine.DefaultProfile
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// Address returns the listen address of the annotation service
func (c *JacquardConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the HTTP base URL of the annotation service
func (c *JacquardConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
