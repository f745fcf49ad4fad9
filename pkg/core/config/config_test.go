package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"hours", "2h", 2 * time.Hour, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"minutes", 5 * time.Minute, "5m0s"},
		{"hours", 2 * time.Hour, "2h0m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Duration{tt.duration}
			result, err := d.MarshalText()

			if err != nil {
				t.Errorf("MarshalText() error = %v", err)
				return
			}

			if string(result) != tt.expected {
				t.Errorf("MarshalText() = %v, want %v", string(result), tt.expected)
			}
		})
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	// General defaults
	if cfg.General.Name != "meinCODEWERK" {
		t.Errorf("General.Name = %v, want meinCODEWERK", cfg.General.Name)
	}
	if cfg.General.Environment != "development" {
		t.Errorf("General.Environment = %v, want development", cfg.General.Environment)
	}
	if cfg.General.DataDir != "./data" {
		t.Errorf("General.DataDir = %v, want ./data", cfg.General.DataDir)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("General.LogLevel = %v, want info", cfg.General.LogLevel)
	}

	// Engine defaults
	if cfg.Engine.MaxDocumentBytes != 4<<20 {
		t.Errorf("Engine.MaxDocumentBytes = %v, want %v", cfg.Engine.MaxDocumentBytes, 4<<20)
	}
	if cfg.Engine.DefaultProfile != "Standard" {
		t.Errorf("Engine.DefaultProfile = %v, want Standard", cfg.Engine.DefaultProfile)
	}

	// Jacquard defaults
	if cfg.Jacquard.Port != 9300 {
		t.Errorf("Jacquard.Port = %v, want 9300", cfg.Jacquard.Port)
	}
	if cfg.Jacquard.Host != "127.0.0.1" {
		t.Errorf("Jacquard.Host = %v, want 127.0.0.1", cfg.Jacquard.Host)
	}
	if cfg.Jacquard.ReadTimeout.Duration != 30*time.Second {
		t.Errorf("Jacquard.ReadTimeout = %v, want 30s", cfg.Jacquard.ReadTimeout.Duration)
	}
	if cfg.Jacquard.SessionTTL.Duration != 30*time.Minute {
		t.Errorf("Jacquard.SessionTTL = %v, want 30m", cfg.Jacquard.SessionTTL.Duration)
	}
	if cfg.Jacquard.ResultCacheSize != 128 {
		t.Errorf("Jacquard.ResultCacheSize = %v, want 128", cfg.Jacquard.ResultCacheSize)
	}

	// Store defaults
	if cfg.Store.Type != "file" {
		t.Errorf("Store.Type = %v, want file", cfg.Store.Type)
	}
	if cfg.Store.Path != filepath.Join("./data", "profiles") {
		t.Errorf("Store.Path = %v, want ./data/profiles", cfg.Store.Path)
	}

	// TUI defaults
	if cfg.TUI.Profile != "Standard" {
		t.Errorf("TUI.Profile = %v, want Standard", cfg.TUI.Profile)
	}
}

func TestConfig_applyDefaults_SQLitePath(t *testing.T) {
	cfg := &Config{}
	cfg.Store.Type = "sqlite"
	cfg.applyDefaults()

	if cfg.Store.Path != filepath.Join("./data", "mcw.db") {
		t.Errorf("Store.Path = %v, want ./data/mcw.db", cfg.Store.Path)
	}
}

func TestJacquardConfig_Address(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if got := cfg.Jacquard.Address(); got != "127.0.0.1:9300" {
		t.Errorf("Address() = %v, want 127.0.0.1:9300", got)
	}
	if got := cfg.Jacquard.BaseURL(); got != "http://127.0.0.1:9300" {
		t.Errorf("BaseURL() = %v, want http://127.0.0.1:9300", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/mcw.toml")
	if err == nil {
		t.Error("Load() expected error for non-existent file")
	}
	if !mcwerror.HasCode(err, mcwerror.CodeConfigNotFound) {
		t.Errorf("Load() error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeConfigNotFound)
	}
}

func TestLoad_ParseError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mcw.toml")

	if err := os.WriteFile(configPath, []byte("[general\nname ="), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for malformed TOML")
	}
	if !mcwerror.HasCode(err, mcwerror.CodeConfigParse) {
		t.Errorf("Load() error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeConfigParse)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mcw.toml")

	configContent := `
[general]
name = "TestCODEWERK"
environment = "test"

[jacquard]
port = 9999
host = "localhost"
session_ttl = "5m"

[engine]
max_document_bytes = 1024
default_profile = "Drehen"

[store]
type = "sqlite"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Name != "TestCODEWERK" {
		t.Errorf("General.Name = %v, want TestCODEWERK", cfg.General.Name)
	}
	if cfg.Jacquard.Port != 9999 {
		t.Errorf("Jacquard.Port = %v, want 9999", cfg.Jacquard.Port)
	}
	if cfg.Jacquard.Host != "localhost" {
		t.Errorf("Jacquard.Host = %v, want localhost", cfg.Jacquard.Host)
	}
	if cfg.Jacquard.SessionTTL.Duration != 5*time.Minute {
		t.Errorf("Jacquard.SessionTTL = %v, want 5m", cfg.Jacquard.SessionTTL.Duration)
	}
	if cfg.Engine.MaxDocumentBytes != 1024 {
		t.Errorf("Engine.MaxDocumentBytes = %v, want 1024", cfg.Engine.MaxDocumentBytes)
	}
	if cfg.Engine.DefaultProfile != "Drehen" {
		t.Errorf("Engine.DefaultProfile = %v, want Drehen", cfg.Engine.DefaultProfile)
	}

	// Check defaults were applied for missing values
	if cfg.Jacquard.ReadTimeout.Duration != 30*time.Second {
		t.Errorf("Jacquard.ReadTimeout = %v, want 30s (default)", cfg.Jacquard.ReadTimeout.Duration)
	}
	if cfg.Store.Path != filepath.Join("./data", "mcw.db") {
		t.Errorf("Store.Path = %v, want sqlite default path", cfg.Store.Path)
	}
	// TUI profile follows the engine default profile
	if cfg.TUI.Profile != "Drehen" {
		t.Errorf("TUI.Profile = %v, want Drehen", cfg.TUI.Profile)
	}
	// Absent show_carry key keeps the default
	if !cfg.TUI.ShowCarry {
		t.Error("TUI.ShowCarry should default to true when not set")
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	os.Setenv("TEST_MCW_DATA", "/var/lib/mcw")
	defer os.Unsetenv("TEST_MCW_DATA")

	cfg := &Config{
		General: GeneralConfig{
			DataDir: "$TEST_MCW_DATA",
		},
		Store: StoreConfig{
			Path: "$TEST_MCW_DATA/profiles",
		},
	}

	cfg.expandEnvVars()

	if cfg.General.DataDir != "/var/lib/mcw" {
		t.Errorf("DataDir = %v, want /var/lib/mcw", cfg.General.DataDir)
	}
	if cfg.Store.Path != "/var/lib/mcw/profiles" {
		t.Errorf("Store.Path = %v, want /var/lib/mcw/profiles", cfg.Store.Path)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	// Temporarily unset MCW_CONFIG
	original := os.Getenv("MCW_CONFIG")
	os.Unsetenv("MCW_CONFIG")
	defer func() {
		if original != "" {
			os.Setenv("MCW_CONFIG", original)
		}
	}()

	// Change to a temp directory without config files
	originalWd, _ := os.Getwd()
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	// HOME must not point at a directory carrying a real config
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("LoadFromEnv() expected error when no config found")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.General.Name != "meinCODEWERK" {
		t.Errorf("General.Name = %v, want meinCODEWERK", cfg.General.Name)
	}
	if cfg.Jacquard.Port != 9300 {
		t.Errorf("Jacquard.Port = %v, want 9300", cfg.Jacquard.Port)
	}
	if !cfg.TUI.ShowCarry {
		t.Error("TUI.ShowCarry should default to true")
	}
}
