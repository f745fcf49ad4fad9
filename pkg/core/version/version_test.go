package version

import (
	"regexp"
	"testing"
)

// semverRegex validates semantic versioning format
var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersionConstants(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"Platform", Platform},
		{"Jacquard", Jacquard},
		{"Engine", Engine},
		{"CLI", CLI},
		{"TUI", TUI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.version == "" {
				t.Errorf("%s version is empty", tt.name)
			}
			if !semverRegex.MatchString(tt.version) {
				t.Errorf("%s version %q does not match semver format (x.y.z)", tt.name, tt.version)
			}
		})
	}
}

func TestServiceVersion(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		expected string
	}{
		{"jacquard service", "jacquard", Jacquard},
		{"engine component", "engine", Engine},
		{"gcode alias", "gcode", Engine},
		{"mcw binary", "mcw", CLI},
		{"cli alias", "cli", CLI},
		{"tui component", "tui", TUI},
		{"annotview alias", "annotview", TUI},
		{"unknown component", "unknown", Platform},
		{"empty component", "", Platform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ServiceVersion(tt.service)
			if result != tt.expected {
				t.Errorf("ServiceVersion(%q) = %q, want %q", tt.service, result, tt.expected)
			}
		})
	}
}

func TestVersionConsistency(t *testing.T) {
	// All component versions should be consistent with platform version for v0.1.0
	components := []string{Jacquard, Engine, CLI, TUI}

	for _, v := range components {
		if v != Platform {
			t.Logf("Component version %s differs from platform version %s (this may be intentional)", v, Platform)
		}
	}
}
