package server

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/msto63/mCW/pkg/core/config"
	"github.com/msto63/mCW/pkg/core/discovery"
	"github.com/msto63/mCW/pkg/core/health"
)

func TestNew(t *testing.T) {
	cfg := testConfig(t, 9300)

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop(context.Background())

	if s.Address() != "127.0.0.1:9300" {
		t.Errorf("Address() = %v, want 127.0.0.1:9300", s.Address())
	}
	if s.Service() == nil {
		t.Fatal("Service() returned nil")
	}

	report := s.HealthRegistry().CheckWithTimeout(2 * time.Second)
	if report.Status != health.StatusHealthy {
		t.Errorf("health status = %v, want healthy (%v)", report.Status, report.Checks)
	}
}

func TestNew_InvalidStore(t *testing.T) {
	cfg := testConfig(t, 9300)
	cfg.Store.Type = "unbekannt"

	if _, err := New(cfg); err == nil {
		t.Fatal("New() should fail for an unknown store type")
	}
}

func TestServer_StartStop(t *testing.T) {
	cfg := testConfig(t, freePort(t))

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.StartAsync(); err != nil {
		t.Fatalf("StartAsync() error = %v", err)
	}

	waitForServer(t, "http://"+s.Address()+"/healthz")

	// A second instance must refuse to start while the first is live
	s2, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s2.StartAsync(); err == nil {
		t.Error("second StartAsync() should refuse while an instance is registered")
	}
	s2.Stop(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// The runtime file is gone after deregistration
	registry := discovery.NewFileRegistry(filepath.Join(cfg.General.DataDir, "run"), 0)
	services, err := registry.Discover(context.Background(), ServiceName)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(services) != 0 {
		t.Errorf("len(services) = %d, want 0 after Stop", len(services))
	}
}

func TestServer_ServesAnnotation(t *testing.T) {
	cfg := testConfig(t, freePort(t))

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.StartAsync(); err != nil {
		t.Fatalf("StartAsync() error = %v", err)
	}
	defer s.Stop(context.Background())

	waitForServer(t, "http://"+s.Address()+"/healthz")

	resp, err := http.Get("http://" + s.Address() + "/api/v1/profiles")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

// ==================== Helper Functions ====================

// testConfig builds a configuration over temp directories.
func testConfig(t *testing.T, port int) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.General.DataDir = dir
	cfg.Store.Type = "file"
	cfg.Store.Path = filepath.Join(dir, "profiles")
	cfg.Jacquard.Host = "127.0.0.1"
	cfg.Jacquard.Port = port
	return cfg
}

// freePort reserves an ephemeral port and releases it for the server.
func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

// waitForServer polls until the server answers or the deadline passes.
func waitForServer(t *testing.T, url string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server at %s did not become ready", url)
}
