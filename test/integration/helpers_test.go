package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/internal/jacquard/store"
)

// sampleProgram is a small milling program in DIN 66025 style. It mixes
// modal setters, carried axis words and both comment forms.
const sampleProgram = `%
N10 G21 G90 G17 ; Grundstellung: mm, absolut, XY-Ebene
N20 T1 M6 (Schaftfraeser D10)
N30 S2400 M3
N40 G0 X0 Y0 Z5
N50 G1 Z-2 F120 ; Eintauchen
N60 X40
N70 Y25
N80 G0 Z5 M5
N90 M30`

// openService builds the full stack the way the binaries do: store.Open
// on a real path, then service.New on top. Close is registered as
// cleanup and is safe to call again mid-test.
func openService(t *testing.T, storeType, path string) *service.Service {
	t.Helper()

	st, err := store.Open(storeType, path, false)
	if err != nil {
		t.Fatalf("Failed to open %s store at %s: %v", storeType, path, err)
	}

	svc, err := service.New(service.DefaultConfig(), st)
	if err != nil {
		st.Close()
		t.Fatalf("Failed to create service: %v", err)
	}

	t.Cleanup(func() {
		svc.Close()
	})
	return svc
}

// newFileService opens a file-backed service in a fresh temp directory
// and returns the service together with the store path for reopening.
func newFileService(t *testing.T) (*service.Service, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "profiles")
	return openService(t, "file", dir), dir
}

// newSQLiteService opens a SQLite-backed service in a fresh temp
// directory and returns the service together with the database path.
func newSQLiteService(t *testing.T) (*service.Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcw.db")
	return openService(t, "sqlite", path), path
}

// testContext returns a context with timeout for tests
func testContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// requireTrue fails the test if condition is false
func requireTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Fatalf("Expected true: %s", msg)
	}
}

// requireEqual fails the test if expected != actual
func requireEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// requireNotEmpty fails the test if value is empty
func requireNotEmpty(t *testing.T, value string, msg string) {
	t.Helper()
	if value == "" {
		t.Fatalf("%s: expected non-empty string", msg)
	}
}

// logTestStart logs the start of a test with component info
func logTestStart(t *testing.T, component, testName string) {
	t.Helper()
	t.Logf("=== %s: %s ===", component, testName)
}
