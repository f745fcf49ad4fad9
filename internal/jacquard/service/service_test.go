package service

import (
	"context"
	"testing"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/foundation/gcode"
	"github.com/msto63/mCW/internal/jacquard/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultProfile != store.StandardProfileName {
		t.Errorf("DefaultProfile = %v, want %v", cfg.DefaultProfile, store.StandardProfileName)
	}
	if cfg.MaxDocumentBytes != gcode.DefaultMaxDocumentBytes {
		t.Errorf("MaxDocumentBytes = %v, want %v", cfg.MaxDocumentBytes, gcode.DefaultMaxDocumentBytes)
	}
	if !cfg.EnableCache {
		t.Error("EnableCache should default to true")
	}
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	if err == nil {
		t.Error("New() should return error for nil store")
	}
}

func TestService_AnnotateDocument(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	resp, err := svc.AnnotateDocument(ctx, &AnnotateRequest{Text: "G1 X10\nM30"})
	if err != nil {
		t.Fatalf("AnnotateDocument() error = %v", err)
	}

	if len(resp.Lines) != 2 {
		t.Fatalf("Lines count = %v, want 2", len(resp.Lines))
	}
	if resp.Profile != store.StandardProfileName {
		t.Errorf("Profile = %v, want %v", resp.Profile, store.StandardProfileName)
	}
	if resp.Fingerprint == "" {
		t.Error("Fingerprint should not be empty")
	}
	if resp.Cached {
		t.Error("First annotation should not be cached")
	}

	first := resp.Lines[0].Results
	if len(first) != 2 {
		t.Fatalf("Line 1 results = %v, want 2", len(first))
	}
	if first[0].Description != "Linearinterpolation" {
		t.Errorf("G1 description = %v, want Linearinterpolation", first[0].Description)
	}
	if resp.Lines[1].Results[0].Description != "Programmende mit Rücksprung" {
		t.Errorf("M30 description = %v, want Programmende mit Rücksprung",
			resp.Lines[1].Results[0].Description)
	}
}

func TestService_AnnotateDocument_Cached(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	req := &AnnotateRequest{Text: "G0 X1 Y2"}
	first, err := svc.AnnotateDocument(ctx, req)
	if err != nil {
		t.Fatalf("AnnotateDocument() error = %v", err)
	}

	second, err := svc.AnnotateDocument(ctx, req)
	if err != nil {
		t.Fatalf("AnnotateDocument() error = %v", err)
	}

	if !second.Cached {
		t.Error("Second annotation should come from the cache")
	}
	if len(second.Lines) != len(first.Lines) {
		t.Errorf("Cached lines = %v, want %v", len(second.Lines), len(first.Lines))
	}
}

func TestService_AnnotateDocument_ModalQualifier(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	resp, err := svc.AnnotateDocument(ctx, &AnnotateRequest{Text: "G90\nX10"})
	if err != nil {
		t.Fatalf("AnnotateDocument() error = %v", err)
	}

	x := resp.Lines[1].Results[0]
	if x.Description != "X-Achse = 10 (absolute positioning)" {
		t.Errorf("X10 description = %q, want %q",
			x.Description, "X-Achse = 10 (absolute positioning)")
	}
	if !x.ModalCarry {
		t.Error("X10 should carry modal state from the previous line")
	}
}

func TestService_AnnotateDocument_UnknownProfile(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	_, err := svc.AnnotateDocument(ctx, &AnnotateRequest{Profile: "Unbekannt", Text: "G1"})
	if !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeProfileNotFound)
	}
}

func TestService_AnnotateDocument_NilRequest(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	_, err := svc.AnnotateDocument(context.Background(), nil)
	if !mcwerror.HasCode(err, mcwerror.CodeInvalidInput) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeInvalidInput)
	}
}

func TestService_AnnotateDocument_Canceled(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AnnotateDocument(ctx, &AnnotateRequest{Text: "G1\nG2\nG3"})
	if !mcwerror.HasCode(err, mcwerror.CodeCanceled) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeCanceled)
	}
}

func TestService_AnnotateDocument_TooLarge(t *testing.T) {
	svc := createTestServiceWithConfig(t, Config{MaxDocumentBytes: 8})
	defer svc.Close()

	_, err := svc.AnnotateDocument(context.Background(), &AnnotateRequest{Text: "G1 X10 Y20 Z30"})
	if !mcwerror.HasCode(err, mcwerror.CodeDocumentTooLarge) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeDocumentTooLarge)
	}
}

func TestService_AnnotateStream(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	var batches [][]gcode.LineAnnotation
	err := svc.AnnotateStream(ctx, &AnnotateRequest{Text: "G1\nG2\nG3\nG4\nG0"}, 2,
		func(batch []gcode.LineAnnotation) error {
			batches = append(batches, batch)
			return nil
		})
	if err != nil {
		t.Fatalf("AnnotateStream() error = %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("Batches = %v, want 3", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[1]) != 2 || len(batches[2]) != 1 {
		t.Errorf("Batch sizes = %v/%v/%v, want 2/2/1",
			len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batches[0][0].Results[0].Description != "Linearinterpolation" {
		t.Errorf("First description = %v, want Linearinterpolation",
			batches[0][0].Results[0].Description)
	}
}

func TestService_AnnotateStream_EmitError(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	wantErr := mcwerror.New("client gone")
	err := svc.AnnotateStream(context.Background(), &AnnotateRequest{Text: "G1\nG2"}, 1,
		func(batch []gcode.LineAnnotation) error {
			return wantErr
		})
	if err == nil {
		t.Error("AnnotateStream() should propagate emit errors")
	}
}

func TestService_AnnotateStream_TooLarge(t *testing.T) {
	svc := createTestServiceWithConfig(t, Config{MaxDocumentBytes: 4})
	defer svc.Close()

	err := svc.AnnotateStream(context.Background(), &AnnotateRequest{Text: "G1 X10 Y20"}, 2,
		func(batch []gcode.LineAnnotation) error { return nil })
	if !mcwerror.HasCode(err, mcwerror.CodeDocumentTooLarge) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeDocumentTooLarge)
	}
}

func TestService_CreateSession(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if info.ID == "" {
		t.Error("Session ID should not be empty")
	}
	if info.Profile != store.StandardProfileName {
		t.Errorf("Profile = %v, want %v", info.Profile, store.StandardProfileName)
	}

	got, err := svc.GetSession(info.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("ID = %v, want %v", got.ID, info.ID)
	}
}

func TestService_CreateSession_UnknownProfile(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	_, err := svc.CreateSession(context.Background(), "Unbekannt")
	if !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeProfileNotFound)
	}
}

func TestService_CreateSession_FallbackProfile(t *testing.T) {
	svc := createTestServiceWithConfig(t, Config{DefaultProfile: "Weg"})
	defer svc.Close()

	// Default profile does not exist; the session degrades to the first
	// catalog profile instead of failing
	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if info.Profile != store.StandardProfileName {
		t.Errorf("Profile = %v, want %v", info.Profile, store.StandardProfileName)
	}
}

func TestService_AnnotateDocument_WithSession(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")
	resp, err := svc.AnnotateDocument(ctx, &AnnotateRequest{SessionID: info.ID, Text: "G1"})
	if err != nil {
		t.Fatalf("AnnotateDocument() error = %v", err)
	}
	if resp.Profile != store.StandardProfileName {
		t.Errorf("Profile = %v, want %v", resp.Profile, store.StandardProfileName)
	}
}

func TestService_AnnotateDocument_UnknownSession(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	_, err := svc.AnnotateDocument(context.Background(),
		&AnnotateRequest{SessionID: "fehlt", Text: "G1"})
	if !mcwerror.HasCode(err, mcwerror.CodeSessionNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeSessionNotFound)
	}
}

func TestService_AnnotateLine(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")

	resp, err := svc.AnnotateLine(ctx, &AnnotateLineRequest{
		SessionID: info.ID, Text: "G90", Number: 1,
	})
	if err != nil {
		t.Fatalf("AnnotateLine() error = %v", err)
	}
	if resp.Line.Results[0].Description != "Absolutmaßprogrammierung" {
		t.Errorf("G90 description = %v, want Absolutmaßprogrammierung",
			resp.Line.Results[0].Description)
	}

	// Modal state from line 1 carries into line 2
	resp, err = svc.AnnotateLine(ctx, &AnnotateLineRequest{
		SessionID: info.ID, Text: "X10", Number: 2,
	})
	if err != nil {
		t.Fatalf("AnnotateLine() error = %v", err)
	}
	if resp.Line.Results[0].Description != "X-Achse = 10 (absolute positioning)" {
		t.Errorf("X10 description = %q", resp.Line.Results[0].Description)
	}

	// Restarting at line 1 resets the modal context
	resp, _ = svc.AnnotateLine(ctx, &AnnotateLineRequest{
		SessionID: info.ID, Text: "X10", Number: 1,
	})
	if resp.Line.Results[0].Description != "X-Achse = 10 (undefined positioning mode)" {
		t.Errorf("X10 after reset = %q", resp.Line.Results[0].Description)
	}
}

func TestService_AnnotateLine_UnknownSession(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	_, err := svc.AnnotateLine(context.Background(),
		&AnnotateLineRequest{SessionID: "fehlt", Text: "G1", Number: 1})
	if !mcwerror.HasCode(err, mcwerror.CodeSessionNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeSessionNotFound)
	}
}

func TestService_SwitchProfile(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	svc.CreateProfile(ctx, "Drehen", "Drehmaschine")
	svc.PutEntries(ctx, "Drehen", []DictionaryEntry{
		{Letter: "G", ValueOrRange: "1", Description: "Drehbearbeitung"},
	})

	info, _ := svc.CreateSession(ctx, "")
	switched, err := svc.SwitchProfile(ctx, info.ID, "Drehen")
	if err != nil {
		t.Fatalf("SwitchProfile() error = %v", err)
	}
	if switched.Profile != "Drehen" {
		t.Errorf("Profile = %v, want Drehen", switched.Profile)
	}

	resp, _ := svc.AnnotateDocument(ctx, &AnnotateRequest{SessionID: info.ID, Text: "G1"})
	if resp.Lines[0].Results[0].Description != "Drehbearbeitung" {
		t.Errorf("G1 description = %v, want Drehbearbeitung",
			resp.Lines[0].Results[0].Description)
	}
}

func TestService_SwitchProfile_UnknownProfile(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")
	_, err := svc.SwitchProfile(ctx, info.ID, "Unbekannt")
	if !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeProfileNotFound)
	}
}

func TestService_CloseSession(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")
	if err := svc.CloseSession(info.ID); err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}

	if _, err := svc.GetSession(info.ID); err == nil {
		t.Error("GetSession() should fail after close")
	}
	if err := svc.CloseSession(info.ID); !mcwerror.HasCode(err, mcwerror.CodeSessionNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeSessionNotFound)
	}
}

func TestService_ProfileCRUD(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateProfile(ctx, "Drehen", "Drehmaschine")
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Created profile should have an ID")
	}

	if _, err := svc.CreateProfile(ctx, "Drehen", ""); !mcwerror.HasCode(err, mcwerror.CodeProfileExists) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeProfileExists)
	}

	profiles, err := svc.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("Profiles count = %v, want 2", len(profiles))
	}

	updated, err := svc.UpdateProfile(ctx, "Drehen", "CNC-Drehen", "5-Achs")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "CNC-Drehen" || updated.Description != "5-Achs" {
		t.Errorf("Updated profile = %v/%v", updated.Name, updated.Description)
	}
	if _, err := svc.GetProfile(ctx, "Drehen"); !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Error("Old profile name should be gone after rename")
	}

	if err := svc.DeleteProfile(ctx, "CNC-Drehen"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	if _, err := svc.GetProfile(ctx, "CNC-Drehen"); !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Error("Profile should be gone after delete")
	}
}

func TestService_DeleteProfile_NotFound(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()

	err := svc.DeleteProfile(context.Background(), "Unbekannt")
	if !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeProfileNotFound)
	}
}

func TestService_PutEntries_RejectsInvalid(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	err := svc.PutEntries(ctx, store.StandardProfileName, []DictionaryEntry{
		{Letter: "G", ValueOrRange: "kaputt", Description: "Defekt"},
	})
	if !mcwerror.HasCode(err, mcwerror.CodeDictionaryParse) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeDictionaryParse)
	}
}

func TestService_PutEntries_RefreshesSessions(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")

	err := svc.PutEntries(ctx, store.StandardProfileName, []DictionaryEntry{
		{Letter: "G", ValueOrRange: "1", Description: "Neue Bedeutung"},
	})
	if err != nil {
		t.Fatalf("PutEntries() error = %v", err)
	}

	resp, err := svc.AnnotateDocument(ctx, &AnnotateRequest{SessionID: info.ID, Text: "G1"})
	if err != nil {
		t.Fatalf("AnnotateDocument() error = %v", err)
	}
	if resp.Lines[0].Results[0].Description != "Neue Bedeutung" {
		t.Errorf("G1 description = %v, want Neue Bedeutung",
			resp.Lines[0].Results[0].Description)
	}
}

func TestService_Snippets(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	snippets := map[string]string{"kopf": "%\nG90 G21"}
	if err := svc.PutSnippets(ctx, store.StandardProfileName, snippets); err != nil {
		t.Fatalf("PutSnippets() error = %v", err)
	}

	got, err := svc.GetSnippets(ctx, store.StandardProfileName)
	if err != nil {
		t.Fatalf("GetSnippets() error = %v", err)
	}
	if got["kopf"] != "%\nG90 G21" {
		t.Errorf("Snippet kopf = %q", got["kopf"])
	}

	if _, err := svc.GetSnippets(ctx, "Unbekannt"); !mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
		t.Errorf("error code = %v, want %v", mcwerror.GetCode(err), mcwerror.CodeProfileNotFound)
	}
}

func TestService_Statistics(t *testing.T) {
	svc := createTestService(t)
	defer svc.Close()
	ctx := context.Background()

	svc.CreateSession(ctx, "")

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}

	if stats["sessions"].(int) != 1 {
		t.Errorf("sessions = %v, want 1", stats["sessions"])
	}
	if stats["type"] != "file" {
		t.Errorf("type = %v, want file", stats["type"])
	}
}

func TestService_Close(t *testing.T) {
	svc := createTestService(t)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Second close is a no-op
	if err := svc.Close(); err != nil {
		t.Errorf("Close() second call error = %v", err)
	}
}

// Helper functions

func createTestService(t *testing.T) *Service {
	return createTestServiceWithConfig(t, DefaultConfig())
}

func createTestServiceWithConfig(t *testing.T, cfg Config) *Service {
	st, err := store.NewFileStore(store.FileStoreConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	svc, err := New(cfg, st)
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}
	return svc
}
