package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/internal/jacquard/store"
	"github.com/msto63/mCW/pkg/core/health"
)

func TestHandler_Root(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var info map[string]interface{}
	decodeJSON(t, rec, &info)
	if info["name"] != "meinCODEWERK API" {
		t.Errorf("name = %v, want meinCODEWERK API", info["name"])
	}
	if _, ok := info["endpoints"]; !ok {
		t.Error("root response should list endpoints")
	}
}

func TestHandler_Health(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	decodeJSON(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Errorf("Status = %v, want healthy", resp.Status)
	}
	if resp.Version != "0.1.0" {
		t.Errorf("Version = %v, want 0.1.0", resp.Version)
	}
	if resp.Services["store"] != "healthy" {
		t.Errorf("Services[store] = %v, want healthy", resp.Services["store"])
	}
}

func TestHandler_Health_Unhealthy(t *testing.T) {
	h, _ := createTestHandler(t)
	h.health.RegisterFunc("kaputt", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusUnhealthy, Message: "Datei fehlt"}
	})

	rec := doRequest(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Code = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	decodeJSON(t, rec, &resp)
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %v, want unhealthy", resp.Status)
	}
}

func TestHandler_Version(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var resp VersionResponse
	decodeJSON(t, rec, &resp)
	if resp.Service != "jacquard" {
		t.Errorf("Service = %v, want jacquard", resp.Service)
	}
	if resp.Version != "0.1.0" {
		t.Errorf("Version = %v, want 0.1.0", resp.Version)
	}
}

func TestHandler_Options(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodOptions, "/api/v1/annotate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestHandler_CORS_RestrictedOrigin(t *testing.T) {
	h, _ := createTestHandler(t)
	h.SetCORS(CORSPolicy{
		Enabled:        true,
		AllowedOrigins: []string{"http://localhost:5173"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %v, want http://localhost:5173", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %v, want empty for disallowed origin", got)
	}
}

func TestHandler_Annotate(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text: "G1 X10\nM30",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AnnotateResponse
	decodeJSON(t, rec, &resp)
	if resp.Profile != store.StandardProfileName {
		t.Errorf("Profile = %v, want %v", resp.Profile, store.StandardProfileName)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	if resp.Fingerprint == "" {
		t.Error("Fingerprint should not be empty")
	}

	first := resp.Lines[0]
	if first.Number != 1 {
		t.Errorf("Number = %d, want 1", first.Number)
	}
	if len(first.Tokens) != 2 {
		t.Fatalf("len(Tokens) = %d, want 2", len(first.Tokens))
	}
	if first.Tokens[0].Kind != "word" {
		t.Errorf("Kind = %v, want word", first.Tokens[0].Kind)
	}
	if first.Tokens[0].Letter != "G" {
		t.Errorf("Letter = %v, want G", first.Tokens[0].Letter)
	}
	if first.Tokens[0].Description != "Linearinterpolation" {
		t.Errorf("Description = %v, want Linearinterpolation", first.Tokens[0].Description)
	}

	last := resp.Lines[1]
	if last.Tokens[0].Raw != "M30" {
		t.Errorf("Raw = %v, want M30", last.Tokens[0].Raw)
	}
}

func TestHandler_Annotate_ModalCarry(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text: "G90\nX10",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AnnotateResponse
	decodeJSON(t, rec, &resp)
	tok := resp.Lines[1].Tokens[0]
	if !tok.ModalCarry {
		t.Error("ModalCarry should be true for X after G90")
	}
	if !strings.Contains(tok.Description, "absolute positioning") {
		t.Errorf("Description = %v, want absolute positioning qualifier", tok.Description)
	}
}

func TestHandler_Annotate_Comment(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text: "G0 Z5 (Werkzeug anheben)",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AnnotateResponse
	decodeJSON(t, rec, &resp)
	if resp.Lines[0].Comment != "Werkzeug anheben" {
		t.Errorf("Comment = %v, want Werkzeug anheben", resp.Lines[0].Comment)
	}
}

func TestHandler_Annotate_MethodNotAllowed(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/annotate", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Code = %d, want 405", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "method_not_allowed" {
		t.Errorf("Code = %v, want method_not_allowed", resp.Code)
	}
}

func TestHandler_Annotate_InvalidJSON(t *testing.T) {
	h, _ := createTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/annotate", strings.NewReader("{kaputt"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Code = %d, want 400", rec.Code)
	}
}

func TestHandler_Annotate_UnknownProfile(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text:    "G1",
		Profile: "Weg",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "profile_not_found" {
		t.Errorf("Code = %v, want profile_not_found", resp.Code)
	}
}

func TestHandler_Annotate_TooLarge(t *testing.T) {
	st, err := store.NewFileStore(store.FileStoreConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	cfg := service.DefaultConfig()
	cfg.MaxDocumentBytes = 8
	svc, err := service.New(cfg, st)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	h := NewHandler(svc, nil, "0.1.0")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text: "G1 X100 Y200 Z300",
	})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Code = %d, want 413", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "document_too_large" {
		t.Errorf("Code = %v, want document_too_large", resp.Code)
	}
}

func TestHandler_Annotate_WithSession(t *testing.T) {
	h, svc := createTestHandler(t)

	sess, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text:      "G1",
		SessionID: sess.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AnnotateResponse
	decodeJSON(t, rec, &resp)
	if resp.Profile != sess.Profile {
		t.Errorf("Profile = %v, want %v", resp.Profile, sess.Profile)
	}
}

func TestHandler_Annotate_UnknownSession(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text:      "G1",
		SessionID: "gibt-es-nicht",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "session_not_found" {
		t.Errorf("Code = %v, want session_not_found", resp.Code)
	}
}

func TestHandler_Profiles_List(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/profiles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var resp ProfilesResponse
	decodeJSON(t, rec, &resp)
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want 1", resp.Total)
	}
	if resp.Profiles[0].Name != store.StandardProfileName {
		t.Errorf("Name = %v, want %v", resp.Profiles[0].Name, store.StandardProfileName)
	}
}

func TestHandler_Profiles_Create(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/profiles", ProfileRequest{
		Name:        "Fräsen",
		Description: "3-Achs-Fräse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created store.Profile
	decodeJSON(t, rec, &created)
	if created.Name != "Fräsen" {
		t.Errorf("Name = %v, want Fräsen", created.Name)
	}
	if created.ID == "" {
		t.Error("ID should be assigned")
	}

	// Duplicate names are rejected
	rec = doRequest(t, h, http.MethodPost, "/api/v1/profiles", ProfileRequest{Name: "Fräsen"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Code = %d, want 409", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "profile_exists" {
		t.Errorf("Code = %v, want profile_exists", resp.Code)
	}
}

func TestHandler_Profiles_Create_MissingName(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/profiles", ProfileRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Code = %d, want 400", rec.Code)
	}
}

func TestHandler_Profile_Get(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/profiles/Standard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var profile store.Profile
	decodeJSON(t, rec, &profile)
	if profile.Name != store.StandardProfileName {
		t.Errorf("Name = %v, want %v", profile.Name, store.StandardProfileName)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/profiles/Unbekannt", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}
}

func TestHandler_Profile_Update(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/profiles", ProfileRequest{Name: "Drehen"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPut, "/api/v1/profiles/Drehen", ProfileRequest{
		Name:        "CNC-Drehen",
		Description: "5-Achs",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var updated store.Profile
	decodeJSON(t, rec, &updated)
	if updated.Name != "CNC-Drehen" {
		t.Errorf("Name = %v, want CNC-Drehen", updated.Name)
	}
	if updated.Description != "5-Achs" {
		t.Errorf("Description = %v, want 5-Achs", updated.Description)
	}

	// The old name is gone
	rec = doRequest(t, h, http.MethodGet, "/api/v1/profiles/Drehen", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}
}

func TestHandler_Profile_Delete(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/profiles", ProfileRequest{Name: "Drehen"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/profiles/Drehen", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if resp["status"] != "deleted" {
		t.Errorf("status = %v, want deleted", resp["status"])
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/profiles/Drehen", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}
}

func TestHandler_Entries_RoundTrip(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/profiles/Standard/entries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var seeded EntriesResponse
	decodeJSON(t, rec, &seeded)
	if seeded.Total == 0 {
		t.Fatal("Standard profile should have seeded entries")
	}
	if seeded.Entries[0].Letter != "%" {
		t.Errorf("Letter = %v, want %%", seeded.Entries[0].Letter)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/v1/profiles", ProfileRequest{Name: "Drehen"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPut, "/api/v1/profiles/Drehen/entries", EntriesRequest{
		Entries: []service.DictionaryEntry{
			{Letter: "G", ValueOrRange: "1", Description: "Drehbearbeitung"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/profiles/Drehen/entries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var entries EntriesResponse
	decodeJSON(t, rec, &entries)
	if entries.Total != 1 {
		t.Fatalf("Total = %d, want 1", entries.Total)
	}
	if entries.Entries[0].Description != "Drehbearbeitung" {
		t.Errorf("Description = %v, want Drehbearbeitung", entries.Entries[0].Description)
	}

	// The new dictionary resolves annotations
	rec = doRequest(t, h, http.MethodPost, "/api/v1/annotate", AnnotateRequest{
		Text:    "G1",
		Profile: "Drehen",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AnnotateResponse
	decodeJSON(t, rec, &resp)
	if resp.Lines[0].Tokens[0].Description != "Drehbearbeitung" {
		t.Errorf("Description = %v, want Drehbearbeitung", resp.Lines[0].Tokens[0].Description)
	}
}

func TestHandler_Entries_Invalid(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/profiles/Standard/entries", EntriesRequest{
		Entries: []service.DictionaryEntry{
			{Letter: "G", ValueOrRange: "kaputt", Description: "Defekt"},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Code = %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "dictionary_parse" {
		t.Errorf("Code = %v, want dictionary_parse", resp.Code)
	}
}

func TestHandler_Entries_UnknownProfile(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/profiles/Weg/entries", EntriesRequest{
		Entries: []service.DictionaryEntry{
			{Letter: "G", ValueOrRange: "1", Description: "Test"},
		},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}
}

func TestHandler_Snippets_RoundTrip(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/profiles/Standard/snippets", SnippetsRequest{
		Snippets: map[string]string{
			"Planfräsen": "G0 Z5\nG1 Z-1 F100",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/profiles/Standard/snippets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}

	var resp SnippetsResponse
	decodeJSON(t, rec, &resp)
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want 1", resp.Total)
	}
	if !strings.Contains(resp.Snippets["Planfräsen"], "G1 Z-1") {
		t.Errorf("Snippets[Planfräsen] = %v, want G1 Z-1 content", resp.Snippets["Planfräsen"])
	}
}

func TestHandler_NotFound(t *testing.T) {
	h, _ := createTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/unbekannt", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Code = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Code != "not_found" {
		t.Errorf("Code = %v, want not_found", resp.Code)
	}
}

// ==================== Helper Functions ====================

// createTestHandler builds a handler over a file store in a temp dir.
func createTestHandler(t *testing.T) (*Handler, *service.Service) {
	t.Helper()

	st, err := store.NewFileStore(store.FileStoreConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	svc, err := service.New(service.DefaultConfig(), st)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	registry := health.NewRegistry("jacquard", "0.1.0")
	registry.RegisterFunc("store", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusHealthy}
	})

	return NewHandler(svc, registry, "0.1.0"), svc
}

// doRequest runs one request against the handler and records the response.
func doRequest(t *testing.T, h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeJSON decodes a recorded response body.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Unmarshal() error = %v (body %s)", err, rec.Body.String())
	}
}
