package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/foundation/gcode"
	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/pkg/core/health"
	"github.com/msto63/mCW/pkg/core/logging"
)

// AnnotateRequest represents a document annotation request
type AnnotateRequest struct {
	Text      string `json:"text"`
	Profile   string `json:"profile,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Token describes one annotated token of a source line
type Token struct {
	Kind        string `json:"kind"`
	Letter      string `json:"letter,omitempty"`
	Raw         string `json:"raw"`
	Value       string `json:"value,omitempty"`
	Column      int    `json:"column"`
	Description string `json:"description"`
	ModalCarry  bool   `json:"modal_carry,omitempty"`
}

// Line pairs one source line with its annotated tokens
type Line struct {
	Number  int     `json:"number"`
	Raw     string  `json:"raw"`
	Comment string  `json:"comment,omitempty"`
	Tokens  []Token `json:"tokens"`
}

// AnnotateResponse represents a document annotation response
type AnnotateResponse struct {
	Profile     string `json:"profile"`
	Fingerprint string `json:"fingerprint"`
	Cached      bool   `json:"cached"`
	DurationMS  int64  `json:"duration_ms"`
	Lines       []Line `json:"lines"`
	Total       int    `json:"total"`
}

// ProfileRequest represents a profile create or update request
type ProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProfilesResponse represents a profile list response
type ProfilesResponse struct {
	Profiles []*service.Profile `json:"profiles"`
	Total    int                `json:"total"`
}

// EntriesRequest represents a dictionary replacement request
type EntriesRequest struct {
	Entries []service.DictionaryEntry `json:"entries"`
}

// EntriesResponse represents a profile's dictionary
type EntriesResponse struct {
	Profile string                    `json:"profile"`
	Entries []service.DictionaryEntry `json:"entries"`
	Total   int                       `json:"total"`
}

// SnippetsRequest represents a snippet replacement request
type SnippetsRequest struct {
	Snippets map[string]string `json:"snippets"`
}

// SnippetsResponse represents a profile's snippets
type SnippetsResponse struct {
	Profile  string            `json:"profile"`
	Snippets map[string]string `json:"snippets"`
	Total    int               `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services"`
}

// VersionResponse represents a version response
type VersionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// CORSPolicy controls the CORS response headers
type CORSPolicy struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
}

// DefaultCORSPolicy allows local tooling from any origin
func DefaultCORSPolicy() CORSPolicy {
	return CORSPolicy{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}
}

// Handler handles HTTP API requests
type Handler struct {
	service   *service.Service
	health    *health.Registry
	logger    *logging.Logger
	startTime time.Time
	version   string
	cors      CORSPolicy
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service, registry *health.Registry, version string) *Handler {
	return &Handler{
		service:   svc,
		health:    registry,
		logger:    logging.New("jacquard-api"),
		startTime: time.Now(),
		version:   version,
		cors:      DefaultCORSPolicy(),
	}
}

// SetCORS replaces the default CORS policy
func (h *Handler) SetCORS(policy CORSPolicy) {
	h.cors = policy
}

// ServeHTTP implements http.Handler with path-based routing
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.writeCORS(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// System endpoints live outside the API prefix
	switch r.URL.Path {
	case "/healthz", "/healthz/":
		h.handleHealth(w, r)
		return
	case "/version", "/version/":
		h.handleVersion(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)

	case path == "annotate" || path == "annotate/":
		h.handleAnnotate(w, r)

	case path == "profiles" || path == "profiles/":
		h.handleProfiles(w, r)

	case strings.HasPrefix(path, "profiles/"):
		rest := strings.TrimSuffix(strings.TrimPrefix(path, "profiles/"), "/")
		switch {
		case strings.HasSuffix(rest, "/entries"):
			h.handleProfileEntries(w, r, strings.TrimSuffix(rest, "/entries"))
		case strings.HasSuffix(rest, "/snippets"):
			h.handleProfileSnippets(w, r, strings.TrimSuffix(rest, "/snippets"))
		default:
			h.handleProfile(w, r, rest)
		}

	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}
}

// handleRoot handles the root endpoint
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "meinCODEWERK API",
		"version": h.version,
		"endpoints": map[string][]string{
			"annotation": {
				"POST /api/v1/annotate",
				"WS   /ws/annotate",
			},
			"profiles": {
				"GET    /api/v1/profiles",
				"POST   /api/v1/profiles",
				"GET    /api/v1/profiles/{name}",
				"PUT    /api/v1/profiles/{name}",
				"DELETE /api/v1/profiles/{name}",
				"GET    /api/v1/profiles/{name}/entries",
				"PUT    /api/v1/profiles/{name}/entries",
				"GET    /api/v1/profiles/{name}/snippets",
				"PUT    /api/v1/profiles/{name}/snippets",
			},
			"system": {
				"GET /healthz",
				"GET /version",
			},
		},
	}
	h.writeJSON(w, http.StatusOK, info)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := health.StatusHealthy
	services := map[string]string{}
	if h.health != nil {
		report := h.health.Check(ctx)
		status = report.Status
		for _, check := range report.Checks {
			services[check.Name] = string(check.Status)
		}
	}

	resp := HealthResponse{
		Status:   string(status),
		Version:  h.version,
		Uptime:   time.Since(h.startTime).String(),
		Services: services,
	}

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, resp)
}

// handleVersion handles version requests
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	h.writeJSON(w, http.StatusOK, VersionResponse{
		Service: "jacquard",
		Version: h.version,
	})
}

// handleAnnotate handles document annotation requests
func (h *Handler) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req AnnotateRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := h.service.AnnotateDocument(ctx, &service.AnnotateRequest{
		SessionID: req.SessionID,
		Profile:   req.Profile,
		Text:      req.Text,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AnnotateResponse{
		Profile:     result.Profile,
		Fingerprint: result.Fingerprint,
		Cached:      result.Cached,
		DurationMS:  result.Duration.Milliseconds(),
		Lines:       ToLines(result.Lines),
		Total:       len(result.Lines),
	})
}

// handleProfiles handles profile list and create requests
func (h *Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		profiles, err := h.service.ListProfiles(ctx)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, ProfilesResponse{
			Profiles: profiles,
			Total:    len(profiles),
		})

	case http.MethodPost:
		var req ProfileRequest
		if err := h.readJSON(r, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
			return
		}
		if req.Name == "" {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Profile name is required", "")
			return
		}
		profile, err := h.service.CreateProfile(ctx, req.Name, req.Description)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, profile)

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET or POST", "")
	}
}

// handleProfile handles get, update and delete requests for one profile
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" {
		h.writeError(w, http.StatusNotFound, "not_found", "Profile name missing", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		profile, err := h.service.GetProfile(ctx, name)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, profile)

	case http.MethodPut:
		var req ProfileRequest
		if err := h.readJSON(r, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
			return
		}
		profile, err := h.service.UpdateProfile(ctx, name, req.Name, req.Description)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, profile)

	case http.MethodDelete:
		if err := h.service.DeleteProfile(ctx, name); err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{
			"status":  "deleted",
			"profile": name,
		})

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET, PUT or DELETE", "")
	}
}

// handleProfileEntries handles dictionary read and replace requests
func (h *Handler) handleProfileEntries(w http.ResponseWriter, r *http.Request, name string) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		entries, err := h.service.GetEntries(ctx, name)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, EntriesResponse{
			Profile: name,
			Entries: entries,
			Total:   len(entries),
		})

	case http.MethodPut:
		var req EntriesRequest
		if err := h.readJSON(r, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
			return
		}
		if err := h.service.PutEntries(ctx, name, req.Entries); err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "updated",
			"profile": name,
			"entries": len(req.Entries),
		})

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET or PUT", "")
	}
}

// handleProfileSnippets handles snippet read and replace requests
func (h *Handler) handleProfileSnippets(w http.ResponseWriter, r *http.Request, name string) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		snippets, err := h.service.GetSnippets(ctx, name)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, SnippetsResponse{
			Profile:  name,
			Snippets: snippets,
			Total:    len(snippets),
		})

	case http.MethodPut:
		var req SnippetsRequest
		if err := h.readJSON(r, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
			return
		}
		if err := h.service.PutSnippets(ctx, name, req.Snippets); err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "updated",
			"profile":  name,
			"snippets": len(req.Snippets),
		})

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET or PUT", "")
	}
}

// ToLines converts engine annotations into the wire format. The CLI uses
// it too so that its JSON output matches the REST responses.
func ToLines(annotations []gcode.LineAnnotation) []Line {
	lines := make([]Line, 0, len(annotations))
	for _, la := range annotations {
		lines = append(lines, toLine(la))
	}
	return lines
}

// toLine converts one line annotation into the wire format
func toLine(la gcode.LineAnnotation) Line {
	line := Line{
		Number:  la.Line.Number,
		Raw:     la.Line.Raw,
		Comment: la.Comment(),
		Tokens:  make([]Token, 0, len(la.Results)),
	}
	for _, res := range la.Results {
		line.Tokens = append(line.Tokens, Token{
			Kind:        res.Token.Kind.String(),
			Letter:      res.Token.Letter,
			Raw:         res.Token.Raw,
			Value:       res.Token.CanonicalValue(),
			Column:      res.Token.Column,
			Description: res.Description,
			ModalCarry:  res.ModalCarry,
		})
	}
	return line
}

// writeCORS writes the CORS headers for allowed origins
func (h *Handler) writeCORS(w http.ResponseWriter, r *http.Request) {
	if !h.cors.Enabled {
		return
	}

	origin := "*"
	if len(h.cors.AllowedOrigins) > 0 && h.cors.AllowedOrigins[0] != "*" {
		origin = ""
		reqOrigin := r.Header.Get("Origin")
		for _, allowed := range h.cors.AllowedOrigins {
			if allowed == reqOrigin {
				origin = reqOrigin
				break
			}
		}
		if origin == "" {
			return
		}
	}

	methods := "GET, POST, PUT, DELETE, OPTIONS"
	if len(h.cors.AllowedMethods) > 0 {
		methods = strings.Join(h.cors.AllowedMethods, ", ")
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// readJSON reads and decodes a JSON request body
func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	return json.Unmarshal(body, v)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// writeServiceError maps service error codes onto HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case mcwerror.HasCode(err, mcwerror.CodeProfileNotFound):
		h.writeError(w, http.StatusNotFound, "profile_not_found", err.Error(), "")
	case mcwerror.HasCode(err, mcwerror.CodeSessionNotFound):
		h.writeError(w, http.StatusNotFound, "session_not_found", err.Error(), "")
	case mcwerror.HasCode(err, mcwerror.CodeSnippetNotFound):
		h.writeError(w, http.StatusNotFound, "snippet_not_found", err.Error(), "")
	case mcwerror.HasCode(err, mcwerror.CodeProfileExists):
		h.writeError(w, http.StatusConflict, "profile_exists", err.Error(), "")
	case mcwerror.HasCode(err, mcwerror.CodeDocumentTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "document_too_large", err.Error(), "")
	case mcwerror.HasCode(err, mcwerror.CodeDictionaryParse):
		h.writeError(w, http.StatusBadRequest, "dictionary_parse", err.Error(), "")
	case mcwerror.HasCode(err, mcwerror.CodeValidationFailed),
		mcwerror.HasCode(err, mcwerror.CodeInvalidInput):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), "")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error", err.Error())
	}
}
