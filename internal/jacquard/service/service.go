package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/foundation/gcode"
	"github.com/msto63/mCW/foundation/gcode/dictionary"
	"github.com/msto63/mCW/foundation/gcode/modal"
	"github.com/msto63/mCW/foundation/utils/stringx"
	"github.com/msto63/mCW/internal/jacquard/store"
	"github.com/msto63/mCW/pkg/core/cache"
	"github.com/msto63/mCW/pkg/core/logging"
)

// AnnotateRequest represents a document annotation request
type AnnotateRequest struct {
	// SessionID selects a session-owned engine. Empty means stateless
	// annotation against Profile (or the default profile).
	SessionID string
	Profile   string
	Text      string
}

// AnnotateResponse represents a document annotation response
type AnnotateResponse struct {
	Lines       []gcode.LineAnnotation
	Profile     string
	Fingerprint string
	Cached      bool
	Duration    time.Duration
}

// AnnotateLineRequest represents a single-line annotation request
type AnnotateLineRequest struct {
	SessionID string
	Text      string
	Number    int
}

// AnnotateLineResponse represents a single-line annotation response
type AnnotateLineResponse struct {
	Line    gcode.LineAnnotation
	Profile string
}

// SessionInfo describes an annotation session
type SessionInfo struct {
	ID        string
	Profile   string
	CreatedAt time.Time
	LastUsed  time.Time
}

// Profile is a stored annotation profile
type Profile = store.Profile

// DictionaryEntry is the persisted form of one annotation rule
type DictionaryEntry = store.DictionaryEntry

// session owns one engine and the modal context for line streaming.
// Its mutex serializes annotation passes within the session.
type session struct {
	id        string
	engine    *gcode.Engine
	profile   string
	mctx      modal.Context
	createdAt time.Time
	lastUsed  time.Time
	mu        sync.Mutex
}

// Service is the Jacquard annotation service
type Service struct {
	store    store.ProfileStore
	profiles *cache.ProfilesCache
	results  *lru.Cache[string, []gcode.LineAnnotation]
	logger   *logging.Logger
	cfg      Config

	mu       sync.RWMutex
	sessions map[string]*session
	engines  map[string]*gcode.Engine

	stopJanitor chan struct{}
	closeOnce   sync.Once
}

// Config holds service configuration
type Config struct {
	// DefaultProfile is used when a request names no profile
	DefaultProfile string

	// MaxDocumentBytes limits document size per annotation call
	MaxDocumentBytes int

	// SessionTTL expires idle sessions
	SessionTTL time.Duration

	// Cache configuration
	EnableCache     bool
	ResultCacheSize int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		DefaultProfile:   store.StandardProfileName,
		MaxDocumentBytes: gcode.DefaultMaxDocumentBytes,
		SessionTTL:       30 * time.Minute,
		EnableCache:      true,
		ResultCacheSize:  128,
	}
}

// New creates a new Jacquard service on top of an opened profile store.
func New(cfg Config, st store.ProfileStore) (*Service, error) {
	logger := logging.New("jacquard")

	if st == nil {
		return nil, mcwerror.New("profile store is required").
			WithCode(mcwerror.CodeInvalidInput).
			WithOperation("service.New")
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = store.StandardProfileName
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = gcode.DefaultMaxDocumentBytes
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.ResultCacheSize <= 0 {
		cfg.ResultCacheSize = 128
	}

	svc := &Service{
		store:       st,
		logger:      logger,
		cfg:         cfg,
		sessions:    make(map[string]*session),
		engines:     make(map[string]*gcode.Engine),
		stopJanitor: make(chan struct{}),
	}

	if cfg.EnableCache {
		results, err := lru.New[string, []gcode.LineAnnotation](cfg.ResultCacheSize)
		if err != nil {
			return nil, mcwerror.Wrap(err, "failed to create result cache").
				WithCode(mcwerror.CodeInternal).
				WithOperation("service.New")
		}
		svc.results = results
		svc.profiles = cache.NewProfilesCache(cache.DefaultProfilesConfig())
		logger.Info("Cache enabled", "result_cache_size", cfg.ResultCacheSize)
	}

	go svc.janitor()

	logger.Info("Jacquard service initialized",
		"default_profile", cfg.DefaultProfile,
		"session_ttl", cfg.SessionTTL,
	)
	return svc, nil
}

// ============================================================================
// Annotation Methods
// ============================================================================

// AnnotateDocument annotates a whole document. With a session ID the
// session's engine and active profile are used; otherwise the request's
// profile (or the default profile) selects a shared engine.
func (s *Service) AnnotateDocument(ctx context.Context, req *AnnotateRequest) (*AnnotateResponse, error) {
	if req == nil {
		return nil, mcwerror.New("request cannot be nil").
			WithCode(mcwerror.CodeInvalidInput)
	}

	start := time.Now()

	engine, profileName, sess, err := s.engineForRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
	}

	fingerprint := engine.ActiveDictionary().Fingerprint()
	key := cache.DocumentKey(fingerprint, req.Text)

	if s.results != nil {
		if lines, ok := s.results.Get(key); ok {
			s.logger.Debug("Annotation cache hit", "profile", profileName, "lines", len(lines))
			return &AnnotateResponse{
				Lines:       lines,
				Profile:     profileName,
				Fingerprint: fingerprint,
				Cached:      true,
				Duration:    time.Since(start),
			}, nil
		}
	}

	lines, err := engine.AnnotateDocumentDetailed(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	if s.results != nil {
		s.results.Add(key, lines)
	}

	s.logger.Info("Document annotated",
		"profile", profileName,
		"lines", len(lines),
		"bytes", len(req.Text),
		"duration", time.Since(start),
	)

	return &AnnotateResponse{
		Lines:       lines,
		Profile:     profileName,
		Fingerprint: fingerprint,
		Cached:      false,
		Duration:    time.Since(start),
	}, nil
}

// AnnotateStream annotates a document line by line and emits batches of
// at most batchSize annotated lines. Cancellation is checked between
// lines; the pass stops without emitting further batches. Results are
// not cached.
func (s *Service) AnnotateStream(ctx context.Context, req *AnnotateRequest, batchSize int, emit func([]gcode.LineAnnotation) error) error {
	if req == nil {
		return mcwerror.New("request cannot be nil").
			WithCode(mcwerror.CodeInvalidInput)
	}
	if emit == nil {
		return mcwerror.New("emit function cannot be nil").
			WithCode(mcwerror.CodeInvalidInput)
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	if len(req.Text) > s.cfg.MaxDocumentBytes {
		return mcwerror.Newf("document exceeds maximum size: %d > %d bytes",
			len(req.Text), s.cfg.MaxDocumentBytes).
			WithCode(mcwerror.CodeDocumentTooLarge)
	}

	engine, profileName, sess, err := s.engineForRequest(ctx, req)
	if err != nil {
		return err
	}
	if sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
	}

	rawLines := stringx.SplitLines(req.Text)
	// A trailing line break does not count as an extra line, matching
	// the whole-document pass.
	if n := len(rawLines); n > 1 && rawLines[n-1] == "" {
		rawLines = rawLines[:n-1]
	}
	mctx := modal.NewContext()
	batch := make([]gcode.LineAnnotation, 0, batchSize)

	for i, raw := range rawLines {
		if err := ctx.Err(); err != nil {
			return mcwerror.Wrap(err, "stream annotation canceled").
				WithCode(mcwerror.CodeCanceled).
				WithDetail("line", i+1)
		}

		var la gcode.LineAnnotation
		la, mctx = engine.AnnotateLine(raw, i+1, mctx)
		batch = append(batch, la)

		if len(batch) == batchSize {
			if err := emit(batch); err != nil {
				return err
			}
			batch = make([]gcode.LineAnnotation, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := emit(batch); err != nil {
			return err
		}
	}

	s.logger.Debug("Document streamed", "profile", profileName, "lines", len(rawLines))
	return nil
}

// AnnotateLine annotates one line within a session, threading the
// session's modal context. A line number <= 1 starts a fresh context.
func (s *Service) AnnotateLine(ctx context.Context, req *AnnotateLineRequest) (*AnnotateLineResponse, error) {
	if req == nil {
		return nil, mcwerror.New("request cannot be nil").
			WithCode(mcwerror.CodeInvalidInput)
	}

	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	s.touch(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if req.Number <= 1 {
		sess.mctx = modal.NewContext()
	}

	la, mctx := sess.engine.AnnotateLine(req.Text, req.Number, sess.mctx)
	sess.mctx = mctx

	return &AnnotateLineResponse{
		Line:    la,
		Profile: sess.profile,
	}, nil
}

// ============================================================================
// Session Methods
// ============================================================================

// CreateSession creates an annotation session with its own engine. An
// empty profile name selects the default profile; if that is missing
// the session falls back to the first catalog profile, or to an empty
// dictionary when the catalog is empty.
func (s *Service) CreateSession(ctx context.Context, profileName string) (*SessionInfo, error) {
	explicit := profileName != ""
	if !explicit {
		profileName = s.cfg.DefaultProfile
	}

	profile, err := s.store.GetProfile(ctx, profileName)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to load profile").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.CreateSession")
	}

	var entries []dictionary.Entry
	switch {
	case profile != nil:
		entries, err = s.loadEntries(ctx, profileName)
		if err != nil {
			return nil, err
		}
	case explicit:
		return nil, mcwerror.Newf("profile not found: %s", profileName).
			WithCode(mcwerror.CodeProfileNotFound).
			WithOperation("service.CreateSession")
	default:
		// Default profile is gone; degrade instead of failing the session
		profileName, entries, err = s.fallbackProfile(ctx)
		if err != nil {
			return nil, err
		}
	}

	engine := gcode.NewEngine(gcode.Options{
		Logger:           s.logger.Logger,
		MaxDocumentBytes: s.cfg.MaxDocumentBytes,
		Dictionary:       entries,
	})

	now := time.Now()
	sess := &session{
		id:        uuid.New().String(),
		engine:    engine,
		profile:   profileName,
		mctx:      modal.NewContext(),
		createdAt: now,
		lastUsed:  now,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("Session created", "id", sess.id, "profile", profileName)
	return sessionInfo(sess), nil
}

// SwitchProfile installs another profile's dictionary in a session. The
// modal context restarts because the annotation semantics changed.
func (s *Service) SwitchProfile(ctx context.Context, sessionID, profileName string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, profileName)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to load profile").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.SwitchProfile")
	}
	if profile == nil {
		return nil, mcwerror.Newf("profile not found: %s", profileName).
			WithCode(mcwerror.CodeProfileNotFound).
			WithOperation("service.SwitchProfile")
	}

	entries, err := s.loadEntries(ctx, profileName)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.engine.SetActiveDictionary(entries)
	sess.profile = profileName
	sess.mctx = modal.NewContext()
	sess.mu.Unlock()
	s.touch(sess)

	s.logger.Info("Session profile switched", "id", sessionID, "profile", profileName)
	return sessionInfo(sess), nil
}

// GetSession returns information about a session.
func (s *Service) GetSession(sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// CloseSession removes a session.
func (s *Service) CloseSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return mcwerror.Newf("session not found: %s", sessionID).
			WithCode(mcwerror.CodeSessionNotFound)
	}
	delete(s.sessions, sessionID)
	s.logger.Info("Session closed", "id", sessionID)
	return nil
}

// ============================================================================
// Profile Methods
// ============================================================================

// ListProfiles returns the profile catalog.
func (s *Service) ListProfiles(ctx context.Context) ([]*Profile, error) {
	if s.profiles != nil {
		if v, ok := s.profiles.GetCatalog(); ok {
			if profiles, ok := v.([]*Profile); ok {
				return profiles, nil
			}
		}
	}

	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to list profiles").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.ListProfiles")
	}

	if s.profiles != nil {
		s.profiles.SetCatalog(profiles)
	}
	return profiles, nil
}

// GetProfile returns a single profile.
func (s *Service) GetProfile(ctx context.Context, name string) (*Profile, error) {
	profile, err := s.store.GetProfile(ctx, name)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to get profile").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.GetProfile")
	}
	if profile == nil {
		return nil, mcwerror.Newf("profile not found: %s", name).
			WithCode(mcwerror.CodeProfileNotFound).
			WithOperation("service.GetProfile")
	}
	return profile, nil
}

// CreateProfile creates an empty profile.
func (s *Service) CreateProfile(ctx context.Context, name, description string) (*Profile, error) {
	existing, err := s.store.GetProfile(ctx, name)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to check profile").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.CreateProfile")
	}
	if existing != nil {
		return nil, mcwerror.Newf("profile already exists: %s", name).
			WithCode(mcwerror.CodeProfileExists).
			WithOperation("service.CreateProfile")
	}

	now := time.Now()
	profile := &Profile{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, mcwerror.Wrap(err, "failed to create profile").
			WithCode(mcwerror.CodeValidationFailed).
			WithOperation("service.CreateProfile")
	}

	s.invalidateProfile(name)
	s.logger.Info("Profile created", "name", name)
	return profile, nil
}

// UpdateProfile renames a profile and/or replaces its description. An
// empty newName keeps the current name. Sessions using the profile
// follow the rename.
func (s *Service) UpdateProfile(ctx context.Context, name, newName, description string) (*Profile, error) {
	profile, err := s.GetProfile(ctx, name)
	if err != nil {
		return nil, err
	}

	if newName == "" {
		newName = name
	}
	profile.Name = newName
	profile.Description = description

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, mcwerror.Wrap(err, "failed to update profile").
			WithCode(mcwerror.CodeValidationFailed).
			WithOperation("service.UpdateProfile")
	}

	s.invalidateProfile(name)
	s.invalidateProfile(newName)

	if newName != name {
		s.mu.Lock()
		for _, sess := range s.sessions {
			if sess.profile == name {
				sess.profile = newName
			}
		}
		s.mu.Unlock()
	}

	s.logger.Info("Profile updated", "name", name, "new_name", newName)
	return s.GetProfile(ctx, newName)
}

// DeleteProfile removes a profile. Open sessions keep the dictionary
// snapshot they already hold.
func (s *Service) DeleteProfile(ctx context.Context, name string) error {
	if _, err := s.GetProfile(ctx, name); err != nil {
		return err
	}

	if err := s.store.DeleteProfile(ctx, name); err != nil {
		return mcwerror.Wrap(err, "failed to delete profile").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.DeleteProfile")
	}

	s.invalidateProfile(name)
	s.logger.Info("Profile deleted", "name", name)
	return nil
}

// GetEntries returns the dictionary of a profile in persisted form.
func (s *Service) GetEntries(ctx context.Context, name string) ([]DictionaryEntry, error) {
	if _, err := s.GetProfile(ctx, name); err != nil {
		return nil, err
	}

	entries, err := s.store.GetEntries(ctx, name)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to get entries").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.GetEntries")
	}
	return entries, nil
}

// PutEntries replaces the dictionary of a profile. Entries that do not
// compile are rejected as a whole. Sessions with the profile active
// receive the new dictionary immediately.
func (s *Service) PutEntries(ctx context.Context, name string, entries []DictionaryEntry) error {
	if _, err := s.GetProfile(ctx, name); err != nil {
		return err
	}

	compiled := dictionary.Compile(store.ToDictionary(entries))
	if invalid := compiled.Invalid(); len(invalid) > 0 {
		return mcwerror.Newf("dictionary contains %d invalid entries", len(invalid)).
			WithCode(mcwerror.CodeDictionaryParse).
			WithOperation("service.PutEntries").
			WithDetail("first_invalid", invalid[0].Letter+invalid[0].Pattern)
	}

	if err := s.store.PutEntries(ctx, name, entries); err != nil {
		return mcwerror.Wrap(err, "failed to store entries").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.PutEntries")
	}

	s.invalidateProfile(name)
	s.refreshSessions(name, store.ToDictionary(entries))

	s.logger.Info("Profile entries replaced", "name", name, "entries", len(entries))
	return nil
}

// GetSnippets returns the snippets of a profile.
func (s *Service) GetSnippets(ctx context.Context, name string) (map[string]string, error) {
	if _, err := s.GetProfile(ctx, name); err != nil {
		return nil, err
	}

	snippets, err := s.store.GetSnippets(ctx, name)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to get snippets").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.GetSnippets")
	}
	return snippets, nil
}

// PutSnippets replaces the snippets of a profile.
func (s *Service) PutSnippets(ctx context.Context, name string, snippets map[string]string) error {
	if _, err := s.GetProfile(ctx, name); err != nil {
		return err
	}

	if err := s.store.PutSnippets(ctx, name, snippets); err != nil {
		return mcwerror.Wrap(err, "failed to store snippets").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.PutSnippets")
	}

	s.logger.Info("Profile snippets replaced", "name", name, "snippets", len(snippets))
	return nil
}

// ============================================================================
// Lifecycle Methods
// ============================================================================

// Statistics returns service statistics including store and cache state.
func (s *Service) Statistics(ctx context.Context) (map[string]interface{}, error) {
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to collect store statistics").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.Statistics")
	}

	s.mu.RLock()
	stats["sessions"] = len(s.sessions)
	stats["engines"] = len(s.engines)
	s.mu.RUnlock()

	if s.results != nil {
		stats["result_cache_size"] = s.results.Len()
	}
	if s.profiles != nil {
		for k, v := range s.profiles.Stats() {
			stats[k] = v
		}
	}
	return stats, nil
}

// Close stops the session janitor and releases caches and the store.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopJanitor)

		s.mu.Lock()
		s.sessions = make(map[string]*session)
		s.engines = make(map[string]*gcode.Engine)
		s.mu.Unlock()

		if s.profiles != nil {
			s.profiles.Close()
		}
		err = s.store.Close()
	})
	return err
}

// ============================================================================
// Helper Functions
// ============================================================================

// engineForRequest resolves the engine and profile for an annotation
// request: the session's engine when a session ID is given, a shared
// per-profile engine otherwise.
func (s *Service) engineForRequest(ctx context.Context, req *AnnotateRequest) (*gcode.Engine, string, *session, error) {
	if req.SessionID != "" {
		sess, err := s.session(req.SessionID)
		if err != nil {
			return nil, "", nil, err
		}
		s.touch(sess)
		return sess.engine, sess.profile, sess, nil
	}

	profileName := req.Profile
	if profileName == "" {
		profileName = s.cfg.DefaultProfile
	}
	engine, err := s.engineFor(ctx, profileName)
	if err != nil {
		return nil, "", nil, err
	}
	return engine, profileName, nil, nil
}

// engineFor returns the shared engine for a profile, creating it on
// first use.
func (s *Service) engineFor(ctx context.Context, profileName string) (*gcode.Engine, error) {
	s.mu.RLock()
	engine, ok := s.engines[profileName]
	s.mu.RUnlock()
	if ok {
		return engine, nil
	}

	profile, err := s.store.GetProfile(ctx, profileName)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to load profile").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.engineFor")
	}
	if profile == nil {
		return nil, mcwerror.Newf("profile not found: %s", profileName).
			WithCode(mcwerror.CodeProfileNotFound).
			WithOperation("service.engineFor")
	}

	entries, err := s.loadEntries(ctx, profileName)
	if err != nil {
		return nil, err
	}

	engine = gcode.NewEngine(gcode.Options{
		Logger:           s.logger.Logger,
		MaxDocumentBytes: s.cfg.MaxDocumentBytes,
		Dictionary:       entries,
	})

	s.mu.Lock()
	// Another request may have built the engine meanwhile; keep the first
	if existing, ok := s.engines[profileName]; ok {
		engine = existing
	} else {
		s.engines[profileName] = engine
	}
	s.mu.Unlock()

	return engine, nil
}

// loadEntries reads a profile's dictionary through the entries cache.
func (s *Service) loadEntries(ctx context.Context, profileName string) ([]dictionary.Entry, error) {
	if s.profiles != nil {
		if entries, ok := s.profiles.GetEntries(profileName); ok {
			return entries, nil
		}
	}

	entries, err := s.store.LookupEntries(ctx, profileName)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to load dictionary").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.loadEntries")
	}

	if s.profiles != nil {
		s.profiles.SetEntries(profileName, entries)
	}
	return entries, nil
}

// fallbackProfile picks the first catalog profile, or an empty
// dictionary when the catalog is empty.
func (s *Service) fallbackProfile(ctx context.Context) (string, []dictionary.Entry, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return "", nil, mcwerror.Wrap(err, "failed to list profiles").
			WithCode(mcwerror.CodeInternal).
			WithOperation("service.fallbackProfile")
	}
	if len(profiles) == 0 {
		s.logger.Warn("No profiles available, session starts with an empty dictionary")
		return "", nil, nil
	}

	name := profiles[0].Name
	s.logger.Warn("Default profile missing, falling back", "profile", name)
	entries, err := s.loadEntries(ctx, name)
	if err != nil {
		return "", nil, err
	}
	return name, entries, nil
}

// session looks up a session by ID.
func (s *Service) session(id string) (*session, error) {
	if id == "" {
		return nil, mcwerror.New("session ID is required").
			WithCode(mcwerror.CodeInvalidInput)
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, mcwerror.Newf("session not found: %s", id).
			WithCode(mcwerror.CodeSessionNotFound)
	}
	return sess, nil
}

// touch marks a session as recently used.
func (s *Service) touch(sess *session) {
	s.mu.Lock()
	sess.lastUsed = time.Now()
	s.mu.Unlock()
}

// invalidateProfile drops cached state after a profile write.
func (s *Service) invalidateProfile(name string) {
	if s.profiles != nil {
		s.profiles.InvalidateProfile(name)
	}
	s.mu.Lock()
	delete(s.engines, name)
	s.mu.Unlock()
}

// refreshSessions installs a new dictionary in every session that has
// the profile active. Modal contexts are kept; only resolution changes.
func (s *Service) refreshSessions(profileName string, entries []dictionary.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.profile == profileName {
			sess.engine.SetActiveDictionary(entries)
		}
	}
}

// janitor expires idle sessions.
func (s *Service) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			s.expireSessions(time.Now())
		}
	}
}

func (s *Service) expireSessions(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.cfg.SessionTTL {
			delete(s.sessions, id)
			s.logger.Info("Session expired", "id", id, "profile", sess.profile)
		}
	}
}

func sessionInfo(sess *session) *SessionInfo {
	return &SessionInfo{
		ID:        sess.id,
		Profile:   sess.profile,
		CreatedAt: sess.createdAt,
		LastUsed:  sess.lastUsed,
	}
}
