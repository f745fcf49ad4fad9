package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/msto63/mCW/foundation/gcode/dictionary"
	"github.com/msto63/mCW/foundation/utils/filex"
)

// FileStoreConfig holds configuration for the file-backed store.
type FileStoreConfig struct {
	// Dir is the directory holding the catalog and per-profile files.
	Dir string

	// Backups enables a timestamped backup before overwriting a file.
	Backups bool
}

// DefaultFileStoreConfig returns a sensible default configuration.
func DefaultFileStoreConfig() FileStoreConfig {
	return FileStoreConfig{
		Dir:     "./data/profiles",
		Backups: true,
	}
}

// FileStore persists profiles as JSON documents in a directory: a
// catalog file profiles.json plus <name>-dictionary.json and
// <name>-snippets.json per profile. Files stay hand-editable.
type FileStore struct {
	dir     string
	backups bool
	mu      sync.RWMutex
}

const catalogFile = "profiles.json"

// NewFileStore creates a file-backed profile store. An empty directory
// is seeded with the built-in Standard profile.
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := filex.EnsureDir(cfg.Dir); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		dir:     cfg.Dir,
		backups: cfg.Backups,
	}

	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	return s, nil
}

func (s *FileStore) seed() error {
	profiles, err := s.readCatalog()
	if err != nil {
		return err
	}
	if len(profiles) > 0 {
		return nil
	}

	p := standardProfile()
	if err := s.writeCatalog([]*Profile{p}); err != nil {
		return err
	}
	return s.writeJSON(s.dictionaryPath(p.Name), StandardEntries())
}

// CreateProfile adds a new profile to the catalog.
func (s *FileStore) CreateProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("profile ID is required")
	}
	if err := validateProfileName(p.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return err
	}
	for _, existing := range profiles {
		if existing.Name == p.Name {
			return fmt.Errorf("profile already exists: %s", p.Name)
		}
	}

	profiles = append(profiles, p)
	return s.writeCatalog(profiles)
}

// GetProfile returns the profile with the given name, or (nil, nil)
// when no such profile exists.
func (s *FileStore) GetProfile(ctx context.Context, name string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

// UpdateProfile updates name and description of the profile identified
// by p.ID. A rename moves the dictionary and snippet files along.
func (s *FileStore) UpdateProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if err := validateProfileName(p.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return err
	}

	var existing *Profile
	for _, candidate := range profiles {
		if candidate.ID == p.ID {
			existing = candidate
			continue
		}
		if candidate.Name == p.Name {
			return fmt.Errorf("profile already exists: %s", p.Name)
		}
	}
	if existing == nil {
		return fmt.Errorf("profile not found: %s", p.ID)
	}

	if existing.Name != p.Name {
		if err := s.renameProfileFiles(existing.Name, p.Name); err != nil {
			return err
		}
	}

	existing.Name = p.Name
	existing.Description = p.Description
	existing.UpdatedAt = time.Now()
	return s.writeCatalog(profiles)
}

// DeleteProfile removes a profile together with its dictionary and
// snippet files.
func (s *FileStore) DeleteProfile(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return err
	}

	idx := -1
	for i, p := range profiles {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("profile not found: %s", name)
	}

	profiles = append(profiles[:idx], profiles[idx+1:]...)
	if err := s.writeCatalog(profiles); err != nil {
		return err
	}

	for _, path := range []string{s.dictionaryPath(name), s.snippetsPath(name)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// ListProfiles returns all profiles ordered by name.
func (s *FileStore) ListProfiles(ctx context.Context) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return nil, err
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// GetEntries returns the persisted dictionary of a profile. A profile
// without a dictionary file yields an empty slice.
func (s *FileStore) GetEntries(ctx context.Context, profileName string) ([]DictionaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.dictionaryPath(profileName)
	if !filex.IsFile(path) {
		return nil, nil
	}

	var entries []DictionaryEntry
	if err := s.readJSON(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PutEntries replaces the dictionary of an existing profile and bumps
// its update timestamp.
func (s *FileStore) PutEntries(ctx context.Context, profileName string, entries []DictionaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return err
	}
	existing := findByName(profiles, profileName)
	if existing == nil {
		return fmt.Errorf("profile not found: %s", profileName)
	}

	if entries == nil {
		entries = []DictionaryEntry{}
	}
	if err := s.writeJSON(s.dictionaryPath(profileName), entries); err != nil {
		return err
	}

	existing.UpdatedAt = time.Now()
	return s.writeCatalog(profiles)
}

// LookupEntries returns the dictionary of a profile in the engine's
// entry form.
func (s *FileStore) LookupEntries(ctx context.Context, profileName string) ([]dictionary.Entry, error) {
	entries, err := s.GetEntries(ctx, profileName)
	if err != nil {
		return nil, err
	}
	return ToDictionary(entries), nil
}

// GetSnippets returns the snippets of a profile. A profile without a
// snippet file yields an empty map.
func (s *FileStore) GetSnippets(ctx context.Context, profileName string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.snippetsPath(profileName)
	if !filex.IsFile(path) {
		return map[string]string{}, nil
	}

	var snippets map[string]string
	if err := s.readJSON(path, &snippets); err != nil {
		return nil, err
	}
	if snippets == nil {
		snippets = map[string]string{}
	}
	return snippets, nil
}

// PutSnippets replaces the snippets of an existing profile and bumps
// its update timestamp.
func (s *FileStore) PutSnippets(ctx context.Context, profileName string, snippets map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return err
	}
	existing := findByName(profiles, profileName)
	if existing == nil {
		return fmt.Errorf("profile not found: %s", profileName)
	}

	if snippets == nil {
		snippets = map[string]string{}
	}
	if err := s.writeJSON(s.snippetsPath(profileName), snippets); err != nil {
		return err
	}

	existing.UpdatedAt = time.Now()
	return s.writeCatalog(profiles)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Statistics returns store statistics.
func (s *FileStore) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles, err := s.readCatalog()
	if err != nil {
		return nil, err
	}

	entryCount := 0
	snippetCount := 0
	for _, p := range profiles {
		var entries []DictionaryEntry
		if path := s.dictionaryPath(p.Name); filex.IsFile(path) {
			if err := s.readJSON(path, &entries); err != nil {
				return nil, err
			}
			entryCount += len(entries)
		}
		var snippets map[string]string
		if path := s.snippetsPath(p.Name); filex.IsFile(path) {
			if err := s.readJSON(path, &snippets); err != nil {
				return nil, err
			}
			snippetCount += len(snippets)
		}
	}

	return map[string]interface{}{
		"type":     "file",
		"dir":      s.dir,
		"profiles": len(profiles),
		"entries":  entryCount,
		"snippets": snippetCount,
	}, nil
}

// ==================== Helper Functions ====================

func (s *FileStore) catalogPath() string {
	return filepath.Join(s.dir, catalogFile)
}

func (s *FileStore) dictionaryPath(profileName string) string {
	return filepath.Join(s.dir, profileName+"-dictionary.json")
}

func (s *FileStore) snippetsPath(profileName string) string {
	return filepath.Join(s.dir, profileName+"-snippets.json")
}

func (s *FileStore) readCatalog() ([]*Profile, error) {
	path := s.catalogPath()
	if !filex.IsFile(path) {
		return nil, nil
	}
	var profiles []*Profile
	if err := s.readJSON(path, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *FileStore) writeCatalog(profiles []*Profile) error {
	return s.writeJSON(s.catalogPath(), profiles)
}

func (s *FileStore) readJSON(path string, v interface{}) error {
	data, err := filex.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *FileStore) writeJSON(path string, v interface{}) error {
	if s.backups && filex.IsFile(path) {
		if _, err := filex.Backup(path); err != nil {
			return fmt.Errorf("failed to back up %s: %w", filepath.Base(path), err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := filex.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *FileStore) renameProfileFiles(oldName, newName string) error {
	renames := [][2]string{
		{s.dictionaryPath(oldName), s.dictionaryPath(newName)},
		{s.snippetsPath(oldName), s.snippetsPath(newName)},
	}
	for _, r := range renames {
		if !filex.IsFile(r[0]) {
			continue
		}
		if err := os.Rename(r[0], r[1]); err != nil {
			return fmt.Errorf("failed to rename %s: %w", filepath.Base(r[0]), err)
		}
	}
	return nil
}

func findByName(profiles []*Profile, name string) *Profile {
	if name == "" {
		return nil
	}
	for _, p := range profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}
