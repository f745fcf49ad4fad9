package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/mCW/foundation/gcode/dictionary"
)

// SQLiteStoreConfig holds configuration for the SQLite-backed store.
type SQLiteStoreConfig struct {
	// Path is the SQLite database file.
	Path string
}

// DefaultSQLiteStoreConfig returns a sensible default configuration.
func DefaultSQLiteStoreConfig() SQLiteStoreConfig {
	return SQLiteStoreConfig{
		Path: "./data/profiles.db",
	}
}

// SQLiteStore persists profiles in a single SQLite database. It suits
// installations with many profiles or large dictionaries where the
// per-profile JSON files become unwieldy.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// NewSQLiteStore creates a SQLite-backed profile store. An empty
// database is seeded with the built-in Standard profile.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		profile_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		letter TEXT NOT NULL,
		value_or_range TEXT NOT NULL,
		description TEXT NOT NULL,
		modal_group TEXT,
		PRIMARY KEY (profile_id, position)
	);

	CREATE TABLE IF NOT EXISTS snippets (
		profile_id TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (profile_id, name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) seed() error {
	ctx := context.Background()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	p := standardProfile()
	if err := s.CreateProfile(ctx, p); err != nil {
		return err
	}
	return s.PutEntries(ctx, p.Name, StandardEntries())
}

// CreateProfile adds a new profile to the catalog.
func (s *SQLiteStore) CreateProfile(ctx context.Context, p *Profile) error {
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

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE name = ?", p.Name).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("profile already exists: %s", p.Name)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.Description), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile with the given name, or (nil, nil)
// when no such profile exists.
func (s *SQLiteStore) GetProfile(ctx context.Context, name string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Profile
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM profiles WHERE name = ?`, name).Scan(
		&p.ID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.Description = description.String
	return &p, nil
}

// UpdateProfile updates name and description of the profile identified
// by p.ID. Dictionary and snippets key on the ID, so a rename needs no
// data migration.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if err := validateProfileName(p.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE name = ? AND id != ?", p.Name, p.ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("profile already exists: %s", p.Name)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, nullString(p.Description), time.Now(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile not found: %s", p.ID)
	}
	return nil
}

// DeleteProfile removes a profile together with its dictionary and
// snippets in a single transaction.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM profiles WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("profile not found: %s", name)
	}
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE profile_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM snippets WHERE profile_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete snippets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return tx.Commit()
}

// ListProfiles returns all profiles ordered by name.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM profiles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var p Profile
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.Description = description.String
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// GetEntries returns the persisted dictionary of a profile ordered by
// position. A profile without entries yields an empty slice.
func (s *SQLiteStore) GetEntries(ctx context.Context, profileName string) ([]DictionaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.letter, e.value_or_range, e.description, e.modal_group
		FROM entries e
		JOIN profiles p ON p.id = e.profile_id
		WHERE p.name = ?
		ORDER BY e.position ASC`, profileName)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	var entries []DictionaryEntry
	for rows.Next() {
		var e DictionaryEntry
		var modalGroup sql.NullString
		if err := rows.Scan(&e.Letter, &e.ValueOrRange, &e.Description, &modalGroup); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.ModalGroup = modalGroup.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PutEntries replaces the dictionary of an existing profile and bumps
// its update timestamp.
func (s *SQLiteStore) PutEntries(ctx context.Context, profileName string, entries []DictionaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM profiles WHERE name = ?", profileName).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("profile not found: %s", profileName)
	}
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE profile_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	for i, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (profile_id, position, letter, value_or_range, description, modal_group)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, e.Letter, e.ValueOrRange, e.Description, nullString(e.ModalGroup))
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET updated_at = ? WHERE id = ?", time.Now(), id); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return tx.Commit()
}

// LookupEntries returns the dictionary of a profile in the engine's
// entry form.
func (s *SQLiteStore) LookupEntries(ctx context.Context, profileName string) ([]dictionary.Entry, error) {
	entries, err := s.GetEntries(ctx, profileName)
	if err != nil {
		return nil, err
	}
	return ToDictionary(entries), nil
}

// GetSnippets returns the snippets of a profile. A profile without
// snippets yields an empty map.
func (s *SQLiteStore) GetSnippets(ctx context.Context, profileName string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.content
		FROM snippets s
		JOIN profiles p ON p.id = s.profile_id
		WHERE p.name = ?`, profileName)
	if err != nil {
		return nil, fmt.Errorf("failed to get snippets: %w", err)
	}
	defer rows.Close()

	snippets := map[string]string{}
	for rows.Next() {
		var name, content string
		if err := rows.Scan(&name, &content); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		snippets[name] = content
	}
	return snippets, rows.Err()
}

// PutSnippets replaces the snippets of an existing profile and bumps
// its update timestamp.
func (s *SQLiteStore) PutSnippets(ctx context.Context, profileName string, snippets map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM profiles WHERE name = ?", profileName).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("profile not found: %s", profileName)
	}
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM snippets WHERE profile_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear snippets: %w", err)
	}
	for name, content := range snippets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snippets (profile_id, name, content)
			VALUES (?, ?, ?)`, id, name, content)
		if err != nil {
			return fmt.Errorf("failed to insert snippet: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET updated_at = ? WHERE id = ?", time.Now(), id); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Statistics returns store statistics.
func (s *SQLiteStore) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"type": "sqlite",
		"path": s.path,
	}

	counts := []struct {
		key   string
		query string
	}{
		{"profiles", "SELECT COUNT(*) FROM profiles"},
		{"entries", "SELECT COUNT(*) FROM entries"},
		{"snippets", "SELECT COUNT(*) FROM snippets"},
	}
	for _, c := range counts {
		var n int
		if err := s.db.QueryRowContext(ctx, c.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.key, err)
		}
		stats[c.key] = n
	}
	return stats, nil
}

// ==================== Helper Functions ====================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
