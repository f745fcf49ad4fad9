package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/msto63/mCW/foundation/gcode/dictionary"
)

// ProfilesCache is a specialized cache in front of the profile store
type ProfilesCache struct {
	catalog    *Cache
	catalogTTL time.Duration
	entriesTTL time.Duration
	entries    *Cache
}

// ProfilesConfig holds configuration for the profiles cache
type ProfilesConfig struct {
	CatalogTTL  time.Duration // TTL for the profile catalog (default: 1 minute)
	EntriesTTL  time.Duration // TTL for dictionary entry lists (default: 5 minutes)
	MaxProfiles int           // Max cached entry lists (default: 100)
}

// DefaultProfilesConfig returns default profiles cache configuration
func DefaultProfilesConfig() ProfilesConfig {
	return ProfilesConfig{
		CatalogTTL:  1 * time.Minute,
		EntriesTTL:  5 * time.Minute,
		MaxProfiles: 100,
	}
}

// NewProfilesCache creates a new profiles cache
func NewProfilesCache(cfg ProfilesConfig) *ProfilesCache {
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = 1 * time.Minute
	}
	if cfg.EntriesTTL <= 0 {
		cfg.EntriesTTL = 5 * time.Minute
	}
	if cfg.MaxProfiles <= 0 {
		cfg.MaxProfiles = 100
	}

	return &ProfilesCache{
		catalog: New(Config{
			MaxItems: 100,
			TTL:      cfg.CatalogTTL,
		}),
		catalogTTL: cfg.CatalogTTL,
		entriesTTL: cfg.EntriesTTL,
		entries: New(Config{
			MaxItems: cfg.MaxProfiles,
			TTL:      cfg.EntriesTTL,
		}),
	}
}

// GetCatalog retrieves the cached profile catalog
func (c *ProfilesCache) GetCatalog() (interface{}, bool) {
	return c.catalog.Get("profiles:list")
}

// SetCatalog caches the profile catalog
func (c *ProfilesCache) SetCatalog(catalog interface{}) {
	c.catalog.SetWithTTL("profiles:list", catalog, c.catalogTTL)
}

// InvalidateCatalog invalidates the profile catalog cache
func (c *ProfilesCache) InvalidateCatalog() {
	c.catalog.Delete("profiles:list")
}

// GetProfile retrieves a specific cached profile
func (c *ProfilesCache) GetProfile(name string) (interface{}, bool) {
	return c.catalog.Get("profile:" + name)
}

// SetProfile caches a specific profile
func (c *ProfilesCache) SetProfile(name string, profile interface{}) {
	c.catalog.SetWithTTL("profile:"+name, profile, c.catalogTTL)
}

// GetEntries retrieves a cached dictionary entry list
func (c *ProfilesCache) GetEntries(name string) ([]dictionary.Entry, bool) {
	if val, ok := c.entries.Get("entries:" + name); ok {
		if entries, ok := val.([]dictionary.Entry); ok {
			return entries, true
		}
	}
	return nil, false
}

// SetEntries caches a dictionary entry list
func (c *ProfilesCache) SetEntries(name string, entries []dictionary.Entry) {
	c.entries.SetWithTTL("entries:"+name, entries, c.entriesTTL)
}

// InvalidateProfile drops everything cached for a profile after a write
func (c *ProfilesCache) InvalidateProfile(name string) {
	c.catalog.Delete("profile:" + name)
	c.catalog.Delete("profiles:list")
	c.entries.Delete("entries:" + name)
}

// DocumentKey generates a cache key for an annotated document.
// The key binds the result to both the dictionary revision and the
// document content, so a profile change never serves stale results.
func DocumentKey(fingerprint, text string) string {
	hash := sha256.Sum256([]byte(fingerprint + "|" + text))
	return "annot:" + hex.EncodeToString(hash[:16]) // Use first 16 bytes
}

// Stats returns cache statistics
func (c *ProfilesCache) Stats() map[string]interface{} {
	catalogHits, catalogMisses, catalogRate := c.catalog.Stats()
	entriesHits, entriesMisses, entriesRate := c.entries.Stats()

	return map[string]interface{}{
		"catalog_cache_size": c.catalog.Size(),
		"catalog_hits":       catalogHits,
		"catalog_misses":     catalogMisses,
		"catalog_hit_rate":   catalogRate,
		"entries_cache_size": c.entries.Size(),
		"entries_hits":       entriesHits,
		"entries_misses":     entriesMisses,
		"entries_hit_rate":   entriesRate,
	}
}

// Clear clears all caches
func (c *ProfilesCache) Clear() {
	c.catalog.Clear()
	c.entries.Clear()
}

// Close stops the cleanup goroutines of both caches
func (c *ProfilesCache) Close() {
	c.catalog.Close()
	c.entries.Close()
}
