// Package discidcache persists resolved MusicBrainz releases keyed by disc
// ID. Multi-disc audiobooks hit the same lookup once per disc; re-rips of a
// scratched disc hit it again days later. Caching keeps identification
// working offline once a disc has been seen.
package discidcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"bookrip/internal/logging"
	"bookrip/internal/services/musicbrainz"
)

// Entry is a cached disc ID to release mapping.
type Entry struct {
	DiscID      string    `json:"disc_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Year        int       `json:"year,omitempty"`
	DiscCount   int       `json:"disc_count,omitempty"`
	TrackTitles []string  `json:"track_titles,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

// Release converts the entry back into the lookup result shape.
func (e Entry) Release() *musicbrainz.Release {
	return &musicbrainz.Release{
		Title:       e.Title,
		Artist:      e.Artist,
		Year:        e.Year,
		DiscCount:   e.DiscCount,
		TrackTitles: append([]string(nil), e.TrackTitles...),
	}
}

// Cache provides thread-safe access to the on-disk disc ID cache. An empty
// path disables it; all operations become no-ops.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache loads the cache at path, starting empty when the file is missing
// or unreadable.
func NewCache(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "discidcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load disc id cache", logging.Error(err))
	}
	return c
}

// Lookup returns the cached release for a disc ID.
func (c *Cache) Lookup(discID string) (*musicbrainz.Release, bool) {
	discID = strings.TrimSpace(discID)
	if discID == "" || c.path == "" {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[discID]
	if !found {
		return nil, false
	}
	return entry.Release(), true
}

// Store records a resolved release and persists the cache to disk.
func (c *Cache) Store(discID string, release *musicbrainz.Release) error {
	discID = strings.TrimSpace(discID)
	if discID == "" {
		return errors.New("disc ID cannot be empty")
	}
	if c.path == "" || release == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[discID] = Entry{
		DiscID:      discID,
		Title:       release.Title,
		Artist:      release.Artist,
		Year:        release.Year,
		DiscCount:   release.DiscCount,
		TrackTitles: append([]string(nil), release.TrackTitles...),
		CachedAt:    time.Now().UTC(),
	}

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached disc id mapping",
		logging.String("disc_id", discID),
		logging.String("title", release.Title),
	)
	return nil
}

// List returns all entries, newest first.
func (c *Cache) List() []Entry {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})
	return entries
}

// Count returns the number of cached discs.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.DiscID) != "" {
			c.entries[entry.DiscID] = entry
		}
	}
	return nil
}

// save writes the cache atomically; callers hold the write lock.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
