package discidcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bookrip/internal/services/musicbrainz"
)

func testRelease() *musicbrainz.Release {
	return &musicbrainz.Release{
		Title:       "The Long Way Home",
		Artist:      "Jane Narrator",
		Year:        2019,
		DiscCount:   2,
		TrackTitles: []string{"Chapter 1", "Chapter 2"},
	}
}

func TestCacheStoreAndLookup(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "discid_cache.json")
	cache := NewCache(cachePath, nil)

	if err := cache.Store("abc123def456", testRelease()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	found, ok := cache.Lookup("abc123def456")
	if !ok {
		t.Fatal("Lookup failed to find stored entry")
	}
	if found.Title != "The Long Way Home" {
		t.Errorf("Title mismatch: got %q", found.Title)
	}
	if found.Artist != "Jane Narrator" {
		t.Errorf("Artist mismatch: got %q", found.Artist)
	}
	if len(found.TrackTitles) != 2 {
		t.Errorf("expected 2 track titles, got %d", len(found.TrackTitles))
	}
}

func TestCacheLookupNotFound(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "discid_cache.json"), nil)

	if _, ok := cache.Lookup("nonexistent"); ok {
		t.Error("Lookup should return false for an unknown disc ID")
	}
}

func TestCacheStoreEmptyDiscID(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "discid_cache.json"), nil)

	if err := cache.Store("   ", testRelease()); err == nil {
		t.Error("Store should reject an empty disc ID")
	}
}

func TestCacheDisabledWithEmptyPath(t *testing.T) {
	cache := NewCache("", nil)

	if err := cache.Store("abc123", testRelease()); err != nil {
		t.Fatalf("Store on disabled cache should be a no-op, got %v", err)
	}
	if _, ok := cache.Lookup("abc123"); ok {
		t.Error("disabled cache should never report a hit")
	}
	if cache.List() != nil {
		t.Error("disabled cache should return no entries")
	}
}

func TestCachePersistsAcrossReloads(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "discid_cache.json")

	first := NewCache(cachePath, nil)
	if err := first.Store("abc123", testRelease()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	second := NewCache(cachePath, nil)
	found, ok := second.Lookup("abc123")
	if !ok {
		t.Fatal("reloaded cache should contain the stored entry")
	}
	if found.Year != 2019 {
		t.Errorf("Year mismatch: got %d", found.Year)
	}
}

func TestCacheListNewestFirst(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "discid_cache.json")
	cache := NewCache(cachePath, nil)

	if err := cache.Store("older", testRelease()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	cache.mu.Lock()
	entry := cache.entries["older"]
	entry.CachedAt = time.Now().Add(-time.Hour)
	cache.entries["older"] = entry
	cache.mu.Unlock()

	if err := cache.Store("newer", testRelease()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	entries := cache.List()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].DiscID != "newer" {
		t.Errorf("expected newest entry first, got %q", entries[0].DiscID)
	}
}

func TestCacheClear(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "discid_cache.json")
	cache := NewCache(cachePath, nil)

	if err := cache.Store("abc123", testRelease()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Count() != 0 {
		t.Errorf("expected empty cache, got %d entries", cache.Count())
	}

	reloaded := NewCache(cachePath, nil)
	if reloaded.Count() != 0 {
		t.Error("Clear should persist the empty cache")
	}
}

func TestCacheIgnoresCorruptFile(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "discid_cache.json")
	if err := os.WriteFile(cachePath, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cache := NewCache(cachePath, nil)
	if cache.Count() != 0 {
		t.Error("corrupt cache file should load as empty")
	}
}
