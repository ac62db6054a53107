package testsupport

import (
	"context"
	"testing"

	"bookrip/internal/config"
	"bookrip/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDisc creates a new rip job for tests using the provided store and config.
func NewDisc(t testing.TB, store *queue.Store, cfg *config.Config, title string) *queue.Item {
	t.Helper()

	item, err := store.NewDisc(context.Background(), cfg.Rip.Device, title, cfg.Rip.Mode, cfg.Rip.Bitrate, cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("store.NewDisc: %v", err)
	}
	return item
}
