package testsupport

import (
	"testing"

	"memora/internal/config"
	"memora/internal/store"
)

// MustOpenStore opens the versioned store for a test config and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}
