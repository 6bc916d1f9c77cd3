package testsupport

import (
	"testing"

	"packwatch/internal/config"
	"packwatch/internal/scanlog"
)

// MustOpenStore opens a scanlog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *scanlog.Store {
	t.Helper()

	store, err := scanlog.Open(cfg)
	if err != nil {
		t.Fatalf("scanlog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
