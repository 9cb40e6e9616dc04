package testsupport

import (
	"testing"

	"clarion/internal/config"
	"clarion/internal/telemetry"
)

// MustOpenHistory opens the telemetry history store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *telemetry.Store {
	t.Helper()

	store, err := telemetry.OpenStore(cfg)
	if err != nil {
		t.Fatalf("telemetry.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
