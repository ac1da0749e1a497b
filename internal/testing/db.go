// Package testing provides testing utilities and helpers for the fundwatch project.
package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aristath/fundwatch/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a per-test temp directory and
// applies the embedded schema registered for name ("portfolio", "client_data").
// Unknown names produce an empty database. The database is closed automatically
// when the test ends; the returned cleanup function may also be called explicitly.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name))

	profile := database.ProfileStandard
	if name == database.NameClientData {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    path,
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
	t.Cleanup(cleanup)

	return db, cleanup
}
