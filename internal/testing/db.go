// Package testing provides shared fixtures, mocks and database helpers for tests.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/folioworks/folio/internal/database"
)

// NewTestDB creates a migrated portfolio database in a per-test temporary
// directory. The connection is closed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "folio.db"),
		Profile: database.ProfileStandard,
		Name:    "folio",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}
