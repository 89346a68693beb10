package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB opens a migrated database backed by a temp file.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	// A second run must be a no-op.
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	var version int
	err := db.sql.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		t.Fatalf("reading schema version failed: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("expected schema version %d, got %d", len(migrations), version)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	original := time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC)
	parsed, err := parseTime(formatTime(original))
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("expected %v, got %v", original, parsed)
	}
}
