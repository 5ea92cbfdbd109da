package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/kolam-ikan/kolam/internal/config"
)

func setupTestDB(t *testing.T) *Context {
	t.Helper()
	t.Setenv("KOLAM_DIR", t.TempDir())

	ctx, err := CreateDatabase("")
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func TestDatabaseCreationAndMigration(t *testing.T) {
	ctx := setupTestDB(t)

	if _, err := os.Stat(filepath.Join(config.GetDataDir(), "kolam.db")); err != nil {
		t.Fatalf("expected database file to exist: %v", err)
	}

	for _, table := range []string{"streams", "entries", "entry_versions", "pending_blocks", "profiles"} {
		if !tableExists(t, ctx.DB, table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	var foreignKeys int
	if err := ctx.DB.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("failed to read foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Fatalf("expected foreign keys enabled")
	}
}

func TestCreateDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kolam.db")

	first, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("first CreateDatabase returned error: %v", err)
	}
	if err := CloseDatabase(first); err != nil {
		t.Fatalf("CloseDatabase error: %v", err)
	}

	second, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("second CreateDatabase returned error: %v", err)
	}
	defer CloseDatabase(second)
}

func TestInMemoryDatabase(t *testing.T) {
	ctx, err := CreateDatabase(":memory:")
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}
	defer CloseDatabase(ctx)

	if !tableExists(t, ctx.DB, "entries") {
		t.Fatalf("expected migrated in-memory database")
	}
}

func TestClearDatabaseRemovesAllRows(t *testing.T) {
	dbCtx := setupTestDB(t)
	ctx := context.Background()
	s := NewSQLStore(dbCtx)

	streamID := seedStream(t, s, "Research")
	entryID := seedEntry(t, s, streamID)
	seedVersion(t, s, entryID, 1)
	seedPendingBlock(t, s, streamID, "abcd1234")
	seedProfile(t, s, "Me")

	for _, table := range []string{"streams", "entries", "entry_versions", "pending_blocks", "profiles"} {
		assertCount(t, dbCtx.DB, table, 1)
	}

	if err := ClearDatabase(ctx, dbCtx); err != nil {
		t.Fatalf("ClearDatabase returned error: %v", err)
	}

	for _, table := range []string{"streams", "entries", "entry_versions", "pending_blocks", "profiles"} {
		assertCount(t, dbCtx.DB, table, 0)
	}
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("tableExists query failed for %s: %v", table, err)
	}
	return true
}

func assertCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("count query failed for %s: %v", table, err)
	}
	if count != expected {
		t.Fatalf("expected %s to have %d rows, got %d", table, expected, count)
	}
}
