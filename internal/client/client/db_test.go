package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/repositories/metadata"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"goose_db_version", "metadata", "drafts"} {
		if !tableExists(t, db, table) {
			t.Fatalf("expected table %s after migrations", table)
		}
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("RunMigrations (run %d) error: %v", i+1, err)
		}
	}
}

func TestRepositories_ShareDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}

	repos := NewRepositories(db)
	if err := metadata.NewSQLiteRepository(db).Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("metadata set: %v", err)
	}
	d := models.NewDraft()
	d.Title = "Room near station"
	if err := repos.Drafts.Save(ctx, d); err != nil {
		t.Fatalf("draft save: %v", err)
	}
	_ = db.Close()

	db, err = InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	repos = NewRepositories(db)

	v, err := metadata.NewSQLiteRepository(db).Get(ctx, "k")
	if err != nil || string(v) != "v" {
		t.Fatalf("metadata after reopen = %q, %v", v, err)
	}
	got, err := repos.Drafts.Get(ctx, d.TempID)
	if err != nil || got.Title != d.Title {
		t.Fatalf("draft after reopen = %+v, %v", got, err)
	}
}
