package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteBootstraps(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	db, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM batch_log").Scan(&count); err != nil {
		t.Fatalf("batch_log should exist after bootstrap: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty batch_log, got %d rows", count)
	}
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestBootstrapSQLiteIsIdempotent(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := BootstrapSQLite(context.Background(), db); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
}
