package sqlite

import (
	"path/filepath"
	"testing"
)

func TestNewDB_InMemory(t *testing.T) {
	t.Parallel()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB(:memory:) returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}
}

func TestNewDB_FileCreated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gohan.db")
	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB(%q) returned error: %v", path, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode pragma: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", mode)
	}
}

func TestNewDB_MissingParentDir(t *testing.T) {
	t.Parallel()

	if _, err := NewDB("/no/such/dir/gohan.db"); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}
