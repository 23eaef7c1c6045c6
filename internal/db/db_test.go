package db

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tutorloop.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"users", "sessions", "interactions", "flashcards", "mode_changes", "confusion_transitions"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// Reopening an existing database is fine; migrations are idempotent.
	d2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d2.Close()
}

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO users (id) VALUES ('u1')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var style, mode string
	if err := d.QueryRow(`SELECT style, mode FROM users WHERE id='u1'`).Scan(&style, &mode); err != nil {
		t.Fatalf("select: %v", err)
	}
	if style != "standard" || mode != "learning" {
		t.Errorf("defaults = %s/%s, want standard/learning", style, mode)
	}
}
