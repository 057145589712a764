// Package testutil provides shared test helpers for setting up media roots
// and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/notesdb"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *notesdb.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "soundscape-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := notesdb.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestMediaRoot creates a temporary media root with a mediastore.FS.
func TestMediaRoot(t *testing.T) (string, *mediastore.FS) {
	t.Helper()
	root := t.TempDir()
	store, err := mediastore.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
