// Package testutil provides shared test helpers for setting up stores and
// workspaces.
package testutil

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/workspace"
)

// TestStore creates a temporary SQLite-backed store that is automatically
// cleaned up.
func TestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "ansuz-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestWorkspace creates a workspace over a temporary store with a short
// autosave quiet period.
func TestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	w, err := workspace.New(TestStore(t), slog.Default(), 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Close)
	return w
}
