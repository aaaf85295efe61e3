package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/testutil"
	"github.com/starford/ansuz/internal/workspace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func hasNoteTitled(ws *workspace.Workspace, title string) bool {
	for _, n := range ws.Notes() {
		if n.Title == title {
			return true
		}
	}
	return false
}

func TestWatchImportsDroppedFile(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, ws, dir, quietLogger())

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "meeting.md")
	if err := os.WriteFile(path, []byte("# Standup Notes\n\nDiscussed rollout."), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return hasNoteTitled(ws, "Standup Notes")
	}, "dropped file was not imported")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, "imported file was not removed from drop folder")
}

func TestWatchImportsExistingFiles(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "backlog.md")
	if err := os.WriteFile(path, []byte("plain content without a heading"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, ws, dir, quietLogger())

	// No H1: the filename stem becomes the title.
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return hasNoteTitled(ws, "backlog")
	}, "pre-existing file was not imported")
}

func TestWatchIgnoresNonMarkdown(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, ws, dir, quietLogger())

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}

	before := len(ws.Notes())
	time.Sleep(time.Second)
	if got := len(ws.Notes()); got != before {
		t.Errorf("notes = %d, want %d", got, before)
	}
}
