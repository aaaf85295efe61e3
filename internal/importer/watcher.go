// Package importer watches a drop folder and turns markdown files placed
// there into workspace notes.
package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/workspace"
)

// settleDelay is how long a file must be quiet before it is imported, so
// partially written files are not picked up mid-copy.
const settleDelay = 500 * time.Millisecond

// Watch starts an fsnotify watcher on dir and imports .md files dropped
// there until ctx is cancelled. Imported files are removed from the drop
// folder. Files already present at startup are imported first.
func Watch(ctx context.Context, ws *workspace.Workspace, dir string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("importer: started", slog.String("dir", dir))

	importExisting(ws, dir, logger)

	// settleTimer debounces imports while a file is still being written.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func(path string) {
		pending[path] = struct{}{}
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("importer: stopped")
			return nil

		case <-settleCh:
			for path := range pending {
				importFile(ws, path, logger)
				delete(pending, path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule(ev.Name)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("importer: watch error", slog.String("error", werr.Error()))
		}
	}
}

func importExisting(ws *workspace.Workspace, dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("importer: scan failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		importFile(ws, filepath.Join(dir, e.Name()), logger)
	}
}

func importFile(ws *workspace.Workspace, path string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("importer: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	content := string(data)
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	title := parser.Title(content, stem)

	if _, err := ws.CreateSeededNote(title, content, nil); err != nil {
		logger.Warn("importer: create note failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("importer: remove failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	logger.Info("importer: imported", slog.String("path", path), slog.String("title", title))
}
