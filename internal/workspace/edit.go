package workspace

import (
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// BeginEdit opens an edit session on the given note. The buffer is a deep
// copy; the committed note is untouched until a save or autosave flush.
func (w *Workspace) BeginEdit(id string) (*models.Note, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.noteByID(id)
	if n == nil {
		return nil, fmt.Errorf("workspace: note %s: %w", id, apperr.ErrNotFound)
	}
	w.editing = n.Clone()
	w.selectedID = id
	return w.editing.Clone(), nil
}

// UpdateBuffer applies a patch to the edit buffer and restarts the
// autosave timer.
func (w *Workspace) UpdateBuffer(patch EditPatch) error {
	w.mu.Lock()
	if w.editing == nil {
		w.mu.Unlock()
		return apperr.ErrNotEditing
	}
	applyPatch(w.editing, patch)
	w.mu.Unlock()

	w.autosave.Touch()
	return nil
}

// UpdateBufferIf applies a patch only when the edit session still targets
// the given note. Augmentation pipelines use this as the stale-response
// guard: a result arriving after the user left the edit session is dropped.
func (w *Workspace) UpdateBufferIf(id string, patch EditPatch) error {
	w.mu.Lock()
	if w.editing == nil || w.editing.ID != id {
		w.mu.Unlock()
		return apperr.ErrNotEditing
	}
	applyPatch(w.editing, patch)
	w.mu.Unlock()

	w.autosave.Touch()
	return nil
}

// SaveEdit flushes the buffer into the committed note and closes the edit
// session, cancelling any pending autosave.
func (w *Workspace) SaveEdit() (*models.Note, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.editing == nil {
		return nil, apperr.ErrNotEditing
	}
	n, err := w.commitBuffer()
	if err != nil {
		return nil, err
	}
	w.editing = nil
	w.autosave.Cancel()
	return n, nil
}

// CancelEdit discards the edit session. When the buffer differs from the
// committed note and force is false, ErrUnsavedChanges is returned and the
// session stays open so the caller can ask for confirmation.
func (w *Workspace) CancelEdit(force bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.editing == nil {
		return nil
	}
	if !force {
		committed := w.noteByID(w.editing.ID)
		if committed == nil || !committed.Equal(w.editing) {
			return apperr.ErrUnsavedChanges
		}
	}
	w.editing = nil
	w.autosave.Cancel()
	return nil
}

// Buffer returns a copy of the edit buffer when a session is active.
func (w *Workspace) Buffer() (*models.Note, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editing == nil {
		return nil, false
	}
	return w.editing.Clone(), true
}

// IsEditing reports whether an edit session is active.
func (w *Workspace) IsEditing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editing != nil
}

// EditingID returns the note targeted by the current edit session, or "".
func (w *Workspace) EditingID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editing == nil {
		return ""
	}
	return w.editing.ID
}

// LastSaved returns the display label of the most recent flush.
func (w *Workspace) LastSaved() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSaved
}

// autosaveFlush is the scheduler callback. Unlike an explicit save it
// leaves the edit session open.
func (w *Workspace) autosaveFlush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.editing == nil {
		// Timer fired after the session ended; nothing to flush.
		return
	}
	if _, err := w.commitBuffer(); err != nil {
		w.logger.Error("autosave flush failed", slog.String("error", err.Error()))
	}
}

// commitBuffer stamps the buffer's derived fields, writes it into the
// committed collection, reconciles tags, and persists. Caller holds w.mu.
func (w *Workspace) commitBuffer() (*models.Note, error) {
	w.stamp(w.editing)

	found := false
	for i, n := range w.notes {
		if n.ID == w.editing.ID {
			w.notes[i] = w.editing.Clone()
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("workspace: note %s: %w", w.editing.ID, apperr.ErrNotFound)
	}

	w.tags = reconcileTags(w.notes, w.tags)
	if err := w.persist(storage.KeyNotes, storage.KeyTags); err != nil {
		return nil, err
	}
	w.lastSaved = timeNow().Format("15:04:05")
	w.emit("note.updated", w.editing.ID)
	return w.editing.Clone(), nil
}
