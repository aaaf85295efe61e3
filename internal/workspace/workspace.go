// Package workspace implements the note/tag/notebook state engine.
//
// A Workspace owns the three entity collections, the current selection and
// filter state, and the single edit buffer. It is the only writer to the
// persistence boundary: every mutation synchronously writes the affected
// collection(s) back through the injected storage.Provider.
package workspace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// EventFunc is called after a committed mutation.
// kind is one of "note.created", "note.updated", "note.deleted",
// "workspace.changed".
type EventFunc func(kind, id string)

// EditPatch is a partial update to the edit buffer. Nil fields are left
// unchanged.
type EditPatch struct {
	Title      *string
	Content    *string
	Tags       *[]string
	NotebookID *string
}

// Workspace is the owned state object behind all core operations.
type Workspace struct {
	mu     sync.Mutex
	store  storage.Provider
	logger *slog.Logger

	notes     []*models.Note
	tags      []models.Tag
	notebooks []models.Notebook

	selectedID  string
	searchQuery string
	filter      *models.Filter

	editing   *models.Note
	lastSaved string

	autosave *Scheduler
	events   EventFunc
}

// New loads workspace state from store, restores invariants (default
// notebook, non-empty note list, tag reconciliation, valid selection), and
// returns a ready Workspace. autosaveQuiet is the autosave debounce period.
func New(store storage.Provider, logger *slog.Logger, autosaveQuiet time.Duration) (*Workspace, error) {
	w := &Workspace{
		store:  store,
		logger: logger,
	}
	w.autosave = NewScheduler(autosaveQuiet, w.autosaveFlush)

	if err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

// SetEventFunc installs the post-mutation event callback. Must be called
// before the workspace is shared between goroutines.
func (w *Workspace) SetEventFunc(fn EventFunc) {
	w.events = fn
}

// Close cancels any pending autosave timer.
func (w *Workspace) Close() {
	w.autosave.Cancel()
}

// Autosave exposes the scheduler, mainly for state assertions in tests.
func (w *Workspace) Autosave() *Scheduler {
	return w.autosave
}

func (w *Workspace) load() error {
	if err := loadJSON(w.store, storage.KeyNotes, &w.notes); err != nil {
		return err
	}
	if err := loadJSON(w.store, storage.KeyTags, &w.tags); err != nil {
		return err
	}
	if err := loadJSON(w.store, storage.KeyNotebooks, &w.notebooks); err != nil {
		return err
	}
	if err := loadJSON(w.store, storage.KeySelectedID, &w.selectedID); err != nil {
		return err
	}

	// Default notebook always exists.
	if w.notebookByID(models.DefaultNotebookID) == nil {
		w.notebooks = append([]models.Notebook{{ID: models.DefaultNotebookID, Name: "Default"}}, w.notebooks...)
	}

	// Notes referencing a missing notebook fall back to the default.
	for _, n := range w.notes {
		if w.notebookByID(n.NotebookID) == nil {
			n.NotebookID = models.DefaultNotebookID
		}
		n.Timestamp = relativeLabel(n.LastUpdated)
	}

	// The workspace is never empty.
	if len(w.notes) == 0 {
		n := w.newEmptyNote()
		w.notes = []*models.Note{n}
		w.selectedID = n.ID
	}
	if w.noteByID(w.selectedID) == nil {
		w.selectedID = mostRecent(w.notes).ID
	}

	// Restore the tag invariant after the bulk load.
	w.tags = reconcileTags(w.notes, w.tags)

	return w.persist(storage.KeyNotes, storage.KeyTags, storage.KeyNotebooks, storage.KeySelectedID)
}

func loadJSON(store storage.Provider, key string, target any) error {
	raw, err := store.Load(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("workspace: decode %s: %w", key, err)
	}
	return nil
}

// persist writes the named collections back to the store.
func (w *Workspace) persist(keys ...string) error {
	for _, key := range keys {
		var v any
		switch key {
		case storage.KeyNotes:
			v = w.notes
		case storage.KeyTags:
			v = w.tags
		case storage.KeyNotebooks:
			v = w.notebooks
		case storage.KeySelectedID:
			v = w.selectedID
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("workspace: encode %s: %w", key, err)
		}
		if err := w.store.Save(key, raw); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workspace) emit(kind, id string) {
	if w.events != nil {
		w.events(kind, id)
	}
}

func (w *Workspace) newEmptyNote() *models.Note {
	now := timeNow()
	return &models.Note{
		ID:          uuid.NewString(),
		Title:       "Untitled",
		Tags:        []string{},
		NotebookID:  models.DefaultNotebookID,
		LastUpdated: now,
		Timestamp:   relativeLabel(now),
	}
}

func (w *Workspace) noteByID(id string) *models.Note {
	for _, n := range w.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (w *Workspace) notebookByID(id string) *models.Notebook {
	for i := range w.notebooks {
		if w.notebooks[i].ID == id {
			return &w.notebooks[i]
		}
	}
	return nil
}

func mostRecent(notes []*models.Note) *models.Note {
	best := notes[0]
	for _, n := range notes[1:] {
		if n.LastUpdated.After(best.LastUpdated) {
			best = n
		}
	}
	return best
}

// CreateNote creates an empty note in the default notebook, selects it, and
// opens an edit session on it.
func (w *Workspace) CreateNote() (*models.Note, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.newEmptyNote()
	w.notes = append(w.notes, n)
	w.selectedID = n.ID
	w.editing = n.Clone()
	if err := w.persist(storage.KeyNotes, storage.KeySelectedID); err != nil {
		return nil, err
	}
	w.emit("note.created", n.ID)
	return n.Clone(), nil
}

// CreateSeededNote creates a note with the given content, recomputes its
// derived fields, and selects it. Used by augmentation pipelines and the
// drop-folder importer; does not open an edit session.
func (w *Workspace) CreateSeededNote(title, content string, tags []string) (*models.Note, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := timeNow()
	n := &models.Note{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     content,
		Tags:        append([]string{}, tags...),
		NotebookID:  models.DefaultNotebookID,
		Preview:     parser.Preview(content),
		LastUpdated: now,
		Timestamp:   relativeLabel(now),
	}
	w.notes = append(w.notes, n)
	w.selectedID = n.ID
	w.tags = reconcileTags(w.notes, w.tags)
	if err := w.persist(storage.KeyNotes, storage.KeyTags, storage.KeySelectedID); err != nil {
		return nil, err
	}
	w.emit("note.created", n.ID)
	return n.Clone(), nil
}

// UpdateNote applies a patch directly to a committed note, bypassing the
// edit buffer. Derived fields are recomputed and the tag set reconciled.
func (w *Workspace) UpdateNote(id string, patch EditPatch) (*models.Note, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.noteByID(id)
	if n == nil {
		return nil, fmt.Errorf("workspace: note %s: %w", id, apperr.ErrNotFound)
	}
	applyPatch(n, patch)
	w.stamp(n)
	w.tags = reconcileTags(w.notes, w.tags)
	if err := w.persist(storage.KeyNotes, storage.KeyTags); err != nil {
		return nil, err
	}
	w.emit("note.updated", n.ID)
	return n.Clone(), nil
}

// DeleteNote removes a note. Deleting the last remaining note immediately
// creates and selects a fresh empty note so the workspace is never empty.
func (w *Workspace) DeleteNote(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := -1
	for i, n := range w.notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("workspace: note %s: %w", id, apperr.ErrNotFound)
	}
	w.notes = append(w.notes[:idx], w.notes[idx+1:]...)

	// A deleted note's edit session dies with it.
	if w.editing != nil && w.editing.ID == id {
		w.editing = nil
		w.autosave.Cancel()
	}

	if len(w.notes) == 0 {
		n := w.newEmptyNote()
		w.notes = []*models.Note{n}
		w.selectedID = n.ID
	} else if w.selectedID == id {
		w.selectedID = mostRecent(w.notes).ID
	}

	w.tags = reconcileTags(w.notes, w.tags)
	if err := w.persist(storage.KeyNotes, storage.KeyTags, storage.KeySelectedID); err != nil {
		return err
	}
	w.emit("note.deleted", id)
	return nil
}

// SelectNote makes the given note current.
func (w *Workspace) SelectNote(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.noteByID(id) == nil {
		return fmt.Errorf("workspace: note %s: %w", id, apperr.ErrNotFound)
	}
	w.selectedID = id
	if err := w.persist(storage.KeySelectedID); err != nil {
		return err
	}
	w.emit("workspace.changed", id)
	return nil
}

// CreateNotebook adds a notebook with a unique, non-empty name.
func (w *Workspace) CreateNotebook(name string) (*models.Notebook, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: notebook name is required", apperr.ErrValidation)
	}
	for _, nb := range w.notebooks {
		if strings.EqualFold(nb.Name, name) {
			return nil, fmt.Errorf("%w: notebook %q already exists", apperr.ErrValidation, name)
		}
	}
	nb := models.Notebook{ID: uuid.NewString(), Name: name}
	w.notebooks = append(w.notebooks, nb)
	if err := w.persist(storage.KeyNotebooks); err != nil {
		return nil, err
	}
	w.emit("workspace.changed", nb.ID)
	return &nb, nil
}

// DeleteNotebook removes a notebook after reassigning its notes to the
// default notebook. Deleting the default notebook is a silent no-op.
func (w *Workspace) DeleteNotebook(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id == models.DefaultNotebookID {
		return nil
	}
	idx := -1
	for i := range w.notebooks {
		if w.notebooks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("workspace: notebook %s: %w", id, apperr.ErrNotFound)
	}

	moved := false
	for _, n := range w.notes {
		if n.NotebookID == id {
			n.NotebookID = models.DefaultNotebookID
			moved = true
		}
	}
	w.notebooks = append(w.notebooks[:idx], w.notebooks[idx+1:]...)

	keys := []string{storage.KeyNotebooks}
	if moved {
		keys = append(keys, storage.KeyNotes)
	}
	// Drop a notebook filter that now points nowhere.
	if w.filter != nil && w.filter.Kind == models.FilterNotebook && w.filter.Value == id {
		w.filter = nil
	}
	if err := w.persist(keys...); err != nil {
		return err
	}
	w.emit("workspace.changed", id)
	return nil
}

// SetSearchQuery sets the free-text query and clears any active filter.
func (w *Workspace) SetSearchQuery(query string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.searchQuery = query
	w.filter = nil
}

// SetTagFilter activates a tag filter and clears the search query.
func (w *Workspace) SetTagFilter(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = &models.Filter{Kind: models.FilterTag, Value: name}
	w.searchQuery = ""
}

// SetNotebookFilter activates a notebook filter and clears the search query.
func (w *Workspace) SetNotebookFilter(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = &models.Filter{Kind: models.FilterNotebook, Value: id}
	w.searchQuery = ""
}

// ClearFilter removes both the search query and the active filter.
func (w *Workspace) ClearFilter() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.searchQuery = ""
	w.filter = nil
}

// stamp recomputes a note's derived fields at save time.
func (w *Workspace) stamp(n *models.Note) {
	now := timeNow()
	n.Preview = parser.Preview(n.Content)
	n.LastUpdated = now
	n.Timestamp = relativeLabel(now)
}

func applyPatch(n *models.Note, patch EditPatch) {
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Tags != nil {
		n.Tags = append([]string{}, (*patch.Tags)...)
	}
	if patch.NotebookID != nil {
		n.NotebookID = *patch.NotebookID
	}
}
