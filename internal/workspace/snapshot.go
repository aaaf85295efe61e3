package workspace

import "github.com/starford/ansuz/internal/models"

// Notes returns copies of all committed notes.
func (w *Workspace) Notes() []*models.Note {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*models.Note, len(w.notes))
	for i, n := range w.notes {
		out[i] = n.Clone()
	}
	return out
}

// Note returns a copy of a committed note by id.
func (w *Workspace) Note(id string) (*models.Note, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.noteByID(id)
	if n == nil {
		return nil, false
	}
	return n.Clone(), true
}

// Tags returns a copy of the reconciled tag collection.
func (w *Workspace) Tags() []models.Tag {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Tag(nil), w.tags...)
}

// Notebooks returns a copy of the notebook collection.
func (w *Workspace) Notebooks() []models.Notebook {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Notebook(nil), w.notebooks...)
}

// SelectedID returns the current selection.
func (w *Workspace) SelectedID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedID
}

// Query returns the current free-text search query.
func (w *Workspace) Query() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.searchQuery
}

// Filter returns a copy of the active filter, or nil.
func (w *Workspace) Filter() *models.Filter {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.filter == nil {
		return nil
	}
	f := *w.filter
	return &f
}

// FilteredNotes returns the visible note list for the current query and
// filter state, sorted by LastUpdated descending.
func (w *Workspace) FilteredNotes() []*models.Note {
	w.mu.Lock()
	notes := make([]*models.Note, len(w.notes))
	for i, n := range w.notes {
		notes[i] = n.Clone()
	}
	query := w.searchQuery
	var filter *models.Filter
	if w.filter != nil {
		f := *w.filter
		filter = &f
	}
	w.mu.Unlock()

	return FilterNotes(notes, query, filter)
}

// CurrentContent returns the augmentation source: the edit buffer when a
// session is active, else the selected committed note.
func (w *Workspace) CurrentContent() (id, content string, editing bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editing != nil {
		return w.editing.ID, w.editing.Content, true
	}
	if n := w.noteByID(w.selectedID); n != nil {
		return n.ID, n.Content, false
	}
	return "", "", false
}
