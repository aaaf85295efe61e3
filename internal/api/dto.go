package api

import (
	"github.com/starford/ansuz/internal/augment"
	"github.com/starford/ansuz/internal/models"
)

// TagItem is a tag with its usage count.
type TagItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NotebookItem is a notebook with its note count.
type NotebookItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// WorkspaceResponse is the full workspace snapshot returned by GET /workspace.
type WorkspaceResponse struct {
	Notes      []*models.Note `json:"notes"`
	Tags       []TagItem      `json:"tags"`
	Notebooks  []NotebookItem `json:"notebooks"`
	SelectedID string         `json:"selectedNoteId"`
	Query      string         `json:"query"`
	Filter     *models.Filter `json:"filter,omitempty"`
	Editing    bool           `json:"editing"`
	Buffer     *models.Note   `json:"buffer,omitempty"`
	LastSaved  string         `json:"lastSaved,omitempty"`
	Autosave   string         `json:"autosave"`
	Generating bool           `json:"generating"`
}

// UpdateNoteRequest carries a partial note update. Absent fields are left
// unchanged.
type UpdateNoteRequest struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	NotebookID *string   `json:"notebookId"`
}

// CreateNotebookRequest is the request body for creating a notebook.
type CreateNotebookRequest struct {
	Name string `json:"name"`
}

// SearchRequest sets the workspace search query.
type SearchRequest struct {
	Query string `json:"query"`
}

// TagFilterRequest sets the active tag filter.
type TagFilterRequest struct {
	Name string `json:"name"`
}

// NotebookFilterRequest sets the active notebook filter.
type NotebookFilterRequest struct {
	ID string `json:"id"`
}

// CancelEditRequest carries the force flag for discarding unsaved changes.
type CancelEditRequest struct {
	Force bool `json:"force"`
}

// LinkImportRequest is the request body for importing a web page.
type LinkImportRequest struct {
	URL string `json:"url"`
}

// SearchImportRequest is the request body for importing search results.
type SearchImportRequest struct {
	Query string `json:"query"`
}

// StatusResponse wraps the augmentation status stream.
type StatusResponse struct {
	Generating bool                  `json:"generating"`
	Entries    []augment.StatusEntry `json:"entries"`
}
