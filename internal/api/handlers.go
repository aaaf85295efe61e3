package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/augment"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/workspace"
)

// Handler holds API route handlers.
type Handler struct {
	ws  *workspace.Workspace
	aug *augment.Orchestrator
}

// NewHandler creates a new Handler.
func NewHandler(ws *workspace.Workspace, aug *augment.Orchestrator) *Handler {
	return &Handler{ws: ws, aug: aug}
}

// handleError maps domain errors onto HTTP status codes. fallback is used
// for errors that are not one of the known sentinels.
func handleError(w http.ResponseWriter, err error, fallback int) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrBusy),
		errors.Is(err, apperr.ErrUnsavedChanges),
		errors.Is(err, apperr.ErrNotEditing):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, fallback, errorBody(err.Error()))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return false
	}
	return true
}

func (h *Handler) snapshot() WorkspaceResponse {
	notes := h.ws.Notes()
	tagCounts := workspace.TagCounts(notes)
	nbCounts := workspace.NotebookCounts(notes)

	tags := make([]TagItem, 0)
	for _, t := range h.ws.Tags() {
		tags = append(tags, TagItem{ID: t.ID, Name: t.Name, Count: tagCounts[t.Name]})
	}
	notebooks := make([]NotebookItem, 0)
	for _, nb := range h.ws.Notebooks() {
		notebooks = append(notebooks, NotebookItem{ID: nb.ID, Name: nb.Name, Count: nbCounts[nb.ID]})
	}

	buffer, editing := h.ws.Buffer()
	return WorkspaceResponse{
		Notes:      h.ws.FilteredNotes(),
		Tags:       tags,
		Notebooks:  notebooks,
		SelectedID: h.ws.SelectedID(),
		Query:      h.ws.Query(),
		Filter:     h.ws.Filter(),
		Editing:    editing,
		Buffer:     buffer,
		LastSaved:  h.ws.LastSaved(),
		Autosave:   string(h.ws.Autosave().State()),
		Generating: h.aug.IsGenerating(),
	}
}

// GetWorkspace handles GET /api/workspace.
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// ListNotes handles GET /api/notes. The list reflects the active search
// query or filter.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes := h.ws.FilteredNotes()
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"total": len(notes),
	})
}

// CreateNote handles POST /api/notes. The new note is empty, selected, and
// immediately in edit mode.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.CreateNote()
	if err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ws.Note(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PATCH /api/notes/{id}. This is a direct committed
// update, distinct from the edit-buffer flow.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.ws.UpdateNote(chi.URLParam(r, "id"), workspace.EditPatch{
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		NotebookID: req.NotebookID,
	})
	if err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.DeleteNote(chi.URLParam(r, "id")); err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// SelectNote handles POST /api/notes/{id}/select.
func (h *Handler) SelectNote(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.SelectNote(chi.URLParam(r, "id")); err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BeginEdit handles POST /api/edit/{id}.
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	buffer, err := h.ws.BeginEdit(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, buffer)
}

// UpdateBuffer handles PATCH /api/edit.
func (h *Handler) UpdateBuffer(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.ws.UpdateBuffer(workspace.EditPatch{
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		NotebookID: req.NotebookID,
	})
	if err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveEdit handles POST /api/edit/save.
func (h *Handler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.SaveEdit()
	if err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CancelEdit handles POST /api/edit/cancel. Without force, cancelling a
// dirty buffer is refused so the client can ask for confirmation.
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	var req CancelEditRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	if err := h.ws.CancelEdit(req.Force); err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateNotebook handles POST /api/notebooks.
func (h *Handler) CreateNotebook(w http.ResponseWriter, r *http.Request) {
	var req CreateNotebookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	nb, err := h.ws.CreateNotebook(req.Name)
	if err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, nb)
}

// DeleteNotebook handles DELETE /api/notebooks/{id}.
func (h *Handler) DeleteNotebook(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.DeleteNotebook(chi.URLParam(r, "id")); err != nil {
		handleError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSearch handles PUT /api/view/search.
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.ws.SetSearchQuery(req.Query)
	writeJSON(w, http.StatusOK, map[string]any{"notes": h.ws.FilteredNotes()})
}

// SetTagFilter handles PUT /api/view/filter/tag.
func (h *Handler) SetTagFilter(w http.ResponseWriter, r *http.Request) {
	var req TagFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag name is required"))
		return
	}
	h.ws.SetTagFilter(req.Name)
	writeJSON(w, http.StatusOK, map[string]any{"notes": h.ws.FilteredNotes()})
}

// SetNotebookFilter handles PUT /api/view/filter/notebook.
func (h *Handler) SetNotebookFilter(w http.ResponseWriter, r *http.Request) {
	var req NotebookFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, ok := h.findNotebook(req.ID); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("notebook not found"))
		return
	}
	h.ws.SetNotebookFilter(req.ID)
	writeJSON(w, http.StatusOK, map[string]any{"notes": h.ws.FilteredNotes()})
}

// ClearFilter handles DELETE /api/view/filter.
func (h *Handler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	h.ws.ClearFilter()
	writeJSON(w, http.StatusOK, map[string]any{"notes": h.ws.FilteredNotes()})
}

func (h *Handler) findNotebook(id string) (models.Notebook, bool) {
	for _, nb := range h.ws.Notebooks() {
		if nb.ID == id {
			return nb, true
		}
	}
	return models.Notebook{}, false
}

// Summarize handles POST /api/augment/summarize. The call blocks until the
// pipeline completes; progress streams over SSE in the meantime.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	if err := h.aug.SummarizeAndTag(r.Context()); err != nil {
		handleError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Generating: h.aug.IsGenerating(),
		Entries:    h.aug.Status(),
	})
}

// Memory handles POST /api/augment/memory.
func (h *Handler) Memory(w http.ResponseWriter, r *http.Request) {
	if err := h.aug.ExtractMemory(r.Context()); err != nil {
		handleError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Generating: h.aug.IsGenerating(),
		Entries:    h.aug.Status(),
	})
}

// ImportLink handles POST /api/augment/link.
func (h *Handler) ImportLink(w http.ResponseWriter, r *http.Request) {
	var req LinkImportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.aug.ImportLink(r.Context(), req.URL); err != nil {
		handleError(w, err, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportSearch handles POST /api/augment/search.
func (h *Handler) ImportSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchImportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.aug.ImportSearch(r.Context(), req.Query); err != nil {
		handleError(w, err, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AugmentStatus handles GET /api/augment/status.
func (h *Handler) AugmentStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Generating: h.aug.IsGenerating(),
		Entries:    h.aug.Status(),
	})
}
