package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/augment"
	"github.com/starford/ansuz/internal/workspace"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(ws *workspace.Workspace, aug *augment.Orchestrator, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ws, aug)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Workspace snapshot.
	r.Get("/workspace", h.GetWorkspace)

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/select", h.SelectNote)

	// Edit session.
	r.Post("/edit/{id}", h.BeginEdit)
	r.Patch("/edit", h.UpdateBuffer)
	r.Post("/edit/save", h.SaveEdit)
	r.Post("/edit/cancel", h.CancelEdit)

	// Notebooks.
	r.Post("/notebooks", h.CreateNotebook)
	r.Delete("/notebooks/{id}", h.DeleteNotebook)

	// Search and filters.
	r.Put("/view/search", h.SetSearch)
	r.Put("/view/filter/tag", h.SetTagFilter)
	r.Put("/view/filter/notebook", h.SetNotebookFilter)
	r.Delete("/view/filter", h.ClearFilter)

	// AI augmentation.
	r.Post("/augment/summarize", h.Summarize)
	r.Post("/augment/memory", h.Memory)
	r.Post("/augment/link", h.ImportLink)
	r.Post("/augment/search", h.ImportSearch)
	r.Get("/augment/status", h.AugmentStatus)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
