// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	// ErrBusy is returned when a gated augmentation pipeline is requested
	// while another one is still in flight.
	ErrBusy = errors.New("augmentation already in progress")
	// ErrUnsavedChanges is returned by a non-forced cancel when the edit
	// buffer differs from the committed note; the caller must confirm.
	ErrUnsavedChanges = errors.New("unsaved changes")
	// ErrNotEditing is returned by edit-session operations outside a session.
	ErrNotEditing = errors.New("no edit session active")
	// ErrNotReady is returned when an external collaborator has not been
	// initialized (e.g. the memory service).
	ErrNotReady = errors.New("service not ready")
)
