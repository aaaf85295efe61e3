// Package storage defines the persistence boundary for workspace state.
//
// The workspace persists each collection under a logical key as an opaque
// JSON value. Implementations only need durable key-value semantics.
package storage

// Logical keys the workspace persists under.
const (
	KeyNotes      = "notes"
	KeyTags       = "tags"
	KeyNotebooks  = "notebooks"
	KeySelectedID = "selectedNoteId"
)

// Provider is the interface for workspace persistence.
type Provider interface {
	// Load returns the value stored under key. A missing key returns
	// (nil, nil) so a fresh store reads as empty collections.
	Load(key string) ([]byte, error)
	// Save durably writes value under key, replacing any previous value.
	Save(key string, value []byte) error
	// Close releases the underlying resources.
	Close() error
}
