// Package models defines the domain types for Ansuz.
package models

import "time"

// DefaultNotebookID is the sentinel notebook every workspace carries.
// It always exists and cannot be deleted; notes from a deleted notebook
// are reassigned to it.
const DefaultNotebookID = "default"

// Note is a single markdown note.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	NotebookID  string    `json:"notebookId"`
	Preview     string    `json:"preview"`
	LastUpdated time.Time `json:"lastUpdated"`
	// Timestamp is a human-readable relative label recomputed on save and
	// load. Display-only; sorting uses LastUpdated.
	Timestamp string `json:"timestamp"`
}

// Clone returns a deep copy of the note, safe to mutate independently.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	return &c
}

// Equal reports full structural equality between two notes. Backs the
// cancel-with-unsaved-changes check, so every field participates.
func (n *Note) Equal(other *Note) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.ID != other.ID || n.Title != other.Title || n.Content != other.Content ||
		n.NotebookID != other.NotebookID || n.Preview != other.Preview ||
		!n.LastUpdated.Equal(other.LastUpdated) || n.Timestamp != other.Timestamp {
		return false
	}
	if len(n.Tags) != len(other.Tags) {
		return false
	}
	for i := range n.Tags {
		if n.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// HasTag reports whether the note carries the given tag name.
func (n *Note) HasTag(name string) bool {
	for _, t := range n.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// AddTags appends names to the note's tag set, skipping duplicates and
// empty strings. Order of existing tags is preserved.
func (n *Note) AddTags(names ...string) {
	for _, name := range names {
		if name == "" || n.HasTag(name) {
			continue
		}
		n.Tags = append(n.Tags, name)
	}
}

// Tag is a named label. Existence is derived from note membership: the tag
// set is reconciled to exactly the names used by at least one note. Name is
// the comparison key everywhere; ID is only a stable handle.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Notebook is a named grouping container for notes.
type Notebook struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FilterKind discriminates the active filter.
type FilterKind string

// Filter kinds.
const (
	FilterTag      FilterKind = "tag"
	FilterNotebook FilterKind = "notebook"
)

// Filter restricts the visible note list to a tag or a notebook. At most
// one filter is active, and never together with a search query.
type Filter struct {
	Kind  FilterKind `json:"kind"`
	Value string     `json:"value"`
}
