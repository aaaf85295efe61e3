package workspace

import (
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// The derived views are pure functions over the entity collections and the
// current query/filter state. They are recomputed on every call; nothing
// here caches, so nothing here can go stale.

// TagCounts returns the number of notes carrying each tag name.
func TagCounts(notes []*models.Note) map[string]int {
	counts := make(map[string]int)
	for _, n := range notes {
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	return counts
}

// NotebookCounts returns the number of notes in each notebook.
func NotebookCounts(notes []*models.Note) map[string]int {
	counts := make(map[string]int)
	for _, n := range notes {
		counts[n.NotebookID]++
	}
	return counts
}

// FilterNotes applies, in priority order, the free-text query, else the
// tag/notebook filter, else no restriction, and sorts the result by
// LastUpdated descending. Exactly one of query/filter is active at a time
// by construction of the workspace setters.
func FilterNotes(notes []*models.Note, query string, filter *models.Filter) []*models.Note {
	var out []*models.Note
	switch {
	case strings.TrimSpace(query) != "":
		q := strings.ToLower(query)
		for _, n := range notes {
			if matchesQuery(n, q) {
				out = append(out, n)
			}
		}
	case filter != nil && filter.Kind == models.FilterTag:
		for _, n := range notes {
			if n.HasTag(filter.Value) {
				out = append(out, n)
			}
		}
	case filter != nil && filter.Kind == models.FilterNotebook:
		for _, n := range notes {
			if n.NotebookID == filter.Value {
				out = append(out, n)
			}
		}
	default:
		out = append(out, notes...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}

// matchesQuery reports a case-insensitive substring match over title,
// content, and tag names. q must already be lower-cased.
func matchesQuery(n *models.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
