package workspace

import (
	"sort"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/models"
)

// reconcileTags rebuilds the tag collection so it is exactly the set of
// distinct tag names used by at least one note. Existing entities keep
// their IDs; unused entities are dropped; missing ones are synthesized
// with fresh IDs. The result is sorted by name, which makes the function
// idempotent: running it twice without a note change is a no-op.
func reconcileTags(notes []*models.Note, current []models.Tag) []models.Tag {
	used := make(map[string]struct{})
	for _, n := range notes {
		for _, name := range n.Tags {
			if name != "" {
				used[name] = struct{}{}
			}
		}
	}

	byName := make(map[string]models.Tag, len(current))
	for _, t := range current {
		byName[t.Name] = t
	}

	out := make([]models.Tag, 0, len(used))
	for name := range used {
		if t, ok := byName[name]; ok {
			out = append(out, t)
			continue
		}
		out = append(out, models.Tag{ID: uuid.NewString(), Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
