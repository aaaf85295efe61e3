package workspace

import (
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
)

func note(id, title, content, notebook string, updated time.Time, tags ...string) *models.Note {
	return &models.Note{
		ID: id, Title: title, Content: content,
		NotebookID: notebook, LastUpdated: updated, Tags: tags,
	}
}

func TestTagCounts(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{
		note("1", "a", "", "default", t0, "go", "notes"),
		note("2", "b", "", "default", t0, "go"),
	}
	counts := TagCounts(notes)
	if counts["go"] != 2 || counts["notes"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestNotebookCounts(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{
		note("1", "a", "", "default", t0),
		note("2", "b", "", "work", t0),
		note("3", "c", "", "work", t0),
	}
	counts := NotebookCounts(notes)
	if counts["default"] != 1 || counts["work"] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestFilterNotes_SearchBeatsFilter(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{
		note("1", "Go notes", "", "default", t0, "go"),
		note("2", "Cooking", "pasta recipe", "default", t0),
	}
	// Query wins even with a filter present because the setters never
	// allow both; a caller passing both still gets query semantics.
	got := FilterNotes(notes, "pasta", &models.Filter{Kind: models.FilterTag, Value: "go"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("got %v", got)
	}
}

func TestFilterNotes_SearchMatchesTagNames(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{note("1", "x", "y", "default", t0, "golang")}
	if got := FilterNotes(notes, "GOLANG", nil); len(got) != 1 {
		t.Errorf("tag-name search failed: %v", got)
	}
}

func TestFilterNotes_NotebookFilter(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{
		note("1", "a", "", "default", t0),
		note("2", "b", "", "work", t0),
	}
	got := FilterNotes(notes, "", &models.Filter{Kind: models.FilterNotebook, Value: "work"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("got %v", got)
	}
}

func TestFilterNotes_SortedByLastUpdatedDescending(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{
		note("old", "a", "", "default", t0.Add(-time.Hour)),
		note("new", "b", "", "default", t0),
		note("mid", "c", "", "default", t0.Add(-time.Minute)),
	}
	got := FilterNotes(notes, "", nil)
	if got[0].ID != "new" || got[1].ID != "mid" || got[2].ID != "old" {
		t.Errorf("order = %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestReconcileTagsIdempotent(t *testing.T) {
	t0 := time.Now()
	notes := []*models.Note{
		note("1", "a", "", "default", t0, "beta", "alpha"),
	}
	first := reconcileTags(notes, nil)
	second := reconcileTags(notes, first)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("first = %v, second = %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("reconcile not idempotent: %v vs %v", first, second)
		}
	}
	if first[0].Name != "alpha" || first[1].Name != "beta" {
		t.Errorf("tags not sorted by name: %v", first)
	}
}
