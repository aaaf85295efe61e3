package augment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/section"
	"github.com/starford/ansuz/internal/testutil"
	"github.com/starford/ansuz/internal/workspace"
)

type fakeSummarizer struct {
	res     *SummaryResult
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSummarizer) GenerateSummaryAndTags(_ context.Context, _ string) (*SummaryResult, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.res, f.err
}

type fakeExtractor struct {
	art *Article
	err error
}

func (f *fakeExtractor) ExtractContent(_ context.Context, _ string) (*Article, error) {
	return f.art, f.err
}

type fakeSearcher struct {
	res *SearchAnalysis
	err error
}

func (f *fakeSearcher) SearchAndAnalyze(_ context.Context, _ string) (*SearchAnalysis, error) {
	return f.res, f.err
}

type fakeMemory struct {
	ready bool
	res   *MemoryResult
	err   error
}

func (f *fakeMemory) Ready() bool { return f.ready }

func (f *fakeMemory) GenerateMemory(_ context.Context, _ string, hooks ToolHooks) (*MemoryResult, error) {
	if hooks.OnToolStart != nil {
		hooks.OnToolStart("recall_related", map[string]any{"limit": 3})
	}
	if hooks.OnToolResult != nil {
		hooks.OnToolResult("recall_related", "2 related notes", nil)
	}
	return f.res, f.err
}

func (f *fakeMemory) Close() error { return nil }

// editingWorkspace returns a workspace with one note holding content and an
// open edit session on it.
func editingWorkspace(t *testing.T, content string) (*workspace.Workspace, string) {
	t.Helper()
	ws := testutil.TestWorkspace(t)
	id := ws.Notes()[0].ID
	if _, err := ws.UpdateNote(id, workspace.EditPatch{Content: &content}); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.BeginEdit(id); err != nil {
		t.Fatal(err)
	}
	return ws, id
}

func TestSummarizeIntoEditBuffer(t *testing.T) {
	ws, _ := editingWorkspace(t, "hello")
	o := New(ws, Services{
		Summarizer: &fakeSummarizer{res: &SummaryResult{Summary: "S", Tags: []string{"x"}}},
	}, slog.Default())

	if err := o.SummarizeAndTag(context.Background()); err != nil {
		t.Fatal(err)
	}

	buf, ok := ws.Buffer()
	if !ok {
		t.Fatal("edit session must stay open")
	}
	if !strings.HasPrefix(buf.Content, SummaryHeader) {
		t.Errorf("content does not lead with the summary section:\n%s", buf.Content)
	}
	if body, _ := section.Body(buf.Content, SummaryHeader); body != "S" {
		t.Errorf("summary body = %q, want S", body)
	}
	if body, _ := section.Body(buf.Content, section.NoteContentHeader); body != "hello" {
		t.Errorf("note content body = %q, want hello", body)
	}
	if !buf.HasTag("x") {
		t.Errorf("tags = %v, want to include x", buf.Tags)
	}
}

func TestSummarizeTwiceReplacesSection(t *testing.T) {
	ws, _ := editingWorkspace(t, "hello")
	sum := &fakeSummarizer{res: &SummaryResult{Summary: "S", Tags: []string{"x"}}}
	o := New(ws, Services{Summarizer: sum}, slog.Default())

	if err := o.SummarizeAndTag(context.Background()); err != nil {
		t.Fatal(err)
	}
	sum.res = &SummaryResult{Summary: "S2", Tags: []string{"y"}}
	if err := o.SummarizeAndTag(context.Background()); err != nil {
		t.Fatal(err)
	}

	buf, _ := ws.Buffer()
	if strings.Count(buf.Content, SummaryHeader) != 1 {
		t.Fatalf("duplicate summary section:\n%s", buf.Content)
	}
	if body, _ := section.Body(buf.Content, SummaryHeader); body != "S2" {
		t.Errorf("summary body = %q, want S2", body)
	}
	if body, _ := section.Body(buf.Content, section.NoteContentHeader); body != "hello" {
		t.Errorf("note content changed: %q", body)
	}
	if !buf.HasTag("x") || !buf.HasTag("y") {
		t.Errorf("tags = %v, want x and y", buf.Tags)
	}
}

func TestSummarizeNotEditingCreatesNewNote(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	id := ws.Notes()[0].ID
	content := "hello"
	_, _ = ws.UpdateNote(id, workspace.EditPatch{Content: &content})

	o := New(ws, Services{
		Summarizer: &fakeSummarizer{res: &SummaryResult{Summary: "S", Tags: nil}},
	}, slog.Default())

	if err := o.SummarizeAndTag(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(ws.Notes()) != 2 {
		t.Fatalf("len(notes) = %d, want 2", len(ws.Notes()))
	}
	if !ws.IsEditing() {
		t.Error("pipeline must enter edit mode on the new note")
	}
	buf, _ := ws.Buffer()
	if buf.ID == id {
		t.Error("a new note must have been created")
	}
	if body, _ := section.Body(buf.Content, SummaryHeader); body != "S" {
		t.Errorf("summary body = %q", body)
	}
}

func TestSummarizeEmptyContentRejected(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	o := New(ws, Services{Summarizer: &fakeSummarizer{res: &SummaryResult{}}}, slog.Default())

	err := o.SummarizeAndTag(context.Background())
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(o.Status()) != 0 {
		t.Error("validation failure must not emit status entries")
	}
}

func TestSummarizeErrorAppendsStatusWithoutMutation(t *testing.T) {
	ws, id := editingWorkspace(t, "hello")
	o := New(ws, Services{
		Summarizer: &fakeSummarizer{err: errors.New("llm unreachable")},
	}, slog.Default())

	if err := o.SummarizeAndTag(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	entries := o.Status()
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].Status != StatusLoading || entries[1].Status != StatusError {
		t.Errorf("statuses = %s, %s", entries[0].Status, entries[1].Status)
	}
	if entries[1].Details != "llm unreachable" {
		t.Errorf("error payload not preserved: %q", entries[1].Details)
	}

	buf, _ := ws.Buffer()
	if buf.Content != "hello" {
		t.Errorf("buffer mutated on failure: %q", buf.Content)
	}
	committed, _ := ws.Note(id)
	if committed.Content != "hello" {
		t.Errorf("committed note mutated on failure: %q", committed.Content)
	}
}

func TestGeneratingGateIsExclusive(t *testing.T) {
	ws, _ := editingWorkspace(t, "hello")
	sum := &fakeSummarizer{
		res:     &SummaryResult{Summary: "S"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := New(ws, Services{
		Summarizer: sum,
		Extractor:  &fakeExtractor{art: &Article{Title: "T", Content: "c"}},
	}, slog.Default())

	done := make(chan error, 1)
	go func() { done <- o.SummarizeAndTag(context.Background()) }()
	<-sum.started

	if err := o.SummarizeAndTag(context.Background()); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("second gated run: err = %v, want ErrBusy", err)
	}

	// Link import bypasses the gate and may overlap.
	if err := o.ImportLink(context.Background(), "https://example.com"); err != nil {
		t.Errorf("ungated import blocked: %v", err)
	}

	close(sum.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if o.IsGenerating() {
		t.Error("gate not released")
	}
}

func TestStaleSummaryResultDropped(t *testing.T) {
	ws, id := editingWorkspace(t, "hello")
	sum := &fakeSummarizer{
		res:     &SummaryResult{Summary: "S"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := New(ws, Services{Summarizer: sum}, slog.Default())

	done := make(chan error, 1)
	go func() { done <- o.SummarizeAndTag(context.Background()) }()
	<-sum.started

	// The user cancels editing while the call is in flight.
	if err := ws.CancelEdit(false); err != nil {
		t.Fatal(err)
	}
	close(sum.release)

	if err := <-done; !errors.Is(err, apperr.ErrNotEditing) {
		t.Fatalf("err = %v, want ErrNotEditing", err)
	}
	committed, _ := ws.Note(id)
	if committed.Content != "hello" {
		t.Errorf("stale result merged anyway: %q", committed.Content)
	}
}

func TestMemoryPipelineThreadsToolProgress(t *testing.T) {
	ws, _ := editingWorkspace(t, "project kickoff notes")
	o := New(ws, Services{
		Memory: &fakeMemory{ready: true, res: &MemoryResult{
			Topic:     "Kickoff",
			Context:   "Team agreed on scope.",
			Decisions: []string{"ship v1 in May"},
		}},
	}, slog.Default())

	if err := o.ExtractMemory(context.Background()); err != nil {
		t.Fatal(err)
	}

	entries := o.Status()
	want := []StepStatus{StatusLoading, StatusLoading, StatusSuccess, StatusSuccess}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v", entries)
	}
	for i, st := range want {
		if entries[i].Status != st {
			t.Errorf("entries[%d].Status = %s, want %s", i, entries[i].Status, st)
		}
	}
	if entries[1].Step != "tool:recall_related" || entries[2].Step != "tool:recall_related" {
		t.Errorf("tool steps = %s, %s", entries[1].Step, entries[2].Step)
	}
	if !strings.Contains(entries[1].Details, `"limit":3`) {
		t.Errorf("tool args not logged: %q", entries[1].Details)
	}

	buf, _ := ws.Buffer()
	body, ok := section.Body(buf.Content, MemoryHeader)
	if !ok {
		t.Fatalf("no memory section:\n%s", buf.Content)
	}
	if !strings.Contains(body, "Kickoff") || !strings.Contains(body, "ship v1 in May") {
		t.Errorf("memory body = %q", body)
	}
}

func TestMemoryRequiresReadyService(t *testing.T) {
	ws, _ := editingWorkspace(t, "hello")
	o := New(ws, Services{Memory: &fakeMemory{ready: false}}, slog.Default())
	if err := o.ExtractMemory(context.Background()); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestImportLinkAppendsTrailingSection(t *testing.T) {
	ws, _ := editingWorkspace(t, "my notes")
	o := New(ws, Services{
		Extractor: &fakeExtractor{art: &Article{
			Title: "Go Blog", Content: "article text", SiteName: "go.dev",
		}},
	}, slog.Default())

	if err := o.ImportLink(context.Background(), "https://go.dev/blog"); err != nil {
		t.Fatal(err)
	}
	buf, _ := ws.Buffer()
	if !strings.HasPrefix(buf.Content, "my notes") {
		t.Errorf("import must append, not prepend:\n%s", buf.Content)
	}
	body, ok := section.Body(buf.Content, "## Go Blog")
	if !ok {
		t.Fatalf("no imported section:\n%s", buf.Content)
	}
	if !strings.Contains(body, "article text") || !strings.Contains(body, "*Source: https://go.dev/blog (go.dev)*") {
		t.Errorf("body = %q", body)
	}
}

func TestImportLinkNotEditingCreatesNote(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	o := New(ws, Services{
		Extractor: &fakeExtractor{art: &Article{Title: "Go Blog", Content: "text"}},
	}, slog.Default())

	if err := o.ImportLink(context.Background(), "https://go.dev/blog"); err != nil {
		t.Fatal(err)
	}
	buf, ok := ws.Buffer()
	if !ok {
		t.Fatal("import must open an edit session on the new note")
	}
	if buf.Title != "Go Blog" {
		t.Errorf("title = %q, want Go Blog", buf.Title)
	}
}

func TestImportSearchWritesResultAndAnalysisSubSections(t *testing.T) {
	ws, _ := editingWorkspace(t, "research")
	o := New(ws, Services{
		Searcher: &fakeSearcher{res: &SearchAnalysis{
			Results:  []SearchHit{{Title: "Hit", URL: "https://example.com", Snippet: "snippet"}},
			Analysis: "summary of findings",
		}},
	}, slog.Default())

	if err := o.ImportSearch(context.Background(), "go generics"); err != nil {
		t.Fatal(err)
	}
	buf, _ := ws.Buffer()
	body, ok := section.Body(buf.Content, "## Search: go generics")
	if !ok {
		t.Fatalf("no search section:\n%s", buf.Content)
	}
	if !strings.Contains(body, "### Results") || !strings.Contains(body, "### Analysis") {
		t.Errorf("missing sub-sections: %q", body)
	}
	if !strings.Contains(body, "[Hit](https://example.com)") || !strings.Contains(body, "summary of findings") {
		t.Errorf("body = %q", body)
	}
}

func TestImportSearchEmptyQueryRejected(t *testing.T) {
	ws := testutil.TestWorkspace(t)
	o := New(ws, Services{Searcher: &fakeSearcher{}}, slog.Default())
	if err := o.ImportSearch(context.Background(), "  "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
