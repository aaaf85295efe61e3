package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/section"
	"github.com/starford/ansuz/internal/workspace"
)

// Section headers written by the pipelines.
const (
	SummaryHeader = "## AI Summary"
	MemoryHeader  = "## Memory"
)

// Orchestrator runs the four augmentation pipelines against a workspace.
//
// Summarize and memory extraction share a single generating gate: only one
// of them may be in flight at a time. Link import and search import bypass
// that gate and may overlap with a gated pipeline or with each other. The
// asymmetry is carried over deliberately; see DESIGN.md.
type Orchestrator struct {
	ws     *workspace.Workspace
	svc    Services
	logger *slog.Logger
	events Events

	mu         sync.Mutex
	entries    []StatusEntry
	generating bool
}

// New creates an orchestrator over the given workspace and collaborators.
func New(ws *workspace.Workspace, svc Services, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{ws: ws, svc: svc, logger: logger}
}

// SetEvents installs the status/notification sink. Must be called before
// the orchestrator is shared between goroutines.
func (o *Orchestrator) SetEvents(ev Events) {
	o.events = ev
}

// beginGenerating acquires the shared gate for summarize/memory runs.
func (o *Orchestrator) beginGenerating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generating {
		return false
	}
	o.generating = true
	return true
}

func (o *Orchestrator) endGenerating() {
	o.mu.Lock()
	o.generating = false
	o.mu.Unlock()
}

// SummarizeAndTag generates an AI summary for the current note, merges it
// as the leading section, and appends the suggested tags to the note's
// tag set.
func (o *Orchestrator) SummarizeAndTag(ctx context.Context) error {
	if o.svc.Summarizer == nil {
		return fmt.Errorf("summarizer: %w", apperr.ErrNotReady)
	}
	target, ok := o.target()
	if !ok || strings.TrimSpace(target.content) == "" {
		return fmt.Errorf("%w: note content is empty", apperr.ErrValidation)
	}
	if !o.beginGenerating() {
		return apperr.ErrBusy
	}
	defer o.endGenerating()

	o.reset()
	o.append("summarize", StatusLoading, "Generating summary and tags", "")

	res, err := o.svc.Summarizer.GenerateSummaryAndTags(ctx, target.content)
	if err != nil {
		o.append("summarize", StatusError, "Summary generation failed", err.Error())
		o.notify("error", "Summary generation failed")
		return err
	}

	if err := o.mergeLead(target, SummaryHeader, res.Summary, res.Tags); err != nil {
		return o.dropStale("summarize", err)
	}

	o.append("summarize", StatusSuccess, "Summary and tags added", "")
	o.notify("success", "Summary and tags added")
	return nil
}

// ExtractMemory runs the tool-augmented memory extraction over the current
// note and merges the structured result as the leading memory section.
// Per-tool-call progress is threaded into the status stream.
func (o *Orchestrator) ExtractMemory(ctx context.Context) error {
	if o.svc.Memory == nil || !o.svc.Memory.Ready() {
		return fmt.Errorf("memory service: %w", apperr.ErrNotReady)
	}
	target, ok := o.target()
	if !ok || strings.TrimSpace(target.content) == "" {
		return fmt.Errorf("%w: note content is empty", apperr.ErrValidation)
	}
	if !o.beginGenerating() {
		return apperr.ErrBusy
	}
	defer o.endGenerating()

	o.reset()
	o.append("memory", StatusLoading, "Extracting memory", "")

	hooks := ToolHooks{
		OnToolStart: func(name string, args map[string]any) {
			raw, _ := json.Marshal(args)
			o.append("tool:"+name, StatusLoading, "Calling "+name, string(raw))
		},
		OnToolResult: func(name, result string, err error) {
			if err != nil {
				o.append("tool:"+name, StatusError, name+" failed", err.Error())
				return
			}
			o.append("tool:"+name, StatusSuccess, name+" completed", truncate(result, 400))
		},
	}

	res, err := o.svc.Memory.GenerateMemory(ctx, target.content, hooks)
	if err != nil {
		o.append("memory", StatusError, "Memory extraction failed", err.Error())
		o.notify("error", "Memory extraction failed")
		return err
	}

	if err := o.mergeLead(target, MemoryHeader, res.Markdown(), nil); err != nil {
		return o.dropStale("memory", err)
	}

	o.append("memory", StatusSuccess, "Memory section added", "")
	o.notify("success", "Memory extracted")
	return nil
}

// ImportLink extracts the article behind url and writes it as a trailing
// section, into the edit buffer when editing, else into a new note.
// Not subject to the generating gate.
func (o *Orchestrator) ImportLink(ctx context.Context, url string) error {
	if o.svc.Extractor == nil {
		return fmt.Errorf("extractor: %w", apperr.ErrNotReady)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: link is empty", apperr.ErrValidation)
	}

	o.reset()
	o.append("import-link", StatusLoading, "Extracting "+url, "")

	art, err := o.svc.Extractor.ExtractContent(ctx, url)
	if err != nil {
		o.append("import-link", StatusError, "Link extraction failed", err.Error())
		o.notify("error", "Link import failed")
		return err
	}

	title := strings.TrimSpace(art.Title)
	if title == "" {
		title = "Imported Link"
	}
	body := strings.TrimRight(art.Content, "\n")
	attribution := "*Source: " + url
	if art.SiteName != "" {
		attribution += " (" + art.SiteName + ")"
	}
	attribution += "*"
	body += "\n\n" + attribution

	if err := o.mergeTail(title, "## "+title, body); err != nil {
		return o.dropStale("import-link", err)
	}

	o.append("import-link", StatusSuccess, "Imported "+title, "")
	o.notify("success", "Link imported")
	return nil
}

// ImportSearch runs a web search with analysis and writes the combined
// result as a trailing section. Not subject to the generating gate.
func (o *Orchestrator) ImportSearch(ctx context.Context, query string) error {
	if o.svc.Searcher == nil {
		return fmt.Errorf("searcher: %w", apperr.ErrNotReady)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: search query is empty", apperr.ErrValidation)
	}

	o.reset()
	o.append("import-search", StatusLoading, "Searching for "+query, "")

	res, err := o.svc.Searcher.SearchAndAnalyze(ctx, query)
	if err != nil {
		o.append("import-search", StatusError, "Search failed", err.Error())
		o.notify("error", "Search import failed")
		return err
	}

	title := "Search: " + query
	if err := o.mergeTail(title, "## "+title, searchBody(res)); err != nil {
		return o.dropStale("import-search", err)
	}

	o.append("import-search", StatusSuccess, "Search results added", "")
	o.notify("success", "Search results imported")
	return nil
}

// target captures the augmentation source at pipeline start.
type runTarget struct {
	id      string
	content string
	editing bool
}

func (o *Orchestrator) target() (runTarget, bool) {
	id, content, editing := o.ws.CurrentContent()
	if id == "" {
		return runTarget{}, false
	}
	return runTarget{id: id, content: content, editing: editing}, true
}

// mergeLead commits a leading section. While editing it merges into the
// buffer (the stale-response guard drops the result if the session ended
// or moved to another note); otherwise it creates a new note seeded with
// the merged source content and opens an edit session on it.
func (o *Orchestrator) mergeLead(t runTarget, header, body string, extraTags []string) error {
	if t.editing {
		buf, ok := o.ws.Buffer()
		if !ok || buf.ID != t.id {
			return apperr.ErrNotEditing
		}
		merged := section.Merge(buf.Content, header, body, section.Lead)
		buf.AddTags(extraTags...)
		return o.ws.UpdateBufferIf(t.id, workspace.EditPatch{Content: &merged, Tags: &buf.Tags})
	}

	src, ok := o.ws.Note(t.id)
	if !ok {
		return fmt.Errorf("note %s: %w", t.id, apperr.ErrNotFound)
	}
	merged := section.Merge(src.Content, header, body, section.Lead)
	src.AddTags(extraTags...)
	n, err := o.ws.CreateSeededNote(src.Title, merged, src.Tags)
	if err != nil {
		return err
	}
	_, err = o.ws.BeginEdit(n.ID)
	return err
}

// mergeTail commits a trailing import section to the edit buffer when a
// session is active, else to a fresh note containing only the section.
func (o *Orchestrator) mergeTail(title, header, body string) error {
	if buf, ok := o.ws.Buffer(); ok {
		merged := section.Merge(buf.Content, header, body, section.Tail)
		return o.ws.UpdateBufferIf(buf.ID, workspace.EditPatch{Content: &merged})
	}

	content := section.Merge("", header, body, section.Tail)
	n, err := o.ws.CreateSeededNote(title, content, nil)
	if err != nil {
		return err
	}
	_, err = o.ws.BeginEdit(n.ID)
	return err
}

// dropStale records a result that arrived after its edit session ended.
// The result is discarded; the store is not mutated.
func (o *Orchestrator) dropStale(step string, err error) error {
	o.logger.Warn("augmentation result dropped",
		slog.String("step", step),
		slog.String("reason", err.Error()))
	o.append(step, StatusError, "Result discarded", err.Error())
	return err
}

func searchBody(res *SearchAnalysis) string {
	var b strings.Builder
	b.WriteString("### Results\n")
	if len(res.Results) == 0 {
		b.WriteString("No results.\n")
	}
	for _, hit := range res.Results {
		fmt.Fprintf(&b, "- [%s](%s)", hit.Title, hit.URL)
		if hit.Snippet != "" {
			fmt.Fprintf(&b, " - %s", hit.Snippet)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n### Analysis\n")
	b.WriteString(strings.TrimSpace(res.Analysis))
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
