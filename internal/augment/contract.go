// Package augment drives the asynchronous content-augmentation pipelines:
// summarize-and-tag, memory extraction, link import, and search import.
//
// The external collaborators are consumed through the interfaces below;
// concrete clients live in internal/services.
package augment

import (
	"context"
	"fmt"
	"strings"
)

// SummaryResult is the summarizer's answer.
type SummaryResult struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Article is the structured result of extracting a URL.
type Article struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	SiteName string `json:"siteName"`
}

// SearchHit is one result in a search-and-analyze response.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchAnalysis is the combined search-and-analyze result.
type SearchAnalysis struct {
	Results  []SearchHit `json:"searchResults"`
	Analysis string      `json:"analysis"`
}

// MemoryResult is the structured output of the tool-augmented memory
// extraction.
type MemoryResult struct {
	Topic     string   `json:"topic"`
	Context   string   `json:"context"`
	Decisions []string `json:"decisions,omitempty"`
	Rationale []string `json:"rationale,omitempty"`
}

// Markdown serializes the result as the body of a memory section.
func (m *MemoryResult) Markdown() string {
	var b strings.Builder
	if m.Topic != "" {
		fmt.Fprintf(&b, "**Topic:** %s\n\n", m.Topic)
	}
	if m.Context != "" {
		b.WriteString(m.Context)
		b.WriteString("\n")
	}
	if len(m.Decisions) > 0 {
		b.WriteString("\n**Decisions:**\n")
		for _, d := range m.Decisions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	if len(m.Rationale) > 0 {
		b.WriteString("\n**Rationale:**\n")
		for _, r := range m.Rationale {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToolHooks is the two-event progress protocol threaded through memory
// extraction. The service must call the hooks synchronously and in order;
// nil hooks are allowed.
type ToolHooks struct {
	// OnToolStart fires when a sub-tool invocation begins.
	OnToolStart func(name string, args map[string]any)
	// OnToolResult fires when it completes. err is nil on success.
	OnToolResult func(name string, result string, err error)
}

// Summarizer produces a summary and suggested tags for note content.
type Summarizer interface {
	GenerateSummaryAndTags(ctx context.Context, content string) (*SummaryResult, error)
}

// Extractor turns a URL into a structured article.
type Extractor interface {
	ExtractContent(ctx context.Context, url string) (*Article, error)
}

// Searcher runs a web search and an analysis pass over the results.
type Searcher interface {
	SearchAndAnalyze(ctx context.Context, query string) (*SearchAnalysis, error)
}

// MemoryService is the tool-augmented extraction collaborator.
type MemoryService interface {
	// Ready reports whether the service finished initializing.
	Ready() bool
	// GenerateMemory extracts a structured memory from content, reporting
	// per-tool-call progress through hooks.
	GenerateMemory(ctx context.Context, content string, hooks ToolHooks) (*MemoryResult, error)
	// Close disconnects the service.
	Close() error
}

// Services bundles the collaborators consumed by the Orchestrator. Any
// field may be nil; the corresponding pipeline then reports not-ready.
type Services struct {
	Summarizer Summarizer
	Memory     MemoryService
	Extractor  Extractor
	Searcher   Searcher
}
