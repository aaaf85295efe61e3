package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/augment"
)

// maxSearchHits caps the results forwarded into a note and into the
// analysis prompt.
const maxSearchHits = 5

// SearchClient combines a SearxNG-compatible JSON search endpoint with an
// LLM analysis pass over the top results.
type SearchClient struct {
	baseURL string
	llm     *LLMClient
	httpc   *http.Client
}

// Verify *SearchClient satisfies the searcher contract at compile time.
var _ augment.Searcher = (*SearchClient)(nil)

// NewSearchClient creates a search-and-analyze client. llm runs the
// analysis pass.
func NewSearchClient(baseURL string, llm *LLMClient) *SearchClient {
	return &SearchClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		llm:     llm,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

const analysisPrompt = `You analyze web search results for a note-taking app.
Given a query and results, write a short plain-text synthesis (3-6 sentences)
of what the results collectively say. No markdown headers.`

// SearchAndAnalyze runs the query and synthesizes an analysis of the top
// results.
func (c *SearchClient) SearchAndAnalyze(ctx context.Context, query string) (*augment.SearchAnalysis, error) {
	hits, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	analysis, err := c.analyze(ctx, query, hits)
	if err != nil {
		return nil, err
	}
	return &augment.SearchAnalysis{Results: hits, Analysis: analysis}, nil
}

func (c *SearchClient) search(ctx context.Context, query string) ([]augment.SearchHit, error) {
	endpoint := c.baseURL + "/search?format=json&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("services: build search request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("services: search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("services: read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("services: search status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out searxResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("services: decode search response: %w", err)
	}

	hits := make([]augment.SearchHit, 0, maxSearchHits)
	for _, r := range out.Results {
		hits = append(hits, augment.SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if len(hits) == maxSearchHits {
			break
		}
	}
	return hits, nil
}

func (c *SearchClient) analyze(ctx context.Context, query string, hits []augment.SearchHit) (string, error) {
	if len(hits) == 0 {
		return "No results found for this query.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nResults:\n", query)
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, h.Title, h.URL, h.Snippet)
	}

	msg, err := c.llm.chat(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: analysisPrompt},
			{Role: "user", Content: b.String()},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(msg.Content), nil
}
