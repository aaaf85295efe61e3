package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/augment"
)

// ReaderClient talks to a reader-style extraction service that turns a URL
// into a structured article.
type ReaderClient struct {
	baseURL string
	httpc   *http.Client
}

// Verify *ReaderClient satisfies the extractor contract at compile time.
var _ augment.Extractor = (*ReaderClient)(nil)

// NewReaderClient creates a client for the extraction service at baseURL.
func NewReaderClient(baseURL string) *ReaderClient {
	return &ReaderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type extractEnvelope struct {
	Success bool            `json:"success"`
	Data    augment.Article `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// ExtractContent fetches the structured article behind url.
func (c *ReaderClient) ExtractContent(ctx context.Context, url string) (*augment.Article, error) {
	payload, _ := json.Marshal(map[string]string{"url": url})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("services: build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("services: extract request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("services: read extract response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("services: extract status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env extractEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("services: decode extract response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("services: extract failed: %s", env.Error)
	}
	return &env.Data, nil
}
