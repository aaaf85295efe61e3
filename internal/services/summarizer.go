package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/ansuz/internal/augment"
)

// Verify *LLMClient satisfies the summarizer contract at compile time.
var _ augment.Summarizer = (*LLMClient)(nil)

const summarizePrompt = `You summarize personal notes. Respond with a single JSON object:
{"summary": "<2-4 sentence summary>", "tags": ["<up to 5 short lowercase tags>"]}
No prose outside the JSON.`

// GenerateSummaryAndTags asks the model for a summary and tag suggestions
// for the given note content.
func (c *LLMClient) GenerateSummaryAndTags(ctx context.Context, content string) (*augment.SummaryResult, error) {
	msg, err := c.chat(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: summarizePrompt},
			{Role: "user", Content: content},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseSummary(msg.Content)
}

func parseSummary(raw string) (*augment.SummaryResult, error) {
	var res augment.SummaryResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		return nil, fmt.Errorf("services: decode summary: %w", err)
	}
	if res.Summary == "" {
		return nil, fmt.Errorf("services: summary response missing summary field")
	}
	return &res, nil
}
