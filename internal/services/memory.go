package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/augment"
)

// maxToolRounds bounds the tool loop so a misbehaving model cannot spin
// forever.
const maxToolRounds = 8

const memoryPrompt = `You extract a structured memory from a personal note.
Use the available tools to recall related context before answering.
When done, respond with a single JSON object:
{"topic": "...", "context": "...", "decisions": ["..."], "rationale": ["..."]}
No prose outside the JSON.`

// MemoryClient is the tool-augmented memory extraction service: an LLM
// tool loop whose tools come from an external MCP server spoken to over
// stdio.
type MemoryClient struct {
	llm     *LLMClient
	command string
	args    []string

	mu    sync.Mutex
	mcp   *mcpclient.Client
	tools []toolSpec
	// call executes one named tool. Split out so the loop can be tested
	// without a live MCP server.
	call  func(ctx context.Context, name string, args map[string]any) (string, error)
	ready bool
}

// Verify *MemoryClient satisfies the memory contract at compile time.
var _ augment.MemoryService = (*MemoryClient)(nil)

// NewMemoryClient creates an uninitialized memory service that will run
// the MCP server with the given command line.
func NewMemoryClient(llm *LLMClient, command string, args ...string) *MemoryClient {
	return &MemoryClient{llm: llm, command: command, args: args}
}

// Initialize starts the MCP server process, performs the protocol
// handshake, and caches the advertised tool list.
func (m *MemoryClient) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		return nil
	}

	c, err := mcpclient.NewStdioMCPClient(m.command, nil, m.args...)
	if err != nil {
		return fmt.Errorf("services: start memory server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "ansuz", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("services: initialize memory server: %w", err)
	}

	toolsRes, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return fmt.Errorf("services: list memory tools: %w", err)
	}

	specs := make([]toolSpec, 0, len(toolsRes.Tools))
	for _, t := range toolsRes.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			continue
		}
		specs = append(specs, toolSpec{
			Type: "function",
			Function: toolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		})
	}

	m.mcp = c
	m.tools = specs
	m.call = m.callMCPTool
	m.ready = true
	return nil
}

// Ready reports whether Initialize completed.
func (m *MemoryClient) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Close disconnects from the MCP server.
func (m *MemoryClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	if m.mcp == nil {
		return nil
	}
	err := m.mcp.Close()
	m.mcp = nil
	return err
}

// GenerateMemory runs the tool loop over content. Every tool invocation
// the model requests is reported through hooks, in execution order, before
// its result is fed back into the conversation.
func (m *MemoryClient) GenerateMemory(ctx context.Context, content string, hooks augment.ToolHooks) (*augment.MemoryResult, error) {
	m.mu.Lock()
	tools := m.tools
	call := m.call
	ready := m.ready
	m.mu.Unlock()
	if !ready {
		return nil, fmt.Errorf("services: memory service not initialized")
	}

	messages := []chatMessage{
		{Role: "system", Content: memoryPrompt},
		{Role: "user", Content: content},
	}

	for round := 0; round < maxToolRounds; round++ {
		msg, err := m.llm.chat(ctx, chatRequest{Messages: messages, Tools: tools})
		if err != nil {
			return nil, err
		}
		if len(msg.ToolCalls) == 0 {
			return parseMemoryResult(msg.Content)
		}

		messages = append(messages, *msg)
		for _, tc := range msg.ToolCalls {
			args := map[string]any{}
			if tc.Function.Arguments != "" {
				// Malformed arguments still reach the hooks as an empty map.
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			}
			if hooks.OnToolStart != nil {
				hooks.OnToolStart(tc.Function.Name, args)
			}

			out, err := call(ctx, tc.Function.Name, args)
			if hooks.OnToolResult != nil {
				hooks.OnToolResult(tc.Function.Name, out, err)
			}
			if err != nil {
				out = "tool error: " + err.Error()
			}
			messages = append(messages, chatMessage{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    out,
			})
		}
	}
	return nil, fmt.Errorf("services: memory extraction exceeded %d tool rounds", maxToolRounds)
}

// callMCPTool executes one tool on the MCP server and returns its text
// content.
func (m *MemoryClient) callMCPTool(ctx context.Context, name string, args map[string]any) (string, error) {
	m.mu.Lock()
	c := m.mcp
	m.mu.Unlock()
	if c == nil {
		return "", fmt.Errorf("services: memory server disconnected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("services: call tool %s: %w", name, err)
	}

	text := ""
	for _, content := range res.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			text += tc.Text
		}
	}
	if res.IsError {
		return "", fmt.Errorf("services: tool %s failed: %s", name, text)
	}
	return text, nil
}

func parseMemoryResult(raw string) (*augment.MemoryResult, error) {
	var res augment.MemoryResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		return nil, fmt.Errorf("services: decode memory result: %w", err)
	}
	if res.Topic == "" && res.Context == "" {
		return nil, fmt.Errorf("services: memory result is empty")
	}
	return &res, nil
}
