// Package llm wraps the Anthropic Messages API for agent turns,
// supplier-response synthesis and demand parameter analysis.
package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-sonnet-4-20250514"
)

// Client calls the Anthropic Messages API.
type Client struct {
	httpClient *resty.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates an API client. Returns nil if apiKey is empty
// (inference disabled; callers fall back to canned behavior).
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		httpClient: resty.New().
			SetHeader("x-api-key", apiKey).
			SetHeader("anthropic-version", apiVersion).
			SetHeader("content-type", "application/json").
			SetTimeout(60 * time.Second),
		maxPerMin: 20,
	}
}

// Enabled reports whether the client can make calls.
func (c *Client) Enabled() bool {
	return c != nil
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes one function the model may call.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a structured call returned by the model.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Tools     []Tool    `json:"tools,omitempty"`
}

type response struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text,omitempty"`
		ID    string          `json:"id,omitempty"`
		Name  string          `json:"name,omitempty"`
		Input json.RawMessage `json:"input,omitempty"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Client) throttle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		return fmt.Errorf("rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	return nil
}

// Complete sends a prompt and returns the response text.
func (c *Client) Complete(system, prompt string, maxTokens int) (string, error) {
	text, _, err := c.complete(system, prompt, nil, maxTokens)
	return text, err
}

// CompleteWithTools sends a prompt with a tool schema and returns the
// response text and any tool calls the model made, in order.
func (c *Client) CompleteWithTools(system, prompt string, tools []Tool, maxTokens int) (string, []ToolCall, error) {
	return c.complete(system, prompt, tools, maxTokens)
}

func (c *Client) complete(system, prompt string, tools []Tool, maxTokens int) (string, []ToolCall, error) {
	if !c.Enabled() {
		return "", nil, fmt.Errorf("llm client not configured")
	}
	if err := c.throttle(); err != nil {
		return "", nil, err
	}

	req := request{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []Message{{Role: "user", Content: prompt}},
		Tools:     tools,
	}

	var apiResp response
	resp, err := c.httpClient.R().
		SetBody(req).
		SetResult(&apiResp).
		Post(apiURL)
	if err != nil {
		return "", nil, fmt.Errorf("api call: %w", err)
	}
	if resp.IsError() {
		return "", nil, fmt.Errorf("api error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(apiResp.Content) == 0 {
		return "", nil, fmt.Errorf("empty response")
	}

	var text string
	var calls []ToolCall
	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Args: block.Input})
		}
	}

	slog.Debug("llm call",
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
		"tool_calls", len(calls),
	)

	return text, calls, nil
}
