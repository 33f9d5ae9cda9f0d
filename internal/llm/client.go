// Package llm issues generation calls to the upstream model provider and
// classifies its failures into client-safe errors.
package llm

import "context"

// Role represents a message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn sent upstream.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a single provider call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CacheRead    int `json:"cache_read"`
	CacheWrite   int `json:"cache_write"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ChatRequest contains parameters for one provider call.
type ChatRequest struct {
	Model    string    `json:"model"`
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`

	// SystemCacheable marks the system text for provider-side prompt
	// caching.
	SystemCacheable bool `json:"system_cacheable,omitempty"`

	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// ChatResponse is the provider's reply with all text segments concatenated.
type ChatResponse struct {
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}

// Client is the interface to the upstream provider.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
