package llm

import (
	"context"
	"log/slog"
	"time"
)

// DefaultCallTimeout bounds a single provider call so a hung upstream cannot
// pin request handlers indefinitely.
const DefaultCallTimeout = 3 * time.Minute

// GenerationParams carries the per-agent generation settings, taken verbatim
// from the agent's configuration.
type GenerationParams struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	TopP        *float64
}

// Result is the outcome of one successful generation.
type Result struct {
	Text       string
	TokensUsed int
	Usage      TokenUsage
	Cache      *CacheStats
}

// Invoker issues generation calls and reports usage. It performs exactly one
// provider call per Generate and never retries; retry decisions belong to
// the caller.
type Invoker struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithCallTimeout overrides the per-call provider timeout.
func WithCallTimeout(d time.Duration) InvokerOption {
	return func(i *Invoker) { i.timeout = d }
}

// NewInvoker creates an invoker over the given provider client.
func NewInvoker(client Client, logger *slog.Logger, opts ...InvokerOption) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	inv := &Invoker{
		client:  client,
		timeout: DefaultCallTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Generate sends the assembled instructions, prior history, and the new user
// message upstream. When cache.Enable is set the instruction text is marked
// cacheable for the provider's caching mechanism.
func (inv *Invoker) Generate(ctx context.Context, params GenerationParams, instructions string, history []Message, userMessage string, cache CacheDecision) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})

	resp, err := inv.client.Chat(ctx, ChatRequest{
		Model:           params.Model,
		System:          instructions,
		SystemCacheable: cache.Enable,
		Messages:        messages,
		MaxTokens:       params.MaxTokens,
		Temperature:     params.Temperature,
		TopP:            params.TopP,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Text:       resp.Content,
		TokensUsed: resp.Usage.Total(),
		Usage:      resp.Usage,
	}

	if cache.Enable {
		result.Cache = &CacheStats{
			CreationTokens: resp.Usage.CacheWrite,
			ReadTokens:     resp.Usage.CacheRead,
			// Assumed ratio, not a measured value.
			EstimatedSaving: int(float64(resp.Usage.CacheRead) * cacheSavingsRatio),
		}
		inv.logger.Debug("prompt cache stats",
			"creation_tokens", result.Cache.CreationTokens,
			"read_tokens", result.Cache.ReadTokens,
			"estimated_saving", result.Cache.EstimatedSaving)
	}

	return result, nil
}
