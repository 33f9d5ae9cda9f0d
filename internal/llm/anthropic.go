package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	now    func() time.Time
}

// NewAnthropicClient creates a client that reads ANTHROPIC_API_KEY from the
// environment.
func NewAnthropicClient() *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(),
		now:    time.Now,
	}
}

// NewAnthropicClientWithKey creates a client with an explicit API key.
func NewAnthropicClientWithKey(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		now:    time.Now,
	}
}

// Chat sends one generation request. Provider failures are classified into
// the typed errors in this package; raw SDK errors never escape.
func (c *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	params := buildParams(req)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err, c.now())
	}

	return parseResponse(msg), nil
}

func buildParams(req ChatRequest) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(m.Content),
			))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(req.MaxTokens),
	}

	if req.System != "" {
		block := anthropic.TextBlockParam{Text: req.System}
		if req.SystemCacheable {
			block.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
		params.System = []anthropic.TextBlockParam{block}
	}

	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = param.NewOpt(*req.TopP)
	}

	return params
}

func parseResponse(msg *anthropic.Message) *ChatResponse {
	resp := &ChatResponse{
		Usage: TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			CacheRead:    int(msg.Usage.CacheReadInputTokens),
			CacheWrite:   int(msg.Usage.CacheCreationInputTokens),
		},
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			resp.Content += block.Text
		}
	}

	return resp
}

// Message substrings that indicate the provider refused the input for size.
var oversizedMarkers = []string{
	"prompt is too long",
	"exceeds the maximum",
	"too many pages",
	"page limit",
}

// classifyError maps an SDK error to this package's error taxonomy.
func classifyError(err error, now time.Time) error {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return &GenerationError{Message: err.Error()}
	}

	if apierr.StatusCode == http.StatusTooManyRequests {
		var header http.Header
		if apierr.Response != nil {
			header = apierr.Response.Header
		}
		hint, _ := retryAfterHint(header, now)
		return &RateLimitedError{RetryAfter: hint}
	}

	msg := strings.ToLower(apierr.Error())
	if apierr.StatusCode == http.StatusRequestEntityTooLarge || containsAny(msg, oversizedMarkers) {
		return &InputTooLargeError{Detail: "reduce the message or conversation size and try again"}
	}

	return &GenerationError{Message: apierr.Error()}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
