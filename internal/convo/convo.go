// Package convo manages conversations and their messages for the public chat
// endpoint.
package convo

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Defaults for the per-conversation backstops.
const (
	DefaultMessageCap       = 50
	DefaultMaxContentLength = 2000
)

var (
	// ErrConversationFull is returned once a conversation has hit its
	// message cap. Distinct from rate-limiter rejections so clients can
	// tell the two 429 causes apart.
	ErrConversationFull = errors.New("conversation message limit reached")

	// ErrEmptyContent is returned for blank message content.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrContentTooLong is returned when content exceeds the length bound.
	ErrContentTooLong = errors.New("message content too long")
)

// Conversation is one visitor's chat thread with an agent.
type Conversation struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	VisitorID string    `json:"visitor_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one append-only entry in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	FromBot        bool      `json:"is_from_bot"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists conversations and messages. Per-row atomicity is assumed;
// no multi-row transactions are required.
type Store interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	CountMessages(ctx context.Context, conversationID string) (int, error)
	AppendMessage(ctx context.Context, m *Message) error
	Messages(ctx context.Context, conversationID string) ([]Message, error)
}

// Gateway enforces conversation-level policy in front of a Store.
type Gateway struct {
	store      Store
	messageCap int
	maxContent int
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMessageCap overrides the per-conversation message cap.
func WithMessageCap(n int) GatewayOption {
	return func(g *Gateway) { g.messageCap = n }
}

// WithMaxContentLength overrides the inbound content length bound.
func WithMaxContentLength(n int) GatewayOption {
	return func(g *Gateway) { g.maxContent = n }
}

// NewGateway creates a conversation gateway with default bounds.
func NewGateway(store Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:      store,
		messageCap: DefaultMessageCap,
		maxContent: DefaultMaxContentLength,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewID generates a ULID-based identifier with the given prefix.
func NewID(prefix string) string {
	return prefix + "_" + ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Resolve returns the conversation ID for this request. A caller-supplied ID
// is used as-is without an existence check: a dangling ID simply starts an
// empty history. Without one, a new conversation row is created.
func (g *Gateway) Resolve(ctx context.Context, conversationID, agentID, visitorID string) (string, error) {
	if conversationID != "" {
		return conversationID, nil
	}

	now := time.Now().UTC()
	c := &Conversation{
		ID:        NewID("conv"),
		AgentID:   agentID,
		VisitorID: visitorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.store.CreateConversation(ctx, c); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return c.ID, nil
}

// CheckCap rejects once the conversation holds messageCap or more messages.
// Runs before the provider call so a capped conversation costs nothing.
func (g *Gateway) CheckCap(ctx context.Context, conversationID string) error {
	count, err := g.store.CountMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	if count >= g.messageCap {
		return ErrConversationFull
	}
	return nil
}

// Append stores one message. Visitor content is bounded; bot content is
// stored as returned by the provider.
func (g *Gateway) Append(ctx context.Context, conversationID, content string, fromBot bool) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if !fromBot && len(content) > g.maxContent {
		return nil, ErrContentTooLong
	}

	m := &Message{
		ID:             NewID("msg"),
		ConversationID: conversationID,
		Content:        content,
		FromBot:        fromBot,
		CreatedAt:      time.Now().UTC(),
	}
	if err := g.store.AppendMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// History returns a conversation's messages in append order.
func (g *Gateway) History(ctx context.Context, conversationID string) ([]Message, error) {
	return g.store.Messages(ctx, conversationID)
}
