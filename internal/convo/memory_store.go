package convo

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory conversation store. Primarily for tests and
// local development; production deployments use PostgresStore.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	messages      map[string][]Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
	}
}

// CreateConversation stores a new conversation row.
func (s *MemoryStore) CreateConversation(_ context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.conversations[c.ID] = &cp
	return nil
}

// CountMessages returns the number of messages in a conversation. Unknown
// conversations count as empty.
func (s *MemoryStore) CountMessages(_ context.Context, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[conversationID]), nil
}

// AppendMessage appends one message.
func (s *MemoryStore) AppendMessage(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], *m)
	if c, ok := s.conversations[m.ConversationID]; ok {
		c.UpdatedAt = m.CreatedAt
	}
	return nil
}

// Messages returns a conversation's messages in append order.
func (s *MemoryStore) Messages(_ context.Context, conversationID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Conversation returns a stored conversation, or nil if unknown.
func (s *MemoryStore) Conversation(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}
