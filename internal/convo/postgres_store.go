package convo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversations and messages in the shared product
// database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateConversation inserts a conversation row.
func (s *PostgresStore) CreateConversation(ctx context.Context, c *Conversation) error {
	const q = `
		INSERT INTO conversations (id, agent_id, visitor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, q, c.ID, c.AgentID, c.VisitorID, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// CountMessages counts messages for a conversation. Unknown conversations
// count as empty, matching the dangling-ID resume behavior.
func (s *PostgresStore) CountMessages(ctx context.Context, conversationID string) (int, error) {
	const q = `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`
	var count int
	if err := s.pool.QueryRow(ctx, q, conversationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// AppendMessage inserts a message row and bumps the conversation timestamp.
func (s *PostgresStore) AppendMessage(ctx context.Context, m *Message) error {
	const q = `
		INSERT INTO messages (id, conversation_id, content, is_from_bot, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, q, m.ID, m.ConversationID, m.Content, m.FromBot, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	const touch = `UPDATE conversations SET updated_at = $2 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, touch, m.ConversationID, m.CreatedAt); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// Messages returns a conversation's messages in append order.
func (s *PostgresStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	const q = `
		SELECT id, conversation_id, content, is_from_bot, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, q, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.FromBot, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
