package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatforge/chatgate/internal/prompt"
)

// PostgresStore reads agent records from the shared product database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get retrieves an agent by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Config, error) {
	const q = `
		SELECT id, name, system_prompt, model, temperature, max_tokens, top_p,
		       public_api_key, allowed_domains, company_name, restrict_to_role,
		       anti_hallucination_template
		FROM agents
		WHERE id = $1`

	var (
		a            Config
		templateJSON []byte
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.Name, &a.SystemPrompt, &a.Model, &a.Temperature,
		&a.MaxTokens, &a.TopP, &a.PublicAPIKey, &a.AllowedDomains,
		&a.CompanyName, &a.RestrictToRole, &templateJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query agent %q: %w", id, err)
	}

	if len(templateJSON) > 0 {
		var tmpl prompt.Template
		if err := json.Unmarshal(templateJSON, &tmpl); err != nil {
			return nil, fmt.Errorf("decode template for agent %q: %w", id, err)
		}
		a.Template = &tmpl
	}

	return &a, nil
}
