// Package agent defines the agent configuration records the gateway consumes.
// Authoring and storage of these records belongs to the dashboard side of the
// product; the gateway only reads them.
package agent

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/chatforge/chatgate/internal/prompt"
)

// ErrNotFound is returned when no agent exists for the given ID.
var ErrNotFound = errors.New("agent not found")

// Config is the shape of one published agent as the gateway requires it.
type Config struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	SystemPrompt   string           `json:"system_prompt"`
	Model          string           `json:"model"`
	Temperature    *float64         `json:"temperature,omitempty"`
	MaxTokens      int              `json:"max_tokens"`
	TopP           *float64         `json:"top_p,omitempty"`
	PublicAPIKey   string           `json:"public_api_key"`
	AllowedDomains []string         `json:"allowed_domains,omitempty"`
	CompanyName    string           `json:"company_name,omitempty"`
	RestrictToRole bool             `json:"restrict_to_role"`
	Template       *prompt.Template `json:"anti_hallucination_template,omitempty"`
}

// ValidateKey performs a timing-safe comparison of the caller-supplied public
// key against the agent's configured key.
func (c *Config) ValidateKey(provided string) bool {
	if c.PublicAPIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(c.PublicAPIKey)) == 1
}

// Store looks up published agents.
type Store interface {
	// Get retrieves an agent by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Config, error)
}
