// Package prompt assembles the instruction text sent to the language model
// from an agent's base prompt and its anti-hallucination policy.
package prompt

// Intensity selects how aggressively an agent refuses out-of-scope input.
type Intensity string

const (
	IntensityDisabled    Intensity = "disabled"
	IntensityLight       Intensity = "light"
	IntensityStrict      Intensity = "strict"
	IntensityUltraStrict Intensity = "ultra_strict"
)

// ContextLimitations toggles the individual guardrails inside a template.
type ContextLimitations struct {
	StrictBoundaries    bool `json:"strict_boundaries"`
	RejectOutOfScope    bool `json:"reject_out_of_scope"`
	InventionPrevention bool `json:"invention_prevention"`
	CompetitorMention   bool `json:"competitor_mention"`
}

// ResponsePatterns holds the canned texts an agent uses when refusing,
// escalating, or hedging. The {company_name} placeholder is substituted at
// assembly time.
type ResponsePatterns struct {
	RefusalMessage     string `json:"refusal_message"`
	EscalationMessage  string `json:"escalation_message"`
	UncertaintyMessage string `json:"uncertainty_message"`
}

// Template is an agent's anti-hallucination policy.
type Template struct {
	Intensity          Intensity          `json:"intensity"`
	CompanyName        string             `json:"company_name,omitempty"`
	Domain             string             `json:"domain"`
	ContextLimitations ContextLimitations `json:"context_limitations"`
	ResponsePatterns   ResponsePatterns   `json:"response_patterns"`
}

// DefaultTemplate returns the preset for an intensity level. These are the
// starting points the configuration UI offers before per-agent edits.
func DefaultTemplate(intensity Intensity) Template {
	base := Template{
		Intensity: intensity,
		Domain:    "customer support for {company_name}",
		ResponsePatterns: ResponsePatterns{
			RefusalMessage:     "I can only help with questions about {company_name}.",
			EscalationMessage:  "Let me connect you with the {company_name} team for that.",
			UncertaintyMessage: "I'm not certain about that. Please check with {company_name} directly.",
		},
	}

	switch intensity {
	case IntensityDisabled:
		base.ContextLimitations = ContextLimitations{}
	case IntensityLight:
		base.ContextLimitations = ContextLimitations{
			InventionPrevention: true,
		}
	case IntensityStrict:
		base.ContextLimitations = ContextLimitations{
			StrictBoundaries:    true,
			RejectOutOfScope:    true,
			InventionPrevention: true,
		}
	case IntensityUltraStrict:
		base.ContextLimitations = ContextLimitations{
			StrictBoundaries:    true,
			RejectOutOfScope:    true,
			InventionPrevention: true,
			CompetitorMention:   true,
		}
	}
	return base
}
