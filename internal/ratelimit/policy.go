package ratelimit

import "time"

// PolicyKind identifies one of the closed set of quota policies.
type PolicyKind int

const (
	// PolicyGlobal limits total requests per caller IP.
	PolicyGlobal PolicyKind = iota
	// PolicyWidget limits requests per (caller IP, agent) pair.
	PolicyWidget
	// PolicyDomain limits requests per embedding domain.
	PolicyDomain
)

// String returns the policy name used in logs and metrics labels.
func (k PolicyKind) String() string {
	switch k {
	case PolicyGlobal:
		return "global"
	case PolicyWidget:
		return "widget"
	case PolicyDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// Identity carries the request attributes a policy may key on.
type Identity struct {
	IP      string
	AgentID string
	Domain  string
}

// Policy is one immutable quota rule.
type Policy struct {
	Kind    PolicyKind
	Window  time.Duration
	Max     int
	Message string
}

// KeyFor derives the counter key for an identity. Each kind owns a distinct
// key prefix so policies can never collide in the shared store.
func (p Policy) KeyFor(id Identity) string {
	switch p.Kind {
	case PolicyGlobal:
		return "global:" + id.IP
	case PolicyWidget:
		return "widget:" + id.IP + ":" + id.AgentID
	case PolicyDomain:
		return "domain:" + id.Domain
	default:
		return ""
	}
}

// Default policy budgets.
const (
	DefaultGlobalMax = 100
	DefaultWidgetMax = 30
	DefaultDomainMax = 200
	DefaultWindow    = 60 * time.Second
)

// DefaultPolicies returns the three standard policies with default budgets.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Kind:    PolicyGlobal,
			Window:  DefaultWindow,
			Max:     DefaultGlobalMax,
			Message: "Too many requests. Please try again later.",
		},
		{
			Kind:    PolicyWidget,
			Window:  DefaultWindow,
			Max:     DefaultWidgetMax,
			Message: "Too many messages to this assistant. Please slow down.",
		},
		{
			Kind:    PolicyDomain,
			Window:  DefaultWindow,
			Max:     DefaultDomainMax,
			Message: "This site has exceeded its chat quota. Please try again later.",
		},
	}
}
