package gateway

import "net/http"

// Error codes carried in the "code" field of error bodies. Status codes
// alone are ambiguous (two kinds of 429, three kinds of 502), so clients
// branch on these.
const (
	CodeMissingKey        = "missing_api_key"
	CodeInvalidKey        = "invalid_api_key"
	CodeDomainNotAllowed  = "domain_not_allowed"
	CodeAgentNotFound     = "agent_not_found"
	CodeInvalidRequest    = "invalid_request"
	CodeRateLimited       = "rate_limited"
	CodeConversationFull  = "conversation_limit_reached"
	CodeUpstreamRateLimit = "upstream_rate_limited"
	CodeUpstreamOversized = "upstream_input_too_large"
	CodeUpstreamFailed    = "upstream_failed"
	CodeInternal          = "internal_error"
)

// statusFor maps an error code to its fixed HTTP status.
func statusFor(code string) int {
	switch code {
	case CodeMissingKey:
		return http.StatusUnauthorized
	case CodeInvalidKey, CodeDomainNotAllowed:
		return http.StatusForbidden
	case CodeAgentNotFound:
		return http.StatusNotFound
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeRateLimited, CodeConversationFull:
		return http.StatusTooManyRequests
	case CodeUpstreamRateLimit, CodeUpstreamOversized, CodeUpstreamFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
