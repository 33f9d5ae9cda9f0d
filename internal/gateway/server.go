// Package gateway exposes the public, key-authenticated chat endpoint that
// embeds agents on third-party web pages.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chatforge/chatgate/internal/agent"
	"github.com/chatforge/chatgate/internal/convo"
	"github.com/chatforge/chatgate/internal/llm"
	"github.com/chatforge/chatgate/internal/origin"
	"github.com/chatforge/chatgate/internal/prompt"
	"github.com/chatforge/chatgate/internal/ratelimit"
	"github.com/chatforge/chatgate/internal/telemetry"
)

// Request headers consumed by the public endpoint.
const (
	HeaderPublicKey = "X-Public-Key"
	HeaderDomain    = "X-Widget-Domain"
)

const (
	maxVisitorIDLength = 100
	preflightMaxAge    = "86400"
)

// Server is the public chat gateway HTTP server.
type Server struct {
	agents  agent.Store
	convos  *convo.Gateway
	limiter *ratelimit.Limiter
	invoker *llm.Invoker

	mux       *http.ServeMux
	server    *http.Server
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	startTime time.Time

	maxMessageLength int
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics sets the metrics collector and enables GET /metrics.
func WithMetrics(m *telemetry.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithMaxMessageLength overrides the inbound message length bound.
func WithMaxMessageLength(n int) ServerOption {
	return func(s *Server) { s.maxMessageLength = n }
}

// NewServer creates the gateway server.
func NewServer(agents agent.Store, convos *convo.Gateway, limiter *ratelimit.Limiter, invoker *llm.Invoker, opts ...ServerOption) *Server {
	s := &Server{
		agents:           agents,
		convos:           convos,
		limiter:          limiter,
		invoker:          invoker,
		logger:           slog.Default(),
		startTime:        time.Now(),
		maxMessageLength: convo.DefaultMaxContentLength,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("OPTIONS /public/agents/{agentID}/chat", s.handlePreflight)
	mux.HandleFunc("POST /public/agents/{agentID}/chat", s.handleChat)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.mux = mux
	return s
}

// Handler returns the HTTP handler for use with httptest or custom servers.
func (s *Server) Handler() http.Handler {
	return s.requestIDMiddleware(s.mux)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("gateway starting", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithRequestID(r.Context(), r.Header.Get("X-Request-Id"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handlePreflight answers the CORS preflight for the chat endpoint. Always
// 200: actual origin enforcement happens on the POST, where the agent's
// allow-list is known.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	writeCORS(w, r.Header.Get("Origin"))
	w.Header().Set("Access-Control-Max-Age", preflightMaxAge)
	w.WriteHeader(http.StatusOK)
}

// chatRequest is the POST body of the public chat endpoint.
type chatRequest struct {
	Message        string `json:"message"`
	VisitorID      string `json:"visitorId"`
	ConversationID string `json:"conversationId,omitempty"`
}

// handleChat runs the request pipeline: rate limits, auth, domain check,
// conversation cap, prompt assembly, provider call, persistence. Each stage
// short-circuits with a terminal error.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	agentID := r.PathValue("agentID")
	ctx := r.Context()
	logger := telemetry.RequestLogger(s.logger, ctx, agentID)

	writeCORS(w, r.Header.Get("Origin"))

	outcome := s.serveChat(ctx, w, r, agentID, logger)
	if s.metrics != nil && outcome.httpStatus != 0 {
		s.metrics.RecordChat(strconv.Itoa(outcome.httpStatus), time.Since(start), outcome.inputTokens, outcome.outputTokens)
	}
}

// chatOutcome is what serveChat reports for metrics.
type chatOutcome struct {
	httpStatus   int
	inputTokens  int
	outputTokens int
}

func (s *Server) serveChat(ctx context.Context, w http.ResponseWriter, r *http.Request, agentID string, logger *slog.Logger) chatOutcome {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return s.fail(w, logger, CodeInvalidRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Message) == "" {
		return s.fail(w, logger, CodeInvalidRequest, "message is required")
	}
	if len(req.Message) > s.maxMessageLength {
		return s.fail(w, logger, CodeInvalidRequest,
			fmt.Sprintf("message exceeds the maximum length of %d characters", s.maxMessageLength))
	}
	if req.VisitorID == "" || len(req.VisitorID) > maxVisitorIDLength {
		return s.fail(w, logger, CodeInvalidRequest, "visitorId is required and must be at most 100 characters")
	}

	domain := r.Header.Get(HeaderDomain)
	if domain == "" {
		domain = r.Header.Get("Origin")
	}
	domain = origin.Normalize(domain)

	// The limiter runs before auth so keyless abuse is throttled too; it
	// only needs the path agent ID, never a stored record.
	decision := s.limiter.Check(ratelimit.Identity{
		IP:      clientIP(r),
		AgentID: agentID,
		Domain:  domain,
	})
	writeRateLimitHeaders(w, decision)
	if !decision.Allowed {
		if s.metrics != nil {
			s.metrics.RecordRateLimited(decision.Policy.String())
		}
		logger.Warn("rate limited", "policy", decision.Policy.String())
		return s.fail(w, logger, CodeRateLimited, decision.Message)
	}

	ag, err := s.agents.Get(ctx, agentID)
	if errors.Is(err, agent.ErrNotFound) {
		return s.fail(w, logger, CodeAgentNotFound, "Agent not found")
	}
	if err != nil {
		logger.Error("agent lookup failed", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}

	key := r.Header.Get(HeaderPublicKey)
	if key == "" {
		return s.fail(w, logger, CodeMissingKey, "Missing public API key")
	}
	if !ag.ValidateKey(key) {
		return s.fail(w, logger, CodeInvalidKey, "Invalid public API key")
	}

	if !origin.Allowed(domain, ag.AllowedDomains) {
		logger.Warn("domain rejected", "domain", domain)
		return s.fail(w, logger, CodeDomainNotAllowed, "This domain is not allowed to use this agent")
	}

	conversationID, err := s.convos.Resolve(ctx, req.ConversationID, agentID, req.VisitorID)
	if err != nil {
		logger.Error("conversation resolve failed", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}

	if err := s.convos.CheckCap(ctx, conversationID); err != nil {
		if errors.Is(err, convo.ErrConversationFull) {
			return s.fail(w, logger, CodeConversationFull,
				"This conversation has reached its message limit. Please start a new conversation.")
		}
		logger.Error("message cap check failed", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}

	history, err := s.loadHistory(ctx, req.ConversationID, conversationID)
	if err != nil {
		logger.Error("history load failed", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}

	// The visitor's message is persisted before the provider call so it
	// survives a downstream failure.
	if _, err := s.convos.Append(ctx, conversationID, req.Message, false); err != nil {
		logger.Error("message append failed", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}

	instructions := prompt.Assemble(ag.SystemPrompt, ag.Template, ag.CompanyName, ag.RestrictToRole)
	cache := llm.DecideCache(instructions)
	if s.metrics != nil {
		s.metrics.RecordCacheDecision(cache.Enable)
	}

	result, err := s.invoker.Generate(ctx, llm.GenerationParams{
		Model:       ag.Model,
		Temperature: ag.Temperature,
		MaxTokens:   ag.MaxTokens,
		TopP:        ag.TopP,
	}, instructions, history, req.Message, cache)
	if err != nil {
		return s.failUpstream(ctx, w, logger, err)
	}

	if _, err := s.convos.Append(ctx, conversationID, result.Text, true); err != nil {
		logger.Error("bot message append failed", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}

	body := map[string]interface{}{
		"response":       result.Text,
		"conversationId": conversationID,
		"tokensUsed":     result.TokensUsed,
		"agentName":      ag.Name,
	}
	if result.Cache != nil {
		body["cacheStats"] = result.Cache
	}

	if ctx.Err() != nil {
		// Caller went away while the provider was working; the visitor
		// message is persisted, nothing to write.
		logger.Warn("request canceled before response write")
		return chatOutcome{httpStatus: 0}
	}

	writeJSON(w, http.StatusOK, body)
	return chatOutcome{
		httpStatus:   http.StatusOK,
		inputTokens:  result.Usage.InputTokens,
		outputTokens: result.Usage.OutputTokens,
	}
}

// loadHistory fetches prior turns only when the caller resumed an existing
// conversation; a fresh conversation has none.
func (s *Server) loadHistory(ctx context.Context, requestedID, conversationID string) ([]llm.Message, error) {
	if requestedID == "" {
		return nil, nil
	}
	msgs, err := s.convos.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	history := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		role := llm.RoleUser
		if m.FromBot {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}
	return history, nil
}

func (s *Server) fail(w http.ResponseWriter, logger *slog.Logger, code, message string) chatOutcome {
	status := statusFor(code)
	logger.Debug("request rejected", "code", code, "status", status)
	writeError(w, status, code, message)
	return chatOutcome{httpStatus: status}
}

// failUpstream maps classified provider errors onto the taxonomy. Anything
// unclassified is an internal error with a generic client message.
func (s *Server) failUpstream(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) chatOutcome {
	if ctx.Err() != nil {
		logger.Warn("request canceled during provider call")
		return chatOutcome{httpStatus: 0}
	}

	var (
		rateLimited *llm.RateLimitedError
		oversized   *llm.InputTooLargeError
		generation  *llm.GenerationError
	)
	switch {
	case errors.As(err, &rateLimited):
		logger.Warn("provider rate limited", "retry_after_seconds", rateLimited.RetryAfterSeconds())
		if secs := rateLimited.RetryAfterSeconds(); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		return s.fail(w, logger, CodeUpstreamRateLimit,
			"The assistant is receiving too many requests right now. "+rateLimited.Error())
	case errors.As(err, &oversized):
		logger.Warn("provider rejected oversized input")
		return s.fail(w, logger, CodeUpstreamOversized,
			"The conversation is too large for the assistant. Please shorten your message or start a new conversation.")
	case errors.As(err, &generation):
		logger.Error("provider call failed", "error", generation.Message)
		return s.fail(w, logger, CodeUpstreamFailed, "The assistant could not generate a response. Please try again.")
	default:
		logger.Error("unclassified provider error", "error", err)
		return s.fail(w, logger, CodeInternal, "Something went wrong")
	}
}

// clientIP extracts the caller IP, honoring X-Forwarded-For set by the edge.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.SplitN(forwarded, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeCORS(w http.ResponseWriter, requestOrigin string) {
	if requestOrigin == "" {
		requestOrigin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", requestOrigin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderPublicKey+", "+HeaderDomain)
}

func writeRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	if d.Remaining < 0 {
		// Fail-open decision with no counter data; advertising an
		// exhausted quota here would be wrong.
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
	if !d.Allowed && d.RetryAfter > 0 {
		secs := int(d.RetryAfter / time.Second)
		if d.RetryAfter%time.Second != 0 {
			secs++
		}
		h.Set("Retry-After", strconv.Itoa(secs))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
