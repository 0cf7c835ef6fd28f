package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"familytree/internal/metrics"
	"familytree/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const CallerContextKey ContextKey = "caller"

// TokenVerifier turns a bearer token into a caller id
type TokenVerifier interface {
	Parse(token string) (string, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  TokenVerifier
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens TokenVerifier, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
	}
}

// RequireAuth rejects requests without a valid bearer token and puts the
// token's subject into the request context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		callerID, err := m.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "Rejected bearer token", err)
			return
		}

		ctx := context.WithValue(r.Context(), CallerContextKey, callerID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests and records their latency
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(rec.status), elapsed.Seconds())
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)
	})
}

// CallerFromContext returns the authenticated caller id, or "" when the
// request was not authenticated
func CallerFromContext(ctx context.Context) string {
	callerID, _ := ctx.Value(CallerContextKey).(string)
	return callerID
}
