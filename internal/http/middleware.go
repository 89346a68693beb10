package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/meeting-coordinator/internal/application"
	"github.com/example/meeting-coordinator/internal/logging"
)

const sessionCookieName = "coordinator_session"

// SessionValidator turns a session token into an authenticated principal.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, error)
}

// RequireSession rejects requests that do not carry a valid session token.
// Tokens are read from the Authorization header or the session cookie.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	r := newResponder(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			token := extractSessionToken(req)
			if token == "" {
				r.writeError(req.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			principal, err := validator.ValidateSession(req.Context(), token)
			if err != nil {
				r.writeError(req.Context(), w, http.StatusUnauthorized, nil)
				return
			}

			ctx := ContextWithPrincipal(req.Context(), principal)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func extractSessionToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}

	if cookie, err := req.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequestLogger assigns each request an id, stores a request-scoped logger in
// the context, and logs method, path, status, and duration on completion.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	var counter atomic.Uint64
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			requestID := fmt.Sprintf("req-%d", counter.Add(1))
			requestLogger := logger.With(logging.RequestAttrs(requestID, req.Method, req.URL.Path)...)
			ctx := ContextWithLogger(req.Context(), requestLogger)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, req.WithContext(ctx))

			requestLogger.InfoContext(ctx, "request completed",
				"status", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RateLimit applies a token-bucket limit per client address. Limiters for
// clients idle past the TTL are swept so the map stays bounded.
func RateLimit(limit float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	r := newResponder(logger)
	limiters := &clientLimiters{
		limit:   rate.Limit(limit),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiters.allow(clientAddr(req)) {
				r.writeError(req.Context(), w, http.StatusTooManyRequests, nil)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

const (
	limiterTTL           = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type clientLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
	clients   map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (c *clientLimiters) allow(addr string) bool {
	c.mu.Lock()
	now := c.now()
	c.sweepLocked(now)
	entry, ok := c.clients[addr]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[addr] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	c.mu.Unlock()
	return limiter.Allow()
}

// sweepLocked drops limiters idle past the TTL, at most once per sweep
// interval.
func (c *clientLimiters) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < limiterSweepInterval {
		return
	}
	c.lastSweep = now
	for addr, entry := range c.clients {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(c.clients, addr)
		}
	}
}

func clientAddr(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
