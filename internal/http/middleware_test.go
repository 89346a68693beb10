package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/meeting-coordinator/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			cookieToken    *http.Cookie
			headerToken    string
			validatorErr   error
			expectedStatus int
		}{
			{
				name:           "missing credentials",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "malformed bearer header",
				headerToken:    "Bearer",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "rejected token",
				cookieToken:    &http.Cookie{Name: sessionCookieName, Value: "revoked-token"},
				validatorErr:   application.ErrUnauthorized,
				expectedStatus: http.StatusUnauthorized,
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookieToken != nil {
					req.AddCookie(tc.cookieToken)
				}
				if tc.headerToken != "" {
					req.Header.Set("Authorization", tc.headerToken)
				}
				recorder := httptest.NewRecorder()

				handler := RequireSession(fakeSessionValidator{err: tc.validatorErr}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "user-123", IsAdmin: true}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "valid-token"})
		recorder := httptest.NewRecorder()

		var captured application.Principal
		handler := RequireSession(fakeSessionValidator{principal: principal}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in request context")
			}
			captured = p
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if captured != principal {
			t.Fatalf("expected principal %+v, got %+v", principal, captured)
		}
	})

	t.Run("accepts bearer tokens from the authorization header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		recorder := httptest.NewRecorder()

		handler := RequireSession(fakeSessionValidator{principal: application.Principal{UserID: "user-1"}}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests beyond the burst", func(t *testing.T) {
		t.Parallel()

		handler := RateLimit(1, 2, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		statuses := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "198.51.100.7:4411"
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			statuses = append(statuses, recorder.Code)
		}

		if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
			t.Fatalf("expected first two requests to pass, got %v", statuses)
		}
		if statuses[2] != http.StatusTooManyRequests {
			t.Fatalf("expected third request to be limited, got %d", statuses[2])
		}
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		t.Parallel()

		handler := RateLimit(1, 1, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.RemoteAddr = "203.0.113.1:1000"
		firstRecorder := httptest.NewRecorder()
		handler.ServeHTTP(firstRecorder, first)

		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.RemoteAddr = "203.0.113.2:1000"
		secondRecorder := httptest.NewRecorder()
		handler.ServeHTTP(secondRecorder, second)

		if firstRecorder.Code != http.StatusOK || secondRecorder.Code != http.StatusOK {
			t.Fatalf("expected both clients to pass, got %d and %d", firstRecorder.Code, secondRecorder.Code)
		}
	})
}

func TestClientLimiters_SweepsIdleClients(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	limiters := &clientLimiters{
		limit:   rate.Limit(1),
		burst:   1,
		now:     func() time.Time { return current },
		clients: make(map[string]*clientLimiter),
	}

	limiters.allow("203.0.113.1")
	limiters.allow("203.0.113.2")
	if len(limiters.clients) != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", len(limiters.clients))
	}

	// One client keeps talking, the other goes quiet past the TTL.
	current = current.Add(limiterTTL)
	limiters.allow("203.0.113.1")

	current = current.Add(2 * limiterSweepInterval)
	limiters.allow("203.0.113.3")

	if _, ok := limiters.clients["203.0.113.2"]; ok {
		t.Error("expected the idle client to be evicted")
	}
	if _, ok := limiters.clients["203.0.113.1"]; !ok {
		t.Error("expected the active client to remain tracked")
	}
	if len(limiters.clients) != 2 {
		t.Fatalf("expected 2 tracked clients after sweep, got %d", len(limiters.clients))
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("invokes the next handler and preserves the status", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if LoggerFromContext(r.Context()) == nil {
				t.Fatal("expected request logger in context")
			}
			w.WriteHeader(http.StatusTeapot)
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		if recorder.Code != http.StatusTeapot {
			t.Fatalf("expected status 418, got %d", recorder.Code)
		}
	})
}

func TestExtractSessionToken(t *testing.T) {
	t.Parallel()

	t.Run("prefers bearer header over cookie", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})

		if got := extractSessionToken(req); got != "header-token" {
			t.Fatalf("expected header token, got %q", got)
		}
	})

	t.Run("falls back to cookie", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})

		if got := extractSessionToken(req); got != "cookie-token" {
			t.Fatalf("expected cookie token, got %q", got)
		}
	})
}
