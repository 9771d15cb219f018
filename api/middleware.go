package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/admarket/chat-api/auth"
)

// Middleware adds bearer credential authentication around the routes
type Middleware struct {
	Verifier *auth.Verifier
}

// Authenticate verifies the bearer token and attaches the principal to
// the request context. No principal, no handler.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		principal, err := m.Verifier.Verify(BearerToken(r))
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL,
				"error", err,
			)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// BearerToken extracts the credential from the Authorization header,
// falling back to the token query parameter used by websocket clients
// that cannot set headers.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// ClientIP extracts the client address for pre-auth rate limiting,
// honoring X-Forwarded-For when present (common behind load balancers)
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}
