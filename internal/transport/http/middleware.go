package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"bookline/backend/internal/auth"
	"bookline/backend/internal/domain"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyIdentity
)

// withRequestID tags every request with an identifier for log correlation,
// honoring an X-Request-ID supplied by an upstream proxy.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// withAuth requires a valid bearer token and stashes the caller's identity
// in the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token", "unauthorized")
			return
		}

		ident, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token", "unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyIdentity, ident)))
	})
}

// requireManager runs after withAuth and rejects non-manager callers.
func (s *Server) requireManager(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := identityFrom(r.Context())
		if !ok || ident.Role != domain.RoleManager {
			writeError(w, http.StatusForbidden, "manager role required", "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func identityFrom(ctx context.Context) (auth.Identity, bool) {
	ident, ok := ctx.Value(ctxKeyIdentity).(auth.Identity)
	return ident, ok
}
