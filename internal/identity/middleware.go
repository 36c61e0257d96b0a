package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/harshnakad-cyber/Finastra/internal/transport"
)

// SessionReader resolves an access token to a session.
type SessionReader interface {
	Session(ctx context.Context, token string) (Session, error)
}

// RequireSession rejects requests without a live session and attaches the
// session to the request context otherwise.
func RequireSession(reader SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reader == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
				return
			}
			token := TokenFromRequest(r)
			if token == "" {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			sess, err := reader.Session(r.Context(), token)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}
