package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"userhub/internal/models"
	"userhub/internal/session"
)

// Middleware gates protected routes on a verified access token.
type Middleware struct {
	sessions *session.Service
}

func NewMiddleware(sessions *session.Service) *Middleware {
	return &Middleware{sessions: sessions}
}

// Authenticate extracts the bearer token, verifies it against the token
// store and attaches the decoded claim to the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claim, err := m.sessions.VerifyAccess(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaim(r.Context(), claim)))
	})
}

// RequireUser passes any authenticated identity. Admin is a superset of
// user, so both tiers clear this gate.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim := ClaimFromContext(r.Context())
		if claim.UserID == 0 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if claim.Role != models.RoleUser && claim.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin passes only admin identities.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim := ClaimFromContext(r.Context())
		if claim.UserID == 0 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if claim.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "You are not an admin. Access denied.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken pulls the token out of the Authorization header, or "" when
// the header is absent or malformed.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
