package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"userhub/internal/models"
	"userhub/internal/session"
)

type stubLedger struct{}

func (stubLedger) Create(context.Context, *models.RefreshToken) error { return nil }
func (stubLedger) FindByToken(context.Context, string) (*models.RefreshToken, error) {
	return nil, session.ErrNotFound
}
func (stubLedger) DeleteByToken(context.Context, string) error { return nil }
func (stubLedger) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestMiddleware(t *testing.T) (*Middleware, *session.Service) {
	t.Helper()
	svc := session.NewService(session.NewMemoryStore(), stubLedger{}, zap.NewNop().Sugar())
	return NewMiddleware(svc), svc
}

func issueAccess(t *testing.T, svc *session.Service, userID int, role string) string {
	t.Helper()
	pair, err := svc.Issue(context.Background(), userID, role, 1)
	require.NoError(t, err)
	return pair.AccessToken
}

func TestAuthenticate(t *testing.T) {
	mw, svc := newTestMiddleware(t)

	var got session.Claim
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Contains(t, rr.Body.String(), "Unauthorized")
	})

	t.Run("malformed header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer deadbeef")
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Contains(t, rr.Body.String(), "Invalid or expired session")
	})

	t.Run("valid token attaches claim", func(t *testing.T) {
		token := issueAccess(t, svc, 42, models.RoleUser)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, 42, got.UserID)
		require.Equal(t, models.RoleUser, got.Role)
	})
}

func TestRequireAdmin(t *testing.T) {
	mw, svc := newTestMiddleware(t)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.Authenticate(mw.RequireAdmin(ok))

	t.Run("user claim forbidden", func(t *testing.T) {
		token := issueAccess(t, svc, 1, models.RoleUser)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin claim passes", func(t *testing.T) {
		token := issueAccess(t, svc, 2, models.RoleAdmin)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("no claim unauthorized", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireUserAcceptsBothTiers(t *testing.T) {
	mw, svc := newTestMiddleware(t)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.Authenticate(mw.RequireUser(ok))

	for _, role := range []string{models.RoleUser, models.RoleAdmin} {
		token := issueAccess(t, svc, 3, role)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, "role %s", role)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "", BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	require.Equal(t, "abc123", BearerToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	require.Equal(t, "", BearerToken(req))
}
