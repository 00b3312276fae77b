package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"userhub/internal/session"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(nil, session.NewMemoryStore(), zap.NewNop().Sugar())
}

func TestCreateAndResolveSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.CreateSession(ctx, 17)
	require.NoError(t, err)
	require.Len(t, token, 64)

	userID, err := svc.Session(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 17, userID)
}

func TestSessionRejectsUnknownAndEmpty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Session(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)

	_, err = svc.Session(ctx, "no-such-token")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.CreateSession(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Session(ctx, token)
	require.ErrorIs(t, err, ErrNoSession)

	// Absent tokens are a no-op.
	require.NoError(t, svc.Logout(ctx, token))
	require.NoError(t, svc.Logout(ctx, ""))
}

func TestSessionsAreIndependent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, 1)
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, 2)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, svc.Logout(ctx, first))

	userID, err := svc.Session(ctx, second)
	require.NoError(t, err)
	require.Equal(t, 2, userID)
}
