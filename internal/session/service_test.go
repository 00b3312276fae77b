package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"userhub/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeLedger struct {
	mu   sync.Mutex
	recs map[string]*models.RefreshToken
	next int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{recs: make(map[string]*models.RefreshToken)}
}

func (l *fakeLedger) Create(_ context.Context, rec *models.RefreshToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.recs[rec.Token]; ok {
		return ErrDuplicateToken
	}
	l.next++
	rec.ID = l.next
	cp := *rec
	l.recs[rec.Token] = &cp
	return nil
}

func (l *fakeLedger) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.recs[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (l *fakeLedger) DeleteByToken(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.recs, token)
	return nil
}

func (l *fakeLedger) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for tok, rec := range l.recs {
		if !rec.ExpiresAt.After(before) {
			delete(l.recs, tok)
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}

func newTestService(t *testing.T) (*Service, *fakeLedger, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewMemoryStore()
	store.now = clock.Now
	ledger := newFakeLedger()
	svc := NewService(store, ledger, zap.NewNop().Sugar(), WithClock(clock.Now))
	return svc, ledger, clock
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 42, models.RoleUser, 3)
	require.NoError(t, err)
	require.Len(t, pair.AccessToken, 64)   // 32 bytes hex
	require.Len(t, pair.RefreshToken, 128) // 64 bytes hex
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claim, err := svc.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, Claim{UserID: 42, Role: models.RoleUser, AppID: 3}, claim)

	// Still valid one second before the TTL.
	clock.Advance(DefaultAccessTTL - time.Second)
	_, err = svc.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = svc.VerifyAccess(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestVerifyAccessRejectsUnknownAndMalformed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.VerifyAccess(ctx, "")
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	_, err = svc.VerifyAccess(ctx, "deadbeef")
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	// A stored value that decodes to a claim without a subject is as bad
	// as a miss.
	store := svc.store.(*MemoryStore)
	require.NoError(t, store.Set(ctx, accessPrefix+"junk", `{"role":"user"}`, time.Minute))
	_, err = svc.VerifyAccess(ctx, "junk")
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	require.NoError(t, store.Set(ctx, accessPrefix+"garble", "not json", time.Minute))
	_, err = svc.VerifyAccess(ctx, "garble")
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestVerifyRefreshLifecycle(t *testing.T) {
	svc, ledger, clock := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 7, models.RoleUser, 2)
	require.NoError(t, err)

	rec, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, 7, rec.UserID)
	require.Equal(t, 2, rec.AppID)

	_, err = svc.VerifyRefresh(ctx, "no-such-token")
	require.ErrorIs(t, err, ErrNotFound)

	clock.Advance(DefaultRefreshTTL + time.Second)
	_, err = svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrExpired)

	// Rejection does not delete the row; the sweep does.
	require.Equal(t, 1, ledger.count())
	deleted, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
	require.Equal(t, 0, ledger.count())
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 1, models.RoleUser, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAccess(ctx, pair.AccessToken))
	require.NoError(t, svc.RevokeAccess(ctx, pair.AccessToken))
	require.NoError(t, svc.RevokeRefresh(ctx, pair.RefreshToken))
	require.NoError(t, svc.RevokeRefresh(ctx, pair.RefreshToken))
	require.NoError(t, svc.RevokeAccess(ctx, ""))
	require.NoError(t, svc.RevokeRefresh(ctx, ""))

	_, err = svc.VerifyAccess(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
	_, err = svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReissueAccessLeavesRefreshUntouched(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 9, models.RoleAdmin, ScopeAllApps)
	require.NoError(t, err)

	access, err := svc.ReissueAccess(ctx, 9, models.RoleAdmin, ScopeAllApps)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, access)

	claim, err := svc.VerifyAccess(ctx, access)
	require.NoError(t, err)
	require.Equal(t, 9, claim.UserID)

	// The original refresh token is still valid: no rotation.
	_, err = svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestAccessClaimOutlivesLedgerState(t *testing.T) {
	// Access claims are not re-checked against current assignment or
	// ledger state until the next login. Revoking the refresh token must
	// not invalidate an already issued access token.
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 5, models.RoleUser, 4)
	require.NoError(t, err)
	require.NoError(t, svc.RevokeRefresh(ctx, pair.RefreshToken))

	claim, err := svc.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, 5, claim.UserID)
}

func TestIssueSurfacesDuplicateToken(t *testing.T) {
	svc, ledger, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 1, models.RoleUser, 1)
	require.NoError(t, err)

	err = ledger.Create(ctx, &models.RefreshToken{Token: pair.RefreshToken, UserID: 1, AppID: 1})
	require.ErrorIs(t, err, ErrDuplicateToken)
}

func TestNewOpaqueTokenEntropy(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		tok, err := NewOpaqueToken(32)
		require.NoError(t, err)
		require.Len(t, tok, 64)
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}
