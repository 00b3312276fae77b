package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"userhub/internal/models"
)

const (
	accessPrefix = "access:"

	accessTokenBytes  = 32
	refreshTokenBytes = 64

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// ScopeAllApps is the application-scope sentinel carried by admin
	// sessions: not bound to any single registered app.
	ScopeAllApps = 0
)

// Claim is the identity recovered from a valid access token.
type Claim struct {
	UserID int    `json:"id"`
	Role   string `json:"role"`
	AppID  int    `json:"appId"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service issues, verifies and revokes session tokens. Access tokens live
// in the TokenStore under a TTL; refresh tokens live in the RefreshLedger.
// Tokens are opaque random strings, not self-describing payloads: validity
// is membership in the right store and nothing else.
type Service struct {
	store      TokenStore
	ledger     RefreshLedger
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	lg         *zap.SugaredLogger
}

type Option func(*Service)

func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source. Test use.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store TokenStore, ledger RefreshLedger, lg *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		ledger:     ledger,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
		lg:         lg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a paired access and refresh token for the identity. The
// cache write and the ledger write are not coordinated: a ledger failure
// after the cache write leaves a short-lived dangling access token, which
// is tolerated.
func (s *Service) Issue(ctx context.Context, userID int, role string, appID int) (TokenPair, error) {
	access, err := NewOpaqueToken(accessTokenBytes)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := NewOpaqueToken(refreshTokenBytes)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.writeAccess(ctx, access, Claim{UserID: userID, Role: role, AppID: appID}); err != nil {
		return TokenPair{}, err
	}

	rec := &models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		AppID:     appID,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.ledger.Create(ctx, rec); err != nil {
		s.lg.Errorw("refresh token write failed after access token issued",
			"userId", userID, "error", err)
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ReissueAccess derives a fresh access token for an identity whose refresh
// token was already verified. The refresh record is left untouched: no
// rotation, the original token stays valid until its own expiry.
func (s *Service) ReissueAccess(ctx context.Context, userID int, role string, appID int) (string, error) {
	access, err := NewOpaqueToken(accessTokenBytes)
	if err != nil {
		return "", err
	}
	if err := s.writeAccess(ctx, access, Claim{UserID: userID, Role: role, AppID: appID}); err != nil {
		return "", err
	}
	return access, nil
}

// VerifyAccess resolves an access token to its claim. A store miss, a stale
// token and a tampered token all look the same: ErrInvalidOrExpired.
func (s *Service) VerifyAccess(ctx context.Context, token string) (Claim, error) {
	if token == "" {
		return Claim{}, ErrInvalidOrExpired
	}
	raw, err := s.store.Get(ctx, accessPrefix+token)
	if err != nil {
		if err == ErrNotFound {
			return Claim{}, ErrInvalidOrExpired
		}
		return Claim{}, err
	}
	var claim Claim
	if err := json.Unmarshal([]byte(raw), &claim); err != nil || claim.UserID == 0 {
		return Claim{}, ErrInvalidOrExpired
	}
	return claim, nil
}

// VerifyRefresh resolves a refresh token to its ledger record. An expired
// record is rejected but not deleted here; the sweeper reaps it.
func (s *Service) VerifyRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	rec, err := s.ledger.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !rec.ExpiresAt.After(s.now()) {
		return nil, ErrExpired
	}
	return rec, nil
}

// RevokeAccess deletes an access token. Revoking an absent token is a no-op.
func (s *Service) RevokeAccess(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Del(ctx, accessPrefix+token)
}

// RevokeRefresh deletes a refresh record. Revoking an absent token is a no-op.
func (s *Service) RevokeRefresh(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.ledger.DeleteByToken(ctx, token)
}

// SweepExpired removes refresh records whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.ledger.DeleteExpired(ctx, s.now())
}

func (s *Service) writeAccess(ctx context.Context, token string, claim Claim) error {
	payload, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	return s.store.Set(ctx, accessPrefix+token, string(payload), s.accessTTL)
}

// NewOpaqueToken returns n bytes of crypto/rand entropy, hex-encoded.
func NewOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
