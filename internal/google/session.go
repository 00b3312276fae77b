// Package google receives verified Google identities and binds them to
// store-backed sessions. The OAuth redirect dance happens upstream; by the
// time a profile reaches this package it has already been verified against
// Google's userinfo endpoint.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/models"
	"userhub/internal/session"
)

const (
	sessionPrefix = "session:"

	// SessionTTL is deliberately longer than the interactive access-token
	// TTL: these sessions are not refreshable.
	SessionTTL = 72 * time.Hour
)

// ErrNoSession means the presented token maps to no live session.
var ErrNoSession = errors.New("google: invalid or expired session")

// Profile is the verified identity handed off from the OAuth callback.
type Profile struct {
	GoogleID string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

type sessionData struct {
	UserID    int   `json:"userId"`
	CreatedAt int64 `json:"createdAt"`
}

type Service struct {
	db    *gorm.DB
	store session.TokenStore
	now   func() time.Time
	lg    *zap.SugaredLogger
}

func NewService(db *gorm.DB, store session.TokenStore, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, store: store, now: time.Now, lg: lg}
}

// RegisterOrLogin finds or creates the GoogleUser for a verified profile
// and opens a session for it.
func (s *Service) RegisterOrLogin(ctx context.Context, p Profile) (string, *models.GoogleUser, error) {
	if p.GoogleID == "" || p.Email == "" {
		return "", nil, errors.New("google: profile missing id or email")
	}

	var user models.GoogleUser
	err := s.db.WithContext(ctx).First(&user, "google_id = ?", p.GoogleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.GoogleUser{
			Name:       p.Name,
			Email:      p.Email,
			GoogleID:   p.GoogleID,
			ProfilePic: p.Picture,
			IsActive:   true,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return "", nil, fmt.Errorf("create google user: %w", err)
		}
	} else if err != nil {
		return "", nil, fmt.Errorf("find google user: %w", err)
	}

	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// CreateSession writes a session:<token> entry with the store's TTL.
func (s *Service) CreateSession(ctx context.Context, userID int) (string, error) {
	token, err := session.NewOpaqueToken(32)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(sessionData{UserID: userID, CreatedAt: s.now().UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := s.store.Set(ctx, sessionPrefix+token, string(payload), SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Session resolves a session token to the owning GoogleUser id.
func (s *Service) Session(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrNoSession
	}
	raw, err := s.store.Get(ctx, sessionPrefix+token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return 0, ErrNoSession
		}
		return 0, err
	}
	var data sessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data.UserID == 0 {
		return 0, ErrNoSession
	}
	return data.UserID, nil
}

// Logout deletes the session. Absent tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Del(ctx, sessionPrefix+token)
}
