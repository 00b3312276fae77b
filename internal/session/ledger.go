package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"userhub/internal/models"
)

// RefreshLedger is the durable record of refresh tokens. Deleting a row is
// revocation; FindByToken does not filter on expiry.
type RefreshLedger interface {
	Create(ctx context.Context, rec *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// GormLedger persists refresh tokens in the relational store. Requires the
// gorm error translator so duplicate-key violations map to ErrDuplicateToken.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Create(ctx context.Context, rec *models.RefreshToken) error {
	err := l.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (l *GormLedger) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	err := l.db.WithContext(ctx).First(&rec, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rec, nil
}

func (l *GormLedger) DeleteByToken(ctx context.Context, token string) error {
	if err := l.db.WithContext(ctx).Delete(&models.RefreshToken{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (l *GormLedger) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := l.db.WithContext(ctx).Delete(&models.RefreshToken{}, "expires_at <= ?", before)
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
