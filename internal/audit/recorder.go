package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/models"
)

// Store appends immutable action-log rows.
type Store interface {
	Append(ctx context.Context, entry *models.ActionLog) error
}

// GormStore writes action logs to the relational store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, entry *models.ActionLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append action log: %w", err)
	}
	return nil
}

// Entry describes one privileged mutation. Details is serialized as the
// row's JSON snapshot.
type Entry struct {
	Action     string
	Details    any
	ActorID    int
	TargetID   int
	TargetType string
	IPAddress  string
}

// Recorder appends action records after the triggering mutation has
// committed. A failed append is logged and swallowed: the audit trail
// never fails or rolls back the primary operation.
type Recorder struct {
	store Store
	lg    *zap.SugaredLogger
}

func NewRecorder(store Store, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{store: store, lg: lg}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		details = []byte("{}")
	}
	entry := &models.ActionLog{
		Action:     e.Action,
		Details:    models.JSONB(details),
		UserID:     e.ActorID,
		TargetID:   e.TargetID,
		TargetType: e.TargetType,
		IPAddress:  e.IPAddress,
		CreatedAt:  time.Now(),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		r.lg.Errorw("failed to record action",
			"action", e.Action, "actor", e.ActorID, "error", err)
	}
}
