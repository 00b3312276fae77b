package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"userhub/internal/models"
)

type fakeStore struct {
	entries []*models.ActionLog
	err     error
}

func (s *fakeStore) Append(_ context.Context, entry *models.ActionLog) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestRecordAppendsEntry(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, zap.NewNop().Sugar())

	rec.Record(context.Background(), Entry{
		Action:     "Create User",
		Details:    map[string]string{"username": "alice"},
		ActorID:    7,
		TargetID:   12,
		TargetType: "user",
		IPAddress:  "10.0.0.1",
	})

	require.Len(t, store.entries, 1)
	got := store.entries[0]
	require.Equal(t, "Create User", got.Action)
	require.Equal(t, 7, got.UserID)
	require.Equal(t, 12, got.TargetID)
	require.Equal(t, "user", got.TargetType)
	require.Equal(t, "10.0.0.1", got.IPAddress)
	require.JSONEq(t, `{"username":"alice"}`, string(got.Details))
	require.False(t, got.CreatedAt.IsZero())
}

func TestRecordSwallowsStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	rec := NewRecorder(store, zap.NewNop().Sugar())

	require.NotPanics(t, func() {
		rec.Record(context.Background(), Entry{Action: "Delete App", ActorID: 1})
	})
	require.Empty(t, store.entries)
}

func TestRecordUnmarshalableDetails(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, zap.NewNop().Sugar())

	rec.Record(context.Background(), Entry{Action: "Update User", Details: make(chan int)})

	require.Len(t, store.entries, 1)
	require.Equal(t, "{}", string(store.entries[0].Details))
}
