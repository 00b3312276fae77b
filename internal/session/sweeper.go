package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically deletes expired refresh-token rows so the ledger
// does not grow without bound. Verification rejects expired rows on its
// own; the sweeper only reclaims storage.
type Sweeper struct {
	sessions *Service
	lg       *zap.SugaredLogger
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewSweeper(sessions *Service, lg *zap.SugaredLogger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		sessions: sessions,
		lg:       lg,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *Sweeper) Start() {
	go s.run()
	s.lg.Infow("refresh token sweeper started", "interval", s.interval)
}

// Stop blocks until any in-progress sweep finishes.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.lg.Infow("refresh token sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	deleted, err := s.sessions.SweepExpired(context.Background())
	if err != nil {
		s.lg.Errorw("refresh token sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.lg.Infow("swept expired refresh tokens", "deleted", deleted)
	}
}
