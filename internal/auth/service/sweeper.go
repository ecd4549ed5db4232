package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jsricop/vitalgo-co/internal/auth/domain"
)

// SessionSweeper deletes session rows whose access expiry has passed. Revocation
// never deletes rows, so the sweep is the only path that physically removes them.
type SessionSweeper struct {
	sessions domain.SessionRepository
	interval time.Duration
	log      *zap.Logger
}

func NewSessionSweeper(sessions domain.SessionRepository, interval time.Duration, log *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		log:      log,
	}
}

// Run sweeps once immediately and then on every tick until the context is
// cancelled. Safe to call repeatedly; each sweep is independent.
func (w *SessionSweeper) Run(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	count, err := w.sessions.SweepExpired(ctx)
	if err != nil {
		w.log.Error("session sweep failed", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("swept expired sessions", zap.Int64("count", count))
	}
}
