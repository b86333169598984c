package worker

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	Sweep() int
}

type SessionSweeper struct {
	store    Sweeper
	interval time.Duration
}

func NewSessionSweeper(store Sweeper, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
	}
}

func (w *SessionSweeper) Start(ctx context.Context) {
	slog.Info("starting session sweeper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if removed := w.store.Sweep(); removed > 0 {
				slog.Debug("expired sessions removed", "count", removed)
			}
		}
	}
}
