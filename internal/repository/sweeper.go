package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/logger"
)

// Sweeper periodically removes unverified accounts whose verification code
// expired. The check at verify time never depends on it; it only keeps the
// store free of accounts nobody can verify any more.
type Sweeper struct {
	Store    UserStore
	Interval time.Duration
	Log      *slog.Logger
	Now      func() time.Time
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		return nil
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	log := s.Log
	if log == nil {
		log = logger.Discard()
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := s.Store.SweepExpired(ctx, now())
			if err != nil {
				log.Warn("sweep expired accounts failed", logger.Error(err), logger.Component("sweeper"))
				continue
			}
			if n > 0 {
				log.Info("removed unverified accounts with expired codes", slog.Int64("count", n), logger.Component("sweeper"))
			}
		}
	}
}
