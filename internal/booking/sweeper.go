package booking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically releases expired seat holds.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
}

// NewSweeper returns a Sweeper running every interval (30s when zero).
func NewSweeper(e *Engine, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{engine: e, interval: interval}
}

// Run sweeps until ctx is cancelled.  Sweep errors are logged and the loop
// continues.
func (s *Sweeper) Run(ctx context.Context) error {
	log := s.engine.log.Named("sweeper")
	log.Info("hold sweeper started", zap.Duration("interval", s.interval))

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("hold sweeper stopped")
			return nil
		case <-t.C:
			n, err := s.engine.ReleaseExpiredHolds(ctx, s.engine.Now())
			if err != nil && ctx.Err() == nil {
				log.Warn("sweep failed", zap.Int("released", n), zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired holds released", zap.Int("released", n))
			}
		}
	}
}
