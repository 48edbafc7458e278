package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type spoolCleaner interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// SpoolJanitor purges upload spool files left behind by interrupted requests.
type SpoolJanitor struct {
	spool    spoolCleaner
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewSpoolJanitor constructs a janitor removing files older than ttl every interval.
func NewSpoolJanitor(spool spoolCleaner, ttl, interval time.Duration, logger *zap.Logger) *SpoolJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SpoolJanitor{spool: spool, ttl: ttl, interval: interval, logger: logger}
}

// Start boots a goroutine that sweeps the spool until ctx is cancelled.
func (j *SpoolJanitor) Start(ctx context.Context) {
	if j.interval <= 0 || j.spool == nil {
		return
	}
	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Sweep()
			}
		}
	}()
}

// Sweep removes stale spool files once and returns how many were deleted.
func (j *SpoolJanitor) Sweep() int {
	removed, err := j.spool.CleanupOlderThan(j.ttl)
	if err != nil {
		j.logger.Warn("spool cleanup failed", zap.Error(err))
	}
	if len(removed) > 0 {
		j.logger.Info("removed stale upload spool files", zap.Int("count", len(removed)))
	}
	return len(removed)
}
