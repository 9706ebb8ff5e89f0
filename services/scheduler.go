package services

import (
	"context"
	"log/slog"
	"time"
)

// PeriodRefresher re-derives rolling date ranges; filters.Engine implements it.
type PeriodRefresher interface {
	RefreshPeriod() bool
}

// RunScheduler refreshes rolling filter periods once at start and then
// shortly after every local midnight until ctx is cancelled.
func RunScheduler(ctx context.Context, refresher PeriodRefresher, logger *slog.Logger) error {
	logger = logger.With("component", "scheduler")
	logger.Info("Starting task scheduler")

	if refresher.RefreshPeriod() {
		logger.Info("Rolling filter period refreshed on startup")
	}

	for {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		wait := midnight.Sub(now) + time.Second

		logger.Debug("Next period refresh scheduled", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Task scheduler stopped")
			return nil
		case <-timer.C:
		}

		if refresher.RefreshPeriod() {
			logger.Info("Rolling filter period refreshed")
		}
	}
}
