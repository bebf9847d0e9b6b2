package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/studio/internal/state"
	"github.com/five82/studio/internal/studio"
)

const (
	defaultHealthInterval = 10 * time.Second
	maxBackoff            = 30 * time.Second
	healthCheckTimeout    = 5 * time.Second
)

type healthFetcher interface {
	FetchHealth(ctx context.Context) (studio.Health, error)
}

// healthMonitor records the service health into a store at a fixed cadence,
// backing off while the service is unreachable.
type healthMonitor struct {
	fetcher  healthFetcher
	store    *state.Store
	interval time.Duration
	logger   *slog.Logger
}

// StartHealthMonitor launches a background goroutine that refreshes store
// until ctx is cancelled. It returns immediately.
func StartHealthMonitor(ctx context.Context, store *state.Store, fetcher healthFetcher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &healthMonitor{fetcher: fetcher, store: store, interval: interval, logger: logger}
	go m.run(ctx)
}

func (m *healthMonitor) run(ctx context.Context) {
	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		timer.Reset(m.check(ctx))
	}
}

// check performs one health query and returns the wait before the next.
func (m *healthMonitor) check(ctx context.Context) time.Duration {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	before := m.store.Snapshot()
	health, err := m.fetcher.FetchHealth(ctx)
	if err != nil {
		m.store.Update(nil, err)
		failures := before.ConsecutiveFailures + 1
		wait := calculateBackoff(failures, m.interval)
		m.logger.Warn("health check failed", "error", err, "failures", failures, "retry_in", wait)
		return wait
	}

	m.store.Update(&health, nil)
	if before.ConsecutiveFailures > 0 || !before.HasHealth || before.Health.Status != health.Status {
		m.logger.Info("service health", "status", string(health.Status), "detail", health.Detail)
	}
	return m.interval
}

// calculateBackoff doubles base for each consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
