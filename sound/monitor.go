package sound

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Monitor periodically logs pool utilization at debug level. Purely
// observational; it never mutates pool state.
type Monitor struct {
	pool     *Pool
	interval time.Duration
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewMonitor creates a monitor over the given pool.
func NewMonitor(pool *Pool, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		pool:     pool,
		interval: interval,
		logger:   slog.With("component", "pool-monitor"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins utilization logging.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.logger.Info("Starting pool monitoring", slog.Duration("interval", m.interval))

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.logger.Debug("Pool utilization",
					slog.Int("busy", m.pool.Busy()),
					slog.Int("size", m.pool.Size()))
			case <-m.ctx.Done():
				m.logger.Info("Pool monitoring stopped")
				return
			}
		}
	}()
}

// Stop stops utilization logging and waits for the goroutine to exit.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}
