// Package jobs runs periodic background maintenance.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/reelist/reelist/internal/metrics"
)

const (
	// DefaultSweepInterval is how often expired sessions are purged.
	DefaultSweepInterval = time.Hour

	// DefaultRetention keeps dead sessions around briefly for audit.
	DefaultRetention = 24 * time.Hour

	sweepTimeout = 30 * time.Second
)

// SessionStore deletes sessions that are no longer usable.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweeperConfig configures a SessionSweeper.
type SweeperConfig struct {
	Store     SessionStore
	Logger    *slog.Logger
	Metrics   metrics.Recorder
	Interval  time.Duration
	Retention time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// SessionSweeper periodically deletes expired and revoked sessions.
type SessionSweeper struct {
	store     SessionStore
	logger    *slog.Logger
	metrics   metrics.Recorder
	interval  time.Duration
	retention time.Duration
	now       func() time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewSessionSweeper creates a sweeper with defaults applied.
func NewSessionSweeper(cfg SweeperConfig) *SessionSweeper {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.Retention < 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionSweeper{
		store:     cfg.Store,
		logger:    cfg.Logger.With("component", "jobs.session_sweeper"),
		metrics:   cfg.Metrics,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		now:       cfg.Now,
	}
}

// Run sweeps once immediately and then on every tick. Blocks until ctx is cancelled
// or Shutdown is called.
func (s *SessionSweeper) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("sweeper already started")
	}
	s.started = true
	s.done = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	defer close(s.done)

	s.logger.Info("session sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep performs a single purge and returns the number of sessions removed.
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.store.DeleteExpiredSessions(ctx, cutoff)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
		return 0
	}

	s.metrics.AddSessionsSwept(n)
	if n > 0 {
		s.logger.Info("expired sessions removed",
			slog.Int64("count", n),
			slog.Time("cutoff", cutoff),
		)
	}
	return n
}

// Shutdown stops the loop and waits for an in-flight sweep.
// It implements server.ShutdownFunc.
func (s *SessionSweeper) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.draining {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()

	select {
	case <-done:
		s.logger.Info("session sweeper shutdown complete")
		return nil
	case <-ctx.Done():
		s.logger.Warn("session sweeper shutdown timed out")
		return ctx.Err()
	}
}
