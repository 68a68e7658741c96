package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mediakit/internal/logging"
	"mediakit/internal/metrics"
)

const defaultInterval = time.Hour

// Pruner deletes job history recorded before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper owns the periodic artifact cleanup.
type Sweeper struct {
	dirs     []string
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Registry

	pruner  Pruner
	history time.Duration

	mu      sync.Mutex
	running bool
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock replaces time.Now (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInterval sets the delay between passes.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithPruner prunes job history older than retention on every pass.
func WithPruner(p Pruner, retention time.Duration) Option {
	return func(s *Sweeper) {
		s.pruner = p
		s.history = retention
	}
}

// WithMetrics reports removed files.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// New constructs a sweeper over dirs removing files older than maxAge.
func New(dirs []string, maxAge time.Duration, logger *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		dirs:     append([]string(nil), dirs...),
		maxAge:   maxAge,
		interval: defaultInterval,
		now:      time.Now,
		logger:   logging.NewComponentLogger(logger, "sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the delay between passes.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Sweep runs one pass over every directory.
func (s *Sweeper) Sweep(ctx context.Context) Result {
	cutoff := s.now().Add(-s.maxAge)
	total := Result{}
	for _, dir := range s.dirs {
		total.merge(CleanStale(ctx, dir, cutoff, s.logger))
	}
	s.metrics.AddSwept(len(total.Removed))

	var pruned int64
	if s.pruner != nil && s.history > 0 {
		n, err := s.pruner.Prune(ctx, s.now().Add(-s.history))
		if err != nil {
			logging.WarnWithContext(s.logger, "job history prune failed", "ledger_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check jobs.db permissions"),
				logging.String(logging.FieldImpact, "job history keeps growing"),
			)
		}
		pruned = n
	}

	if len(total.Removed) > 0 || len(total.Errors) > 0 || pruned > 0 {
		s.logger.Info("sweep completed",
			logging.String(logging.FieldEventType, "sweep_complete"),
			logging.Int("removed", len(total.Removed)),
			logging.Int64("reclaimed_bytes", total.Bytes),
			logging.Int("errors", len(total.Errors)),
			logging.Int64("jobs_pruned", pruned),
		)
	}
	return total
}

// Run sweeps once immediately and then every interval until ctx is done.
// It returns early if the sweeper is already running.
func (s *Sweeper) Run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("sweeper started",
		logging.Duration("interval", s.interval),
		logging.Duration("max_age", s.maxAge),
		logging.Int("directories", len(s.dirs)),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
