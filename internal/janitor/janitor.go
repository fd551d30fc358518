// Package janitor prunes stale score-entry drafts and evicts idle in-memory
// sessions on an interval.
package janitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
)

const (
	defaultInterval = time.Hour
	readyFailures   = 3
)

// Pruner removes expired drafts and reports the removed keys.
type Pruner interface {
	Prune() ([]string, error)
}

// Sweeper evicts idle in-memory state and reports how much it dropped.
type Sweeper interface {
	SweepIdle(ctx context.Context) int
}

// Janitor runs Prune and every Sweeper once at start and then on every tick.
type Janitor struct {
	pruner   Pruner
	sweepers []Sweeper
	logger   *slog.Logger
	metrics  *metrics.Recorder
	interval time.Duration

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the prune loop.
type Status struct {
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt"`
	LastSuccess         time.Time `json:"lastSuccess"`
	LastRemoved         int       `json:"lastRemoved"`
	LastEvicted         int       `json:"lastEvicted"`
}

// IsReady reports whether a pass has succeeded and the loop is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < readyFailures
}

// New constructs a Janitor. A non-positive interval falls back to one hour.
func New(pruner Pruner, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration, sweepers ...Sweeper) *Janitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Janitor{
		pruner:   pruner,
		sweepers: sweepers,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins pruning until the context is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) {
	j.startMu.Lock()
	if j.started {
		j.startMu.Unlock()
		return
	}
	j.started = true
	j.ticker = time.NewTicker(j.interval)
	j.startMu.Unlock()

	go func() {
		logging.Info(ctx, j.logger, "draft janitor started", slog.Int64(logging.FieldDurationMS, j.interval.Milliseconds()))
		j.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				j.ticker.Stop()
				logging.Info(ctx, j.logger, "draft janitor stopped")
				return
			case <-j.done:
				j.ticker.Stop()
				logging.Info(ctx, j.logger, "draft janitor stopped")
				return
			case <-j.ticker.C:
				j.RunOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop. It is safe to call more than once.
func (j *Janitor) Stop(context.Context) error {
	j.stopOnce.Do(func() {
		close(j.done)
	})
	return nil
}

// RunOnce performs a single prune pass followed by the idle sweeps. Sweeps run
// even when the prune fails.
func (j *Janitor) RunOnce(ctx context.Context) {
	start := time.Now()
	j.recordAttempt(start)
	defer j.sweep(ctx)

	removed, err := j.pruner.Prune()
	elapsed := time.Since(start)
	j.metrics.RecordJanitorCycle(elapsed, len(removed), err)
	if err != nil {
		logging.Error(ctx, j.logger, "draft prune failed", err,
			slog.Int(logging.FieldCount, len(removed)),
			slog.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
		)
		j.recordFailure(err, len(removed))
		return
	}
	j.recordSuccess(start, len(removed))
	if len(removed) > 0 {
		logging.Info(ctx, j.logger, "pruned stale drafts",
			slog.Int(logging.FieldCount, len(removed)),
			slog.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
		)
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	evicted := 0
	for _, sw := range j.sweepers {
		evicted += sw.SweepIdle(ctx)
	}
	j.statusMu.Lock()
	defer j.statusMu.Unlock()
	j.status.LastEvicted = evicted
}

func (j *Janitor) recordAttempt(at time.Time) {
	j.statusMu.Lock()
	defer j.statusMu.Unlock()
	j.status.LastAttempt = at
}

func (j *Janitor) recordSuccess(at time.Time, removed int) {
	j.statusMu.Lock()
	defer j.statusMu.Unlock()
	j.status.ConsecutiveFailures = 0
	j.status.LastError = ""
	j.status.LastSuccess = at
	j.status.LastRemoved = removed
}

func (j *Janitor) recordFailure(err error, removed int) {
	j.statusMu.Lock()
	defer j.statusMu.Unlock()
	j.status.ConsecutiveFailures++
	j.status.LastError = err.Error()
	j.status.LastRemoved = removed
}

// Status returns a snapshot of the loop's recent health.
func (j *Janitor) Status() Status {
	j.statusMu.RLock()
	defer j.statusMu.RUnlock()
	return j.status
}
