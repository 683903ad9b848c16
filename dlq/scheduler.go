package dlq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/ledger/observability"
)

// SchedulerConfig holds retry scheduler configuration.
type SchedulerConfig struct {
	// Enabled controls whether ticks do anything. A disabled scheduler
	// performs zero store calls.
	Enabled bool

	// Interval is how often the scheduler wakes up.
	Interval time.Duration

	// BatchSize caps how many pending entries one tick processes.
	BatchSize int

	// MinAge is the backoff floor: entries younger than this are not
	// replayed. It does not shield an entry from MaxAttempts auto-discard.
	MinAge time.Duration

	// MaxAttempts bounds retries per entry. Entries at or past the bound are
	// auto-discarded instead of retried.
	MaxAttempts int
}

// TickStats counts the outcomes of one scheduler tick.
type TickStats struct {
	// Batch is how many pending entries the tick pulled.
	Batch int `json:"batch"`

	// Attempted is how many entries were actually replayed.
	Attempted int `json:"attempted"`

	// Resolved counts replays that landed (recorded or duplicate).
	Resolved int `json:"resolved"`

	// Failed counts replays whose recorder call errored.
	Failed int `json:"failed"`

	// Skipped counts entries auto-discarded for exhausting MaxAttempts.
	Skipped int `json:"skipped"`
}

// Health is the scheduler's health report. The scheduler never takes the
// process down, so Status is always "up"; the flags and counters tell the
// operator whether it is actually doing work.
type Health struct {
	Status     string     `json:"status"`
	Enabled    bool       `json:"enabled"`
	EverRan    bool       `json:"ever_ran"`
	LastTickAt *time.Time `json:"last_tick_at,omitempty"`
	LastTick   *TickStats `json:"last_tick,omitempty"`
	Pending    int64      `json:"pending"`
}

// Scheduler periodically replays aged pending dead letters.
type Scheduler struct {
	service *Service
	config  SchedulerConfig
	metrics *observability.Metrics
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	lastTickAt *time.Time
	lastTick   *TickStats
}

// NewScheduler creates a retry scheduler over the given service.
func NewScheduler(service *Service, cfg SchedulerConfig, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service: service,
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Start begins the tick loop. Returns immediately when the scheduler is
// disabled.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.InfoContext(ctx, "retry scheduler disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Stop cancels the tick loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop(_ context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick drains one batch of pending entries. Entries that exhausted
// MaxAttempts are discarded no matter how young they are, entries under the
// MinAge floor are left for a later tick, the rest are replayed through the
// recorder.
func (s *Scheduler) tick(ctx context.Context) TickStats {
	var stats TickStats

	if !s.config.Enabled {
		return stats
	}

	// Pull the batch without an age filter. Exhaustion discards regardless of
	// age, so young entries must still pass through here; the backoff floor is
	// applied per entry below.
	batch, err := s.service.FindPendingForRetry(ctx, 0, s.config.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "list pending dead letters failed", "error", err)
		s.finishTick(stats)
		return stats
	}
	stats.Batch = len(batch)

	cutoff := time.Now().UTC().Add(-s.config.MinAge)
	for _, entry := range batch {
		if ctx.Err() != nil {
			break
		}

		if s.config.MaxAttempts > 0 && entry.RetryCount >= s.config.MaxAttempts {
			if _, discardErr := s.service.Discard(ctx, entry.ID, "max retry attempts exhausted"); discardErr != nil {
				s.logger.ErrorContext(ctx, "auto-discard failed",
					"dead_letter_id", entry.ID, "error", discardErr)
			} else {
				stats.Skipped++
				if s.metrics != nil {
					s.metrics.RetrySkipped.Inc()
				}
				s.logger.WarnContext(ctx, "dead letter auto-discarded",
					"dead_letter_id", entry.ID, "retry_count", entry.RetryCount)
			}
			continue
		}

		if entry.CreatedAt.After(cutoff) {
			// Under the backoff floor: too young to replay.
			continue
		}

		stats.Attempted++
		if s.metrics != nil {
			s.metrics.RetryAttempted.Inc()
		}

		result, retryErr := s.service.retry(ctx, entry)
		if retryErr != nil || !result.Resolved {
			stats.Failed++
			if s.metrics != nil {
				s.metrics.RetryFailed.Inc()
			}
			continue
		}

		stats.Resolved++
		if s.metrics != nil {
			s.metrics.RetrySuccess.Inc()
		}
	}

	if stats.Batch > 0 {
		s.logger.InfoContext(ctx, "retry tick complete",
			"batch", stats.Batch,
			"attempted", stats.Attempted,
			"resolved", stats.Resolved,
			"failed", stats.Failed,
			"skipped", stats.Skipped)
	}

	s.finishTick(stats)
	return stats
}

func (s *Scheduler) finishTick(stats TickStats) {
	now := time.Now().UTC()
	s.mu.Lock()
	s.lastTickAt = &now
	s.lastTick = &stats
	s.mu.Unlock()
}

// Health reports scheduler liveness and the last tick's counters.
func (s *Scheduler) Health(ctx context.Context) (*Health, error) {
	stats, err := s.service.Stats(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	lastAt := s.lastTickAt
	last := s.lastTick
	s.mu.Unlock()

	return &Health{
		Status:     "up",
		Enabled:    s.config.Enabled,
		EverRan:    lastAt != nil,
		LastTickAt: lastAt,
		LastTick:   last,
		Pending:    stats.Pending,
	}, nil
}
