package ledger

import (
	"log/slog"
	"time"

	"github.com/xraph/ledger/dispatch"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/observability"
	"github.com/xraph/ledger/store"
	"github.com/xraph/ledger/workspace"
)

// Ledger is the root activity event ledger.
type Ledger struct {
	config       Config
	store        store.Store
	validator    *event.Validator
	workspaceSvc *workspace.Service
	wsChecker    workspace.Checker
	dlqSvc       *dlq.Service
	scheduler    *dlq.Scheduler
	dispatcher   *dispatch.Dispatcher
	metrics      *observability.Metrics
	tracer       *observability.Tracer
	logger       *slog.Logger

	// schemas maps event types to optional payload JSON Schemas.
	schemas map[event.Type]any
}

// Option configures a Ledger instance.
type Option func(*Ledger) error

// New creates a new Ledger with the given options.
func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		schemas: make(map[event.Type]any),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.store == nil {
		return nil, ErrNoStore
	}
	l.wireServices()
	return l, nil
}

// WithStore sets the persistence backend for the Ledger instance.
func WithStore(s store.Store) Option {
	return func(l *Ledger) error {
		l.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Ledger instance.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithMetrics sets the metric instruments for the Ledger instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Ledger) error {
		l.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the Ledger instance.
func WithTracer(t *observability.Tracer) Option {
	return func(l *Ledger) error {
		l.tracer = t
		return nil
	}
}

// WithScheduler enables or disables the dead-letter retry scheduler.
func WithScheduler(enabled bool) Option {
	return func(l *Ledger) error {
		l.config.SchedulerEnabled = enabled
		return nil
	}
}

// WithSchedulerInterval sets how often the retry scheduler wakes up.
func WithSchedulerInterval(d time.Duration) Option {
	return func(l *Ledger) error {
		l.config.SchedulerInterval = d
		return nil
	}
}

// WithRetryBatchSize sets the maximum pending dead letters pulled per tick.
func WithRetryBatchSize(n int) Option {
	return func(l *Ledger) error {
		l.config.RetryBatchSize = n
		return nil
	}
}

// WithRetryMinAge sets the backoff floor for dead-letter retries.
func WithRetryMinAge(d time.Duration) Option {
	return func(l *Ledger) error {
		l.config.RetryMinAge = d
		return nil
	}
}

// WithMaxRetryAttempts bounds retries per dead letter before auto-discard.
func WithMaxRetryAttempts(n int) Option {
	return func(l *Ledger) error {
		l.config.MaxRetryAttempts = n
		return nil
	}
}

// WithDispatchBuffer sets the saved-event dispatcher channel capacity.
func WithDispatchBuffer(n int) Option {
	return func(l *Ledger) error {
		l.config.DispatchBuffer = n
		return nil
	}
}

// WithWorkspaceCacheTTL sets the TTL of the in-process workspace existence
// cache. Zero disables the cache.
func WithWorkspaceCacheTTL(d time.Duration) Option {
	return func(l *Ledger) error {
		l.config.WorkspaceCacheTTL = d
		return nil
	}
}

// WithWorkspaceChecker overrides the workspace existence check, e.g. to put
// a shared Redis cache in front of the store.
func WithWorkspaceChecker(c workspace.Checker) Option {
	return func(l *Ledger) error {
		l.wsChecker = c
		return nil
	}
}
