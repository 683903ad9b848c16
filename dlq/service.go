package dlq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/internal/entity"
	"github.com/xraph/ledger/observability"
)

// Recorder replays a captured recording call. Implemented by the root Ledger.
type Recorder interface {
	// RecordWithTrigger persists the event. Returns true when a new row was
	// written and false for an idempotent no-op (duplicate key, unknown
	// workspace). An error means nothing was persisted.
	RecordWithTrigger(ctx context.Context, in event.RecordInput, trigger string) (bool, error)
}

// RetryResult is the outcome of one retry attempt.
type RetryResult struct {
	// Resolved is true when the entry reached a terminal resolved state.
	Resolved bool `json:"resolved"`

	// Duplicate is true when the event was already in the ledger, which
	// still resolves the entry.
	Duplicate bool `json:"duplicate"`

	// Message explains failed or rejected attempts.
	Message string `json:"message,omitempty"`
}

// Service manages the dead letter queue.
type Service struct {
	store    Store
	recorder Recorder
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	logger   *slog.Logger
}

// NewService creates a new dead letter service.
func NewService(store Store, recorder Recorder, metrics *observability.Metrics, tracer *observability.Tracer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		recorder: recorder,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger,
	}
}

// Capture persists a failed recording call as a pending dead letter. It must
// never fail silently: a capture error is returned so the caller can at least
// log the loss.
func (svc *Service) Capture(ctx context.Context, in event.RecordInput, trigger string, cause error) (*Entry, error) {
	if cause == nil {
		return nil, fmt.Errorf("dlq: capture requires a cause")
	}

	entry := &Entry{
		Entity:       entity.New(),
		ID:           id.NewDeadLetterID(),
		WorkspaceID:  in.WorkspaceID,
		EventType:    in.Type,
		OccurredAt:   in.OccurredAt,
		Actor:        in.Actor,
		Repository:   in.Repository,
		TargetType:   in.TargetType,
		TargetID:     in.TargetID,
		XP:           in.XP,
		Source:       in.Source,
		Payload:      in.Payload,
		Trigger:      trigger,
		ErrorMessage: cause.Error(),
		ErrorType:    classifyError(cause),
		Status:       StatusPending,
	}

	if err := svc.store.InsertDeadLetter(ctx, entry); err != nil {
		return nil, fmt.Errorf("dlq: capture: %w", err)
	}

	svc.logger.WarnContext(ctx, "dead letter captured",
		"dead_letter_id", entry.ID,
		"event_type", entry.EventType,
		"workspace_id", entry.WorkspaceID,
		"trigger", trigger,
		"error", entry.ErrorMessage)

	return entry, nil
}

// Get returns a dead letter by ID.
func (svc *Service) Get(ctx context.Context, dlID id.ID) (*Entry, error) {
	return svc.store.GetDeadLetter(ctx, dlID)
}

// List returns dead letters matching the given options, newest first.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	return svc.store.ListDeadLetters(ctx, opts)
}

// FindPendingForRetry returns pending entries at least minAge old, oldest
// first, capped at limit.
func (svc *Service) FindPendingForRetry(ctx context.Context, minAge time.Duration, limit int) ([]*Entry, error) {
	cutoff := time.Now().UTC().Add(-minAge)
	return svc.store.ListPendingDeadLetters(ctx, cutoff, limit)
}

// Retry replays a single pending dead letter through the recorder.
//
// A recorded or duplicate outcome resolves the entry. A recorder error
// increments the retry count and leaves the entry pending. Retrying a
// non-pending entry is rejected without mutating anything.
func (svc *Service) Retry(ctx context.Context, dlID id.ID) (*RetryResult, error) {
	entry, err := svc.store.GetDeadLetter(ctx, dlID)
	if err != nil {
		return nil, err
	}
	return svc.retry(ctx, entry)
}

func (svc *Service) retry(ctx context.Context, entry *Entry) (*RetryResult, error) {
	if entry.Status != StatusPending {
		return &RetryResult{
			Message: fmt.Sprintf("dead letter is %s, only pending entries can be retried", entry.Status),
		}, nil
	}

	var span trace.Span
	if svc.tracer != nil {
		ctx, span = svc.tracer.StartRetrySpan(ctx, entry.ID.String(), entry.RetryCount)
	}

	recorded, recErr := svc.recorder.RecordWithTrigger(ctx, entry.Input(), event.TriggerRetry)

	entry.UpdatedAt = time.Now().UTC()

	if recErr != nil {
		// The count tracks failed attempts only. A successful replay leaves it
		// wherever the failures left it.
		entry.RetryCount++
		entry.ErrorMessage = recErr.Error()
		entry.ErrorType = classifyError(recErr)
		if updateErr := svc.store.UpdateDeadLetter(ctx, entry); updateErr != nil {
			svc.logger.ErrorContext(ctx, "update dead letter after failed retry",
				"dead_letter_id", entry.ID, "error", updateErr)
		}
		if span != nil {
			svc.tracer.EndRetrySpan(span, false, recErr.Error())
		}
		svc.logger.WarnContext(ctx, "dead letter retry failed",
			"dead_letter_id", entry.ID,
			"retry_count", entry.RetryCount,
			"error", recErr)
		return &RetryResult{Message: recErr.Error()}, nil
	}

	// A nil error is terminal for this call: either a new row was written or
	// the ledger already holds the event. Either way the entry is done.
	now := time.Now().UTC()
	entry.Status = StatusResolved
	entry.ResolvedAt = &now
	if recorded {
		entry.ResolutionNotes = "recorded on retry"
	} else {
		entry.ResolutionNotes = "event already recorded"
	}

	if updateErr := svc.store.UpdateDeadLetter(ctx, entry); updateErr != nil {
		if span != nil {
			svc.tracer.EndRetrySpan(span, false, updateErr.Error())
		}
		return nil, fmt.Errorf("dlq: resolve %s: %w", entry.ID, updateErr)
	}

	if span != nil {
		svc.tracer.EndRetrySpan(span, true, "")
	}
	svc.logger.InfoContext(ctx, "dead letter resolved",
		"dead_letter_id", entry.ID,
		"recorded", recorded,
		"retry_count", entry.RetryCount)

	return &RetryResult{Resolved: true, Duplicate: !recorded}, nil
}

// Discard marks a pending dead letter as given up on. Terminal.
func (svc *Service) Discard(ctx context.Context, dlID id.ID, notes string) (*Entry, error) {
	entry, err := svc.store.GetDeadLetter(ctx, dlID)
	if err != nil {
		return nil, err
	}
	if entry.Status != StatusPending {
		return nil, fmt.Errorf("dlq: cannot discard %s entry %s", entry.Status, entry.ID)
	}

	now := time.Now().UTC()
	entry.Status = StatusDiscarded
	entry.ResolvedAt = &now
	entry.ResolutionNotes = notes
	entry.UpdatedAt = now

	if err := svc.store.UpdateDeadLetter(ctx, entry); err != nil {
		return nil, fmt.Errorf("dlq: discard %s: %w", entry.ID, err)
	}

	svc.logger.InfoContext(ctx, "dead letter discarded",
		"dead_letter_id", entry.ID, "notes", notes)

	return entry, nil
}

// Stats aggregates queue counts and refreshes the pending gauge.
func (svc *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := svc.store.DeadLetterStats(ctx)
	if err != nil {
		return nil, err
	}
	if svc.metrics != nil {
		svc.metrics.DeadLettersPending.Set(float64(stats.Pending))
	}
	return stats, nil
}

// classifyError buckets a capture cause for filtering. The classification is
// coarse on purpose: operators filter on it, nothing branches on it.
func classifyError(err error) string {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "store"
	}
}
