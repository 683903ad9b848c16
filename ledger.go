package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/ledger/dispatch"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/internal/entity"
	"github.com/xraph/ledger/store"
	"github.com/xraph/ledger/workspace"
)

// wireServices initializes the internal services after options have been applied.
func (l *Ledger) wireServices() {
	l.validator = event.NewValidator()

	l.workspaceSvc = workspace.NewService(l.store, l.logger)
	if l.wsChecker == nil {
		l.wsChecker = workspace.NewCache(l.store, l.config.WorkspaceCacheTTL)
	}

	l.dlqSvc = dlq.NewService(l.store, l, l.metrics, l.tracer, l.logger)

	l.scheduler = dlq.NewScheduler(l.dlqSvc, dlq.SchedulerConfig{
		Enabled:     l.config.SchedulerEnabled,
		Interval:    l.config.SchedulerInterval,
		BatchSize:   l.config.RetryBatchSize,
		MinAge:      l.config.RetryMinAge,
		MaxAttempts: l.config.MaxRetryAttempts,
	}, l.metrics, l.logger)

	l.dispatcher = dispatch.New(l.config.DispatchBuffer, l.logger)
}

// Start begins the saved-event dispatcher and the retry scheduler.
func (l *Ledger) Start(ctx context.Context) {
	l.dispatcher.Start(ctx)
	l.scheduler.Start(ctx)
}

// Stop gracefully shuts down the scheduler and dispatcher.
func (l *Ledger) Stop(ctx context.Context) {
	l.scheduler.Stop(ctx)
	l.dispatcher.Stop(ctx)
}

// RegisterPayloadSchema attaches a JSON Schema to an event type. Payloads of
// that type are validated against it on every record call. Pass nil to
// remove a schema.
func (l *Ledger) RegisterPayloadSchema(t event.Type, schema any) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, t)
	}
	if schema == nil {
		delete(l.schemas, t)
		return nil
	}
	l.schemas[t] = schema
	return nil
}

// Record persists one activity event. Returns true when a new ledger row was
// written, false for an idempotent no-op (duplicate key or unknown
// workspace). An error means nothing was persisted.
func (l *Ledger) Record(ctx context.Context, in event.RecordInput) (bool, error) {
	return l.RecordWithTrigger(ctx, in, event.TriggerWebhook)
}

// RecordWithTrigger is Record with an explicit write-path label, carried on
// the saved-event signal and on any dead letter captured for the call.
//
// The critical path:
//  1. Reject unknown event types.
//  2. Check the workspace exists (unknown workspace is a silent no-op).
//  3. Validate the payload against the registered schema, if any.
//  4. Build the row: fresh TypeID, derived event key, normalized XP.
//  5. Insert. A duplicate key is an idempotent no-op success.
//  6. Publish a saved-event signal to subscribers.
func (l *Ledger) RecordWithTrigger(ctx context.Context, in event.RecordInput, trigger string) (bool, error) {
	// 1. Reject unknown event types.
	if !in.Type.Valid() {
		return false, fmt.Errorf("%w: %s", ErrUnknownEventType, in.Type)
	}

	key := in.Key()

	var span trace.Span
	if l.tracer != nil {
		ctx, span = l.tracer.StartRecordSpan(ctx, key, in.Type.String(), in.WorkspaceID)
	}

	// 2. Unknown workspace: the event is not applicable, not an error.
	exists, err := l.wsChecker.WorkspaceExists(ctx, in.WorkspaceID)
	if err != nil {
		if span != nil {
			l.tracer.EndRecordSpan(span, false, err.Error())
		}
		return false, fmt.Errorf("ledger: check workspace: %w", err)
	}
	if !exists {
		if span != nil {
			l.tracer.EndRecordSpan(span, false, "")
		}
		l.logger.DebugContext(ctx, "event skipped, unknown workspace",
			"workspace_id", in.WorkspaceID,
			"type", in.Type,
			"key", key)
		return false, nil
	}

	// 3. Validate payload against the registered schema, if any.
	if schema, ok := l.schemas[in.Type]; ok {
		if validateErr := l.validator.Validate(schema, in.Payload); validateErr != nil {
			if span != nil {
				l.tracer.EndRecordSpan(span, false, validateErr.Error())
			}
			return false, fmt.Errorf("%w: %s", ErrPayloadValidationFailed, validateErr.Error())
		}
	}

	// 4. Build the ledger row.
	evt := &event.Event{
		Entity:        entity.New(),
		ID:            id.NewEventID(),
		Key:           key,
		Type:          in.Type,
		OccurredAt:    in.OccurredAt.UTC(),
		WorkspaceID:   in.WorkspaceID,
		Actor:         in.Actor,
		Repository:    in.Repository,
		TargetType:    in.TargetType,
		TargetID:      in.TargetID,
		XP:            event.NormalizeXP(in.XP),
		Source:        in.Source,
		Payload:       in.Payload,
		SchemaVersion: event.SchemaVersion,
	}

	// 5. Insert. Duplicate keys are an idempotent no-op success.
	if insertErr := l.store.InsertEvent(ctx, evt); insertErr != nil {
		if errors.Is(insertErr, ErrDuplicateEventKey) {
			if l.metrics != nil {
				l.metrics.RecordWrite(true)
			}
			if span != nil {
				l.tracer.EndRecordSpan(span, false, "")
			}
			l.logger.DebugContext(ctx, "duplicate event key", "key", key, "trigger", trigger)
			return false, nil
		}
		if span != nil {
			l.tracer.EndRecordSpan(span, false, insertErr.Error())
		}
		return false, fmt.Errorf("ledger: persist event: %w", insertErr)
	}

	if l.metrics != nil {
		l.metrics.RecordWrite(false)
	}
	if span != nil {
		l.tracer.EndRecordSpan(span, true, "")
	}

	// 6. Fan out the saved-event signal.
	l.dispatcher.Publish(dispatch.Signal{
		EventID:     evt.ID,
		Key:         evt.Key,
		Type:        evt.Type,
		WorkspaceID: evt.WorkspaceID,
		Actor:       evt.Actor,
		Trigger:     trigger,
		OccurredAt:  evt.OccurredAt,
	})

	l.logger.DebugContext(ctx, "event recorded",
		"event_id", evt.ID,
		"key", evt.Key,
		"type", evt.Type,
		"workspace_id", evt.WorkspaceID,
		"xp", evt.XP,
		"trigger", trigger)

	return true, nil
}

// RecordOrCapture records the event, routing persistence failures into the
// dead letter queue so the fact is not lost. The original error is returned
// either way; the entry is non-nil when a dead letter was captured.
//
// Rejections that would fail identically on replay (unknown type, payload
// validation) are not captured.
func (l *Ledger) RecordOrCapture(ctx context.Context, in event.RecordInput, trigger string) (bool, *dlq.Entry, error) {
	recorded, err := l.RecordWithTrigger(ctx, in, trigger)
	if err == nil {
		return recorded, nil, nil
	}
	if errors.Is(err, ErrUnknownEventType) || errors.Is(err, ErrPayloadValidationFailed) {
		return false, nil, err
	}

	entry, captureErr := l.dlqSvc.Capture(ctx, in, trigger, err)
	if captureErr != nil {
		// Both the write and the capture failed. The caller's retry (or its
		// upstream redelivery) is the only remaining safety net.
		l.logger.ErrorContext(ctx, "dead letter capture failed",
			"key", in.Key(), "record_error", err, "capture_error", captureErr)
		return false, nil, err
	}

	return false, entry, err
}

// Subscribe registers a handler for saved-event signals. Must be called
// before Start.
func (l *Ledger) Subscribe(h dispatch.Handler) {
	l.dispatcher.Subscribe(h)
}

// SubscribeTypes registers a handler for saved-event signals whose type
// matches the pattern ("pr.merged", "pr.*", or "*"). Must be called before
// Start.
func (l *Ledger) SubscribeTypes(pattern string, h dispatch.Handler) {
	l.dispatcher.SubscribeTypes(pattern, h)
}

// Events returns ledger rows matching the given options, newest first.
func (l *Ledger) Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	return l.store.ListEvents(ctx, opts)
}

// Event returns a ledger row by ID.
func (l *Ledger) Event(ctx context.Context, evtID id.ID) (*event.Event, error) {
	return l.store.GetEvent(ctx, evtID)
}

// EventByKey returns a ledger row by its idempotency key.
func (l *Ledger) EventByKey(ctx context.Context, key string) (*event.Event, error) {
	return l.store.GetEventByKey(ctx, key)
}

// DeadLetters returns the dead letter service.
func (l *Ledger) DeadLetters() *dlq.Service {
	return l.dlqSvc
}

// Scheduler returns the dead-letter retry scheduler.
func (l *Ledger) Scheduler() *dlq.Scheduler {
	return l.scheduler
}

// Workspaces returns the workspace management service.
func (l *Ledger) Workspaces() *workspace.Service {
	return l.workspaceSvc
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store {
	return l.store
}
