package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/ledger"

// Tracer provides OpenTelemetry tracing for Ledger.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Ledger tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartRecordSpan starts a new span for a recorder call.
func (t *Tracer) StartRecordSpan(ctx context.Context, key, eventType, workspaceID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "ledger.record",
		trace.WithAttributes(
			attribute.String("ledger.event_key", key),
			attribute.String("ledger.event_type", eventType),
			attribute.String("ledger.workspace_id", workspaceID),
		),
	)
}

// EndRecordSpan ends a record span with result attributes.
func (t *Tracer) EndRecordSpan(span trace.Span, recorded bool, err string) {
	span.SetAttributes(attribute.Bool("ledger.recorded", recorded))
	if err != "" {
		span.SetAttributes(attribute.String("ledger.error", err))
	}
	span.End()
}

// StartRetrySpan starts a new span for a dead-letter retry attempt.
func (t *Tracer) StartRetrySpan(ctx context.Context, deadLetterID string, retryCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "ledger.dead_letter.retry",
		trace.WithAttributes(
			attribute.String("ledger.dead_letter_id", deadLetterID),
			attribute.Int("ledger.retry_count", retryCount),
		),
	)
}

// EndRetrySpan ends a retry span with result attributes.
func (t *Tracer) EndRetrySpan(span trace.Span, resolved bool, err string) {
	span.SetAttributes(attribute.Bool("ledger.resolved", resolved))
	if err != "" {
		span.SetAttributes(attribute.String("ledger.error", err))
	}
	span.End()
}
