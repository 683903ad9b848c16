package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for Ledger, backed by any go-utils
// MetricFactory (e.g. the forge-managed metrics system via fapp.Metrics()).
//
// Counter names are part of the operational contract and must not change:
// consumers alert on them.
type Metrics struct {
	EventsRecorded     gu.Counter
	EventsDuplicate    gu.Counter
	RetryAttempted     gu.Counter
	RetrySuccess       gu.Counter
	RetryFailed        gu.Counter
	RetrySkipped       gu.Counter
	DeadLettersPending gu.Gauge
}

// NewMetrics creates Ledger metric instruments using the supplied factory.
// Pass fapp.Metrics() from a forge extension, or metrics.NewMetricsCollector()
// for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		EventsRecorded:     factory.Counter("events.recorded"),
		EventsDuplicate:    factory.Counter("events.duplicate"),
		RetryAttempted:     factory.Counter("dead_letter.auto_retry.attempted"),
		RetrySuccess:       factory.Counter("dead_letter.auto_retry.success"),
		RetryFailed:        factory.Counter("dead_letter.auto_retry.failed"),
		RetrySkipped:       factory.Counter("dead_letter.auto_retry.skipped"),
		DeadLettersPending: factory.Gauge("dead_letter.pending"),
	}
}

// RecordWrite records the outcome of one recorder call.
func (m *Metrics) RecordWrite(duplicate bool) {
	if duplicate {
		m.EventsDuplicate.Inc()
		return
	}
	m.EventsRecorded.Inc()
}
