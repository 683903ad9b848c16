package dlq

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/internal/entity"
)

// fakeStore is an in-package Store stub that counts calls, so tests can
// assert a disabled scheduler touches nothing.
type fakeStore struct {
	entries   map[string]*Entry
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*Entry)}
}

func (f *fakeStore) InsertDeadLetter(_ context.Context, e *Entry) error {
	f.entries[e.ID.String()] = e
	return nil
}

func (f *fakeStore) GetDeadLetter(_ context.Context, dlID id.ID) (*Entry, error) {
	e, ok := f.entries[dlID.String()]
	if !ok {
		return nil, errors.New("not found")
	}
	return e, nil
}

func (f *fakeStore) UpdateDeadLetter(_ context.Context, e *Entry) error {
	f.entries[e.ID.String()] = e
	return nil
}

func (f *fakeStore) ListDeadLetters(_ context.Context, _ ListOpts) ([]*Entry, error) {
	var out []*Entry
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) ListPendingDeadLetters(_ context.Context, before time.Time, limit int) ([]*Entry, error) {
	f.listCalls++
	var out []*Entry
	for _, e := range f.entries {
		if e.Status == StatusPending && e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) DeadLetterStats(_ context.Context) (*Stats, error) {
	stats := &Stats{}
	for _, e := range f.entries {
		switch e.Status {
		case StatusPending:
			stats.Pending++
		case StatusResolved:
			stats.Resolved++
		case StatusDiscarded:
			stats.Discarded++
		}
	}
	return stats, nil
}

type scriptedRecorder struct {
	recorded bool
	err      error
	calls    int
}

func (r *scriptedRecorder) RecordWithTrigger(_ context.Context, _ event.RecordInput, _ string) (bool, error) {
	r.calls++
	return r.recorded, r.err
}

func agedEntry(age time.Duration, retryCount int) *Entry {
	e := &Entry{
		Entity:       entity.New(),
		ID:           id.NewDeadLetterID(),
		WorkspaceID:  "acme",
		EventType:    event.TypePullRequestMerged,
		OccurredAt:   time.Now().UTC().Add(-age),
		TargetType:   "pull_request",
		TargetID:     "42",
		Source:       event.SourceGitHub,
		Trigger:      event.TriggerWebhook,
		ErrorMessage: "boom",
		Status:       StatusPending,
		RetryCount:   retryCount,
	}
	e.CreatedAt = time.Now().UTC().Add(-age)
	return e
}

func schedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:     true,
		Interval:    time.Minute,
		BatchSize:   10,
		MinAge:      10 * time.Minute,
		MaxAttempts: 5,
	}
}

func TestTickDisabledMakesNoStoreCalls(t *testing.T) {
	store := newFakeStore()
	store.entries["x"] = agedEntry(time.Hour, 0)

	rec := &scriptedRecorder{recorded: true}
	svc := NewService(store, rec, nil, nil, nil)

	cfg := schedulerConfig()
	cfg.Enabled = false
	sched := NewScheduler(svc, cfg, nil, nil)

	stats := sched.tick(context.Background())

	if stats != (TickStats{}) {
		t.Fatalf("disabled tick produced work: %+v", stats)
	}
	if store.listCalls != 0 {
		t.Fatalf("disabled tick hit the store %d times", store.listCalls)
	}
	if rec.calls != 0 {
		t.Fatal("disabled tick hit the recorder")
	}
}

func TestTickResolvesAgedEntries(t *testing.T) {
	store := newFakeStore()
	e1 := agedEntry(time.Hour, 0)
	e2 := agedEntry(2*time.Hour, 1)
	store.entries[e1.ID.String()] = e1
	store.entries[e2.ID.String()] = e2

	rec := &scriptedRecorder{recorded: true}
	svc := NewService(store, rec, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	stats := sched.tick(context.Background())

	if stats.Batch != 2 || stats.Attempted != 2 || stats.Resolved != 2 {
		t.Fatalf("unexpected tick stats: %+v", stats)
	}
	if e1.Status != StatusResolved || e2.Status != StatusResolved {
		t.Fatal("expected both entries resolved")
	}
}

func TestTickSkipsYoungEntries(t *testing.T) {
	store := newFakeStore()
	young := agedEntry(time.Minute, 0)
	store.entries[young.ID.String()] = young

	rec := &scriptedRecorder{recorded: true}
	svc := NewService(store, rec, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	stats := sched.tick(context.Background())

	if stats.Attempted != 0 || stats.Skipped != 0 {
		t.Fatalf("young entry acted on: %+v", stats)
	}
	if young.Status != StatusPending {
		t.Fatal("young entry must stay pending")
	}
	if rec.calls != 0 {
		t.Fatal("young entry must not be replayed")
	}
}

func TestTickDiscardsExhaustedEntryUnderMinAge(t *testing.T) {
	// Exhaustion wins over the backoff floor: a fresh entry that already
	// burned its attempts is discarded, not deferred.
	store := newFakeStore()
	young := agedEntry(time.Minute, 5)
	store.entries[young.ID.String()] = young

	rec := &scriptedRecorder{recorded: true}
	svc := NewService(store, rec, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	stats := sched.tick(context.Background())

	if stats.Skipped != 1 || stats.Attempted != 0 {
		t.Fatalf("unexpected tick stats: %+v", stats)
	}
	if young.Status != StatusDiscarded {
		t.Fatalf("status: got %q, want discarded", young.Status)
	}
	if rec.calls != 0 {
		t.Fatal("exhausted entry must not be replayed")
	}
}

func TestTickAutoDiscardsExhaustedEntries(t *testing.T) {
	store := newFakeStore()
	exhausted := agedEntry(time.Hour, 5)
	store.entries[exhausted.ID.String()] = exhausted

	rec := &scriptedRecorder{recorded: true}
	svc := NewService(store, rec, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	stats := sched.tick(context.Background())

	if stats.Skipped != 1 || stats.Attempted != 0 {
		t.Fatalf("unexpected tick stats: %+v", stats)
	}
	if exhausted.Status != StatusDiscarded {
		t.Fatalf("status: got %q, want discarded", exhausted.Status)
	}
	if exhausted.ResolvedAt == nil {
		t.Fatal("expected resolved_at on auto-discard")
	}
	if rec.calls != 0 {
		t.Fatal("exhausted entry must not be replayed")
	}
}

func TestTickCountsFailures(t *testing.T) {
	store := newFakeStore()
	e := agedEntry(time.Hour, 0)
	store.entries[e.ID.String()] = e

	rec := &scriptedRecorder{err: errors.New("still down")}
	svc := NewService(store, rec, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	stats := sched.tick(context.Background())

	if stats.Attempted != 1 || stats.Failed != 1 || stats.Resolved != 0 {
		t.Fatalf("unexpected tick stats: %+v", stats)
	}
	if e.Status != StatusPending {
		t.Fatal("failed entry must stay pending")
	}
	if e.RetryCount != 1 {
		t.Fatalf("retry count: got %d, want 1", e.RetryCount)
	}
}

func TestHealthReportsNeverRan(t *testing.T) {
	store := newFakeStore()
	store.entries["x"] = agedEntry(time.Hour, 0)

	svc := NewService(store, &scriptedRecorder{}, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	health, err := sched.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if health.Status != "up" {
		t.Fatalf("status: got %q, want up", health.Status)
	}
	if health.EverRan {
		t.Fatal("expected ever_ran=false before first tick")
	}
	if health.Pending != 1 {
		t.Fatalf("pending: got %d, want 1", health.Pending)
	}
}

func TestHealthAfterTick(t *testing.T) {
	store := newFakeStore()
	e := agedEntry(time.Hour, 0)
	store.entries[e.ID.String()] = e

	svc := NewService(store, &scriptedRecorder{recorded: true}, nil, nil, nil)
	sched := NewScheduler(svc, schedulerConfig(), nil, nil)

	sched.tick(context.Background())

	health, err := sched.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !health.EverRan || health.LastTickAt == nil || health.LastTick == nil {
		t.Fatalf("expected tick bookkeeping, got %+v", health)
	}
	if health.LastTick.Resolved != 1 {
		t.Fatalf("last tick: %+v", health.LastTick)
	}
	if health.Pending != 0 {
		t.Fatalf("pending after resolve: got %d", health.Pending)
	}
}

func TestStartDisabledReturnsImmediately(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &scriptedRecorder{}, nil, nil, nil)

	cfg := schedulerConfig()
	cfg.Enabled = false
	sched := NewScheduler(svc, cfg, nil, nil)

	ctx := context.Background()
	sched.Start(ctx)
	sched.Stop(ctx)

	if store.listCalls != 0 {
		t.Fatal("disabled scheduler must not touch the store")
	}
}
