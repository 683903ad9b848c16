package dlq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/store/memory"
)

func ctx() context.Context { return context.Background() }

// stubRecorder scripts the outcome of replay calls.
type stubRecorder struct {
	recorded bool
	err      error
	calls    int
	lastIn   event.RecordInput
	trigger  string
}

func (r *stubRecorder) RecordWithTrigger(_ context.Context, in event.RecordInput, trigger string) (bool, error) {
	r.calls++
	r.lastIn = in
	r.trigger = trigger
	return r.recorded, r.err
}

func testInput() event.RecordInput {
	return event.RecordInput{
		WorkspaceID: "acme",
		Type:        event.TypePullRequestMerged,
		OccurredAt:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Actor:       "octocat",
		Repository:  "acme/widgets",
		TargetType:  "pull_request",
		TargetID:    "42",
		XP:          25,
		Source:      event.SourceGitHub,
		Payload:     map[string]any{"branch": "main"},
	}
}

func newService(rec *stubRecorder) (*dlq.Service, *memory.Store) {
	store := memory.New()
	svc := dlq.NewService(store, rec, nil, nil, nil)
	return svc, store
}

func TestCapture(t *testing.T) {
	svc, store := newService(&stubRecorder{})

	entry, err := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("connection refused"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.GetDeadLetter(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != dlq.StatusPending {
		t.Fatalf("status: got %q, want %q", got.Status, dlq.StatusPending)
	}
	if got.WorkspaceID != "acme" {
		t.Fatalf("workspace: got %q, want %q", got.WorkspaceID, "acme")
	}
	if got.EventType != event.TypePullRequestMerged {
		t.Fatalf("event type: got %q", got.EventType)
	}
	if got.ErrorMessage != "connection refused" {
		t.Fatalf("error message: got %q", got.ErrorMessage)
	}
	if got.Trigger != event.TriggerWebhook {
		t.Fatalf("trigger: got %q", got.Trigger)
	}
	if got.RetryCount != 0 {
		t.Fatalf("retry count: got %d, want 0", got.RetryCount)
	}
}

func TestCaptureRequiresCause(t *testing.T) {
	svc, _ := newService(&stubRecorder{})

	if _, err := svc.Capture(ctx(), testInput(), event.TriggerWebhook, nil); err == nil {
		t.Fatal("expected error for nil cause")
	}
}

func TestCapturePreservesInput(t *testing.T) {
	svc, _ := newService(&stubRecorder{})

	in := testInput()
	entry, err := svc.Capture(ctx(), in, event.TriggerBackfill, errors.New("boom"))
	if err != nil {
		t.Fatal(err)
	}

	// Input() must round-trip every field needed to replay the call.
	got := entry.Input()
	if got.WorkspaceID != in.WorkspaceID || got.Type != in.Type ||
		!got.OccurredAt.Equal(in.OccurredAt) || got.Actor != in.Actor ||
		got.Repository != in.Repository || got.TargetType != in.TargetType ||
		got.TargetID != in.TargetID || got.XP != in.XP || got.Source != in.Source {
		t.Fatalf("reconstructed input differs: got %+v, want %+v", got, in)
	}
	if got.Key() != in.Key() {
		t.Fatalf("key drifted: got %q, want %q", got.Key(), in.Key())
	}
}

func TestRetryResolvesOnSuccess(t *testing.T) {
	rec := &stubRecorder{recorded: true}
	svc, store := newService(rec)

	entry, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom"))

	result, err := svc.Retry(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Resolved {
		t.Fatal("expected resolved")
	}
	if result.Duplicate {
		t.Fatal("expected non-duplicate")
	}
	if rec.trigger != event.TriggerRetry {
		t.Fatalf("trigger: got %q, want %q", rec.trigger, event.TriggerRetry)
	}

	got, _ := store.GetDeadLetter(ctx(), entry.ID)
	if got.Status != dlq.StatusResolved {
		t.Fatalf("status: got %q, want resolved", got.Status)
	}
	if got.ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set")
	}
	if got.RetryCount != 0 {
		t.Fatalf("successful retry mutated retry count: got %d, want 0", got.RetryCount)
	}
}

func TestRetryCountTracksFailuresOnly(t *testing.T) {
	rec := &stubRecorder{err: errors.New("still down")}
	svc, store := newService(rec)

	entry, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom"))

	// One failed attempt bumps the count.
	if _, err := svc.Retry(ctx(), entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetDeadLetter(ctx(), entry.ID)
	if got.RetryCount != 1 {
		t.Fatalf("retry count after failure: got %d, want 1", got.RetryCount)
	}

	// The attempt that lands resolves without touching the count.
	rec.err = nil
	rec.recorded = true
	result, err := svc.Retry(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Resolved {
		t.Fatal("expected resolved")
	}
	got, _ = store.GetDeadLetter(ctx(), entry.ID)
	if got.RetryCount != 1 {
		t.Fatalf("retry count after success: got %d, want 1", got.RetryCount)
	}
}

func TestRetryResolvesOnDuplicate(t *testing.T) {
	// Recorder reports the event already exists: still terminal.
	rec := &stubRecorder{recorded: false}
	svc, store := newService(rec)

	entry, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom"))

	result, err := svc.Retry(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Resolved {
		t.Fatal("expected resolved")
	}
	if !result.Duplicate {
		t.Fatal("expected duplicate flag")
	}

	got, _ := store.GetDeadLetter(ctx(), entry.ID)
	if got.Status != dlq.StatusResolved {
		t.Fatalf("status: got %q, want resolved", got.Status)
	}
}

func TestRetryFailureStaysPending(t *testing.T) {
	rec := &stubRecorder{err: errors.New("still down")}
	svc, store := newService(rec)

	entry, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom"))

	result, err := svc.Retry(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved {
		t.Fatal("expected unresolved")
	}
	if result.Message == "" {
		t.Fatal("expected failure message")
	}

	got, _ := store.GetDeadLetter(ctx(), entry.ID)
	if got.Status != dlq.StatusPending {
		t.Fatalf("status: got %q, want pending", got.Status)
	}
	if got.RetryCount != 1 {
		t.Fatalf("retry count: got %d, want 1", got.RetryCount)
	}
	if got.ErrorMessage != "still down" {
		t.Fatalf("error message: got %q", got.ErrorMessage)
	}

	// A second failing retry keeps incrementing.
	if _, err := svc.Retry(ctx(), entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetDeadLetter(ctx(), entry.ID)
	if got.RetryCount != 2 {
		t.Fatalf("retry count after second attempt: got %d, want 2", got.RetryCount)
	}
}

func TestRetryNonPendingRejectedWithoutMutation(t *testing.T) {
	rec := &stubRecorder{recorded: true}
	svc, store := newService(rec)

	entry, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom"))
	if _, err := svc.Retry(ctx(), entry.ID); err != nil {
		t.Fatal(err)
	}
	callsAfterResolve := rec.calls

	result, err := svc.Retry(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolved {
		t.Fatal("retrying a resolved entry must not report resolved")
	}
	if result.Message == "" {
		t.Fatal("expected rejection message")
	}
	if rec.calls != callsAfterResolve {
		t.Fatal("retrying a resolved entry must not hit the recorder")
	}

	got, _ := store.GetDeadLetter(ctx(), entry.ID)
	if got.RetryCount != 0 {
		t.Fatalf("retry count mutated: got %d, want 0", got.RetryCount)
	}
}

func TestRetryNotFound(t *testing.T) {
	svc, _ := newService(&stubRecorder{})

	if _, err := svc.Retry(ctx(), id.NewDeadLetterID()); !errors.Is(err, ledger.ErrDeadLetterNotFound) {
		t.Fatalf("expected ErrDeadLetterNotFound, got %v", err)
	}
}

func TestDiscard(t *testing.T) {
	svc, store := newService(&stubRecorder{})

	entry, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom"))

	discarded, err := svc.Discard(ctx(), entry.ID, "payload is garbage")
	if err != nil {
		t.Fatal(err)
	}
	if discarded.Status != dlq.StatusDiscarded {
		t.Fatalf("status: got %q, want discarded", discarded.Status)
	}
	if discarded.ResolutionNotes != "payload is garbage" {
		t.Fatalf("notes: got %q", discarded.ResolutionNotes)
	}

	// Discarding again is rejected.
	if _, err := svc.Discard(ctx(), entry.ID, "again"); err == nil {
		t.Fatal("expected error discarding a discarded entry")
	}

	got, _ := store.GetDeadLetter(ctx(), entry.ID)
	if got.ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set")
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := newService(&stubRecorder{})

	inA := testInput()
	inB := testInput()
	inB.WorkspaceID = "globex"
	inB.Type = event.TypeIssueOpened

	if _, err := svc.Capture(ctx(), inA, event.TriggerWebhook, errors.New("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Capture(ctx(), inB, event.TriggerWebhook, errors.New("b")); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.List(ctx(), dlq.ListOpts{WorkspaceID: "globex", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].WorkspaceID != "globex" {
		t.Fatalf("workspace filter: got %d entries", len(entries))
	}

	entries, err = svc.List(ctx(), dlq.ListOpts{EventType: event.TypeIssueOpened, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].EventType != event.TypeIssueOpened {
		t.Fatalf("type filter: got %d entries", len(entries))
	}
}

func TestStats(t *testing.T) {
	rec := &stubRecorder{recorded: true}
	svc, _ := newService(rec)

	e1, _ := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("a"))

	inB := testInput()
	inB.TargetID = "43"
	e2, _ := svc.Capture(ctx(), inB, event.TriggerWebhook, errors.New("b"))

	inC := testInput()
	inC.TargetID = "44"
	if _, err := svc.Capture(ctx(), inC, event.TriggerWebhook, errors.New("c")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Retry(ctx(), e1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Discard(ctx(), e2.ID, "give up"); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pending != 1 || stats.Resolved != 1 || stats.Discarded != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.PendingByType[event.TypePullRequestMerged] != 1 {
		t.Fatalf("pending by type: %+v", stats.PendingByType)
	}
	if stats.OldestPending == nil {
		t.Fatal("expected oldest pending timestamp")
	}
}

func TestFindPendingForRetryOrdersOldestFirst(t *testing.T) {
	svc, store := newService(&stubRecorder{})

	var entries []*dlq.Entry
	for i := range 3 {
		in := testInput()
		in.TargetID = string(rune('a' + i))
		e, err := svc.Capture(ctx(), in, event.TriggerWebhook, errors.New("boom"))
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}

	// Age the entries so they clear any minimum-age cutoff, preserving order.
	base := time.Now().UTC().Add(-time.Hour)
	for i, e := range entries {
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.UpdateDeadLetter(ctx(), e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.FindPendingForRetry(ctx(), 10*time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(got))
	}
	if got[0].ID != entries[0].ID || got[1].ID != entries[1].ID {
		t.Fatal("expected oldest-first ordering")
	}
}

func TestFindPendingForRetryRespectsMinAge(t *testing.T) {
	svc, _ := newService(&stubRecorder{})

	// Fresh capture: younger than the floor, must not be picked up.
	if _, err := svc.Capture(ctx(), testInput(), event.TriggerWebhook, errors.New("boom")); err != nil {
		t.Fatal(err)
	}

	got, err := svc.FindPendingForRetry(ctx(), 10*time.Minute, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty batch, got %d", len(got))
	}
}
