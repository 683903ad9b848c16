package ledger_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dispatch"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	ledgerstore "github.com/xraph/ledger/store"
	"github.com/xraph/ledger/store/memory"
	"github.com/xraph/ledger/workspace"
)

func ctx() context.Context { return context.Background() }

func newLedger(t *testing.T, opts ...ledger.Option) (*ledger.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	opts = append([]ledger.Option{
		ledger.WithStore(store),
		ledger.WithScheduler(false),
	}, opts...)
	l, err := ledger.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Workspaces().Ensure(ctx(), workspace.Input{ID: "acme", Name: "Acme"}); err != nil {
		t.Fatal(err)
	}
	return l, store
}

func prMerged() event.RecordInput {
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
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := ledger.New(); !errors.Is(err, ledger.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestRecordWritesRow(t *testing.T) {
	l, store := newLedger(t)

	recorded, err := l.Record(ctx(), prMerged())
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Fatal("expected recorded=true")
	}

	evt, err := store.GetEventByKey(ctx(), "pr.merged:42:1705314600000")
	if err != nil {
		t.Fatal(err)
	}
	if evt.Type != event.TypePullRequestMerged {
		t.Fatalf("type: got %q", evt.Type)
	}
	if evt.WorkspaceID != "acme" {
		t.Fatalf("workspace: got %q", evt.WorkspaceID)
	}
	if evt.XP != 25 {
		t.Fatalf("xp: got %v", evt.XP)
	}
	if evt.SchemaVersion != event.SchemaVersion {
		t.Fatalf("schema version: got %d", evt.SchemaVersion)
	}
	if evt.ID.IsNil() {
		t.Fatal("expected an assigned event ID")
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	l, store := newLedger(t)

	in := prMerged()
	for i := 0; i < 3; i++ {
		recorded, err := l.Record(ctx(), in)
		if err != nil {
			t.Fatal(err)
		}
		if want := i == 0; recorded != want {
			t.Fatalf("call %d: recorded=%v, want %v", i, recorded, want)
		}
	}

	count, err := store.CountEvents(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestRecordDistinctTimestampsAreDistinctFacts(t *testing.T) {
	l, store := newLedger(t)

	a := prMerged()
	b := prMerged()
	b.OccurredAt = a.OccurredAt.Add(time.Millisecond)

	if _, err := l.Record(ctx(), a); err != nil {
		t.Fatal(err)
	}
	recorded, err := l.Record(ctx(), b)
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Fatal("one millisecond apart must be a distinct fact")
	}

	count, _ := store.CountEvents(ctx())
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
}

func TestRecordNormalizesXP(t *testing.T) {
	l, store := newLedger(t)

	in := prMerged()
	in.XP = 2.555
	if _, err := l.Record(ctx(), in); err != nil {
		t.Fatal(err)
	}

	evt, err := store.GetEventByKey(ctx(), in.Key())
	if err != nil {
		t.Fatal(err)
	}
	if evt.XP != 2.56 {
		t.Fatalf("xp: got %v, want 2.56", evt.XP)
	}

	in2 := prMerged()
	in2.TargetID = "43"
	in2.XP = -10
	if _, err := l.Record(ctx(), in2); err != nil {
		t.Fatal(err)
	}
	evt2, _ := store.GetEventByKey(ctx(), in2.Key())
	if evt2.XP != 0 {
		t.Fatalf("negative xp: got %v, want 0", evt2.XP)
	}
}

func TestRecordUnknownWorkspaceIsSilentNoOp(t *testing.T) {
	l, store := newLedger(t)

	in := prMerged()
	in.WorkspaceID = "ghost"

	recorded, err := l.Record(ctx(), in)
	if err != nil {
		t.Fatal(err)
	}
	if recorded {
		t.Fatal("unknown workspace must not record")
	}

	count, _ := store.CountEvents(ctx())
	if count != 0 {
		t.Fatalf("expected 0 rows, got %d", count)
	}
}

func TestRecordUnknownTypeIsRejected(t *testing.T) {
	l, _ := newLedger(t)

	in := prMerged()
	in.Type = "meeting.attended"

	if _, err := l.Record(ctx(), in); !errors.Is(err, ledger.ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestRecordValidatesRegisteredSchema(t *testing.T) {
	l, _ := newLedger(t)

	schema := map[string]any{
		"type":     "object",
		"required": []any{"branch"},
		"properties": map[string]any{
			"branch": map[string]any{"type": "string"},
		},
	}
	if err := l.RegisterPayloadSchema(event.TypePullRequestMerged, schema); err != nil {
		t.Fatal(err)
	}

	in := prMerged()
	in.Payload = map[string]any{"number": 42.0}
	if _, err := l.Record(ctx(), in); !errors.Is(err, ledger.ErrPayloadValidationFailed) {
		t.Fatalf("expected ErrPayloadValidationFailed, got %v", err)
	}

	in.Payload = map[string]any{"branch": "main"}
	recorded, err := l.Record(ctx(), in)
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Fatal("valid payload must record")
	}
}

func TestRecordPublishesSavedSignal(t *testing.T) {
	l, _ := newLedger(t)

	var got atomic.Pointer[dispatch.Signal]
	l.Subscribe(func(_ context.Context, sig dispatch.Signal) {
		got.Store(&sig)
	})
	l.Start(ctx())
	defer l.Stop(ctx())

	if _, err := l.Record(ctx(), prMerged()); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for got.Load() == nil {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for saved-event signal")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sig := got.Load()
	if sig.Key != "pr.merged:42:1705314600000" {
		t.Fatalf("signal key: got %q", sig.Key)
	}
	if sig.Trigger != event.TriggerWebhook {
		t.Fatalf("signal trigger: got %q", sig.Trigger)
	}

	// A duplicate write must not fire a second signal.
	got.Store(nil)
	if _, err := l.Record(ctx(), prMerged()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if got.Load() != nil {
		t.Fatal("duplicate write fired a saved-event signal")
	}
}

// failingStore wraps a Store and fails InsertEvent on demand.
type failingStore struct {
	ledgerstore.Store
	insertErr error
}

func (f *failingStore) InsertEvent(ctx context.Context, evt *event.Event) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Store.InsertEvent(ctx, evt)
}

func TestRecordOrCaptureRoutesStoreFailures(t *testing.T) {
	mem := memory.New()
	failing := &failingStore{Store: mem, insertErr: errors.New("disk full")}

	l, err := ledger.New(ledger.WithStore(failing), ledger.WithScheduler(false))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Workspaces().Ensure(ctx(), workspace.Input{ID: "acme"}); err != nil {
		t.Fatal(err)
	}

	recorded, entry, err := l.RecordOrCapture(ctx(), prMerged(), event.TriggerWebhook)
	if err == nil {
		t.Fatal("expected the original error to surface")
	}
	if recorded {
		t.Fatal("expected recorded=false")
	}
	if entry == nil {
		t.Fatal("expected a captured dead letter")
	}
	if entry.Status != dlq.StatusPending {
		t.Fatalf("status: got %q", entry.Status)
	}
	if entry.ErrorMessage == "" {
		t.Fatal("expected error message on entry")
	}

	// The store heals; retrying the dead letter lands the event.
	failing.insertErr = nil
	result, err := l.DeadLetters().Retry(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Resolved || result.Duplicate {
		t.Fatalf("retry result: %+v", result)
	}

	evt, err := mem.GetEventByKey(ctx(), prMerged().Key())
	if err != nil {
		t.Fatal(err)
	}
	if evt.XP != 25 {
		t.Fatalf("replayed xp: got %v", evt.XP)
	}
}

func TestRecordOrCaptureSkipsValidationFailures(t *testing.T) {
	l, _ := newLedger(t)

	in := prMerged()
	in.Type = "meeting.attended"

	_, entry, err := l.RecordOrCapture(ctx(), in, event.TriggerWebhook)
	if !errors.Is(err, ledger.ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
	if entry != nil {
		t.Fatal("unknown type must not be captured")
	}

	entries, listErr := l.DeadLetters().List(ctx(), dlq.ListOpts{Limit: 10})
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty queue, got %d entries", len(entries))
	}
}
