package event_test

import (
	"testing"
	"time"

	"github.com/xraph/ledger/event"
)

func TestKeyFormat(t *testing.T) {
	occurredAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	got := event.Key(event.TypePullRequestOpened, "42", occurredAt)
	want := "pr.opened:42:1705314600000"
	if got != want {
		t.Fatalf("key: got %q, want %q", got, want)
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	occurredAt := time.Now().UTC()

	a := event.Key(event.TypeReviewApproved, "rev-9", occurredAt)
	b := event.Key(event.TypeReviewApproved, "rev-9", occurredAt)
	if a != b {
		t.Fatalf("same fact produced different keys: %q vs %q", a, b)
	}

	c := event.Key(event.TypeReviewApproved, "rev-9", occurredAt.Add(time.Millisecond))
	if a == c {
		t.Fatal("distinct timestamps must not collide on the key")
	}
}

func TestNormalizeXP(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"negative clamps to zero", -50.0, 0},
		{"zero stays zero", 0, 0},
		{"high precision truncates", 3.14159, 3.14},
		{"half rounds up", 2.555, 2.56},
		{"half rounds up again", 0.125, 0.13},
		{"two decimals untouched", 10.25, 10.25},
		{"integer untouched", 15, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := event.NormalizeXP(tt.in); got != tt.want {
				t.Fatalf("NormalizeXP(%v): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range event.Types() {
		if !typ.Valid() {
			t.Fatalf("registered type %q reported invalid", typ)
		}
	}

	if event.Type("pr.sharpened").Valid() {
		t.Fatal("unknown type reported valid")
	}
	if event.Type("").Valid() {
		t.Fatal("empty type reported valid")
	}
}

func TestRecordInputKey(t *testing.T) {
	occurredAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	in := event.RecordInput{
		WorkspaceID: "acme",
		Type:        event.TypeCommentCreated,
		OccurredAt:  occurredAt,
		TargetType:  "comment",
		TargetID:    "c-77",
	}

	if got, want := in.Key(), event.Key(event.TypeCommentCreated, "c-77", occurredAt); got != want {
		t.Fatalf("input key: got %q, want %q", got, want)
	}
}

func TestValidatorAcceptsMatchingPayload(t *testing.T) {
	v := event.NewValidator()
	schema := map[string]any{
		"type":     "object",
		"required": []any{"pr_number"},
		"properties": map[string]any{
			"pr_number": map[string]any{"type": "number"},
		},
	}

	if err := v.Validate(schema, map[string]any{"pr_number": 42.0}); err != nil {
		t.Fatalf("expected payload to validate: %v", err)
	}

	if err := v.Validate(schema, map[string]any{"title": "no pr number"}); err == nil {
		t.Fatal("expected payload missing required field to fail validation")
	}
}

func TestValidatorNilSchemaSkips(t *testing.T) {
	v := event.NewValidator()
	if err := v.Validate(nil, map[string]any{"anything": true}); err != nil {
		t.Fatalf("nil schema must skip validation: %v", err)
	}
}
