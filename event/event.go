// Package event defines the activity event ledger row and its persistence contract.
//
// An Event is one recorded activity fact (a pull request was merged, a review
// was approved, ...). Rows are append-only: created once by the recorder,
// never mutated or deleted. The Key field is the sole idempotency boundary —
// two calls describing the same real-world fact at the same instant always
// collide on it.
package event

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/internal/entity"
)

// SchemaVersion tags newly written rows with the active write format,
// so a future migration can distinguish old rows from new ones.
const SchemaVersion = 1

// Type is the dot-separated activity kind code (e.g. "pr.opened").
// The code is part of the event key wire format and must never change
// for an existing type.
type Type string

// The closed set of activity types the ledger accepts.
const (
	TypePullRequestOpened      Type = "pr.opened"
	TypePullRequestMerged      Type = "pr.merged"
	TypePullRequestClosed      Type = "pr.closed"
	TypeReviewSubmitted        Type = "review.submitted"
	TypeReviewApproved         Type = "review.approved"
	TypeReviewChangesRequested Type = "review.changes_requested"
	TypeCommentCreated         Type = "comment.created"
	TypeIssueOpened            Type = "issue.opened"
	TypeIssueClosed            Type = "issue.closed"
	TypeCommitPushed           Type = "commit.pushed"
)

// Types returns all registered activity types.
func Types() []Type {
	return []Type{
		TypePullRequestOpened,
		TypePullRequestMerged,
		TypePullRequestClosed,
		TypeReviewSubmitted,
		TypeReviewApproved,
		TypeReviewChangesRequested,
		TypeCommentCreated,
		TypeIssueOpened,
		TypeIssueClosed,
		TypeCommitPushed,
	}
}

// Valid reports whether t is one of the registered activity types.
func (t Type) Valid() bool {
	switch t {
	case TypePullRequestOpened, TypePullRequestMerged, TypePullRequestClosed,
		TypeReviewSubmitted, TypeReviewApproved, TypeReviewChangesRequested,
		TypeCommentCreated, TypeIssueOpened, TypeIssueClosed, TypeCommitPushed:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// Source tags the provenance of a recorded event.
type Source string

// Known provenance tags.
const (
	SourceGitHub   Source = "github"
	SourceSystem   Source = "system"
	SourceBackfill Source = "backfill"
)

// Trigger labels describe which write path produced a recorder call.
// They are carried on saved-event signals and dead letters for audit.
const (
	TriggerWebhook  = "webhook"
	TriggerBackfill = "backfill"
	TriggerRetry    = "dead-letter-retry"
)

// Event is one row of the activity event ledger. Immutable once written.
type Event struct {
	entity.Entity

	// ID is the unique TypeID for this ledger row.
	ID id.ID `json:"id"`

	// Key is the deterministic idempotency key:
	// "<typeCode>:<targetId>:<occurredAt epoch millis>".
	// The store enforces that no two rows share a Key.
	Key string `json:"key"`

	// Type is the activity kind.
	Type Type `json:"type"`

	// OccurredAt is when the real-world action happened, not insertion time.
	OccurredAt time.Time `json:"occurred_at"`

	// WorkspaceID identifies the owning tenant. Always set.
	WorkspaceID string `json:"workspace_id"`

	// Actor is the acting identity. Empty for system-generated events.
	Actor string `json:"actor,omitempty"`

	// Repository is an optional context reference.
	Repository string `json:"repository,omitempty"`

	// TargetType and TargetID identify the domain object the event is about
	// (a review id, a PR id, ...).
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`

	// XP is the normalized score value: non-negative, two decimal places.
	XP float64 `json:"xp"`

	// Source tags the provenance of the event.
	Source Source `json:"source"`

	// Payload holds optional open-ended attributes. Not part of the key.
	Payload map[string]any `json:"payload,omitempty"`

	// SchemaVersion is the write-format version this row was written with.
	SchemaVersion int `json:"schema_version"`
}

// Key derives the idempotency key for an activity fact. The format is
// relied on by callers and tests: "<typeCode>:<targetId>:<epochMillis>",
// e.g. "pr.opened:42:1705316200000".
func Key(t Type, targetID string, occurredAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d", t, targetID, occurredAt.UnixMilli())
}

// NormalizeXP clamps xp to zero and rounds to two decimal places using
// round-half-up (2.555 → 2.56). Callers may pass negative or high-precision
// values; the ledger is the normalization boundary.
func NormalizeXP(xp float64) float64 {
	if xp <= 0 {
		return 0
	}
	// Decimal round over the shortest decimal representation, so 2.555
	// rounds half-up to 2.56 instead of landing on the float64 below it.
	return decimal.NewFromFloat(xp).Round(2).InexactFloat64()
}
