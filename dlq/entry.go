package dlq

import (
	"time"

	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/internal/entity"
)

// Status is the lifecycle state of a dead letter.
type Status string

const (
	// StatusPending means the entry is awaiting retry or operator action.
	StatusPending Status = "pending"

	// StatusResolved means a retry landed the event (or found it already
	// recorded). Terminal.
	StatusResolved Status = "resolved"

	// StatusDiscarded means an operator or the scheduler gave up on the
	// entry. Terminal.
	StatusDiscarded Status = "discarded"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusDiscarded:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusDiscarded
}

// Entry is one failed recording attempt, captured with everything needed to
// replay it later.
type Entry struct {
	entity.Entity

	// ID is the unique TypeID for this dead letter.
	ID id.ID `json:"id"`

	// WorkspaceID is the tenant the failed event belonged to.
	WorkspaceID string `json:"workspace_id"`

	// EventType is the activity kind of the failed event.
	EventType event.Type `json:"event_type"`

	// OccurredAt is the original event timestamp. Together with EventType
	// and TargetID it reproduces the idempotency key on retry.
	OccurredAt time.Time `json:"occurred_at"`

	// Actor is the acting identity from the original call.
	Actor string `json:"actor,omitempty"`

	// Repository is the context reference from the original call.
	Repository string `json:"repository,omitempty"`

	// TargetType and TargetID identify the domain object.
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`

	// XP is the raw score value as originally supplied.
	XP float64 `json:"xp"`

	// Source tags the provenance of the original event.
	Source event.Source `json:"source"`

	// Payload holds the original open-ended attributes.
	Payload map[string]any `json:"payload,omitempty"`

	// Trigger is the path the failed call came in on.
	Trigger string `json:"trigger"`

	// ErrorMessage is the message of the error that caused capture.
	ErrorMessage string `json:"error_message"`

	// ErrorType coarsely classifies the failure for filtering.
	ErrorType string `json:"error_type,omitempty"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// RetryCount is how many retries have been attempted so far.
	RetryCount int `json:"retry_count"`

	// ResolvedAt is set when the entry reaches a terminal status.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	// ResolutionNotes records how the entry was closed out.
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

// Input reconstructs the original recorder arguments from the entry.
func (e *Entry) Input() event.RecordInput {
	return event.RecordInput{
		WorkspaceID: e.WorkspaceID,
		Type:        e.EventType,
		OccurredAt:  e.OccurredAt,
		Actor:       e.Actor,
		Repository:  e.Repository,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		XP:          e.XP,
		Source:      e.Source,
		Payload:     e.Payload,
	}
}

// ListOpts configures filtering and pagination for dead letter listing.
type ListOpts struct {
	Offset      int
	Limit       int
	WorkspaceID string
	EventType   event.Type
	Status      Status
	From        *time.Time
	To          *time.Time
}

// Stats summarizes the dead letter queue for the health surface.
type Stats struct {
	// Pending, Resolved and Discarded count entries per status.
	Pending   int64 `json:"pending"`
	Resolved  int64 `json:"resolved"`
	Discarded int64 `json:"discarded"`

	// PendingByType breaks down pending entries per event type. Types with
	// zero pending entries are omitted.
	PendingByType map[event.Type]int64 `json:"pending_by_type,omitempty"`

	// OldestPending is the capture time of the oldest pending entry, if any.
	OldestPending *time.Time `json:"oldest_pending,omitempty"`
}
