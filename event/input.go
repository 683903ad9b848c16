package event

import "time"

// RecordInput carries the caller-supplied arguments of one recorder call.
// It is also what a dead letter stores to replay the call later.
type RecordInput struct {
	// WorkspaceID is the owning tenant. Required.
	WorkspaceID string `json:"workspace_id"`

	// Type is the activity kind. Must be a registered Type.
	Type Type `json:"type"`

	// OccurredAt is when the real-world action happened.
	OccurredAt time.Time `json:"occurred_at"`

	// Actor is the acting identity. Empty for system-generated events.
	Actor string `json:"actor,omitempty"`

	// Repository is an optional context reference.
	Repository string `json:"repository,omitempty"`

	// TargetType and TargetID identify the domain object the event is about.
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`

	// XP is the raw score value. Normalized by the recorder before writing.
	XP float64 `json:"xp"`

	// Source tags the provenance of the event.
	Source Source `json:"source"`

	// Payload holds optional open-ended attributes.
	Payload map[string]any `json:"payload,omitempty"`
}

// Key derives the idempotency key this input would produce.
func (in RecordInput) Key() string {
	return Key(in.Type, in.TargetID, in.OccurredAt)
}
