package api

import (
	"time"

	"github.com/xraph/ledger/dlq"
)

// ---------------------------------------------------------------------------
// Workspace requests
// ---------------------------------------------------------------------------

// EnsureWorkspaceForgeRequest binds the body for POST /workspaces.
type EnsureWorkspaceForgeRequest struct {
	ID       string            `description:"Workspace identifier"          json:"id"`
	Name     string            `description:"Display name"                  json:"name,omitempty"`
	Metadata map[string]string `description:"Arbitrary key-value metadata"  json:"metadata,omitempty"`
}

// ListWorkspacesForgeRequest binds query parameters for GET /workspaces.
type ListWorkspacesForgeRequest struct {
	Offset int `description:"Pagination offset"       query:"offset"`
	Limit  int `description:"Page size (default 50)"  query:"limit"`
}

// GetWorkspaceForgeRequest binds the path for GET /workspaces/:workspaceId.
type GetWorkspaceForgeRequest struct {
	WorkspaceID string `description:"Workspace identifier" path:"workspaceId"`
}

// ---------------------------------------------------------------------------
// Event requests
// ---------------------------------------------------------------------------

// RecordEventForgeRequest binds the body for POST /events.
type RecordEventForgeRequest struct {
	WorkspaceID string         `description:"Owning workspace"                 json:"workspace_id"`
	Type        string         `description:"Activity type (e.g. pr.merged)"   json:"type"`
	OccurredAt  time.Time      `description:"When the activity happened"       json:"occurred_at"`
	Actor       string         `description:"Acting identity"                  json:"actor,omitempty"`
	Repository  string         `description:"Repository context"               json:"repository,omitempty"`
	TargetType  string         `description:"Target object kind"               json:"target_type"`
	TargetID    string         `description:"Target object identifier"         json:"target_id"`
	XP          float64        `description:"Raw score value"                  json:"xp"`
	Source      string         `description:"Provenance tag"                   json:"source,omitempty"`
	Payload     map[string]any `description:"Open-ended payload attributes"    json:"payload,omitempty"`
}

// RecordEventForgeResponse is the response for POST /events.
type RecordEventForgeResponse struct {
	Recorded bool   `description:"True when a new ledger row was written" json:"recorded"`
	Key      string `description:"Derived idempotency key"                json:"key"`
}

// ListEventsForgeRequest binds query parameters for GET /events.
type ListEventsForgeRequest struct {
	Type        string `description:"Filter by activity type"  query:"type"`
	WorkspaceID string `description:"Filter by workspace"      query:"workspace_id"`
	From        string `description:"Range start (RFC3339)"    query:"from"`
	To          string `description:"Range end (RFC3339)"      query:"to"`
	Offset      int    `description:"Pagination offset"        query:"offset"`
	Limit       int    `description:"Page size (default 50)"   query:"limit"`
}

// GetEventForgeRequest binds the path for GET /events/:eventId.
type GetEventForgeRequest struct {
	EventID string `description:"Event identifier" path:"eventId"`
}

// ---------------------------------------------------------------------------
// Dead letter requests
// ---------------------------------------------------------------------------

// ListDeadLettersForgeRequest binds query parameters for GET /dead-letters.
type ListDeadLettersForgeRequest struct {
	WorkspaceID string `description:"Filter by workspace"            query:"workspace_id"`
	EventType   string `description:"Filter by activity type"        query:"event_type"`
	Status      string `description:"Filter by status"               query:"status"`
	Offset      int    `description:"Pagination offset"              query:"offset"`
	Limit       int    `description:"Page size (default 50)"         query:"limit"`
}

// DeadLetterActionForgeRequest binds the path for get/retry.
type DeadLetterActionForgeRequest struct {
	DeadLetterID string `description:"Dead letter identifier" path:"deadLetterId"`
}

// DiscardDeadLetterForgeRequest binds path + body for POST /dead-letters/:deadLetterId/discard.
type DiscardDeadLetterForgeRequest struct {
	DeadLetterID string `description:"Dead letter identifier"  path:"deadLetterId"`
	Notes        string `description:"Resolution notes"        json:"notes,omitempty"`
}

// ---------------------------------------------------------------------------
// Stats and health requests
// ---------------------------------------------------------------------------

// StatsForgeRequest is empty — GET /stats has no parameters.
type StatsForgeRequest struct{}

// StatsForgeResponse is the response for GET /stats.
type StatsForgeResponse struct {
	EventsTotal int64      `json:"events_total"`
	DeadLetters *dlq.Stats `json:"dead_letters"`
}

// HealthForgeRequest is empty — GET /health has no parameters.
type HealthForgeRequest struct{}

// HealthForgeResponse is the response for GET /health.
type HealthForgeResponse struct {
	Status    string      `json:"status"`
	Scheduler *dlq.Health `json:"scheduler"`
}
