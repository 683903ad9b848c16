package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/internal/entity"
	"github.com/xraph/ledger/workspace"
)

// --- Event models ---

type eventModel struct {
	grove.BaseModel `grove:"table:ledger_events"`

	ID            string    `grove:"id,pk"`
	EventKey      string    `grove:"event_key,unique"`
	Type          string    `grove:"type"`
	OccurredAt    time.Time `grove:"occurred_at"`
	WorkspaceID   string    `grove:"workspace_id"`
	Actor         string    `grove:"actor"`
	Repository    string    `grove:"repository"`
	TargetType    string    `grove:"target_type"`
	TargetID      string    `grove:"target_id"`
	XP            float64   `grove:"xp"`
	Source        string    `grove:"source"`
	Payload       string    `grove:"payload"` // JSON text
	SchemaVersion int       `grove:"schema_version"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toEventModel(evt *event.Event) *eventModel {
	payload, _ := json.Marshal(evt.Payload) //nolint:errcheck // best-effort serialization
	return &eventModel{
		ID:            evt.ID.String(),
		EventKey:      evt.Key,
		Type:          string(evt.Type),
		OccurredAt:    evt.OccurredAt,
		WorkspaceID:   evt.WorkspaceID,
		Actor:         evt.Actor,
		Repository:    evt.Repository,
		TargetType:    evt.TargetType,
		TargetID:      evt.TargetID,
		XP:            evt.XP,
		Source:        string(evt.Source),
		Payload:       string(payload),
		SchemaVersion: evt.SchemaVersion,
		CreatedAt:     evt.CreatedAt,
		UpdatedAt:     evt.UpdatedAt,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse event ID %q: %w", m.ID, err)
	}

	var payload map[string]any
	if m.Payload != "" && m.Payload != "null" {
		_ = json.Unmarshal([]byte(m.Payload), &payload) //nolint:errcheck // best-effort
	}

	return &event.Event{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            evtID,
		Key:           m.EventKey,
		Type:          event.Type(m.Type),
		OccurredAt:    m.OccurredAt,
		WorkspaceID:   m.WorkspaceID,
		Actor:         m.Actor,
		Repository:    m.Repository,
		TargetType:    m.TargetType,
		TargetID:      m.TargetID,
		XP:            m.XP,
		Source:        event.Source(m.Source),
		Payload:       payload,
		SchemaVersion: m.SchemaVersion,
	}, nil
}

// --- Dead letter models ---

type deadLetterModel struct {
	grove.BaseModel `grove:"table:ledger_dead_letters"`

	ID              string     `grove:"id,pk"`
	WorkspaceID     string     `grove:"workspace_id"`
	EventType       string     `grove:"event_type"`
	OccurredAt      time.Time  `grove:"occurred_at"`
	Actor           string     `grove:"actor"`
	Repository      string     `grove:"repository"`
	TargetType      string     `grove:"target_type"`
	TargetID        string     `grove:"target_id"`
	XP              float64    `grove:"xp"`
	Source          string     `grove:"source"`
	Payload         string     `grove:"payload"` // JSON text
	Trigger         string     `grove:"trigger_source"`
	ErrorMessage    string     `grove:"error_message"`
	ErrorType       string     `grove:"error_type"`
	Status          string     `grove:"status"`
	RetryCount      int        `grove:"retry_count"`
	ResolvedAt      *time.Time `grove:"resolved_at"`
	ResolutionNotes string     `grove:"resolution_notes"`
	CreatedAt       time.Time  `grove:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"`
}

func toDeadLetterModel(e *dlq.Entry) *deadLetterModel {
	payload, _ := json.Marshal(e.Payload) //nolint:errcheck // best-effort serialization
	return &deadLetterModel{
		ID:              e.ID.String(),
		WorkspaceID:     e.WorkspaceID,
		EventType:       string(e.EventType),
		OccurredAt:      e.OccurredAt,
		Actor:           e.Actor,
		Repository:      e.Repository,
		TargetType:      e.TargetType,
		TargetID:        e.TargetID,
		XP:              e.XP,
		Source:          string(e.Source),
		Payload:         string(payload),
		Trigger:         e.Trigger,
		ErrorMessage:    e.ErrorMessage,
		ErrorType:       e.ErrorType,
		Status:          string(e.Status),
		RetryCount:      e.RetryCount,
		ResolvedAt:      e.ResolvedAt,
		ResolutionNotes: e.ResolutionNotes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func fromDeadLetterModel(m *deadLetterModel) (*dlq.Entry, error) {
	dlID, err := id.ParseDeadLetterID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse dead letter ID %q: %w", m.ID, err)
	}

	var payload map[string]any
	if m.Payload != "" && m.Payload != "null" {
		_ = json.Unmarshal([]byte(m.Payload), &payload) //nolint:errcheck // best-effort
	}

	return &dlq.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              dlID,
		WorkspaceID:     m.WorkspaceID,
		EventType:       event.Type(m.EventType),
		OccurredAt:      m.OccurredAt,
		Actor:           m.Actor,
		Repository:      m.Repository,
		TargetType:      m.TargetType,
		TargetID:        m.TargetID,
		XP:              m.XP,
		Source:          event.Source(m.Source),
		Payload:         payload,
		Trigger:         m.Trigger,
		ErrorMessage:    m.ErrorMessage,
		ErrorType:       m.ErrorType,
		Status:          dlq.Status(m.Status),
		RetryCount:      m.RetryCount,
		ResolvedAt:      m.ResolvedAt,
		ResolutionNotes: m.ResolutionNotes,
	}, nil
}

// --- Workspace models ---

type workspaceModel struct {
	grove.BaseModel `grove:"table:ledger_workspaces"`

	ID        string    `grove:"id,pk"`
	Name      string    `grove:"name"`
	Metadata  string    `grove:"metadata"` // JSON object
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toWorkspaceModel(ws *workspace.Workspace) *workspaceModel {
	metadata, _ := json.Marshal(ws.Metadata) //nolint:errcheck // best-effort
	return &workspaceModel{
		ID:        ws.ID,
		Name:      ws.Name,
		Metadata:  string(metadata),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

func fromWorkspaceModel(m *workspaceModel) *workspace.Workspace {
	var metadata map[string]string
	if m.Metadata != "" && m.Metadata != "null" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata) //nolint:errcheck // best-effort
	}

	return &workspace.Workspace{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       m.ID,
		Name:     m.Name,
		Metadata: metadata,
	}
}
