package mongo

import (
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

	ID            string         `grove:"id,pk"          bson:"_id"`
	EventKey      string         `grove:"event_key"      bson:"event_key"`
	Type          string         `grove:"type"           bson:"type"`
	OccurredAt    time.Time      `grove:"occurred_at"    bson:"occurred_at"`
	WorkspaceID   string         `grove:"workspace_id"   bson:"workspace_id"`
	Actor         string         `grove:"actor"          bson:"actor,omitempty"`
	Repository    string         `grove:"repository"     bson:"repository,omitempty"`
	TargetType    string         `grove:"target_type"    bson:"target_type"`
	TargetID      string         `grove:"target_id"      bson:"target_id"`
	XP            float64        `grove:"xp"             bson:"xp"`
	Source        string         `grove:"source"         bson:"source"`
	Payload       map[string]any `grove:"payload"        bson:"payload,omitempty"`
	SchemaVersion int            `grove:"schema_version" bson:"schema_version"`
	CreatedAt     time.Time      `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time      `grove:"updated_at"     bson:"updated_at"`
}

func toEventModel(evt *event.Event) *eventModel {
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
		Payload:       evt.Payload,
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
		Payload:       m.Payload,
		SchemaVersion: m.SchemaVersion,
	}, nil
}

// --- Dead letter models ---

type deadLetterModel struct {
	grove.BaseModel `grove:"table:ledger_dead_letters"`

	ID              string         `grove:"id,pk"            bson:"_id"`
	WorkspaceID     string         `grove:"workspace_id"     bson:"workspace_id"`
	EventType       string         `grove:"event_type"       bson:"event_type"`
	OccurredAt      time.Time      `grove:"occurred_at"      bson:"occurred_at"`
	Actor           string         `grove:"actor"            bson:"actor,omitempty"`
	Repository      string         `grove:"repository"       bson:"repository,omitempty"`
	TargetType      string         `grove:"target_type"      bson:"target_type"`
	TargetID        string         `grove:"target_id"        bson:"target_id"`
	XP              float64        `grove:"xp"               bson:"xp"`
	Source          string         `grove:"source"           bson:"source"`
	Payload         map[string]any `grove:"payload"          bson:"payload,omitempty"`
	Trigger         string         `grove:"trigger_source"   bson:"trigger_source"`
	ErrorMessage    string         `grove:"error_message"    bson:"error_message"`
	ErrorType       string         `grove:"error_type"       bson:"error_type,omitempty"`
	Status          string         `grove:"status"           bson:"status"`
	RetryCount      int            `grove:"retry_count"      bson:"retry_count"`
	ResolvedAt      *time.Time     `grove:"resolved_at"      bson:"resolved_at,omitempty"`
	ResolutionNotes string         `grove:"resolution_notes" bson:"resolution_notes,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"       bson:"updated_at"`
}

func toDeadLetterModel(e *dlq.Entry) *deadLetterModel {
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
		Payload:         e.Payload,
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
		Payload:         m.Payload,
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

	ID        string            `grove:"id,pk"      bson:"_id"`
	Name      string            `grove:"name"       bson:"name,omitempty"`
	Metadata  map[string]string `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at" bson:"updated_at"`
}

func toWorkspaceModel(ws *workspace.Workspace) *workspaceModel {
	return &workspaceModel{
		ID:        ws.ID,
		Name:      ws.Name,
		Metadata:  ws.Metadata,
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

func fromWorkspaceModel(m *workspaceModel) *workspace.Workspace {
	return &workspace.Workspace{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       m.ID,
		Name:     m.Name,
		Metadata: m.Metadata,
	}
}
