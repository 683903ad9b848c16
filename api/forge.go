package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	"github.com/xraph/ledger/workspace"
)

// ForgeAPI wires all Forge-style HTTP handlers together.
type ForgeAPI struct {
	ledger *ledger.Ledger
	log    forge.Logger
}

// NewForgeAPI creates a ForgeAPI over a Ledger.
func NewForgeAPI(led *ledger.Ledger, log forge.Logger) *ForgeAPI {
	return &ForgeAPI{
		ledger: led,
		log:    log,
	}
}

// RegisterRoutes registers all ledger admin API routes into the given Forge
// router with full OpenAPI metadata.
func (a *ForgeAPI) RegisterRoutes(router forge.Router) {
	a.registerWorkspaceRoutes(router)
	a.registerEventRoutes(router)
	a.registerDeadLetterRoutes(router)
	a.registerStatsRoutes(router)
}

// ---------------------------------------------------------------------------
// Workspace routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerWorkspaceRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("workspaces"))

	if err := g.POST("/workspaces", a.ensureWorkspace,
		forge.WithSummary("Ensure workspace"),
		forge.WithDescription("Creates or updates a workspace. Events for unknown workspaces are silently skipped, so workspaces must be registered before recording."),
		forge.WithOperationID("ensureWorkspace"),
		forge.WithRequestSchema(EnsureWorkspaceForgeRequest{}),
		forge.WithCreatedResponse(workspace.Workspace{}),
		forge.WithErrorResponses(),
	); err != nil {
		// Log the error and continue registering other routes instead of failing completely.
		// This ensures that if one route has an issue, the rest of the API remains available.
		a.log.Error("Failed to register ensureWorkspace route", forge.Error(err))
	}

	if err := g.GET("/workspaces", a.listWorkspacesForge,
		forge.WithSummary("List workspaces"),
		forge.WithDescription("Returns a paginated list of workspaces."),
		forge.WithOperationID("listWorkspaces"),
		forge.WithRequestSchema(ListWorkspacesForgeRequest{}),
		forge.WithListResponse(workspace.Workspace{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listWorkspaces route", forge.Error(err))
	}

	if err := g.GET("/workspaces/:workspaceId", a.getWorkspaceForge,
		forge.WithSummary("Get workspace"),
		forge.WithDescription("Returns details of a specific workspace."),
		forge.WithOperationID("getWorkspace"),
		forge.WithResponseSchema(http.StatusOK, "Workspace details", workspace.Workspace{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getWorkspace route", forge.Error(err))
	}
}

func (a *ForgeAPI) ensureWorkspace(ctx forge.Context, req *EnsureWorkspaceForgeRequest) (*workspace.Workspace, error) {
	if req.ID == "" {
		return nil, forge.BadRequest("id is required")
	}

	ws, err := a.ledger.Workspaces().Ensure(ctx.Context(), workspace.Input{
		ID:       req.ID,
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, mapError(err)
	}

	err = ctx.JSON(http.StatusCreated, ws)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listWorkspacesForge(ctx forge.Context, req *ListWorkspacesForgeRequest) ([]*workspace.Workspace, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	workspaces, err := a.ledger.Workspaces().List(ctx.Context(), workspace.ListOpts{
		Offset: req.Offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return workspaces, nil
}

func (a *ForgeAPI) getWorkspaceForge(ctx forge.Context, req *GetWorkspaceForgeRequest) (*workspace.Workspace, error) {
	ws, err := a.ledger.Workspaces().Get(ctx.Context(), req.WorkspaceID)
	if err != nil {
		return nil, mapError(err)
	}

	return ws, nil
}

// ---------------------------------------------------------------------------
// Event routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEventRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("events"))

	if err := g.POST("/events", a.recordEventForge,
		forge.WithSummary("Record event"),
		forge.WithDescription("Records one activity event. Duplicate facts are idempotent no-ops; persistence failures are captured as dead letters."),
		forge.WithOperationID("recordEvent"),
		forge.WithRequestSchema(RecordEventForgeRequest{}),
		forge.WithCreatedResponse(RecordEventForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register recordEvent route", forge.Error(err))
	}

	if err := g.GET("/events", a.listEventsForge,
		forge.WithSummary("List events"),
		forge.WithDescription("Returns a paginated list of ledger rows, newest first."),
		forge.WithOperationID("listEvents"),
		forge.WithRequestSchema(ListEventsForgeRequest{}),
		forge.WithListResponse(event.Event{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEvents route", forge.Error(err))
	}

	if err := g.GET("/events/:eventId", a.getEventForge,
		forge.WithSummary("Get event"),
		forge.WithDescription("Returns details of a specific ledger row."),
		forge.WithOperationID("getEvent"),
		forge.WithResponseSchema(http.StatusOK, "Event details", event.Event{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getEvent route", forge.Error(err))
	}
}

func (a *ForgeAPI) recordEventForge(ctx forge.Context, req *RecordEventForgeRequest) (*RecordEventForgeResponse, error) {
	if req.WorkspaceID == "" {
		return nil, forge.BadRequest("workspace_id is required")
	}
	if req.Type == "" {
		return nil, forge.BadRequest("type is required")
	}
	if req.OccurredAt.IsZero() {
		return nil, forge.BadRequest("occurred_at is required")
	}

	in := event.RecordInput{
		WorkspaceID: req.WorkspaceID,
		Type:        event.Type(req.Type),
		OccurredAt:  req.OccurredAt,
		Actor:       req.Actor,
		Repository:  req.Repository,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		XP:          req.XP,
		Source:      event.Source(req.Source),
		Payload:     req.Payload,
	}

	recorded, _, err := a.ledger.RecordOrCapture(ctx.Context(), in, event.TriggerWebhook)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &RecordEventForgeResponse{Recorded: recorded, Key: in.Key()}

	status := http.StatusCreated
	if !recorded {
		status = http.StatusOK
	}

	err = ctx.JSON(status, resp)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listEventsForge(ctx forge.Context, req *ListEventsForgeRequest) ([]*event.Event, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := event.ListOpts{
		Offset:      req.Offset,
		Limit:       limit,
		Type:        event.Type(req.Type),
		WorkspaceID: req.WorkspaceID,
	}

	if req.From != "" {
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return nil, forge.BadRequest("invalid 'from' time format (use RFC3339)")
		}
		opts.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return nil, forge.BadRequest("invalid 'to' time format (use RFC3339)")
		}
		opts.To = &to
	}

	events, err := a.ledger.Events(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return events, nil
}

func (a *ForgeAPI) getEventForge(ctx forge.Context, req *GetEventForgeRequest) (*event.Event, error) {
	evtID, err := id.ParseEventID(req.EventID)
	if err != nil {
		return nil, forge.BadRequest("invalid event ID")
	}

	evt, getErr := a.ledger.Event(ctx.Context(), evtID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return evt, nil
}

// ---------------------------------------------------------------------------
// Dead letter routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerDeadLetterRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("dead-letters"))

	if err := g.GET("/dead-letters", a.listDeadLettersForge,
		forge.WithSummary("List dead letters"),
		forge.WithDescription("Returns dead letters, optionally filtered by workspace, type, or status."),
		forge.WithOperationID("listDeadLetters"),
		forge.WithRequestSchema(ListDeadLettersForgeRequest{}),
		forge.WithListResponse(dlq.Entry{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listDeadLetters route", forge.Error(err))
	}

	if err := g.GET("/dead-letters/:deadLetterId", a.getDeadLetterForge,
		forge.WithSummary("Get dead letter"),
		forge.WithDescription("Returns details of a specific dead letter."),
		forge.WithOperationID("getDeadLetter"),
		forge.WithResponseSchema(http.StatusOK, "Dead letter details", dlq.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getDeadLetter route", forge.Error(err))
	}

	if err := g.POST("/dead-letters/:deadLetterId/retry", a.retryDeadLetterForge,
		forge.WithSummary("Retry dead letter"),
		forge.WithDescription("Replays a pending dead letter through the recorder."),
		forge.WithOperationID("retryDeadLetter"),
		forge.WithResponseSchema(http.StatusOK, "Retry outcome", dlq.RetryResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register retryDeadLetter route", forge.Error(err))
	}

	if err := g.POST("/dead-letters/:deadLetterId/discard", a.discardDeadLetterForge,
		forge.WithSummary("Discard dead letter"),
		forge.WithDescription("Marks a pending dead letter as given up on."),
		forge.WithOperationID("discardDeadLetter"),
		forge.WithRequestSchema(DiscardDeadLetterForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Discarded dead letter", dlq.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register discardDeadLetter route", forge.Error(err))
	}
}

func (a *ForgeAPI) listDeadLettersForge(ctx forge.Context, req *ListDeadLettersForgeRequest) ([]*dlq.Entry, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := dlq.ListOpts{
		Offset:      req.Offset,
		Limit:       limit,
		WorkspaceID: req.WorkspaceID,
		EventType:   event.Type(req.EventType),
		Status:      dlq.Status(req.Status),
	}

	entries, err := a.ledger.DeadLetters().List(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, nil
}

func (a *ForgeAPI) getDeadLetterForge(ctx forge.Context, req *DeadLetterActionForgeRequest) (*dlq.Entry, error) {
	dlID, err := id.ParseDeadLetterID(req.DeadLetterID)
	if err != nil {
		return nil, forge.BadRequest("invalid dead letter ID")
	}

	entry, getErr := a.ledger.DeadLetters().Get(ctx.Context(), dlID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return entry, nil
}

func (a *ForgeAPI) retryDeadLetterForge(ctx forge.Context, req *DeadLetterActionForgeRequest) (*dlq.RetryResult, error) {
	dlID, err := id.ParseDeadLetterID(req.DeadLetterID)
	if err != nil {
		return nil, forge.BadRequest("invalid dead letter ID")
	}

	result, retryErr := a.ledger.DeadLetters().Retry(ctx.Context(), dlID)
	if retryErr != nil {
		return nil, mapError(retryErr)
	}

	if !result.Resolved && result.Message != "" {
		return nil, forge.NewHTTPError(http.StatusConflict, result.Message)
	}

	return result, nil
}

func (a *ForgeAPI) discardDeadLetterForge(ctx forge.Context, req *DiscardDeadLetterForgeRequest) (*dlq.Entry, error) {
	dlID, err := id.ParseDeadLetterID(req.DeadLetterID)
	if err != nil {
		return nil, forge.BadRequest("invalid dead letter ID")
	}

	entry, discardErr := a.ledger.DeadLetters().Discard(ctx.Context(), dlID, req.Notes)
	if discardErr != nil {
		if errors.Is(discardErr, ledger.ErrDeadLetterNotFound) {
			return nil, mapError(discardErr)
		}
		return nil, forge.NewHTTPError(http.StatusConflict, discardErr.Error())
	}

	return entry, nil
}

// ---------------------------------------------------------------------------
// Stats and health routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerStatsRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("stats"))

	if err := g.GET("/stats", a.getStatsForge,
		forge.WithSummary("Ledger statistics"),
		forge.WithDescription("Returns the total event count and dead letter queue counts."),
		forge.WithOperationID("getStats"),
		forge.WithResponseSchema(http.StatusOK, "Ledger statistics", StatsForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getStats route", forge.Error(err))
	}

	if err := g.GET("/health", a.getHealthForge,
		forge.WithSummary("Subsystem health"),
		forge.WithDescription("Returns store connectivity and retry scheduler liveness."),
		forge.WithOperationID("getHealth"),
		forge.WithResponseSchema(http.StatusOK, "Subsystem health", HealthForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getHealth route", forge.Error(err))
	}
}

func (a *ForgeAPI) getStatsForge(ctx forge.Context, _ *StatsForgeRequest) (*StatsForgeResponse, error) {
	total, err := a.ledger.Store().CountEvents(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	dlStats, err := a.ledger.DeadLetters().Stats(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	return &StatsForgeResponse{
		EventsTotal: total,
		DeadLetters: dlStats,
	}, nil
}

func (a *ForgeAPI) getHealthForge(ctx forge.Context, _ *HealthForgeRequest) (*HealthForgeResponse, error) {
	if err := a.ledger.Store().Ping(ctx.Context()); err != nil {
		return &HealthForgeResponse{Status: "down"}, nil
	}

	schedHealth, err := a.ledger.Scheduler().Health(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	return &HealthForgeResponse{
		Status:    "up",
		Scheduler: schedHealth,
	}, nil
}
