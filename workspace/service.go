package workspace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/ledger/internal/entity"
)

// Service manages workspaces.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new workspace service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Input holds the caller-supplied fields for creating a workspace.
type Input struct {
	ID       string
	Name     string
	Metadata map[string]string
}

// Ensure creates or updates a workspace.
func (svc *Service) Ensure(ctx context.Context, in Input) (*Workspace, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("workspace: id is required")
	}

	ws := &Workspace{
		Entity:   entity.New(),
		ID:       in.ID,
		Name:     in.Name,
		Metadata: in.Metadata,
	}

	if err := svc.store.UpsertWorkspace(ctx, ws); err != nil {
		return nil, err
	}

	svc.logger.DebugContext(ctx, "workspace ensured", "workspace_id", ws.ID)
	return ws, nil
}

// Get returns a workspace by ID.
func (svc *Service) Get(ctx context.Context, wsID string) (*Workspace, error) {
	return svc.store.GetWorkspace(ctx, wsID)
}

// Exists reports whether a workspace exists.
func (svc *Service) Exists(ctx context.Context, wsID string) (bool, error) {
	return svc.store.WorkspaceExists(ctx, wsID)
}

// List returns workspaces, paginated.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Workspace, error) {
	return svc.store.ListWorkspaces(ctx, opts)
}
