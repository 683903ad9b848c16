// Package workspace manages the tenants that own ledger events.
//
// The recorder consults the workspace existence check on every write: an
// event referencing an unknown workspace is silently not applicable, never
// an error. Workspace IDs are opaque caller-supplied strings owned by the
// embedding application.
package workspace

import (
	"context"

	"github.com/xraph/ledger/internal/entity"
)

// Workspace represents one owning tenant.
type Workspace struct {
	entity.Entity

	// ID is the caller-supplied workspace identifier (slug or tenant ID).
	ID string `json:"id"`

	// Name is the human-readable workspace name.
	Name string `json:"name,omitempty"`

	// Metadata holds arbitrary key-value attributes.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListOpts configures pagination for workspace listing.
type ListOpts struct {
	Offset int
	Limit  int
}

// Store defines the persistence contract for workspaces.
type Store interface {
	// UpsertWorkspace creates or updates a workspace by ID.
	UpsertWorkspace(ctx context.Context, ws *Workspace) error

	// GetWorkspace returns a workspace by ID.
	GetWorkspace(ctx context.Context, wsID string) (*Workspace, error)

	// WorkspaceExists reports whether a workspace with the given ID exists.
	WorkspaceExists(ctx context.Context, wsID string) (bool, error)

	// ListWorkspaces returns workspaces, paginated, newest first.
	ListWorkspaces(ctx context.Context, opts ListOpts) ([]*Workspace, error)
}

// Checker is the narrow existence check the recorder depends on.
type Checker interface {
	WorkspaceExists(ctx context.Context, wsID string) (bool, error)
}
