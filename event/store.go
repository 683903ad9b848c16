package event

import (
	"context"
	"time"

	"github.com/xraph/ledger/id"
)

// ListOpts configures filtering and pagination for ledger listing.
type ListOpts struct {
	Offset      int
	Limit       int
	Type        Type
	WorkspaceID string
	From        *time.Time
	To          *time.Time
}

// Store defines the persistence contract for the activity event ledger.
type Store interface {
	// InsertEvent appends a row to the ledger. Must be durable before
	// returning. Returns ledger.ErrDuplicateEventKey if a row with the
	// same Key already exists.
	InsertEvent(ctx context.Context, evt *Event) error

	// GetEvent returns a ledger row by ID.
	GetEvent(ctx context.Context, evtID id.ID) (*Event, error)

	// GetEventByKey returns a ledger row by its idempotency key.
	GetEventByKey(ctx context.Context, key string) (*Event, error)

	// ListEvents returns ledger rows, optionally filtered by type,
	// workspace, or time range. Newest first.
	ListEvents(ctx context.Context, opts ListOpts) ([]*Event, error)

	// CountEvents returns the total number of ledger rows.
	CountEvents(ctx context.Context) (int64, error)
}
