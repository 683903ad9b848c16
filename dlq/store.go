package dlq

import (
	"context"
	"time"

	"github.com/xraph/ledger/id"
)

// Store defines the persistence contract for dead letters.
type Store interface {
	// InsertDeadLetter persists a new entry.
	InsertDeadLetter(ctx context.Context, entry *Entry) error

	// GetDeadLetter returns an entry by ID, or ledger.ErrDeadLetterNotFound.
	GetDeadLetter(ctx context.Context, dlID id.ID) (*Entry, error)

	// UpdateDeadLetter persists status, retry count and resolution fields.
	UpdateDeadLetter(ctx context.Context, entry *Entry) error

	// ListDeadLetters returns entries matching opts, newest first.
	ListDeadLetters(ctx context.Context, opts ListOpts) ([]*Entry, error)

	// ListPendingDeadLetters returns pending entries captured before the
	// cutoff, oldest first, capped at limit. The scheduler drains from here.
	ListPendingDeadLetters(ctx context.Context, before time.Time, limit int) ([]*Entry, error)

	// DeadLetterStats aggregates queue counts for the health surface.
	DeadLetterStats(ctx context.Context) (*Stats, error)
}
