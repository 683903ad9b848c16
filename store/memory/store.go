// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	ledgerstore "github.com/xraph/ledger/store"
	"github.com/xraph/ledger/workspace"
)

// compile-time interface check.
var _ ledgerstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	events      map[string]*event.Event         // keyed by ID string
	eventsByKey map[string]*event.Event         // keyed by event key
	deadLetters map[string]*dlq.Entry           // keyed by ID string
	workspaces  map[string]*workspace.Workspace // keyed by workspace ID

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		events:      make(map[string]*event.Event),
		eventsByKey: make(map[string]*event.Event),
		deadLetters: make(map[string]*dlq.Entry),
		workspaces:  make(map[string]*workspace.Workspace),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// event.Store
// ──────────────────────────────────────────────────

// InsertEvent appends a ledger row. Returns ErrDuplicateEventKey on conflict.
func (s *Store) InsertEvent(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	if _, ok := s.eventsByKey[evt.Key]; ok {
		return ledger.ErrDuplicateEventKey
	}

	s.eventsByKey[evt.Key] = evt
	s.events[evt.ID.String()] = evt
	return nil
}

// GetEvent returns a ledger row by ID.
func (s *Store) GetEvent(_ context.Context, evtID id.ID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evt, ok := s.events[evtID.String()]
	if !ok {
		return nil, ledger.ErrEventNotFound
	}
	return evt, nil
}

// GetEventByKey returns a ledger row by its idempotency key.
func (s *Store) GetEventByKey(_ context.Context, key string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evt, ok := s.eventsByKey[key]
	if !ok {
		return nil, ledger.ErrEventNotFound
	}
	return evt, nil
}

// ListEvents returns ledger rows, optionally filtered, newest first.
func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Event, 0, len(s.events))
	for _, evt := range s.events {
		if !matchEventOpts(evt, opts) {
			continue
		}
		result = append(result, evt)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.After(result[j].OccurredAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// CountEvents returns the total number of ledger rows.
func (s *Store) CountEvents(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.events)), nil
}

// ──────────────────────────────────────────────────
// dlq.Store
// ──────────────────────────────────────────────────

// InsertDeadLetter persists a new dead letter.
func (s *Store) InsertDeadLetter(_ context.Context, entry *dlq.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	s.deadLetters[entry.ID.String()] = entry
	return nil
}

// GetDeadLetter returns a dead letter by ID.
func (s *Store) GetDeadLetter(_ context.Context, dlID id.ID) (*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.deadLetters[dlID.String()]
	if !ok {
		return nil, ledger.ErrDeadLetterNotFound
	}
	return entry, nil
}

// UpdateDeadLetter persists status, retry count and resolution fields.
func (s *Store) UpdateDeadLetter(_ context.Context, entry *dlq.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deadLetters[entry.ID.String()]; !ok {
		return ledger.ErrDeadLetterNotFound
	}
	entry.UpdatedAt = time.Now().UTC()
	s.deadLetters[entry.ID.String()] = entry
	return nil
}

// ListDeadLetters returns dead letters, optionally filtered, newest first.
func (s *Store) ListDeadLetters(_ context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*dlq.Entry, 0, len(s.deadLetters))
	for _, e := range s.deadLetters {
		if opts.WorkspaceID != "" && e.WorkspaceID != opts.WorkspaceID {
			continue
		}
		if opts.EventType != "" && e.EventType != opts.EventType {
			continue
		}
		if opts.Status != "" && e.Status != opts.Status {
			continue
		}
		if opts.From != nil && e.CreatedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && e.CreatedAt.After(*opts.To) {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ListPendingDeadLetters returns pending entries captured before the cutoff,
// oldest first.
func (s *Store) ListPendingDeadLetters(_ context.Context, before time.Time, limit int) ([]*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*dlq.Entry, 0, len(s.deadLetters))
	for _, e := range s.deadLetters {
		if e.Status != dlq.StatusPending {
			continue
		}
		if !e.CreatedAt.Before(before) {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// DeadLetterStats aggregates queue counts.
func (s *Store) DeadLetterStats(_ context.Context) (*dlq.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &dlq.Stats{
		PendingByType: make(map[event.Type]int64),
	}

	for _, e := range s.deadLetters {
		switch e.Status {
		case dlq.StatusPending:
			stats.Pending++
			stats.PendingByType[e.EventType]++
			if stats.OldestPending == nil || e.CreatedAt.Before(*stats.OldestPending) {
				at := e.CreatedAt
				stats.OldestPending = &at
			}
		case dlq.StatusResolved:
			stats.Resolved++
		case dlq.StatusDiscarded:
			stats.Discarded++
		}
	}

	if len(stats.PendingByType) == 0 {
		stats.PendingByType = nil
	}
	return stats, nil
}

// ──────────────────────────────────────────────────
// workspace.Store
// ──────────────────────────────────────────────────

// UpsertWorkspace creates or updates a workspace by ID.
func (s *Store) UpsertWorkspace(_ context.Context, ws *workspace.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.workspaces[ws.ID]; ok {
		existing.Name = ws.Name
		existing.Metadata = ws.Metadata
		existing.UpdatedAt = time.Now().UTC()
		return nil
	}

	s.workspaces[ws.ID] = ws
	return nil
}

// GetWorkspace returns a workspace by ID.
func (s *Store) GetWorkspace(_ context.Context, wsID string) (*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[wsID]
	if !ok {
		return nil, ledger.ErrWorkspaceNotFound
	}
	return ws, nil
}

// WorkspaceExists reports whether a workspace with the given ID exists.
func (s *Store) WorkspaceExists(_ context.Context, wsID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.workspaces[wsID]
	return ok, nil
}

// ListWorkspaces returns workspaces, paginated, newest first.
func (s *Store) ListWorkspaces(_ context.Context, opts workspace.ListOpts) ([]*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*workspace.Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		result = append(result, ws)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func matchEventOpts(evt *event.Event, opts event.ListOpts) bool {
	if opts.Type != "" && evt.Type != opts.Type {
		return false
	}
	if opts.WorkspaceID != "" && evt.WorkspaceID != opts.WorkspaceID {
		return false
	}
	if opts.From != nil && evt.OccurredAt.Before(*opts.From) {
		return false
	}
	if opts.To != nil && evt.OccurredAt.After(*opts.To) {
		return false
	}
	return true
}

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
