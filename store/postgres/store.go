// Package postgres implements the Ledger store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
	ledgerstore "github.com/xraph/ledger/store"
	"github.com/xraph/ledger/workspace"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("ledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("ledger/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Event Store ====================

func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	m := toEventModel(evt)
	res, err := s.pg.NewInsert(m).
		OnConflict("(event_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ledger.ErrDuplicateEventKey
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, evtID id.ID) (*event.Event, error) {
	m := new(eventModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", evtID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrEventNotFound
		}
		return nil, err
	}
	return fromEventModel(m)
}

func (s *Store) GetEventByKey(ctx context.Context, key string) (*event.Event, error) {
	m := new(eventModel)
	err := s.pg.NewSelect(m).
		Where("event_key = ?", key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrEventNotFound
		}
		return nil, err
	}
	return fromEventModel(m)
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	if opts.Type != "" {
		q = q.Where("type = ?", string(opts.Type))
	}
	if opts.WorkspaceID != "" {
		q = q.Where("workspace_id = ?", opts.WorkspaceID)
	}
	if opts.From != nil {
		q = q.Where("occurred_at >= ?", *opts.From)
	}
	if opts.To != nil {
		q = q.Where("occurred_at <= ?", *opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("occurred_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	return s.pg.NewSelect((*eventModel)(nil)).Count(ctx)
}

// ==================== Dead Letter Store ====================

func (s *Store) InsertDeadLetter(ctx context.Context, entry *dlq.Entry) error {
	m := toDeadLetterModel(entry)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetDeadLetter(ctx context.Context, dlID id.ID) (*dlq.Entry, error) {
	m := new(deadLetterModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", dlID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrDeadLetterNotFound
		}
		return nil, err
	}
	return fromDeadLetterModel(m)
}

func (s *Store) UpdateDeadLetter(ctx context.Context, entry *dlq.Entry) error {
	m := toDeadLetterModel(entry)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ledger.ErrDeadLetterNotFound
	}
	return nil
}

func (s *Store) ListDeadLetters(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	var models []deadLetterModel
	q := s.pg.NewSelect(&models)

	if opts.WorkspaceID != "" {
		q = q.Where("workspace_id = ?", opts.WorkspaceID)
	}
	if opts.EventType != "" {
		q = q.Where("event_type = ?", string(opts.EventType))
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.From != nil {
		q = q.Where("created_at >= ?", *opts.From)
	}
	if opts.To != nil {
		q = q.Where("created_at <= ?", *opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*dlq.Entry, len(models))
	for i := range models {
		entry, err := fromDeadLetterModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = entry
	}
	return result, nil
}

func (s *Store) ListPendingDeadLetters(ctx context.Context, before time.Time, limit int) ([]*dlq.Entry, error) {
	var models []deadLetterModel
	q := s.pg.NewSelect(&models).
		Where("status = ?", string(dlq.StatusPending)).
		Where("created_at < ?", before).
		OrderExpr("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*dlq.Entry, len(models))
	for i := range models {
		entry, err := fromDeadLetterModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = entry
	}
	return result, nil
}

func (s *Store) DeadLetterStats(ctx context.Context) (*dlq.Stats, error) {
	stats := &dlq.Stats{}

	var err error
	if stats.Pending, err = s.countByStatus(ctx, dlq.StatusPending); err != nil {
		return nil, err
	}
	if stats.Resolved, err = s.countByStatus(ctx, dlq.StatusResolved); err != nil {
		return nil, err
	}
	if stats.Discarded, err = s.countByStatus(ctx, dlq.StatusDiscarded); err != nil {
		return nil, err
	}

	// Per-type pending breakdown over the closed type enum.
	byType := make(map[event.Type]int64)
	for _, t := range event.Types() {
		count, countErr := s.pg.NewSelect((*deadLetterModel)(nil)).
			Where("status = ?", string(dlq.StatusPending)).
			Where("event_type = ?", string(t)).
			Count(ctx)
		if countErr != nil {
			return nil, countErr
		}
		if count > 0 {
			byType[t] = count
		}
	}
	if len(byType) > 0 {
		stats.PendingByType = byType
	}

	if stats.Pending > 0 {
		oldest := new(deadLetterModel)
		err := s.pg.NewSelect(oldest).
			Where("status = ?", string(dlq.StatusPending)).
			OrderExpr("created_at ASC").
			Limit(1).
			Scan(ctx)
		if err != nil && !isNoRows(err) {
			return nil, err
		}
		if err == nil {
			at := oldest.CreatedAt
			stats.OldestPending = &at
		}
	}

	return stats, nil
}

func (s *Store) countByStatus(ctx context.Context, status dlq.Status) (int64, error) {
	return s.pg.NewSelect((*deadLetterModel)(nil)).
		Where("status = ?", string(status)).
		Count(ctx)
}

// ==================== Workspace Store ====================

func (s *Store) UpsertWorkspace(ctx context.Context, ws *workspace.Workspace) error {
	m := toWorkspaceModel(ws)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetWorkspace(ctx context.Context, wsID string) (*workspace.Workspace, error) {
	m := new(workspaceModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", wsID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return fromWorkspaceModel(m), nil
}

func (s *Store) WorkspaceExists(ctx context.Context, wsID string) (bool, error) {
	count, err := s.pg.NewSelect((*workspaceModel)(nil)).
		Where("id = ?", wsID).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListWorkspaces(ctx context.Context, opts workspace.ListOpts) ([]*workspace.Workspace, error) {
	var models []workspaceModel
	q := s.pg.NewSelect(&models)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*workspace.Workspace, len(models))
	for i := range models {
		result[i] = fromWorkspaceModel(&models[i])
	}
	return result, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
