package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
)

// InsertEvent appends a ledger row. The unique event_key index turns a
// concurrent duplicate into ErrDuplicateEventKey.
func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	m := toEventModel(evt)

	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEventKey
		}

		return fmt.Errorf("ledger/mongo: insert event: %w", err)
	}

	return nil
}

// GetEvent returns a ledger row by ID.
func (s *Store) GetEvent(ctx context.Context, evtID id.ID) (*event.Event, error) {
	var m eventModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": evtID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrEventNotFound
		}

		return nil, fmt.Errorf("ledger/mongo: get event: %w", err)
	}

	return fromEventModel(&m)
}

// GetEventByKey returns a ledger row by its idempotency key.
func (s *Store) GetEventByKey(ctx context.Context, key string) (*event.Event, error) {
	var m eventModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"event_key": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrEventNotFound
		}

		return nil, fmt.Errorf("ledger/mongo: get event by key: %w", err)
	}

	return fromEventModel(&m)
}

// ListEvents returns ledger rows, optionally filtered, newest first.
func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel

	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}

	if opts.WorkspaceID != "" {
		filter["workspace_id"] = opts.WorkspaceID
	}

	if opts.From != nil || opts.To != nil {
		dateFilter := bson.M{}
		if opts.From != nil {
			dateFilter["$gte"] = *opts.From
		}

		if opts.To != nil {
			dateFilter["$lte"] = *opts.To
		}

		filter["occurred_at"] = dateFilter
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "occurred_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list events: %w", err)
	}

	result := make([]*event.Event, 0, len(models))

	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, evt)
	}

	return result, nil
}

// CountEvents returns the total number of ledger rows.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	count, err := s.mdb.NewFind((*eventModel)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: count events: %w", err)
	}

	return count, nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}
