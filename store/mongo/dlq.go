package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
)

// InsertDeadLetter persists a new dead letter.
func (s *Store) InsertDeadLetter(ctx context.Context, entry *dlq.Entry) error {
	m := toDeadLetterModel(entry)

	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: insert dead letter: %w", err)
	}

	return nil
}

// GetDeadLetter returns a dead letter by ID.
func (s *Store) GetDeadLetter(ctx context.Context, dlID id.ID) (*dlq.Entry, error) {
	var m deadLetterModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": dlID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrDeadLetterNotFound
		}

		return nil, fmt.Errorf("ledger/mongo: get dead letter: %w", err)
	}

	return fromDeadLetterModel(&m)
}

// UpdateDeadLetter persists status, retry count and resolution fields.
func (s *Store) UpdateDeadLetter(ctx context.Context, entry *dlq.Entry) error {
	m := toDeadLetterModel(entry)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update dead letter: %w", err)
	}

	if res.MatchedCount() == 0 {
		return ledger.ErrDeadLetterNotFound
	}

	return nil
}

// ListDeadLetters returns dead letters, optionally filtered, newest first.
func (s *Store) ListDeadLetters(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	var models []deadLetterModel

	filter := bson.M{}
	if opts.WorkspaceID != "" {
		filter["workspace_id"] = opts.WorkspaceID
	}

	if opts.EventType != "" {
		filter["event_type"] = string(opts.EventType)
	}

	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	if opts.From != nil || opts.To != nil {
		dateFilter := bson.M{}
		if opts.From != nil {
			dateFilter["$gte"] = *opts.From
		}

		if opts.To != nil {
			dateFilter["$lte"] = *opts.To
		}

		filter["created_at"] = dateFilter
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list dead letters: %w", err)
	}

	result := make([]*dlq.Entry, 0, len(models))

	for i := range models {
		entry, err := fromDeadLetterModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, entry)
	}

	return result, nil
}

// ListPendingDeadLetters returns pending entries captured before the cutoff,
// oldest first.
func (s *Store) ListPendingDeadLetters(ctx context.Context, before time.Time, limit int) ([]*dlq.Entry, error) {
	var models []deadLetterModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"status":     string(dlq.StatusPending),
			"created_at": bson.M{"$lt": before},
		}).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list pending dead letters: %w", err)
	}

	result := make([]*dlq.Entry, 0, len(models))

	for i := range models {
		entry, err := fromDeadLetterModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, entry)
	}

	return result, nil
}

// DeadLetterStats aggregates queue counts.
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
		count, countErr := s.mdb.NewFind((*deadLetterModel)(nil)).
			Filter(bson.M{
				"status":     string(dlq.StatusPending),
				"event_type": string(t),
			}).
			Count(ctx)
		if countErr != nil {
			return nil, fmt.Errorf("ledger/mongo: count pending by type: %w", countErr)
		}

		if count > 0 {
			byType[t] = count
		}
	}

	if len(byType) > 0 {
		stats.PendingByType = byType
	}

	if stats.Pending > 0 {
		var oldest deadLetterModel

		err := s.mdb.NewFind(&oldest).
			Filter(bson.M{"status": string(dlq.StatusPending)}).
			Sort(bson.D{{Key: "created_at", Value: 1}}).
			Limit(1).
			Scan(ctx)
		if err != nil && !isNoDocuments(err) {
			return nil, fmt.Errorf("ledger/mongo: oldest pending: %w", err)
		}

		if err == nil {
			at := oldest.CreatedAt
			stats.OldestPending = &at
		}
	}

	return stats, nil
}

func (s *Store) countByStatus(ctx context.Context, status dlq.Status) (int64, error) {
	count, err := s.mdb.NewFind((*deadLetterModel)(nil)).
		Filter(bson.M{"status": string(status)}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: count %s dead letters: %w", status, err)
	}

	return count, nil
}
