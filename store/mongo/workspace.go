package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/workspace"
)

// UpsertWorkspace creates or updates a workspace by ID.
func (s *Store) UpsertWorkspace(ctx context.Context, ws *workspace.Workspace) error {
	m := toWorkspaceModel(ws)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"name":       m.Name,
				"metadata":   m.Metadata,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        m.ID,
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: upsert workspace: %w", err)
	}

	return nil
}

// GetWorkspace returns a workspace by ID.
func (s *Store) GetWorkspace(ctx context.Context, wsID string) (*workspace.Workspace, error) {
	var m workspaceModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": wsID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrWorkspaceNotFound
		}

		return nil, fmt.Errorf("ledger/mongo: get workspace: %w", err)
	}

	return fromWorkspaceModel(&m), nil
}

// WorkspaceExists reports whether a workspace with the given ID exists.
func (s *Store) WorkspaceExists(ctx context.Context, wsID string) (bool, error) {
	count, err := s.mdb.NewFind((*workspaceModel)(nil)).
		Filter(bson.M{"_id": wsID}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("ledger/mongo: workspace exists: %w", err)
	}

	return count > 0, nil
}

// ListWorkspaces returns workspaces, paginated, newest first.
func (s *Store) ListWorkspaces(ctx context.Context, opts workspace.ListOpts) ([]*workspace.Workspace, error) {
	var models []workspaceModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list workspaces: %w", err)
	}

	result := make([]*workspace.Workspace, 0, len(models))
	for i := range models {
		result = append(result, fromWorkspaceModel(&models[i]))
	}

	return result, nil
}
