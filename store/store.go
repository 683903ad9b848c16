// Package store defines the composite Store interface for all Ledger
// persistence.
//
// Each subsystem defines its own store interface next to its domain type,
// and the aggregate Store composes them all. Drivers live in subpackages:
// memory, sqlite, postgres and mongo.
package store

import (
	"context"

	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/workspace"
)

// Store is the aggregate persistence interface.
type Store interface {
	event.Store
	dlq.Store
	workspace.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
