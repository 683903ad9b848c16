package ledger

import "errors"

// Sentinel errors returned by Ledger operations.
var (
	// ErrNoStore is returned when a Ledger is created without a store.
	ErrNoStore = errors.New("ledger: store is required")

	// ErrDuplicateEventKey is returned by stores when inserting a row whose
	// event key already exists. The recorder classifies it as an idempotent
	// no-op, never surfacing it to callers.
	ErrDuplicateEventKey = errors.New("ledger: duplicate event key")

	// ErrUnknownEventType is returned when recording an event whose type is
	// not in the registered set.
	ErrUnknownEventType = errors.New("ledger: unknown event type")

	// ErrPayloadValidationFailed is returned when an event payload fails
	// JSON Schema validation.
	ErrPayloadValidationFailed = errors.New("ledger: payload validation failed")

	// ErrEventNotFound is returned when a ledger row cannot be found.
	ErrEventNotFound = errors.New("ledger: event not found")

	// ErrDeadLetterNotFound is returned when a dead letter cannot be found.
	ErrDeadLetterNotFound = errors.New("ledger: dead letter not found")

	// ErrWorkspaceNotFound is returned when a workspace cannot be found.
	ErrWorkspaceNotFound = errors.New("ledger: workspace not found")

	// ErrStoreClosed is returned when a store operation is attempted after
	// the store is closed.
	ErrStoreClosed = errors.New("ledger: store is closed")

	// ErrMigrationFailed is returned when a database migration fails.
	ErrMigrationFailed = errors.New("ledger: migration failed")
)
