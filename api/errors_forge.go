package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/ledger"
)

// mapError converts ledger sentinel errors to Forge HTTP errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrEventNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, ledger.ErrDeadLetterNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, ledger.ErrWorkspaceNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, ledger.ErrUnknownEventType):
		return forge.BadRequest(err.Error())
	case errors.Is(err, ledger.ErrPayloadValidationFailed):
		return forge.BadRequest(err.Error())
	case errors.Is(err, ledger.ErrNoStore):
		return forge.InternalError(err)
	case errors.Is(err, ledger.ErrStoreClosed):
		return forge.InternalError(err)
	case errors.Is(err, ledger.ErrMigrationFailed):
		return forge.InternalError(err)
	default:
		return forge.InternalError(err)
	}
}
