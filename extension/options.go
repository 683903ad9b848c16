package extension

import (
	"github.com/xraph/ledger"
	"github.com/xraph/ledger/store"
)

// ExtOption configures the ledger Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend via a ledger option.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, ledger.WithStore(s))
	}
}

// WithBasePath sets the URL prefix for all ledger admin routes.
func WithBasePath(prefix string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithLedgerOption appends a raw ledger.Option to the extension.
func WithLedgerOption(opt ledger.Option) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, opt)
	}
}

// WithDisableRoutes disables automatic route registration.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrations disables automatic database migration on Register.
func WithDisableMigrations() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
