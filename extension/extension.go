package extension

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/api"
)

// Extension mounts the activity event ledger into a host application.
type Extension struct {
	config Config
	opts   []ledger.Option
	ledger *ledger.Ledger
	logger *slog.Logger
}

// New creates a new ledger extension.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register constructs the Ledger from the configured options and runs
// migrations unless disabled. Must be called before Start.
func (e *Extension) Register(ctx context.Context) error {
	opts := append(e.config.ToLedgerOptions(), e.opts...)

	led, err := ledger.New(opts...)
	if err != nil {
		return fmt.Errorf("extension: build ledger: %w", err)
	}
	e.ledger = led

	if !e.config.DisableMigrate {
		if err := led.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("extension: migrate: %w", err)
		}
	}

	return nil
}

// Start begins the saved-event dispatcher and retry scheduler.
func (e *Extension) Start(ctx context.Context) error {
	if e.ledger == nil {
		return fmt.Errorf("extension: Register must be called before Start")
	}
	e.ledger.Start(ctx)
	return nil
}

// Stop gracefully shuts down the ledger.
func (e *Extension) Stop(ctx context.Context) error {
	if e.ledger != nil {
		e.ledger.Stop(ctx)
	}
	return nil
}

// Health checks store connectivity.
func (e *Extension) Health(ctx context.Context) error {
	if e.ledger == nil {
		return fmt.Errorf("extension: not registered")
	}
	return e.ledger.Store().Ping(ctx)
}

// Ledger returns the constructed Ledger. Nil before Register.
func (e *Extension) Ledger() *ledger.Ledger { return e.ledger }

// Handler creates the stdlib admin API handler. Usable without a Forge
// router, mounted under BasePath by the host.
func (e *Extension) Handler() http.Handler {
	return api.NewHandler(e.ledger, e.logger)
}

// RegisterRoutes mounts the Forge-style admin API with OpenAPI metadata.
// A no-op when route registration is disabled.
func (e *Extension) RegisterRoutes(router forge.Router, log forge.Logger) {
	if e.config.DisableRoutes {
		return
	}
	api.NewForgeAPI(e.ledger, log).RegisterRoutes(router)
}

// BasePath returns the configured URL prefix.
func (e *Extension) BasePath() string { return e.config.BasePath }
