package extension

import (
	"github.com/xraph/ledger"
)

// Config holds configuration for the ledger Forge extension.
// Fields can be set programmatically via ExtOption functions or loaded from
// YAML configuration files (under "extensions.ledger" or "ledger" keys).
type Config struct {
	// Config embeds the core ledger configuration.
	ledger.Config `json:",inline" yaml:",inline" mapstructure:",squash"`

	// BasePath is the URL prefix for all ledger admin routes (default: "/ledger").
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// DisableRoutes disables automatic route registration with the Forge router.
	DisableRoutes bool `json:"disable_routes" yaml:"disable_routes" mapstructure:"disable_routes"`

	// DisableMigrate disables automatic database migration on Register.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" mapstructure:"disable_migrate"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:   ledger.DefaultConfig(),
		BasePath: "/ledger",
	}
}

// ToLedgerOptions converts the embedded Config into ledger.Option values.
func (c Config) ToLedgerOptions() []ledger.Option {
	opts := []ledger.Option{
		ledger.WithScheduler(c.SchedulerEnabled),
	}

	if c.SchedulerInterval > 0 {
		opts = append(opts, ledger.WithSchedulerInterval(c.SchedulerInterval))
	}
	if c.RetryBatchSize > 0 {
		opts = append(opts, ledger.WithRetryBatchSize(c.RetryBatchSize))
	}
	if c.RetryMinAge > 0 {
		opts = append(opts, ledger.WithRetryMinAge(c.RetryMinAge))
	}
	if c.MaxRetryAttempts > 0 {
		opts = append(opts, ledger.WithMaxRetryAttempts(c.MaxRetryAttempts))
	}
	if c.DispatchBuffer > 0 {
		opts = append(opts, ledger.WithDispatchBuffer(c.DispatchBuffer))
	}
	if c.WorkspaceCacheTTL > 0 {
		opts = append(opts, ledger.WithWorkspaceCacheTTL(c.WorkspaceCacheTTL))
	}

	return opts
}
