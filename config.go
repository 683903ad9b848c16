package ledger

import "time"

// Config holds the configuration for a Ledger instance.
type Config struct {
	// SchedulerEnabled controls whether the dead-letter retry scheduler runs.
	// When false every tick is a no-op with zero store calls.
	SchedulerEnabled bool

	// SchedulerInterval is how often the retry scheduler wakes up.
	SchedulerInterval time.Duration

	// RetryBatchSize is the maximum number of pending dead letters pulled
	// per scheduler tick.
	RetryBatchSize int

	// RetryMinAge is the backoff floor: a dead letter younger than this is
	// never retried, preventing tight retry loops against a transient outage.
	RetryMinAge time.Duration

	// MaxRetryAttempts bounds retries per dead letter. Entries at or past
	// the bound are auto-discarded by the scheduler.
	MaxRetryAttempts int

	// DispatchBuffer is the channel capacity of the saved-event dispatcher.
	DispatchBuffer int

	// WorkspaceCacheTTL is the TTL of the in-process workspace existence
	// cache. Set to 0 to check the store on every record call.
	WorkspaceCacheTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SchedulerEnabled:  true,
		SchedulerInterval: 1 * time.Minute,
		RetryBatchSize:    50,
		RetryMinAge:       10 * time.Minute,
		MaxRetryAttempts:  5,
		DispatchBuffer:    256,
		WorkspaceCacheTTL: 30 * time.Second,
	}
}
