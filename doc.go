// Package ledger provides an exactly-once activity event ledger for Go.
//
// Ledger is a library — not a service. Import it into your application to
// durably record discrete activity facts (a pull request was merged, a
// review was approved, ...) exactly once under at-least-once delivery, with
// dead-letter capture and scheduled recovery for writes that fail.
//
// Key features:
//   - Deterministic event keys: the store's uniqueness constraint is the
//     sole idempotency mechanism, safe under concurrent racing writers
//   - Dead-letter capture, age-based retry backoff, and bounded
//     auto-discard for unrecoverable writes
//   - Composable store pattern with multiple backends (Postgres, SQLite,
//     Mongo, Memory)
//   - Post-commit saved-event signals dispatched asynchronously to
//     consumers (gamification, analytics)
//   - Forge-native admin API with standalone fallback
//
// Quick start:
//
//	l, err := ledger.New(
//	    ledger.WithStore(memoryStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	recorded, err := l.Record(ctx, event.RecordInput{
//	    WorkspaceID: "acme",
//	    Type:        event.TypePullRequestOpened,
//	    OccurredAt:  mergedAt,
//	    Actor:       "octocat",
//	    TargetType:  "pull_request",
//	    TargetID:    "42",
//	    XP:          25,
//	    Source:      event.SourceGitHub,
//	})
package ledger
