package workspace_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/ledger/workspace"
)

type countingChecker struct {
	exists map[string]bool
	calls  int
}

func (c *countingChecker) WorkspaceExists(_ context.Context, wsID string) (bool, error) {
	c.calls++
	return c.exists[wsID], nil
}

func TestCacheCachesPositiveResults(t *testing.T) {
	ctx := context.Background()
	next := &countingChecker{exists: map[string]bool{"acme": true}}
	cache := workspace.NewCache(next, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := cache.WorkspaceExists(ctx, "acme")
		if err != nil {
			t.Fatalf("WorkspaceExists: %v", err)
		}
		if !ok {
			t.Fatal("expected workspace to exist")
		}
	}

	if next.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", next.calls)
	}
}

func TestCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	next := &countingChecker{exists: map[string]bool{}}
	cache := workspace.NewCache(next, time.Minute)

	for i := 0; i < 2; i++ {
		ok, err := cache.WorkspaceExists(ctx, "ghost")
		if err != nil {
			t.Fatalf("WorkspaceExists: %v", err)
		}
		if ok {
			t.Fatal("expected workspace to not exist")
		}
	}

	if next.calls != 2 {
		t.Fatalf("expected misses to pass through, got %d calls", next.calls)
	}

	// Workspace shows up later: the next check sees it immediately.
	next.exists["ghost"] = true
	ok, err := cache.WorkspaceExists(ctx, "ghost")
	if err != nil {
		t.Fatalf("WorkspaceExists: %v", err)
	}
	if !ok {
		t.Fatal("expected newly created workspace to be visible")
	}
}

func TestCacheZeroTTLPassesThrough(t *testing.T) {
	ctx := context.Background()
	next := &countingChecker{exists: map[string]bool{"acme": true}}
	cache := workspace.NewCache(next, 0)

	for i := 0; i < 3; i++ {
		if _, err := cache.WorkspaceExists(ctx, "acme"); err != nil {
			t.Fatalf("WorkspaceExists: %v", err)
		}
	}

	if next.calls != 3 {
		t.Fatalf("expected every call to pass through, got %d", next.calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	next := &countingChecker{exists: map[string]bool{"acme": true}}
	cache := workspace.NewCache(next, time.Minute)

	if _, err := cache.WorkspaceExists(ctx, "acme"); err != nil {
		t.Fatalf("WorkspaceExists: %v", err)
	}
	cache.Invalidate("acme")
	if _, err := cache.WorkspaceExists(ctx, "acme"); err != nil {
		t.Fatalf("WorkspaceExists: %v", err)
	}

	if next.calls != 2 {
		t.Fatalf("expected invalidation to force a store call, got %d", next.calls)
	}
}
