package cache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// countingExec tracks executions and returns configured results
type countingExec struct {
	calls  int
	result any
	err    error
}

func (e *countingExec) exec(_ context.Context) (any, error) {
	e.calls++
	return e.result, e.err
}

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	store, err := NewStore(DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return NewMiddleware(store, nil)
}

func TestMiddleware_HitShortCircuits(t *testing.T) {
	mw := newTestMiddleware(t)
	exec := &countingExec{result: "fresh"}
	ctx := context.Background()

	// First call - miss, executes
	payload, entry, err := mw.Do(ctx, "tool:u1:k", TierStatic, exec.exec)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("expected 1 execution, got %d", exec.calls)
	}
	if entry != nil {
		t.Error("execute path must return nil entry")
	}
	if payload != "fresh" {
		t.Errorf("payload = %v", payload)
	}

	// Second call - hit, executor NOT called
	payload, entry, err = mw.Do(ctx, "tool:u1:k", TierStatic, exec.exec)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("expected hit to short-circuit, got %d executions", exec.calls)
	}
	if entry == nil {
		t.Fatal("hit must surface the stored entry metadata")
	}
	if payload != "fresh" {
		t.Errorf("cached payload = %v", payload)
	}
}

func TestMiddleware_ForceRefreshAlwaysExecutes(t *testing.T) {
	mw := newTestMiddleware(t)
	exec := &countingExec{result: "v1"}
	ctx := context.Background()

	// Warm the cache
	if _, _, err := mw.Do(ctx, "k", TierStatic, exec.exec); err != nil {
		t.Fatal(err)
	}

	// Bypass immediately after the write for the identical key
	forced := WithForceRefresh(ctx, true)
	exec.result = "v2"
	payload, _, err := mw.Do(forced, "k", TierStatic, exec.exec)
	if err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Errorf("force-refresh must re-execute, got %d executions", exec.calls)
	}
	if payload != "v2" {
		t.Errorf("payload = %v, want fresh v2", payload)
	}

	// Bypass rewrote the cache: a plain call now hits the fresh value
	payload, entry, err := mw.Do(ctx, "k", TierStatic, exec.exec)
	if err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Errorf("expected hit after bypass rewrite, got %d executions", exec.calls)
	}
	if entry == nil || payload != "v2" {
		t.Errorf("cache should hold the bypass result, payload = %v", payload)
	}
}

func TestMiddleware_ErrorsNotCached(t *testing.T) {
	mw := newTestMiddleware(t)
	boom := errors.New("store unreachable")
	exec := &countingExec{err: boom}
	ctx := context.Background()

	if _, _, err := mw.Do(ctx, "k", TierLive, exec.exec); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}

	exec.err = nil
	exec.result = "recovered"
	if _, _, err := mw.Do(ctx, "k", TierLive, exec.exec); err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Errorf("failed result must not be cached, got %d executions", exec.calls)
	}
}

func TestMiddleware_DoNamed(t *testing.T) {
	mw := newTestMiddleware(t)
	exec := &countingExec{result: "data"}
	ctx := context.Background()
	params := map[string]any{"name": "Grinder 5"}

	// caller u1 twice: second is a hit
	if _, _, err := mw.DoNamed(ctx, "asset_lookup", "u1", params, TierStatic, exec.exec); err != nil {
		t.Fatal(err)
	}
	if _, _, err := mw.DoNamed(ctx, "asset_lookup", "u1", params, TierStatic, exec.exec); err != nil {
		t.Fatal(err)
	}
	if exec.calls != 1 {
		t.Errorf("same caller/params should hit, got %d executions", exec.calls)
	}

	// caller u2 with identical params: independent miss
	if _, _, err := mw.DoNamed(ctx, "asset_lookup", "u2", params, TierStatic, exec.exec); err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Errorf("distinct caller must miss independently, got %d executions", exec.calls)
	}
}

func TestMiddleware_BadKeyExecutesUncached(t *testing.T) {
	mw := newTestMiddleware(t)
	exec := &countingExec{result: "x"}
	ctx := context.Background()

	// Empty caller fails key derivation; execution must still happen
	for i := 0; i < 2; i++ {
		if _, _, err := mw.DoNamed(ctx, "asset_lookup", "", nil, TierStatic, exec.exec); err != nil {
			t.Fatal(err)
		}
	}
	if exec.calls != 2 {
		t.Errorf("unkeyable calls must run uncached every time, got %d", exec.calls)
	}
}
