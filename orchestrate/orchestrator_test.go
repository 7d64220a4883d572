package orchestrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotationalphysics495/plantops/auth"
	"github.com/rotationalphysics495/plantops/cache"
	"github.com/rotationalphysics495/plantops/datasource"
	"github.com/rotationalphysics495/plantops/registry"
)

func fixtureSource() *datasource.Memory {
	return datasource.NewMemory("historian", map[string][]map[string]any{
		"downtime_events": {
			{"line": "Line 2", "reason": "jam", "minutes": int64(14)},
			{"line": "Line 2", "reason": "changeover", "minutes": int64(32)},
			{"line": "Line 3", "reason": "starved", "minutes": int64(7)},
		},
	})
}

func downtimeDescriptor(t *testing.T) registry.Descriptor {
	t.Helper()
	return registry.Descriptor{
		Name:             "downtime_summary",
		Description:      "Downtime events for a production line.",
		Tier:             cache.TierLive,
		RequiresCitation: true,
		Handler: func(ctx context.Context, params map[string]any, src datasource.Source) (*datasource.Result, error) {
			line, _ := params["line"].(string)
			return src.Query(ctx, datasource.Query{
				Category: datasource.CategoryProduction,
				Table:    "downtime_events",
				Filter:   map[string]any{"line": line},
			})
		},
	}
}

func newTestOrchestrator(t *testing.T, src datasource.Source, opts ...Option) (*Orchestrator, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	if err := reg.Register(downtimeDescriptor(t)); err != nil {
		t.Fatalf("register: %v", err)
	}

	store, err := cache.NewStore(cache.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return New(reg, store, src, nil, opts...), reg
}

func TestInvoke_RepeatServedFromCache(t *testing.T) {
	o, _ := newTestOrchestrator(t, fixtureSource())

	req := Request{Tool: "downtime_summary", Params: map[string]any{"line": "Line 2"}, Caller: "u1"}

	first := o.Invoke(context.Background(), req)
	if !first.OK {
		t.Fatalf("first invoke failed: %q", first.Message)
	}
	if first.Cached {
		t.Error("first invoke must not be cached")
	}
	if len(first.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(first.Data))
	}
	if len(first.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(first.Citations))
	}

	second := o.Invoke(context.Background(), req)
	if !second.OK {
		t.Fatalf("second invoke failed: %q", second.Message)
	}
	if !second.Cached {
		t.Error("second identical invoke must be served from cache")
	}
	if second.CachedAt.IsZero() {
		t.Error("cached response must carry the entry write time")
	}
	if len(second.Data) != len(first.Data) {
		t.Errorf("cached data differs: %d vs %d rows", len(second.Data), len(first.Data))
	}
	if len(second.Citations) != 1 || second.Citations[0] != first.Citations[0] {
		t.Error("cached response must replay citations captured at write time")
	}
	if first.RequestID == second.RequestID {
		t.Error("each invocation must get its own request ID")
	}
}

func TestInvoke_ForceRefreshBypassesAndRewrites(t *testing.T) {
	src := fixtureSource()
	o, _ := newTestOrchestrator(t, src)

	req := Request{Tool: "downtime_summary", Params: map[string]any{"line": "Line 2"}, Caller: "u1"}
	if resp := o.Invoke(context.Background(), req); !resp.OK {
		t.Fatalf("warmup failed: %q", resp.Message)
	}

	// The backing data changes while the cached answer is still fresh.
	src.SetTable("downtime_events", []map[string]any{
		{"line": "Line 2", "reason": "jam", "minutes": int64(14)},
	})

	stale := o.Invoke(context.Background(), req)
	if !stale.Cached || len(stale.Data) != 2 {
		t.Fatalf("expected stale cached answer with 2 rows, got cached=%v rows=%d", stale.Cached, len(stale.Data))
	}

	refresh := req
	refresh.ForceRefresh = true
	fresh := o.Invoke(context.Background(), refresh)
	if !fresh.OK {
		t.Fatalf("refresh failed: %q", fresh.Message)
	}
	if fresh.Cached {
		t.Error("force refresh must re-execute")
	}
	if len(fresh.Data) != 1 {
		t.Fatalf("expected 1 fresh row, got %d", len(fresh.Data))
	}

	// The refreshed result replaced the cache entry.
	after := o.Invoke(context.Background(), req)
	if !after.Cached || len(after.Data) != 1 {
		t.Errorf("expected rewritten cache entry with 1 row, got cached=%v rows=%d", after.Cached, len(after.Data))
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	o, _ := newTestOrchestrator(t, fixtureSource())

	resp := o.Invoke(context.Background(), Request{Tool: "weather_forecast", Caller: "u1"})
	if resp.OK {
		t.Fatal("unknown tool must not succeed")
	}
	if resp.Message != MsgUnknownTool {
		t.Errorf("message = %q, want %q", resp.Message, MsgUnknownTool)
	}
	if resp.Citations == nil || len(resp.Citations) != 0 {
		t.Error("unknown tool must carry zero citations, never nil")
	}
	if resp.Data != nil {
		t.Error("unknown tool must carry no data")
	}
	if resp.RequestID == "" {
		t.Error("response must carry a request ID")
	}
}

func TestInvoke_HandlerErrorNotCached(t *testing.T) {
	fail := true
	reg := registry.New()
	err := reg.Register(registry.Descriptor{
		Name: "flaky_tool",
		Tier: cache.TierLive,
		Handler: func(ctx context.Context, params map[string]any, src datasource.Source) (*datasource.Result, error) {
			if fail {
				return nil, &datasource.ConnectionError{SourceID: "historian", Err: errors.New("dial refused")}
			}
			return src.Query(ctx, datasource.Query{Table: "downtime_events"})
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	store, err := cache.NewStore(cache.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	o := New(reg, store, fixtureSource(), nil)

	req := Request{Tool: "flaky_tool", Caller: "u1"}
	resp := o.Invoke(context.Background(), req)
	if resp.OK {
		t.Fatal("failing handler must not succeed")
	}
	if resp.Message != MsgUnavailable {
		t.Errorf("message = %q, want %q", resp.Message, MsgUnavailable)
	}
	if len(resp.Citations) != 0 {
		t.Error("failed invocation must carry zero citations")
	}

	// The source recovers; the failure must not have been cached.
	fail = false
	resp = o.Invoke(context.Background(), req)
	if !resp.OK {
		t.Fatalf("recovered invoke failed: %q", resp.Message)
	}
	if resp.Cached {
		t.Error("first success after failure must execute, not hit")
	}
}

func TestInvoke_DistinctCallersIndependent(t *testing.T) {
	o, _ := newTestOrchestrator(t, fixtureSource())

	params := map[string]any{"line": "Line 2"}
	if resp := o.Invoke(context.Background(), Request{Tool: "downtime_summary", Params: params, Caller: "u1"}); resp.Cached {
		t.Error("u1 first invoke must miss")
	}
	if resp := o.Invoke(context.Background(), Request{Tool: "downtime_summary", Params: params, Caller: "u2"}); resp.Cached {
		t.Error("u2 must not share u1's cache entry")
	}
	if resp := o.Invoke(context.Background(), Request{Tool: "downtime_summary", Params: params, Caller: "u2"}); !resp.Cached {
		t.Error("u2 repeat must hit its own entry")
	}
}

func TestInvoke_TimeoutNotCached(t *testing.T) {
	reg := registry.New()
	calls := 0
	err := reg.Register(registry.Descriptor{
		Name: "slow_tool",
		Tier: cache.TierDaily,
		Handler: func(ctx context.Context, params map[string]any, src datasource.Source) (*datasource.Result, error) {
			calls++
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	store, err := cache.NewStore(cache.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	o := New(reg, store, fixtureSource(), nil, WithCallTimeout(5*time.Millisecond))

	req := Request{Tool: "slow_tool", Caller: "u1"}
	resp := o.Invoke(context.Background(), req)
	if resp.OK {
		t.Fatal("timed-out handler must not succeed")
	}
	if resp.Message != MsgUnavailable {
		t.Errorf("message = %q, want %q", resp.Message, MsgUnavailable)
	}

	o.Invoke(context.Background(), req)
	if calls != 2 {
		t.Errorf("timeout must never be cached: handler ran %d times, want 2", calls)
	}
}

func TestInvoke_MultiQueryCitations(t *testing.T) {
	src := datasource.NewMemory("historian", map[string][]map[string]any{
		"downtime_events": {{"line": "Line 2", "reason": "jam"}},
		"production_runs": {{"line": "Line 2", "units": int64(1200)}},
	})

	reg := registry.New()
	err := reg.Register(registry.Descriptor{
		Name: "line_overview",
		Tier: cache.TierDaily,
		Handler: func(ctx context.Context, params map[string]any, s datasource.Source) (*datasource.Result, error) {
			if _, err := s.Query(ctx, datasource.Query{Table: "downtime_events"}); err != nil {
				return nil, err
			}
			return s.Query(ctx, datasource.Query{Table: "production_runs"})
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	store, err := cache.NewStore(cache.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	o := New(reg, store, src, nil)

	resp := o.Invoke(context.Background(), Request{Tool: "line_overview", Caller: "u1"})
	if !resp.OK {
		t.Fatalf("invoke failed: %q", resp.Message)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("expected citations for both queried tables, got %d", len(resp.Citations))
	}
	tables := map[string]bool{}
	for _, c := range resp.Citations {
		tables[c.Table] = true
	}
	if !tables["downtime_events"] || !tables["production_runs"] {
		t.Errorf("citations missing a queried table: %v", resp.Citations)
	}
}

func TestInvoke_NilHandlerResult(t *testing.T) {
	reg := registry.New()
	err := reg.Register(registry.Descriptor{
		Name: "broken_tool",
		Tier: cache.TierStatic,
		Handler: func(ctx context.Context, params map[string]any, src datasource.Source) (*datasource.Result, error) {
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	store, err := cache.NewStore(cache.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	o := New(reg, store, fixtureSource(), nil)

	resp := o.Invoke(context.Background(), Request{Tool: "broken_tool", Caller: "u1"})
	if resp.OK {
		t.Fatal("nil handler result must be treated as a failure")
	}
	if resp.Message != MsgUnavailable {
		t.Errorf("message = %q, want %q", resp.Message, MsgUnavailable)
	}
}

func TestStats_RequiresPrivilege(t *testing.T) {
	o, _ := newTestOrchestrator(t, fixtureSource())

	if _, err := o.Stats(context.Background()); !errors.Is(err, auth.ErrMissingIdentity) {
		t.Errorf("no identity: got %v, want ErrMissingIdentity", err)
	}

	plain := auth.WithIdentity(context.Background(), &auth.Identity{Principal: "u1"})
	if _, err := o.Stats(plain); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("plain caller: got %v, want ErrForbidden", err)
	}

	admin := auth.WithIdentity(context.Background(), &auth.Identity{Principal: "ops", Roles: []string{auth.RoleAdmin}})
	o.Invoke(context.Background(), Request{Tool: "downtime_summary", Params: map[string]any{"line": "Line 2"}, Caller: "u1"})

	stats, err := o.Stats(admin)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.Misses != 1 {
		t.Errorf("stats.Misses = %d, want 1", stats.Misses)
	}
}

func TestInvalidate_RequiresPrivilege(t *testing.T) {
	o, _ := newTestOrchestrator(t, fixtureSource())

	req := Request{Tool: "downtime_summary", Params: map[string]any{"line": "Line 2"}, Caller: "u1"}
	o.Invoke(context.Background(), req)

	sel := cache.Selector{Tool: "downtime_summary", Trigger: "test"}
	if _, err := o.Invalidate(context.Background(), sel); !errors.Is(err, auth.ErrMissingIdentity) {
		t.Errorf("no identity: got %v, want ErrMissingIdentity", err)
	}

	admin := auth.WithIdentity(context.Background(), &auth.Identity{Principal: "ops", Roles: []string{auth.RoleAdmin}})
	n, err := o.Invalidate(admin, sel)
	if err != nil {
		t.Fatalf("admin invalidate: %v", err)
	}
	if n != 1 {
		t.Errorf("invalidated %d entries, want 1", n)
	}

	if resp := o.Invoke(context.Background(), req); resp.Cached {
		t.Error("invoke after invalidation must re-execute")
	}
}
