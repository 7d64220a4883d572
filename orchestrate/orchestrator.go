package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rotationalphysics495/plantops/auth"
	"github.com/rotationalphysics495/plantops/cache"
	"github.com/rotationalphysics495/plantops/datasource"
	"github.com/rotationalphysics495/plantops/observe"
	"github.com/rotationalphysics495/plantops/registry"
)

// DefaultCallTimeout bounds a single handler execution.
const DefaultCallTimeout = 10 * time.Second

// Orchestrator executes registered tools through the response cache.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Invoke never returns an error; failures become structured
//   responses with a safe message while the cause is logged.
// - Caching: a handler error is never cached, and a timed-out execution
//   is treated as a query error, never as a cacheable result.
type Orchestrator struct {
	registry *registry.Registry
	store    *cache.Store
	mw       *cache.Middleware
	source   datasource.Source
	logger   *zap.Logger
	tracer   observe.Tracer
	metrics  observe.Metrics
	timeout  time.Duration
	now      func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCallTimeout overrides the per-call handler timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithKeyer overrides the cache-key derivation.
func WithKeyer(k cache.Keyer) Option {
	return func(o *Orchestrator) {
		o.mw = cache.NewMiddleware(o.store, k)
	}
}

// WithTracer attaches invocation tracing.
func WithTracer(t observe.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMetrics attaches invocation metrics.
func WithMetrics(m observe.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// New creates an Orchestrator over the given registry, cache store, and
// data source (typically a Router). A nil logger falls back to a no-op.
func New(reg *registry.Registry, store *cache.Store, src datasource.Source, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		registry: reg,
		store:    store,
		mw:       cache.NewMiddleware(store, nil),
		source:   src,
		logger:   logger,
		tracer:   observe.NewNoopTracer(),
		metrics:  observe.NewNoopMetrics(),
		timeout:  DefaultCallTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Invoke runs one tool request end to end and always returns a
// structured response. An unknown tool gets an honest refusal with zero
// citations. A force-refresh request bypasses the cache and rewrites it
// with the fresh result.
func (o *Orchestrator) Invoke(ctx context.Context, req Request) *Response {
	start := o.now()
	requestID := uuid.NewString()

	logger := o.logger.With(
		zap.String("tool", req.Tool),
		zap.String("caller", req.Caller),
		zap.String("request_id", requestID),
	)

	desc, ok := o.registry.Get(req.Tool)
	if !ok {
		logger.Warn("unknown tool requested")
		o.metrics.RecordInvoke(ctx, observe.InvokeMeta{Tool: req.Tool, Caller: req.Caller, RequestID: requestID},
			o.now().Sub(start), false, registry.ErrToolNotFound)
		return &Response{
			Message:   MsgUnknownTool,
			Tool:      req.Tool,
			Citations: []datasource.Provenance{},
			RequestID: requestID,
			Duration:  o.now().Sub(start),
		}
	}

	meta := observe.InvokeMeta{
		Tool:      req.Tool,
		Caller:    req.Caller,
		Tier:      desc.Tier.String(),
		RequestID: requestID,
	}
	ctx, span := o.tracer.StartSpan(ctx, meta)

	if req.ForceRefresh {
		ctx = cache.WithForceRefresh(ctx, true)
		logger.Debug("cache bypass requested")
	}

	payload, entry, err := o.mw.DoNamed(ctx, req.Tool, req.Caller, req.Params, desc.Tier, func(ctx context.Context) (any, error) {
		return o.execute(ctx, desc, req.Params)
	})

	duration := o.now().Sub(start)
	cached := entry != nil
	o.tracer.EndSpan(span, err)
	o.metrics.RecordInvoke(ctx, meta, duration, cached, err)

	if err != nil {
		logger.Error("tool execution failed",
			zap.Any("params", req.Params),
			zap.Bool("force_refresh", req.ForceRefresh),
			zap.Error(err),
		)
		return &Response{
			Message:   MsgUnavailable,
			Tool:      req.Tool,
			Citations: []datasource.Provenance{},
			RequestID: requestID,
			Duration:  duration,
		}
	}

	env, ok := payload.(*envelope)
	if !ok {
		// Only possible if a foreign payload was written under our key.
		logger.Error("cache returned foreign payload", zap.Any("payload_type", fmt.Sprintf("%T", payload)))
		return &Response{
			Message:   MsgUnavailable,
			Tool:      req.Tool,
			Citations: []datasource.Provenance{},
			RequestID: requestID,
			Duration:  duration,
		}
	}

	resp := &Response{
		OK:        true,
		Tool:      req.Tool,
		Data:      env.Rows,
		Citations: env.Citations,
		Cached:    cached,
		RequestID: requestID,
		Duration:  duration,
	}
	if cached {
		resp.CachedAt = entry.StoredAt
		logger.Debug("served from cache",
			zap.String("tier", desc.Tier.String()),
			zap.Time("stored_at", entry.StoredAt),
		)
	} else {
		logger.Info("tool executed",
			zap.String("tier", desc.Tier.String()),
			zap.Int("citations", len(env.Citations)),
			zap.Duration("duration", duration),
		)
	}
	return resp
}

// execute runs the handler bounded by the per-call timeout and wraps the
// result with the provenance of every query it issued.
func (o *Orchestrator) execute(ctx context.Context, desc registry.Descriptor, params map[string]any) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	rec := newRecordingSource(o.source)
	res, err := desc.Handler(callCtx, params, rec)
	if err != nil {
		var qe *datasource.QueryError
		if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &qe) {
			err = &datasource.QueryError{SourceID: o.source.Name(), Timeout: true, Err: err}
		}
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilResult, desc.Name)
	}

	return &envelope{
		Rows:      res.Rows,
		Citations: rec.citations(res.Provenance),
	}, nil
}

// Stats returns cache statistics. Requires a privileged identity on the
// context.
func (o *Orchestrator) Stats(ctx context.Context) (cache.Stats, error) {
	if err := auth.RequirePrivileged(ctx, "cache.stats"); err != nil {
		return cache.Stats{}, err
	}
	return o.store.Stats(), nil
}

// Invalidate removes cache entries matching the selector and returns the
// number evicted. Requires a privileged identity on the context.
func (o *Orchestrator) Invalidate(ctx context.Context, sel cache.Selector) (int, error) {
	if err := auth.RequirePrivileged(ctx, "cache.invalidate"); err != nil {
		return 0, err
	}
	return o.store.Invalidate(sel)
}
