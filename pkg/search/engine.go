package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/search/access"
	"material-search-be/pkg/search/analyzer"
	"material-search-be/pkg/search/cache"
	"material-search-be/pkg/search/compose"
	"material-search-be/pkg/search/fusion"
	"material-search-be/pkg/search/orchestrator"
	"material-search-be/pkg/store"
)

// ErrInvalidQuery means the request itself is malformed (empty query,
// unknown mode, inverted price range). Nothing is dispatched.
var ErrInvalidQuery = errors.New("invalid query")

// Request is the engine's public search contract.
type Request struct {
	Query      string
	Mode       store.Mode
	Filters    store.Filters
	MaxResults int
}

// Config tunes the engine pipeline.
type Config struct {
	Analyzer analyzer.Config
	Fusion   fusion.Config
	// DefaultMaxResults applies when the request leaves MaxResults unset.
	DefaultMaxResults int
	// MaxResultsCap is the hard ceiling a request may ask for.
	MaxResultsCap int
	// RequestTimeout is the global per-request deadline propagated to every
	// adapter and the generation collaborator.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Analyzer:          analyzer.DefaultConfig(),
		Fusion:            fusion.DefaultConfig(),
		DefaultMaxResults: 10,
		MaxResultsCap:     50,
		RequestTimeout:    8 * time.Second,
	}
}

// Engine wires guard, cache, analyzer, fan-out, fusion and composer into the
// search pipeline. All state is request-scoped except the cache.
type Engine struct {
	guard    *access.Guard
	orch     *orchestrator.Orchestrator
	composer *compose.Composer
	cache    *cache.ResponseCache
	cfg      Config
	logger   logger.ILogger
}

func NewEngine(
	guard *access.Guard,
	orch *orchestrator.Orchestrator,
	composer *compose.Composer,
	responseCache *cache.ResponseCache,
	cfg Config,
	log logger.ILogger,
) *Engine {
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = 10
	}
	if cfg.MaxResultsCap <= 0 {
		cfg.MaxResultsCap = 50
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 8 * time.Second
	}
	return &Engine{
		guard:    guard,
		orch:     orch,
		composer: composer,
		cache:    responseCache,
		cfg:      cfg,
		logger:   log,
	}
}

// Search runs the full pipeline: validate, authorize, analyze, cache lookup,
// fan-out, fuse, compose. Validation and authorization errors surface
// immediately; backend partial failures surface as envelope status fields.
func (e *Engine) Search(ctx context.Context, claims access.Claims, req Request) (*store.ResponseEnvelope, error) {
	req, err := e.normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	ws, err := e.guard.Authorize(claims, req.Mode)
	if err != nil {
		return nil, err
	}

	analysis := analyzer.Analyze(req.Query, e.cfg.Analyzer)

	fingerprint := cache.Fingerprint(ws.WorkspaceId, analysis.Normalized, req.Mode, req.Filters, req.MaxResults)
	compute := func(cctx context.Context) (*store.ResponseEnvelope, error) {
		return e.runPipeline(cctx, ws, analysis, req)
	}

	if e.cache == nil {
		env, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return env, nil
	}

	env, fromCache, err := e.cache.GetOrCompute(ctx, fingerprint, ws.WorkspaceId, compute)
	if err != nil {
		return nil, err
	}

	// Serve a copy so the flag never leaks into the shared cached entry.
	out := *env
	out.FromCache = fromCache
	return &out, nil
}

func (e *Engine) runPipeline(ctx context.Context, ws access.WorkspaceContext, analysis store.QueryAnalysis, req Request) (*store.ResponseEnvelope, error) {
	dctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	resultsBySource, backendStatus, err := e.orch.Dispatch(dctx, analysis, req.Mode, ws, req.Filters, req.MaxResults)
	if err != nil {
		return nil, err
	}

	// Defense in depth: storage isolation should already scope every result,
	// but nothing tagged with a foreign workspace may continue.
	resultsBySource = e.guard.FilterForeign(ws, resultsBySource)

	realtime := resultsBySource[store.BackendRealtime]

	fused := fusion.Fuse(resultsBySource, req.MaxResults, e.cfg.Fusion)

	env := e.composer.Compose(dctx, req.Query, analysis, fused, realtime, req.Mode, backendStatus)
	return env, nil
}

func (e *Engine) normalizeRequest(req Request) (Request, error) {
	if req.Mode == "" {
		req.Mode = store.ModeQuick
	}
	if !req.Mode.Valid() {
		return req, fmt.Errorf("%w: unknown mode %q", ErrInvalidQuery, req.Mode)
	}
	if analyzer.Normalize(req.Query) == "" {
		return req, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	if req.Filters.PriceMin != nil && req.Filters.PriceMax != nil && *req.Filters.PriceMin > *req.Filters.PriceMax {
		return req, fmt.Errorf("%w: price_min exceeds price_max", ErrInvalidQuery)
	}
	if req.MaxResults <= 0 {
		req.MaxResults = e.cfg.DefaultMaxResults
	}
	if req.MaxResults > e.cfg.MaxResultsCap {
		req.MaxResults = e.cfg.MaxResultsCap
	}
	return req, nil
}
