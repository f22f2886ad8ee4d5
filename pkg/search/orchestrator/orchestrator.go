package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/embedding"
	"material-search-be/pkg/search/access"
	"material-search-be/pkg/search/retriever"
	"material-search-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

// ErrAllBackendsFailed means every adapter selected for the requested mode
// failed or timed out. Empty result sets are not failures.
var ErrAllBackendsFailed = errors.New("all retrieval backends failed")

// Config tunes the fan-out.
type Config struct {
	// ModeBackends maps each mode to the backend set it dispatches to.
	ModeBackends map[store.Mode][]store.Backend
	// AdapterTimeout bounds each adapter call under the request deadline.
	AdapterTimeout time.Duration
	// GracePeriod is how long past AdapterTimeout an adapter that ignores
	// cancellation is awaited before its eventual result is discarded.
	GracePeriod time.Duration
}

// DefaultConfig dispatches quick searches to the three catalog backends and
// adds the realtime feed for detailed/hybrid. The realtime backend is only
// invoked if a retriever for it was registered.
func DefaultConfig() Config {
	return Config{
		ModeBackends: map[store.Mode][]store.Backend{
			store.ModeQuick:    {store.BackendChunk, store.BackendMaterial, store.BackendKeyword},
			store.ModeDetailed: {store.BackendChunk, store.BackendMaterial, store.BackendKeyword, store.BackendRealtime},
			store.ModeHybrid:   {store.BackendChunk, store.BackendMaterial, store.BackendKeyword, store.BackendRealtime},
		},
		AdapterTimeout: 3 * time.Second,
		GracePeriod:    250 * time.Millisecond,
	}
}

// Orchestrator dispatches the selected adapters concurrently and aggregates
// partial results and failures.
type Orchestrator struct {
	retrievers map[store.Backend]retriever.Retriever
	embedder   embedding.EmbeddingProvider
	cfg        Config
	logger     logger.ILogger
}

func NewOrchestrator(
	retrievers map[store.Backend]retriever.Retriever,
	embedder embedding.EmbeddingProvider,
	cfg Config,
	log logger.ILogger,
) *Orchestrator {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 3 * time.Second
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 250 * time.Millisecond
	}
	return &Orchestrator{
		retrievers: retrievers,
		embedder:   embedder,
		cfg:        cfg,
		logger:     log,
	}
}

type adapterOutcome struct {
	results []store.RetrievalResult
	err     error
}

// Dispatch embeds the query once, fans out to every adapter configured for
// the mode, and waits for all of them (or the deadline). Per-adapter failures
// are recorded in the status map; the call only errors when zero adapters
// succeeded.
func (o *Orchestrator) Dispatch(
	ctx context.Context,
	analysis store.QueryAnalysis,
	mode store.Mode,
	ws access.WorkspaceContext,
	filters store.Filters,
	limit int,
) (map[store.Backend][]store.RetrievalResult, map[store.Backend]store.BackendState, error) {

	selected := o.selectBackends(mode)
	if len(selected) == 0 {
		return nil, nil, ErrAllBackendsFailed
	}

	// One embedding per request, shared by the vector adapters. On failure
	// the vector adapters degrade to an error status while keyword (and
	// realtime) proceed.
	var vector []float32
	if o.needsVector(selected) {
		res, err := o.embedder.Generate(ctx, analysis.Normalized, embedding.TaskRetrievalQuery)
		if err != nil {
			o.logger.Warn("orchestrator", "Query embedding failed, vector backends degraded", map[string]interface{}{
				"workspace_id": ws.WorkspaceId.String(),
				"error":        err.Error(),
			})
		} else {
			vector = res.Embedding.Values
		}
	}

	query := retriever.Query{
		Text:        analysis.Normalized,
		Vector:      vector,
		WorkspaceId: ws.WorkspaceId,
		Filters:     filters,
		Limit:       limit,
	}

	var mu sync.Mutex
	resultsBySource := make(map[store.Backend][]store.RetrievalResult, len(selected))
	status := make(map[store.Backend]store.BackendState, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for _, backend := range selected {
		rt := o.retrievers[backend]
		g.Go(func() error {
			results, state := o.invoke(gctx, rt, query)
			mu.Lock()
			status[rt.Name()] = state
			if state == store.BackendOK {
				resultsBySource[rt.Name()] = results
			}
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; Wait is a pure join.
	_ = g.Wait()

	anyOK := false
	for _, state := range status {
		if state == store.BackendOK {
			anyOK = true
			break
		}
	}
	if !anyOK {
		return nil, status, ErrAllBackendsFailed
	}

	return resultsBySource, status, nil
}

// invoke runs one adapter under its own timeout. An adapter that does not
// honor cancellation within the grace period is treated as timed out and its
// late result is discarded.
func (o *Orchestrator) invoke(ctx context.Context, rt retriever.Retriever, query retriever.Query) ([]store.RetrievalResult, store.BackendState) {
	actx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	defer cancel()

	done := make(chan adapterOutcome, 1)
	go func() {
		results, err := rt.Retrieve(actx, query)
		done <- adapterOutcome{results: results, err: err}
	}()

	timer := time.NewTimer(o.cfg.AdapterTimeout + o.cfg.GracePeriod)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			state := store.BackendError
			if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, context.Canceled) {
				state = store.BackendTimeout
			}
			o.logger.Warn("orchestrator", "Backend adapter failed", map[string]interface{}{
				"backend": string(rt.Name()),
				"state":   string(state),
				"error":   out.err.Error(),
			})
			return nil, state
		}
		o.logger.Debug("orchestrator", "Backend adapter returned", map[string]interface{}{
			"backend": string(rt.Name()),
			"count":   len(out.results),
		})
		return out.results, store.BackendOK
	case <-timer.C:
		o.logger.Warn("orchestrator", "Backend adapter ignored cancellation, discarding", map[string]interface{}{
			"backend": string(rt.Name()),
		})
		return nil, store.BackendTimeout
	}
}

func (o *Orchestrator) selectBackends(mode store.Mode) []store.Backend {
	var selected []store.Backend
	for _, backend := range o.cfg.ModeBackends[mode] {
		if _, ok := o.retrievers[backend]; ok {
			selected = append(selected, backend)
		}
	}
	return selected
}

func (o *Orchestrator) needsVector(selected []store.Backend) bool {
	for _, backend := range selected {
		if o.retrievers[backend].NeedsQueryVector() {
			return true
		}
	}
	return false
}
