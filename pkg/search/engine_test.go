package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/embedding"
	"material-search-be/pkg/llm"
	"material-search-be/pkg/search/access"
	"material-search-be/pkg/search/cache"
	"material-search-be/pkg/search/compose"
	"material-search-be/pkg/search/orchestrator"
	"material-search-be/pkg/search/retriever"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(context.Context, string, string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}},
	}, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(context.Context, string, ...llm.Option) (string, error) {
	return f.response, f.err
}

type fakeRetriever struct {
	name    store.Backend
	results []store.RetrievalResult
	err     error
	calls   int
}

func (f *fakeRetriever) Name() store.Backend    { return f.name }
func (f *fakeRetriever) NeedsQueryVector() bool { return f.name != store.BackendKeyword }

func (f *fakeRetriever) Retrieve(ctx context.Context, q retriever.Query) ([]store.RetrievalResult, error) {
	f.calls++
	return f.results, f.err
}

func catalogResults(ws uuid.UUID, backend store.Backend, n int) []store.RetrievalResult {
	results := make([]store.RetrievalResult, n)
	for i := range results {
		results[i] = store.RetrievalResult{
			Id:          fmt.Sprintf("%s-%d", backend, i),
			Backend:     backend,
			WorkspaceId: ws,
			Title:       fmt.Sprintf("Result %d", i),
			Content:     fmt.Sprintf("distinct %s content number %d", backend, i),
			Similarity:  0.9 - float64(i)*0.05,
		}
	}
	return results
}

type engineFixture struct {
	engine     *Engine
	claims     access.Claims
	retrievers map[store.Backend]retriever.Retriever
}

func newEngineFixture(t *testing.T, retrievers map[store.Backend]retriever.Retriever, withCache bool) *engineFixture {
	t.Helper()
	log := logger.NewNopLogger()

	orch := orchestrator.NewOrchestrator(retrievers, fakeEmbedder{}, orchestrator.DefaultConfig(), log)
	composer := compose.NewComposer(&fakeLLM{response: "generated summary [1]"}, compose.DefaultConfig(), log)
	guard := access.NewGuard(log)

	var responseCache *cache.ResponseCache
	if withCache {
		responseCache = cache.NewResponseCache(cache.NewMemoryStore(time.Minute), time.Minute, log)
	}

	engine := NewEngine(guard, orch, composer, responseCache, DefaultConfig(), log)
	return &engineFixture{
		engine: engine,
		claims: access.Claims{
			WorkspaceId: uuid.New(),
			Role:        "member",
			Permissions: []string{access.PermissionRead, access.PermissionGenerate},
		},
		retrievers: retrievers,
	}
}

func defaultRetrievers(ws uuid.UUID) map[store.Backend]retriever.Retriever {
	return map[store.Backend]retriever.Retriever{
		store.BackendChunk:    &fakeRetriever{name: store.BackendChunk, results: catalogResults(ws, store.BackendChunk, 3)},
		store.BackendMaterial: &fakeRetriever{name: store.BackendMaterial, results: catalogResults(ws, store.BackendMaterial, 2)},
		store.BackendKeyword:  &fakeRetriever{name: store.BackendKeyword, results: catalogResults(ws, store.BackendKeyword, 2)},
	}
}

func TestSearchQuickHappyPath(t *testing.T) {
	ws := uuid.New()
	fx := newEngineFixture(t, defaultRetrievers(ws), false)
	fx.claims.WorkspaceId = ws

	env, err := fx.engine.Search(context.Background(), fx.claims, Request{
		Query: "Taupe ceramic tile",
		Mode:  store.ModeQuick,
	})
	require.NoError(t, err)

	assert.Equal(t, store.ModeQuick, env.Mode)
	assert.Len(t, env.Documents, 7)
	assert.Nil(t, env.GeneratedResponse, "quick mode must not generate")
	assert.False(t, env.Degraded)
	assert.False(t, env.FromCache)
	for _, backend := range []store.Backend{store.BackendChunk, store.BackendMaterial, store.BackendKeyword} {
		assert.Equal(t, store.BackendOK, env.BackendStatus[backend])
	}
}

func TestSearchDetailedGenerates(t *testing.T) {
	ws := uuid.New()
	fx := newEngineFixture(t, defaultRetrievers(ws), false)
	fx.claims.WorkspaceId = ws

	env, err := fx.engine.Search(context.Background(), fx.claims, Request{
		Query: "compare taupe tiles",
		Mode:  store.ModeDetailed,
	})
	require.NoError(t, err)
	require.NotNil(t, env.GeneratedResponse)
	assert.Equal(t, "generated summary [1]", *env.GeneratedResponse)
}

func TestSearchValidation(t *testing.T) {
	ws := uuid.New()
	fx := newEngineFixture(t, defaultRetrievers(ws), false)
	fx.claims.WorkspaceId = ws

	low, high := 50.0, 10.0
	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty query", req: Request{Query: "   "}},
		{name: "unknown mode", req: Request{Query: "tile", Mode: "turbo"}},
		{name: "inverted price range", req: Request{Query: "tile", Filters: store.Filters{PriceMin: &low, PriceMax: &high}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.engine.Search(context.Background(), fx.claims, tt.req)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestSearchEmptyModeDefaultsToQuick(t *testing.T) {
	ws := uuid.New()
	fx := newEngineFixture(t, defaultRetrievers(ws), false)
	fx.claims.WorkspaceId = ws

	env, err := fx.engine.Search(context.Background(), fx.claims, Request{Query: "tile"})
	require.NoError(t, err)
	assert.Equal(t, store.ModeQuick, env.Mode)
}

func TestSearchPermissionDenied(t *testing.T) {
	ws := uuid.New()
	fx := newEngineFixture(t, defaultRetrievers(ws), false)
	fx.claims.WorkspaceId = ws
	fx.claims.Permissions = []string{access.PermissionRead}

	_, err := fx.engine.Search(context.Background(), fx.claims, Request{
		Query: "tile",
		Mode:  store.ModeDetailed,
	})
	assert.ErrorIs(t, err, access.ErrPermissionDenied)

	// The denied request must not have touched any backend.
	for backend, rt := range fx.retrievers {
		assert.Zero(t, rt.(*fakeRetriever).calls, "backend %s was dispatched despite denial", backend)
	}
}

func TestSearchDropsForeignWorkspaceResults(t *testing.T) {
	ws := uuid.New()
	foreign := uuid.New()

	poisoned := catalogResults(ws, store.BackendKeyword, 2)
	poisoned = append(poisoned, store.RetrievalResult{
		Id:          "foreign-1",
		Backend:     store.BackendKeyword,
		WorkspaceId: foreign,
		Content:     "someone else's catalog entry",
		Similarity:  0.99,
	})

	retrievers := map[store.Backend]retriever.Retriever{
		store.BackendKeyword: &fakeRetriever{name: store.BackendKeyword, results: poisoned},
	}
	fx := newEngineFixture(t, retrievers, false)
	fx.claims.WorkspaceId = ws

	env, err := fx.engine.Search(context.Background(), fx.claims, Request{Query: "tile"})
	require.NoError(t, err)

	for _, doc := range env.Documents {
		assert.Equal(t, ws, doc.WorkspaceId, "foreign result %s leaked into the envelope", doc.Id)
	}
	assert.Len(t, env.Documents, 2)
}

func TestSearchPartialFailureDegrades(t *testing.T) {
	ws := uuid.New()
	retrievers := defaultRetrievers(ws)
	retrievers[store.BackendChunk] = &fakeRetriever{
		name: store.BackendChunk,
		err:  errors.New("pgvector down"),
	}

	fx := newEngineFixture(t, retrievers, false)
	fx.claims.WorkspaceId = ws

	env, err := fx.engine.Search(context.Background(), fx.claims, Request{Query: "tile"})
	require.NoError(t, err)
	assert.True(t, env.Degraded)
	assert.Equal(t, store.BackendError, env.BackendStatus[store.BackendChunk])
	assert.NotEmpty(t, env.Documents)
}

func TestSearchAllBackendsFailed(t *testing.T) {
	ws := uuid.New()
	retrievers := map[store.Backend]retriever.Retriever{
		store.BackendChunk:   &fakeRetriever{name: store.BackendChunk, err: errors.New("down")},
		store.BackendKeyword: &fakeRetriever{name: store.BackendKeyword, err: errors.New("down")},
	}
	fx := newEngineFixture(t, retrievers, false)
	fx.claims.WorkspaceId = ws

	_, err := fx.engine.Search(context.Background(), fx.claims, Request{Query: "tile"})
	assert.ErrorIs(t, err, orchestrator.ErrAllBackendsFailed)
}

func TestSearchMaxResultsClamped(t *testing.T) {
	ws := uuid.New()
	retrievers := map[store.Backend]retriever.Retriever{
		store.BackendKeyword: &fakeRetriever{name: store.BackendKeyword, results: catalogResults(ws, store.BackendKeyword, 30)},
	}
	fx := newEngineFixture(t, retrievers, false)
	fx.claims.WorkspaceId = ws

	env, err := fx.engine.Search(context.Background(), fx.claims, Request{Query: "tile", MaxResults: 4})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(env.Documents), 4)

	// Zero falls back to the default, which also bounds the output.
	env, err = fx.engine.Search(context.Background(), fx.claims, Request{Query: "tile"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(env.Documents), DefaultConfig().DefaultMaxResults)
}

func TestSearchCacheRoundTrip(t *testing.T) {
	ws := uuid.New()
	retrievers := defaultRetrievers(ws)
	fx := newEngineFixture(t, retrievers, true)
	fx.claims.WorkspaceId = ws

	req := Request{Query: "Taupe ceramic tile", Mode: store.ModeQuick}

	first, err := fx.engine.Search(context.Background(), fx.claims, req)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := fx.engine.Search(context.Background(), fx.claims, req)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Documents, second.Documents)

	// Each backend was dispatched exactly once across both requests.
	for backend, rt := range retrievers {
		assert.Equal(t, 1, rt.(*fakeRetriever).calls, "backend %s", backend)
	}

	// Whitespace and casing changes hit the same entry.
	third, err := fx.engine.Search(context.Background(), fx.claims, Request{Query: "  taupe   CERAMIC tile ", Mode: store.ModeQuick})
	require.NoError(t, err)
	assert.True(t, third.FromCache)
}

func TestSearchCacheIsolatedPerWorkspace(t *testing.T) {
	wsA := uuid.New()
	wsB := uuid.New()

	// One shared retriever that tags results with the caller's workspace.
	retrievers := map[store.Backend]retriever.Retriever{
		store.BackendKeyword: &workspaceEchoRetriever{},
	}
	fx := newEngineFixture(t, retrievers, true)

	claimsA := access.Claims{WorkspaceId: wsA, Permissions: []string{access.PermissionRead}}
	claimsB := access.Claims{WorkspaceId: wsB, Permissions: []string{access.PermissionRead}}
	req := Request{Query: "tile", Mode: store.ModeQuick}

	envA, err := fx.engine.Search(context.Background(), claimsA, req)
	require.NoError(t, err)
	envB, err := fx.engine.Search(context.Background(), claimsB, req)
	require.NoError(t, err)

	// Same query, different workspaces: B must not see A's cached envelope.
	assert.False(t, envB.FromCache)
	require.NotEmpty(t, envA.Documents)
	require.NotEmpty(t, envB.Documents)
	assert.Equal(t, wsA, envA.Documents[0].WorkspaceId)
	assert.Equal(t, wsB, envB.Documents[0].WorkspaceId)
}

type workspaceEchoRetriever struct{}

func (workspaceEchoRetriever) Name() store.Backend    { return store.BackendKeyword }
func (workspaceEchoRetriever) NeedsQueryVector() bool { return false }

func (workspaceEchoRetriever) Retrieve(ctx context.Context, q retriever.Query) ([]store.RetrievalResult, error) {
	return []store.RetrievalResult{{
		Id:          "echo-" + q.WorkspaceId.String(),
		Backend:     store.BackendKeyword,
		WorkspaceId: q.WorkspaceId,
		Content:     "workspace scoped entry " + q.WorkspaceId.String(),
		Similarity:  0.8,
	}}, nil
}
