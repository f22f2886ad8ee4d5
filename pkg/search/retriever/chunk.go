package retriever

import (
	"context"
	"errors"

	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/store"
)

// ErrNoQueryVector is returned by vector-backed adapters when the shared
// query embedding is missing (embedding provider failed upstream).
var ErrNoQueryVector = errors.New("query vector not available")

// ChunkRetriever searches document-chunk embeddings by cosine similarity.
type ChunkRetriever struct {
	repo      contract.ChunkRepository
	threshold float64
}

func NewChunkRetriever(repo contract.ChunkRepository, threshold float64) *ChunkRetriever {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &ChunkRetriever{repo: repo, threshold: threshold}
}

func (r *ChunkRetriever) Name() store.Backend {
	return store.BackendChunk
}

func (r *ChunkRetriever) NeedsQueryVector() bool {
	return true
}

func (r *ChunkRetriever) Retrieve(ctx context.Context, q Query) ([]store.RetrievalResult, error) {
	if len(q.Vector) == 0 {
		return nil, ErrNoQueryVector
	}

	scored, err := r.repo.SearchSimilarWithScore(ctx, q.Vector, q.Limit, q.WorkspaceId, r.threshold)
	if err != nil {
		return nil, err
	}

	results := make([]store.RetrievalResult, len(scored))
	for i, s := range scored {
		created := s.Chunk.CreatedAt
		results[i] = store.RetrievalResult{
			Id:          s.Chunk.Id.String(),
			Backend:     store.BackendChunk,
			WorkspaceId: s.Chunk.WorkspaceId,
			Content:     s.Chunk.Content,
			Similarity:  s.Similarity,
			Embedding:   s.Embedding,
			Timestamp:   &created,
		}
	}
	return results, nil
}
