package retriever

import (
	"context"

	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/store"
)

// MaterialRetriever searches material/product embeddings by cosine similarity
// with conjunctive predicates over material_type, availability and price.
type MaterialRetriever struct {
	repo      contract.MaterialRepository
	threshold float64
}

func NewMaterialRetriever(repo contract.MaterialRepository, threshold float64) *MaterialRetriever {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &MaterialRetriever{repo: repo, threshold: threshold}
}

func (r *MaterialRetriever) Name() store.Backend {
	return store.BackendMaterial
}

func (r *MaterialRetriever) NeedsQueryVector() bool {
	return true
}

func (r *MaterialRetriever) Retrieve(ctx context.Context, q Query) ([]store.RetrievalResult, error) {
	if len(q.Vector) == 0 {
		return nil, ErrNoQueryVector
	}

	scored, err := r.repo.SearchSimilarWithScore(ctx, q.Vector, q.Limit, q.WorkspaceId, r.threshold, q.Filters)
	if err != nil {
		return nil, err
	}

	results := make([]store.RetrievalResult, len(scored))
	for i, s := range scored {
		materialId := s.Material.Id
		created := s.Material.CreatedAt

		var metadata map[string]interface{}
		if len(s.Material.Metadata) > 0 {
			// Metadata is stored as JSONB; decode failures leave it nil.
			_ = decodeJSON(s.Material.Metadata, &metadata)
		}

		results[i] = store.RetrievalResult{
			Id:          materialId.String(),
			Backend:     store.BackendMaterial,
			WorkspaceId: s.Material.WorkspaceId,
			Title:       s.Material.Name,
			Content:     s.Material.Description,
			MaterialId:  &materialId,
			Similarity:  s.Similarity,
			Embedding:   s.Embedding,
			Timestamp:   &created,
			Metadata:    metadata,
		}
	}
	return results, nil
}
