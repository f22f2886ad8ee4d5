package retriever

import (
	"context"
	"encoding/json"

	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/store"
)

func decodeJSON(raw []byte, out interface{}) error {
	return json.Unmarshal(raw, out)
}

// KeywordRetriever is the full-text fallback for terms that embed poorly:
// model numbers, exact product codes, short literal lookups.
type KeywordRetriever struct {
	repo contract.KeywordRepository
}

func NewKeywordRetriever(repo contract.KeywordRepository) *KeywordRetriever {
	return &KeywordRetriever{repo: repo}
}

func (r *KeywordRetriever) Name() store.Backend {
	return store.BackendKeyword
}

func (r *KeywordRetriever) NeedsQueryVector() bool {
	return false
}

func (r *KeywordRetriever) Retrieve(ctx context.Context, q Query) ([]store.RetrievalResult, error) {
	hits, err := r.repo.TextSearch(ctx, q.Text, q.WorkspaceId, q.Filters, q.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]store.RetrievalResult, len(hits))
	for i, hit := range hits {
		created := hit.CreatedAt
		results[i] = store.RetrievalResult{
			Id:          hit.Id,
			Backend:     store.BackendKeyword,
			WorkspaceId: hit.WorkspaceId,
			Title:       hit.Title,
			Content:     hit.Content,
			MaterialId:  hit.MaterialId,
			Similarity:  hit.Rank,
			Timestamp:   &created,
		}
	}
	return results, nil
}
