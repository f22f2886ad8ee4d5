package implementation

import (
	"context"
	"sort"
	"strings"
	"time"

	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KeywordRepositoryImpl struct {
	db *gorm.DB
}

func NewKeywordRepository(db *gorm.DB) contract.KeywordRepository {
	return &KeywordRepositoryImpl{db: db}
}

// TextSearch runs Postgres full-text search over chunks and materials and
// merges both hit lists by rank. websearch_to_tsquery tolerates raw user
// input (quotes, dashes, model numbers) without erroring.
func (r *KeywordRepositoryImpl) TextSearch(ctx context.Context, query string, workspaceId uuid.UUID, filters store.Filters, limit int) ([]*contract.KeywordHit, error) {
	if limit <= 0 {
		limit = 10
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	chunkHits, err := r.searchChunks(ctx, query, workspaceId, limit)
	if err != nil {
		return nil, err
	}
	materialHits, err := r.searchMaterials(ctx, query, workspaceId, filters, limit)
	if err != nil {
		return nil, err
	}

	hits := append(chunkHits, materialHits...)
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Rank > hits[j].Rank
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type keywordRow struct {
	Id          uuid.UUID
	WorkspaceId uuid.UUID
	Title       string
	Content     string
	Rank        float64
	CreatedAt   time.Time
}

func (r *KeywordRepositoryImpl) searchChunks(ctx context.Context, query string, workspaceId uuid.UUID, limit int) ([]*contract.KeywordHit, error) {
	var rows []keywordRow

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select(`document_chunks.id, document_chunks.workspace_id,
			documents.title AS title, document_chunks.content,
			ts_rank(to_tsvector('simple', document_chunks.content), websearch_to_tsquery('simple', ?)) AS rank,
			document_chunks.created_at`, query).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("document_chunks.workspace_id = ?", workspaceId).
		Where("document_chunks.deleted_at IS NULL").
		Where("to_tsvector('simple', document_chunks.content) @@ websearch_to_tsquery('simple', ?)", query).
		Order("rank DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]*contract.KeywordHit, len(rows))
	for i, row := range rows {
		hits[i] = &contract.KeywordHit{
			Id:          row.Id.String(),
			WorkspaceId: row.WorkspaceId,
			Title:       row.Title,
			Content:     row.Content,
			Rank:        normalizeRank(row.Rank),
			CreatedAt:   row.CreatedAt,
		}
	}
	return hits, nil
}

func (r *KeywordRepositoryImpl) searchMaterials(ctx context.Context, query string, workspaceId uuid.UUID, filters store.Filters, limit int) ([]*contract.KeywordHit, error) {
	var rows []keywordRow

	q := r.db.WithContext(ctx).
		Table("materials").
		Select(`materials.id, materials.workspace_id, materials.name AS title,
			materials.description AS content,
			ts_rank(to_tsvector('simple', materials.name || ' ' || COALESCE(materials.description, '')), websearch_to_tsquery('simple', ?)) AS rank,
			materials.created_at`, query).
		Where("materials.workspace_id = ?", workspaceId).
		Where("materials.deleted_at IS NULL").
		Where("to_tsvector('simple', materials.name || ' ' || COALESCE(materials.description, '')) @@ websearch_to_tsquery('simple', ?)", query)

	if len(filters.MaterialTypes) > 0 {
		types := make([]string, len(filters.MaterialTypes))
		for i, t := range filters.MaterialTypes {
			types[i] = strings.ToLower(strings.TrimSpace(t))
		}
		q = q.Where("LOWER(materials.material_type) IN ?", types)
	}
	if filters.Availability != nil {
		q = q.Where("materials.available = ?", *filters.Availability)
	}
	if filters.PriceMin != nil {
		q = q.Where("materials.price_amount >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		q = q.Where("materials.price_amount <= ?", *filters.PriceMax)
	}

	err := q.Order("rank DESC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]*contract.KeywordHit, len(rows))
	for i, row := range rows {
		id := row.Id
		hits[i] = &contract.KeywordHit{
			Id:          id.String(),
			WorkspaceId: row.WorkspaceId,
			Title:       row.Title,
			Content:     row.Content,
			MaterialId:  &id,
			Rank:        normalizeRank(row.Rank),
			CreatedAt:   row.CreatedAt,
		}
	}
	return hits, nil
}

// normalizeRank maps unbounded ts_rank output into [0,1) so keyword hits are
// comparable with cosine similarities downstream.
func normalizeRank(rank float64) float64 {
	if rank < 0 {
		return 0
	}
	return rank / (rank + 1)
}
