package implementation

import (
	"context"
	"errors"
	"strings"

	"material-search-be/internal/model"
	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type MaterialRepositoryImpl struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) contract.MaterialRepository {
	return &MaterialRepositoryImpl{db: db}
}

func (r *MaterialRepositoryImpl) Create(ctx context.Context, material *model.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *MaterialRepositoryImpl) CreateEmbedding(ctx context.Context, embedding *model.MaterialEmbedding) error {
	return r.db.WithContext(ctx).Create(embedding).Error
}

func (r *MaterialRepositoryImpl) DeleteEmbedding(ctx context.Context, materialId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("material_id = ?", materialId).
		Delete(&model.MaterialEmbedding{}).Error
}

func (r *MaterialRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// SearchSimilarWithScore combines cosine similarity with conjunctive
// structured predicates (material_type, availability, price range).
func (r *MaterialRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, workspaceId uuid.UUID, threshold float64, filters store.Filters) ([]*contract.ScoredMaterial, error) {
	if limit <= 0 {
		limit = 10
	}

	type row struct {
		model.Material
		Similarity float64
		Vector     pgvector.Vector `gorm:"column:embedding_value"`
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("material_embeddings").
		Select(`materials.*,
			1 - (material_embeddings.embedding_value <=> ?) AS similarity,
			material_embeddings.embedding_value`, queryVector).
		Joins("JOIN materials ON materials.id = material_embeddings.material_id").
		Where("material_embeddings.workspace_id = ?", workspaceId).
		Where("material_embeddings.deleted_at IS NULL").
		Where("materials.deleted_at IS NULL").
		Where("1 - (material_embeddings.embedding_value <=> ?) >= ?", queryVector, threshold)

	if len(filters.MaterialTypes) > 0 {
		types := make([]string, len(filters.MaterialTypes))
		for i, t := range filters.MaterialTypes {
			types[i] = strings.ToLower(strings.TrimSpace(t))
		}
		query = query.Where("LOWER(materials.material_type) IN ?", types)
	}
	if filters.Availability != nil {
		query = query.Where("materials.available = ?", *filters.Availability)
	}
	if filters.PriceMin != nil {
		query = query.Where("materials.price_amount >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		query = query.Where("materials.price_amount <= ?", *filters.PriceMax)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredMaterial, len(rows))
	for i := range rows {
		material := rows[i].Material
		scored[i] = &contract.ScoredMaterial{
			Material:   &material,
			Similarity: rows[i].Similarity,
			Embedding:  rows[i].Vector.Slice(),
		}
	}
	return scored, nil
}
