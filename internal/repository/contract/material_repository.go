package contract

import (
	"context"

	"material-search-be/internal/model"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

// ScoredMaterial pairs a material with its similarity and stored vector.
type ScoredMaterial struct {
	Material   *model.Material
	Similarity float64
	Embedding  []float32
}

type MaterialRepository interface {
	Create(ctx context.Context, material *model.Material) error
	CreateEmbedding(ctx context.Context, embedding *model.MaterialEmbedding) error
	DeleteEmbedding(ctx context.Context, materialId uuid.UUID) error
	FindOne(ctx context.Context, id uuid.UUID) (*model.Material, error)
	// SearchSimilarWithScore applies the structured filters conjunctively on
	// top of the vector similarity threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, workspaceId uuid.UUID, threshold float64, filters store.Filters) ([]*ScoredMaterial, error)
}
