package contract

import (
	"context"

	"material-search-be/internal/model"

	"github.com/google/uuid"
)

// ScoredChunk pairs a chunk with its cosine similarity to the query vector.
// The stored vector rides along so the diversifier can compare candidates in
// the same embedding space.
type ScoredChunk struct {
	Chunk      *model.DocumentChunk
	Similarity float64
	Embedding  []float32
}

type ChunkRepository interface {
	CreateDocument(ctx context.Context, doc *model.Document) error
	CreateChunks(ctx context.Context, chunks []*model.DocumentChunk) error
	CreateEmbeddings(ctx context.Context, embeddings []*model.ChunkEmbedding) error
	FindChunk(ctx context.Context, id uuid.UUID) (*model.DocumentChunk, error)
	FindChunksByDocument(ctx context.Context, documentId uuid.UUID) ([]*model.DocumentChunk, error)
	DeleteEmbeddingsByDocument(ctx context.Context, documentId uuid.UUID) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, workspaceId uuid.UUID, threshold float64) ([]*ScoredChunk, error)
}
