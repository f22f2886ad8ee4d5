package implementation

import (
	"context"
	"errors"

	"material-search-be/internal/model"
	"material-search-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{db: db}
}

func (r *ChunkRepositoryImpl) CreateDocument(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *ChunkRepositoryImpl) CreateChunks(ctx context.Context, chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(chunks).Error
}

func (r *ChunkRepositoryImpl) CreateEmbeddings(ctx context.Context, embeddings []*model.ChunkEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(embeddings).Error
}

func (r *ChunkRepositoryImpl) FindChunk(ctx context.Context, id uuid.UUID) (*model.DocumentChunk, error) {
	var m model.DocumentChunk
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *ChunkRepositoryImpl) FindChunksByDocument(ctx context.Context, documentId uuid.UUID) ([]*model.DocumentChunk, error) {
	var chunks []*model.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteEmbeddingsByDocument removes all embedding rows belonging to a
// document's chunks, so re-ingestion never leaves stale vectors behind.
func (r *ChunkRepositoryImpl) DeleteEmbeddingsByDocument(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("chunk_id IN (?)", r.db.Model(&model.DocumentChunk{}).
			Select("id").
			Where("document_id = ?", documentId)).
		Delete(&model.ChunkEmbedding{}).Error
}

// SearchSimilarWithScore runs workspace-scoped cosine similarity over chunk
// embeddings. A chunk with several embedding splits can match more than once;
// only its best split is kept.
func (r *ChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, workspaceId uuid.UUID, threshold float64) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query_vector) is the similarity.
	type row struct {
		model.DocumentChunk
		Similarity float64
		Vector     pgvector.Vector `gorm:"column:embedding_value"`
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	// Over-fetch to survive the per-chunk dedup below.
	err := r.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select(`document_chunks.*,
			1 - (chunk_embeddings.embedding_value <=> ?) AS similarity,
			chunk_embeddings.embedding_value`, queryVector).
		Joins("JOIN document_chunks ON document_chunks.id = chunk_embeddings.chunk_id").
		Where("chunk_embeddings.workspace_id = ?", workspaceId).
		Where("chunk_embeddings.deleted_at IS NULL").
		Where("document_chunks.deleted_at IS NULL").
		Where("1 - (chunk_embeddings.embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit * 2).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, 0, limit)
	seen := make(map[uuid.UUID]bool)
	for i := range rows {
		if seen[rows[i].DocumentChunk.Id] {
			continue
		}
		seen[rows[i].DocumentChunk.Id] = true

		chunk := rows[i].DocumentChunk
		scored = append(scored, &contract.ScoredChunk{
			Chunk:      &chunk,
			Similarity: rows[i].Similarity,
			Embedding:  rows[i].Vector.Slice(),
		})
		if len(scored) == limit {
			break
		}
	}
	return scored, nil
}
