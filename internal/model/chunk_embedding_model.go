package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ChunkEmbedding holds one embedding vector for (a split of) a chunk. Long
// chunks are split before embedding, so a chunk may own several rows.
type ChunkEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ChunkId        uuid.UUID       `gorm:"type:uuid;not null;index"`
	WorkspaceId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SplitIndex     int             `gorm:"not null;default:0"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}
