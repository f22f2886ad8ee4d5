package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Material is one catalog product record (tile, slab, panel) detected during
// ingestion. Catalog attributes that don't need indexing live in Metadata
// (designer, collection, dimensions, colors).
type Material struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	WorkspaceId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name             string         `gorm:"type:varchar(500);not null"`
	MaterialType     string         `gorm:"type:varchar(100);index"`
	Description      string         `gorm:"type:text"`
	PriceAmount      *float64       `gorm:"type:numeric"`
	Currency         string         `gorm:"type:varchar(10)"`
	Available        bool           `gorm:"not null;default:true"`
	SourceDocumentId *uuid.UUID     `gorm:"type:uuid;index"`
	Metadata         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (Material) TableName() string {
	return "materials"
}

// MaterialEmbedding is the single embedding row per material, computed over a
// composed text of name, type, colors and description.
type MaterialEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	MaterialId     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	WorkspaceId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (MaterialEmbedding) TableName() string {
	return "material_embeddings"
}
