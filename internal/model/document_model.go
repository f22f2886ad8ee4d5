package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is one ingested source (a PDF catalog, a datasheet) scoped to a
// workspace. Extraction happens upstream; we only receive pre-cut chunks.
type Document struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	WorkspaceId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:varchar(500);not null"`
	SourceURL   string         `gorm:"type:text"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentChunk is one extracted text chunk, ordered within its document.
type DocumentChunk struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DocumentId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	WorkspaceId uuid.UUID      `gorm:"type:uuid;not null;index"`
	ChunkIndex  int            `gorm:"not null"`
	Content     string         `gorm:"type:text;not null"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
