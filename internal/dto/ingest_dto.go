package dto

import (
	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Source  string `json:"source"`
}

type IngestDocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	ChunkCount int       `json:"chunk_count"`
}

type IngestMaterialRequest struct {
	Name         string                 `json:"name" validate:"required"`
	MaterialType string                 `json:"material_type" validate:"required"`
	Description  string                 `json:"description"`
	PriceAmount  *float64               `json:"price_amount"`
	Currency     string                 `json:"currency"`
	Available    bool                   `json:"available"`
	Metadata     map[string]interface{} `json:"metadata"`
}

type IngestMaterialResponse struct {
	Id uuid.UUID `json:"id"`
}

// EmbedJobMessage is the payload of the in-process embedding job published
// after ingest. Exactly one of DocumentId / MaterialId is set.
type EmbedJobMessage struct {
	WorkspaceId uuid.UUID  `json:"workspace_id"`
	DocumentId  *uuid.UUID `json:"document_id,omitempty"`
	MaterialId  *uuid.UUID `json:"material_id,omitempty"`
}
