package service

import (
	"context"
	"encoding/json"
	"time"

	"material-search-be/internal/dto"
	"material-search-be/internal/model"
	"material-search-be/internal/pkg/logger"
	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/events"
	pkgNats "material-search-be/pkg/nats"
	"material-search-be/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

type IIngestService interface {
	IngestDocument(ctx context.Context, workspaceId uuid.UUID, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	IngestMaterial(ctx context.Context, workspaceId uuid.UUID, req *dto.IngestMaterialRequest) (*dto.IngestMaterialResponse, error)
}

type ingestService struct {
	chunkRepo        contract.ChunkRepository
	materialRepo     contract.MaterialRepository
	publisherService IPublisherService
	eventPublisher   *pkgNats.Publisher
	logger           logger.ILogger
}

func NewIngestService(
	chunkRepo contract.ChunkRepository,
	materialRepo contract.MaterialRepository,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		chunkRepo:        chunkRepo,
		materialRepo:     materialRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *ingestService) IngestDocument(ctx context.Context, workspaceId uuid.UUID, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	doc := model.Document{
		Id:          uuid.New(),
		WorkspaceId: workspaceId,
		Title:       req.Title,
		SourceURL:   req.Source,
		CreatedAt:   time.Now(),
	}
	if err := s.chunkRepo.CreateDocument(ctx, &doc); err != nil {
		return nil, err
	}

	pieces := utils.SplitText(req.Content, ingestChunkSize, ingestChunkOverlap)
	chunks := make([]*model.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &model.DocumentChunk{
			Id:          uuid.New(),
			DocumentId:  doc.Id,
			WorkspaceId: workspaceId,
			ChunkIndex:  i,
			Content:     piece,
			CreatedAt:   time.Now(),
		}
	}
	if err := s.chunkRepo.CreateChunks(ctx, chunks); err != nil {
		return nil, err
	}

	if err := s.publishEmbedJob(ctx, dto.EmbedJobMessage{
		WorkspaceId: workspaceId,
		DocumentId:  &doc.Id,
	}); err != nil {
		return nil, err
	}
	s.publishIngested(ctx, workspaceId, "document", doc.Id)

	return &dto.IngestDocumentResponse{
		Id:         doc.Id,
		ChunkCount: len(chunks),
	}, nil
}

func (s *ingestService) IngestMaterial(ctx context.Context, workspaceId uuid.UUID, req *dto.IngestMaterialRequest) (*dto.IngestMaterialResponse, error) {
	material := model.Material{
		Id:           uuid.New(),
		WorkspaceId:  workspaceId,
		Name:         req.Name,
		MaterialType: req.MaterialType,
		Description:  req.Description,
		PriceAmount:  req.PriceAmount,
		Currency:     req.Currency,
		Available:    req.Available,
		CreatedAt:    time.Now(),
	}
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, err
		}
		material.Metadata = datatypes.JSON(raw)
	}
	if err := s.materialRepo.Create(ctx, &material); err != nil {
		return nil, err
	}

	if err := s.publishEmbedJob(ctx, dto.EmbedJobMessage{
		WorkspaceId: workspaceId,
		MaterialId:  &material.Id,
	}); err != nil {
		return nil, err
	}
	s.publishIngested(ctx, workspaceId, "material", material.Id)

	return &dto.IngestMaterialResponse{
		Id: material.Id,
	}, nil
}

func (s *ingestService) publishEmbedJob(ctx context.Context, payload dto.EmbedJobMessage) error {
	msgJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, msgJson)
}

// publishIngested tells other instances that workspace content changed so
// they can drop their cached responses. Auxiliary: failures are logged, not
// returned.
func (s *ingestService) publishIngested(ctx context.Context, workspaceId uuid.UUID, kind string, id uuid.UUID) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.ContentIngested(workspaceId, kind, id)
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("ingest", "Failed to publish content ingested event", map[string]interface{}{
			"workspace_id": workspaceId.String(),
			"error":        err.Error(),
		})
	}
}
