package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"material-search-be/internal/dto"
	"material-search-be/internal/model"
	"material-search-be/internal/repository/contract"
	"material-search-be/pkg/embedding"
	"material-search-be/pkg/search/cache"
	"material-search-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunkRepo         contract.ChunkRepository
	materialRepo      contract.MaterialRepository
	embeddingProvider embedding.EmbeddingProvider
	responseCache     *cache.ResponseCache
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.ChunkRepository,
	materialRepo contract.MaterialRepository,
	embeddingProvider embedding.EmbeddingProvider,
	responseCache *cache.ResponseCache,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunkRepo:         chunkRepo,
		materialRepo:      materialRepo,
		embeddingProvider: embeddingProvider,
		responseCache:     responseCache,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal embed job: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	var err error
	switch {
	case payload.DocumentId != nil:
		err = cs.embedDocument(ctx, payload.WorkspaceId, *payload.DocumentId)
	case payload.MaterialId != nil:
		err = cs.embedMaterial(ctx, payload.WorkspaceId, *payload.MaterialId)
	default:
		log.Printf("[ERROR] Embed job carries neither document nor material id")
		msg.Ack()
		return
	}
	if err != nil {
		log.Printf("[ERROR] Embed job failed: %v", err)
		msg.Nack() // Nack for retriable errors
		return
	}

	// Fresh vectors make previously cached result sets stale.
	if cs.responseCache != nil {
		if err := cs.responseCache.InvalidateWorkspace(ctx, payload.WorkspaceId); err != nil {
			log.Printf("[WARN] Cache invalidation failed for workspace %s: %v", payload.WorkspaceId, err)
		}
	}

	msg.Ack()
}

func (cs *consumerService) embedDocument(ctx context.Context, workspaceId uuid.UUID, documentId uuid.UUID) error {
	chunks, err := cs.chunkRepo.FindChunksByDocument(ctx, documentId)
	if err != nil {
		return fmt.Errorf("fetch chunks for document %s: %w", documentId, err)
	}
	if len(chunks) == 0 {
		log.Printf("[WARN] Document %s has no chunks, nothing to embed", documentId)
		return nil
	}

	log.Printf("[INFO] Embedding %d chunks for document %s", len(chunks), documentId)

	var newEmbeddings []*model.ChunkEmbedding
	for _, chunk := range chunks {
		// Long chunks get split again so every piece fits the model context.
		splits := utils.SplitText(chunk.Content, 1500, 200)
		for si, split := range splits {
			res, err := cs.embeddingProvider.Generate(ctx, split, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("generate embedding for chunk %s split %d: %w", chunk.Id, si, err)
			}
			newEmbeddings = append(newEmbeddings, &model.ChunkEmbedding{
				Id:             uuid.New(),
				ChunkId:        chunk.Id,
				WorkspaceId:    workspaceId,
				SplitIndex:     si,
				EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
				CreatedAt:      time.Now(),
			})
		}
	}

	if err := cs.chunkRepo.DeleteEmbeddingsByDocument(ctx, documentId); err != nil {
		return fmt.Errorf("delete old embeddings for document %s: %w", documentId, err)
	}
	if err := cs.chunkRepo.CreateEmbeddings(ctx, newEmbeddings); err != nil {
		return fmt.Errorf("store embeddings for document %s: %w", documentId, err)
	}

	log.Printf("[SUCCESS] Stored %d embeddings for document %s", len(newEmbeddings), documentId)
	return nil
}

func (cs *consumerService) embedMaterial(ctx context.Context, workspaceId uuid.UUID, materialId uuid.UUID) error {
	material, err := cs.materialRepo.FindOne(ctx, materialId)
	if err != nil {
		return fmt.Errorf("fetch material %s: %w", materialId, err)
	}
	if material == nil {
		log.Printf("[WARN] Material %s not found, skipping embed", materialId)
		return nil
	}

	res, err := cs.embeddingProvider.Generate(ctx, materialEmbedText(material), embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("generate embedding for material %s: %w", materialId, err)
	}

	if err := cs.materialRepo.DeleteEmbedding(ctx, materialId); err != nil {
		return fmt.Errorf("delete old embedding for material %s: %w", materialId, err)
	}
	if err := cs.materialRepo.CreateEmbedding(ctx, &model.MaterialEmbedding{
		Id:             uuid.New(),
		MaterialId:     materialId,
		WorkspaceId:    workspaceId,
		EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
		CreatedAt:      time.Now(),
	}); err != nil {
		return fmt.Errorf("store embedding for material %s: %w", materialId, err)
	}

	log.Printf("[SUCCESS] Stored embedding for material %s", materialId)
	return nil
}

// materialEmbedText composes the text the material vector is computed over.
func materialEmbedText(m *model.Material) string {
	parts := []string{m.Name, m.MaterialType, m.Description}
	if len(m.Metadata) > 0 {
		var meta map[string]interface{}
		if err := json.Unmarshal(m.Metadata, &meta); err == nil {
			for _, key := range []string{"colors", "collection", "designer", "dimensions"} {
				if v, ok := meta[key]; ok {
					parts = append(parts, fmt.Sprintf("%v", v))
				}
			}
		}
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
