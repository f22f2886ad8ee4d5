package service

import (
	"context"
	"fmt"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/events"
	pkgNats "material-search-be/pkg/nats"
	"material-search-be/pkg/search/cache"

	"github.com/google/uuid"
)

// IInvalidationService listens for content changes announced by other
// instances and drops the affected workspace's cached responses.
type IInvalidationService interface {
	Start() error
}

type invalidationService struct {
	subscriber    *pkgNats.Subscriber
	responseCache *cache.ResponseCache
	logger        logger.ILogger
}

func NewInvalidationService(
	subscriber *pkgNats.Subscriber,
	responseCache *cache.ResponseCache,
	log logger.ILogger,
) IInvalidationService {
	return &invalidationService{
		subscriber:    subscriber,
		responseCache: responseCache,
		logger:        log,
	}
}

func (s *invalidationService) Start() error {
	subject := fmt.Sprintf("events.%s", events.EventTypeContentIngested)
	return s.subscriber.Subscribe(subject, "search-cache-invalidator", s.handle)
}

func (s *invalidationService) handle(ctx context.Context, event events.Event) error {
	raw, ok := event.Payload()["workspace_id"].(string)
	if !ok {
		s.logger.Warn("invalidation", "Event without workspace_id, dropping", map[string]interface{}{
			"event_type": event.EventType(),
		})
		return nil // Malformed events are not retriable.
	}
	workspaceId, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("invalidation", "Event with invalid workspace_id, dropping", map[string]interface{}{
			"workspace_id": raw,
		})
		return nil
	}
	return s.responseCache.InvalidateWorkspace(ctx, workspaceId)
}
