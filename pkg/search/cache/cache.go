package cache

import (
	"context"
	"time"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Store is the persistence behind the response cache. Implementations must
// expire entries after the supplied TTL and support workspace-scoped
// invalidation.
type Store interface {
	Get(ctx context.Context, key string) (*store.ResponseEnvelope, bool, error)
	Set(ctx context.Context, key string, workspaceId uuid.UUID, env *store.ResponseEnvelope, ttl time.Duration) error
	InvalidateWorkspace(ctx context.Context, workspaceId uuid.UUID) error
}

// ResponseCache deduplicates identical in-flight work via singleflight and
// shares computed envelopes across requests until TTL or invalidation.
// Store failures are non-fatal: the pipeline falls back to direct
// computation without caching.
type ResponseCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger logger.ILogger
}

func NewResponseCache(s Store, ttl time.Duration, log logger.ILogger) *ResponseCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResponseCache{
		store:  s,
		ttl:    ttl,
		logger: log,
	}
}

// GetOrCompute returns the cached envelope for key, or runs compute exactly
// once per key regardless of how many callers arrive concurrently. The bool
// reports whether the caller was served from cache (or from another caller's
// in-flight computation).
func (c *ResponseCache) GetOrCompute(
	ctx context.Context,
	key string,
	workspaceId uuid.UUID,
	compute func(context.Context) (*store.ResponseEnvelope, error),
) (*store.ResponseEnvelope, bool, error) {

	if env, ok := c.lookup(ctx, key); ok {
		return env, true, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Double-check: another flight may have stored the entry between
		// our miss and acquiring the flight.
		if env, ok := c.lookup(ctx, key); ok {
			return env, nil
		}

		env, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		if err := c.store.Set(ctx, key, workspaceId, env, c.ttl); err != nil {
			c.logger.Warn("cache", "Failed to store response, serving uncached", map[string]interface{}{
				"fingerprint": key,
				"error":       err.Error(),
			})
		}
		return env, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.(*store.ResponseEnvelope), shared, nil
}

// InvalidateWorkspace drops every entry computed for the workspace. Called
// when new content is ingested so stale result sets don't outlive the data.
func (c *ResponseCache) InvalidateWorkspace(ctx context.Context, workspaceId uuid.UUID) error {
	if err := c.store.InvalidateWorkspace(ctx, workspaceId); err != nil {
		c.logger.Warn("cache", "Workspace invalidation failed", map[string]interface{}{
			"workspace_id": workspaceId.String(),
			"error":        err.Error(),
		})
		return err
	}
	c.logger.Info("cache", "Workspace cache invalidated", map[string]interface{}{
		"workspace_id": workspaceId.String(),
	})
	return nil
}

func (c *ResponseCache) lookup(ctx context.Context, key string) (*store.ResponseEnvelope, bool) {
	env, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache", "Cache read failed, computing directly", map[string]interface{}{
			"fingerprint": key,
			"error":       err.Error(),
		})
		return nil, false
	}
	return env, ok
}
