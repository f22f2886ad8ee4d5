package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgstore "material-search-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "search:cache:"
	redisIndexPrefix = "search:ws:"
)

// RedisStore shares the response cache across instances. Each workspace owns
// a SET of its fingerprints so invalidation only touches that tenant's keys.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*pkgstore.ResponseEnvelope, bool, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var env pkgstore.ResponseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached envelope: %w", err)
	}
	return &env, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, workspaceId uuid.UUID, env *pkgstore.ResponseEnvelope, ttl time.Duration) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+key, data, ttl)
	indexKey := redisIndexPrefix + workspaceId.String()
	pipe.SAdd(ctx, indexKey, key)
	// The index outlives entries slightly; invalidation tolerates stale
	// members, it just deletes keys that are already gone.
	pipe.Expire(ctx, indexKey, ttl*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) InvalidateWorkspace(ctx context.Context, workspaceId uuid.UUID) error {
	indexKey := redisIndexPrefix + workspaceId.String()

	members, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis smembers: %w", err)
	}

	if len(members) > 0 {
		keys := make([]string, len(members))
		for i, m := range members {
			keys[i] = redisKeyPrefix + m
		}
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del entries: %w", err)
		}
	}

	if err := s.rdb.Del(ctx, indexKey).Err(); err != nil {
		return fmt.Errorf("redis del index: %w", err)
	}
	return nil
}
