package cache

import (
	"context"
	"sync"
	"time"

	pkgstore "material-search-be/pkg/store"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps envelopes in-process using go-cache, with a side index
// from workspace to its fingerprints so invalidation stays tenant-scoped.
type MemoryStore struct {
	cache *gocache.Cache

	mu      sync.Mutex
	byWs    map[uuid.UUID]map[string]bool
	keyToWs map[string]uuid.UUID
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	s := &MemoryStore{
		cache:   gocache.New(defaultTTL, 5*time.Minute),
		byWs:    make(map[uuid.UUID]map[string]bool),
		keyToWs: make(map[string]uuid.UUID),
	}
	// Keep the workspace index in sync when go-cache purges expired entries.
	s.cache.OnEvicted(func(key string, _ interface{}) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.forgetLocked(key)
	})
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*pkgstore.ResponseEnvelope, bool, error) {
	if v, found := s.cache.Get(key); found {
		return v.(*pkgstore.ResponseEnvelope), true, nil
	}
	return nil, false, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, workspaceId uuid.UUID, env *pkgstore.ResponseEnvelope, ttl time.Duration) error {
	s.cache.Set(key, env, ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byWs[workspaceId] == nil {
		s.byWs[workspaceId] = make(map[string]bool)
	}
	s.byWs[workspaceId][key] = true
	s.keyToWs[key] = workspaceId
	return nil
}

func (s *MemoryStore) InvalidateWorkspace(_ context.Context, workspaceId uuid.UUID) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.byWs[workspaceId]))
	for key := range s.byWs[workspaceId] {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	// Delete triggers OnEvicted, which prunes the index entries.
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}

func (s *MemoryStore) forgetLocked(key string) {
	if ws, ok := s.keyToWs[key]; ok {
		delete(s.byWs[ws], key)
		if len(s.byWs[ws]) == 0 {
			delete(s.byWs, ws)
		}
		delete(s.keyToWs, key)
	}
}
