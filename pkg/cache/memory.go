package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

func (m memoryItem) expired() bool {
	return time.Now().After(m.expireAt)
}

// MemoryCache implements Service with an in-process map. Suited to once-mode
// runs and tests; daemon deployments sharing payloads across hosts use Redis.
type MemoryCache struct {
	mu         sync.Mutex
	data       map[string]memoryItem
	defaultTTL time.Duration
}

// NewMemoryCache creates an in-memory cache. defaultTTL applies when Set is
// called with ttl <= 0.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = 4 * time.Hour
	}
	return &MemoryCache{
		data:       make(map[string]memoryItem),
		defaultTTL: defaultTTL,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.data[key] = memoryItem{
		value:    append([]byte(nil), value...),
		expireAt: time.Now().Add(ttl),
	}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	item, ok := mc.data[key]
	if !ok || item.expired() {
		delete(mc.data, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

func (mc *MemoryCache) Close() error {
	return nil
}
