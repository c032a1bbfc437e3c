package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// localCache 基于LRU的进程内缓存实现
type localCache struct {
	config LocalConfig
	lru    *lru.Cache[string, *cacheItem]
	mu     sync.Mutex
	done   chan struct{}
}

// cacheItem 缓存项
type cacheItem struct {
	value      interface{}
	expiration time.Time
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	if config.MaxSize <= 0 {
		config.MaxSize = 1000
	}
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = 5 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}

	l, _ := lru.New[string, *cacheItem](config.MaxSize)
	lc := &localCache{
		config: config,
		lru:    l,
		done:   make(chan struct{}),
	}

	go lc.startCleanup()

	return lc
}

func (item *cacheItem) expired(now time.Time) bool {
	return !item.expiration.IsZero() && now.After(item.expiration)
}

// Get 获取缓存值
func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	item, ok := lc.lru.Get(key)
	if !ok {
		return nil, false
	}
	if item.expired(time.Now()) {
		lc.lru.Remove(key)
		return nil, false
	}
	return item.value, true
}

// Set 设置缓存值
func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}
	lc.lru.Add(key, &cacheItem{value: value, expiration: exp})
	return nil
}

// Delete 删除缓存
func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.lru.Remove(key)
	return nil
}

// Exists 检查键是否存在
func (lc *localCache) Exists(ctx context.Context, key string) bool {
	_, ok := lc.Get(ctx, key)
	return ok
}

// Clear 清空所有缓存
func (lc *localCache) Clear(ctx context.Context) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.lru.Purge()
	return nil
}

// Increment 原子自增，键不存在或已过期时从零开始
func (lc *localCache) Increment(ctx context.Context, key string, value int64) (int64, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	now := time.Now()
	item, ok := lc.lru.Get(key)
	if !ok || item.expired(now) {
		lc.lru.Add(key, &cacheItem{
			value:      value,
			expiration: now.Add(lc.config.DefaultExpiration),
		})
		return value, nil
	}

	var current int64
	switch v := item.value.(type) {
	case int:
		current = int64(v)
	case int64:
		current = v
	case float64:
		current = int64(v)
	}
	newValue := current + value
	item.value = newValue
	return newValue, nil
}

// GetWithTTL 获取值并返回剩余TTL
func (lc *localCache) GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	item, ok := lc.lru.Get(key)
	if !ok {
		return nil, 0, false
	}
	now := time.Now()
	if item.expired(now) {
		lc.lru.Remove(key)
		return nil, 0, false
	}
	var ttl time.Duration
	if !item.expiration.IsZero() {
		ttl = item.expiration.Sub(now)
	}
	return item.value, ttl, true
}

// Close 关闭缓存连接
func (lc *localCache) Close() error {
	close(lc.done)
	return nil
}

// startCleanup 定期清理过期项
func (lc *localCache) startCleanup() {
	ticker := time.NewTicker(lc.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-lc.done:
			return
		case <-ticker.C:
			lc.cleanup()
		}
	}
}

func (lc *localCache) cleanup() {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	now := time.Now()
	for _, key := range lc.lru.Keys() {
		if item, ok := lc.lru.Peek(key); ok && item.expired(now) {
			lc.lru.Remove(key)
		}
	}
}
