package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmoteCacheTTL is how long catalog metadata stays cached.
const EmoteCacheTTL = 6 * time.Hour

// ErrCacheMiss is returned by an EmoteCache when the emote is not cached.
var ErrCacheMiss = errors.New("fetch: cache miss")

// EmoteCache stores catalog metadata between fetches.
type EmoteCache interface {
	Get(ctx context.Context, id string) (*Emote, error)
	Set(ctx context.Context, emote *Emote) error
}

type memoryEntry struct {
	emote   Emote
	expires time.Time
}

// MemoryCache is an in-process EmoteCache with expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl uses EmoteCacheTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = EmoteCacheTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached emote.
func (c *MemoryCache) Get(_ context.Context, id string) (*Emote, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expires) {
		return nil, ErrCacheMiss
	}
	emote := entry.emote
	emote.Host.Files = append([]EmoteFile(nil), entry.emote.Host.Files...)
	return &emote, nil
}

// Set stores a copy of emote.
func (c *MemoryCache) Set(_ context.Context, emote *Emote) error {
	stored := *emote
	stored.Host.Files = append([]EmoteFile(nil), emote.Host.Files...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[emote.ID] = memoryEntry{emote: stored, expires: c.now().Add(c.ttl)}
	return nil
}

// RedisCache is an EmoteCache shared between processes through Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at url and verifies it with a
// ping. Keys are namespaced with prefix.
func NewRedisCache(url, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, prefix: prefix, ttl: EmoteCacheTTL}, nil
}

func (c *RedisCache) key(id string) string {
	if c.prefix == "" {
		return "emote:" + id
	}
	return c.prefix + ":emote:" + id
}

// Get reads and decodes a cached emote.
func (c *RedisCache) Get(ctx context.Context, id string) (*Emote, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var emote Emote
	if err := json.Unmarshal(data, &emote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return &emote, nil
}

// Set encodes emote and stores it with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, emote *Emote) error {
	data, err := json.Marshal(emote)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return c.client.Set(ctx, c.key(emote.ID), data, c.ttl).Err()
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
