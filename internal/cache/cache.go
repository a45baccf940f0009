package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized crop results
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// RedisCache is a Cache backed by Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects lazily to the Redis server at addr
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Get returns the cached value. A miss is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}
	return data, true, nil
}

// Set stores a value with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Settings are the crop options that shape a cached result
type Settings struct {
	Threshold    float64
	PaddingRatio float64
	Format       string
	Quality      int
	Suffix       string
	OutputDir    string
	MinSize      int
}

// Key derives the cache key for an upload and the settings that shape its crop
func Key(content []byte, s Settings) string {
	hash := sha256.New()
	hash.Write(content)
	for _, field := range []string{
		strconv.FormatFloat(s.Threshold, 'g', -1, 64),
		strconv.FormatFloat(s.PaddingRatio, 'g', -1, 64),
		s.Format,
		strconv.Itoa(s.Quality),
		s.Suffix,
		s.OutputDir,
		strconv.Itoa(s.MinSize),
	} {
		hash.Write([]byte{0})
		hash.Write([]byte(field))
	}

	return fmt.Sprintf("square_crop:%x", hash.Sum(nil))
}
