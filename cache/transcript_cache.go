package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"lukechampine.com/blake3"

	"autolrc/config"
	"autolrc/logger"
)

// TranscriptCache stores transcription results keyed by audio content hash
// and language, so re-running a batch skips the remote service for files it
// has already seen. A nil *TranscriptCache is a no-op.
type TranscriptCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect initializes the cache from configuration. Returns nil (cache
// disabled) when no Redis host is configured.
func Connect(cfg *config.Config) (*TranscriptCache, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("transcript cache enabled",
		logger.String("addr", fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)))
	return &TranscriptCache{client: client, ttl: cfg.CacheTTL}, nil
}

// Close releases the Redis connection.
func (c *TranscriptCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key derives the cache key from the audio file content and the language.
func (c *TranscriptCache) Key(path, language string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("autolrc:transcript:%x:%s", h.Sum(nil), language), nil
}

// Get returns a cached transcript and whether it was present.
func (c *TranscriptCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}

	text, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

// Set stores a transcript under the key with the configured TTL.
func (c *TranscriptCache) Set(ctx context.Context, key, text string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, text, c.ttl).Err()
}
