package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// embeddingCache keeps job description embeddings in Redis so repeated
// rankings against the same text skip the hosted call.
type embeddingCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

func newEmbeddingCache(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *embeddingCache {
	if prefix == "" {
		prefix = "talentflow"
	}
	return &embeddingCache{
		redis:  client,
		prefix: prefix + ":embedding:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *embeddingCache) key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *embeddingCache) get(ctx context.Context, model, text string) ([]float32, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, c.key(model, text)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("embedding cache read failed")
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil || len(vector) == 0 {
		return nil, false
	}
	return vector, true
}

func (c *embeddingCache) set(ctx context.Context, model, text string, vector []float32) {
	if c == nil || c.redis == nil || len(vector) == 0 {
		return
	}

	payload, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(model, text), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("embedding cache write failed")
	}
}
