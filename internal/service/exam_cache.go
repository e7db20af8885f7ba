package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

// ErrCacheMiss is returned by an ExamCache that holds no entry.
var ErrCacheMiss = errors.New("exam not cached")

// ExamCache keeps the full definition (for session start) and the rendered
// student payload (for the paper endpoint) of each exam.
type ExamCache interface {
	Put(ctx context.Context, e *model.Exam, p *model.ExamPayload) error
	Definition(ctx context.Context, id string) (*model.Exam, error)
	Payload(ctx context.Context, id string) (*model.ExamPayload, error)
	Evict(ctx context.Context, id string) error
}

// RedisExamCache stores both documents as JSON strings.
type RedisExamCache struct {
	rdb *redis.Client
}

// NewRedisExamCache creates a RedisExamCache.
func NewRedisExamCache(rdb *redis.Client) *RedisExamCache {
	return &RedisExamCache{rdb: rdb}
}

// Put writes definition and payload in one pipeline.
func (c *RedisExamCache) Put(ctx context.Context, e *model.Exam, p *model.ExamPayload) error {
	def, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamDefinitionKey(e.ID), def, 0)
	pipe.Set(ctx, config.CacheKey.ExamPayloadKey(e.ID), payload, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	return nil
}

// Definition returns the cached exam including answer keys.
func (c *RedisExamCache) Definition(ctx context.Context, id string) (*model.Exam, error) {
	var e model.Exam
	if err := c.get(ctx, config.CacheKey.ExamDefinitionKey(id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Payload returns the cached student paper.
func (c *RedisExamCache) Payload(ctx context.Context, id string) (*model.ExamPayload, error) {
	var p model.ExamPayload
	if err := c.get(ctx, config.CacheKey.ExamPayloadKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Evict drops both entries.
func (c *RedisExamCache) Evict(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamDefinitionKey(id), config.CacheKey.ExamPayloadKey(id)).Err()
}

func (c *RedisExamCache) get(ctx context.Context, key string, dst any) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
