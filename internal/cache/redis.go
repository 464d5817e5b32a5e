package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/regdoc/answer-agent/internal/models"
)

// AnswerCache stores finished answers keyed by sanitized query. The
// pipeline works without one (nil cache).
type AnswerCache interface {
	Get(ctx context.Context, query string) (*models.AnswerResponse, bool)
	Set(ctx context.Context, query string, answer models.AnswerResponse)
}

type RedisAnswerCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisAnswerCache(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisAnswerCache {
	if keyPrefix == "" {
		keyPrefix = "answer_cache:"
	}
	return &RedisAnswerCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisAnswerCache) Get(ctx context.Context, query string) (*models.AnswerResponse, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+query).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("answer cache read failed")
		}
		return nil, false
	}

	var answer models.AnswerResponse
	if err := json.Unmarshal(data, &answer); err != nil {
		log.Warn().Err(err).Msg("dropping unreadable cache entry")
		return nil, false
	}

	return &answer, true
}

func (c *RedisAnswerCache) Set(ctx context.Context, query string, answer models.AnswerResponse) {
	data, err := json.Marshal(answer)
	if err != nil {
		log.Warn().Err(err).Msg("unable to serialize answer for cache")
		return
	}

	if err := c.client.Set(ctx, c.keyPrefix+query, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("answer cache write failed")
	}
}

// Connect dials Redis with bounded retries and exponential backoff.
func Connect(ctx context.Context, addr string, password string, maxRetries int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              0,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
	})

	var err error
	for i := range maxRetries {
		if i > 0 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Info().Dur("backoff", backoff).Msg("waiting before Redis retry")
			time.Sleep(backoff)
		}

		err = client.Ping(ctx).Err()
		if err == nil {
			log.Info().Int("attempts_needed", i+1).Msg("Redis connected")
			return client, nil
		}

		log.Warn().Err(err).Int("attempt", i+1).Msg("Redis ping failed")
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
}
