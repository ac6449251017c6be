package registry

import (
	"context"
	"errors"
	"time"

	"credtech/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "model:"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps artifacts under model:<TICKER> without expiry.
type RedisStore struct {
	tracer trace.Tracer
	client RedisClient
}

func NewRedisStore(tracer trace.Tracer, client RedisClient) *RedisStore {
	return &RedisStore{tracer: tracer, client: client}
}

func (s *RedisStore) Get(ctx context.Context, ticker string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "model-store.redis.get")
	defer span.End()

	blob, err := s.client.Get(ctx, redisKeyPrefix+storageKey(ticker)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrArtifactNotFound
	}
	return blob, err
}

func (s *RedisStore) Put(ctx context.Context, ticker string, blob []byte) error {
	_, span := s.tracer.Start(ctx, "model-store.redis.put")
	defer span.End()

	return s.client.Set(ctx, redisKeyPrefix+storageKey(ticker), blob, 0).Err()
}
