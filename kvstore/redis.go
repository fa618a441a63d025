package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is the Redis-backed Store
type RedisStore struct {
	logger logger.Logger
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with PING
func NewRedis(log logger.Logger, cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := cfg.Options()
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrStore("ping", opts.Addr, err)
	}

	log.Info("redis store connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize),
	)

	return &RedisStore{logger: log, client: client}, nil
}

// NewRedisFromClient wraps an existing go-redis client
func NewRedisFromClient(log logger.Logger, client *redis.Client) *RedisStore {
	return &RedisStore{logger: log, client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ErrStore("get", key, err)
	}
	return data, nil
}

func (s *RedisStore) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL(ttl)
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return ErrStore("set", key, err)
	}
	return nil
}

func (s *RedisStore) SetWithExpiryIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL(ttl)
	}
	created, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, ErrStore("setnx", key, err)
	}
	return created, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return ErrStore("ping", "", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	s.logger.Info("redis store closed")
	return nil
}

// Unwrap returns the underlying go-redis client
func (s *RedisStore) Unwrap() *redis.Client {
	return s.client
}

// PoolStats returns connection pool statistics
func (s *RedisStore) PoolStats() *redis.PoolStats {
	return s.client.PoolStats()
}

// New builds the Store selected by cfg.Driver
func New(log logger.Logger, cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == DriverMemory {
		log.Warn("using in-memory store, refresh exclusion is per process")
		return NewMemory(), nil
	}
	return NewRedis(log, cfg.Redis)
}
