package cache

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed cache backend.
type RedisConfig struct {
	Address      string
	Username     string
	Password     string
	Database     int
	UseTLS       bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

func (c *RedisConfig) applyDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

type redisBackend struct {
	client *redis.Client
}

// NewRedisBackend dials Redis and returns a Store backed by it.
func NewRedisBackend(cfg RedisConfig) (Store, error) {
	cfg.applyDefaults()

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewStore(&redisBackend{client: client}, nil), nil
}

func (r *redisBackend) rawGet(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisBackend) rawSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisBackend) rawDelete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisBackend) rawKeys(ctx context.Context, prefix string) ([]string, error) {
	pattern := prefix + "*"
	var out []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}

func (r *redisBackend) rawClear(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}

func (r *redisBackend) rawPing(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisBackend) approximateMemoryBytes() int64 {
	info, err := r.client.Info(context.Background(), "memory").Result()
	if err != nil {
		return 0
	}
	return parseUsedMemory(info)
}

func (r *redisBackend) approximateEvictions() int64 {
	info, err := r.client.Info(context.Background(), "stats").Result()
	if err != nil {
		return 0
	}
	return parseEvictedKeys(info)
}

// Close releases the underlying Redis connection pool.
func (r *redisBackend) Close() error { return r.client.Close() }
