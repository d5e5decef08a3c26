package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Redis is the shared Store used when several API processes run.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return NewRedisFromClient(rdb, cfg.Prefix, cfg.TTL)
}

func NewRedisFromClient(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "supporthub:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	return r.rdb.Set(ctx, r.prefix+key, val, r.ttl).Err()
}

func (r *Redis) Generation(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, r.prefix+"gen:"+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (r *Redis) Bump(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, r.prefix+"gen:"+key).Result()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Client exposes the connection for other Redis-backed components.
func (r *Redis) Client() *redis.Client {
	return r.rdb
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
