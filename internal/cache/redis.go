package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vendor-service/internal/performance"
	"vendor-service/pkg/config"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "vendor-service:metrics:"

// Redis is a MetricsCache shared by every replica of the service
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis connects to cfg.RedisAddr and fails if the server does not answer a ping
func NewRedis(ctx context.Context, cfg *config.CacheConfig) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{rdb: rdb, ttl: cfg.TTL}, nil
}

func key(vendorID uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, vendorID)
}

func (r *Redis) Get(ctx context.Context, vendorID uint) (performance.Metrics, bool, error) {
	var m performance.Metrics
	raw, err := r.rdb.Get(ctx, key(vendorID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return m, false, nil
	}
	if err != nil {
		return m, false, err
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, false, fmt.Errorf("decode cached metrics: %w", err)
	}
	return m, true, nil
}

func (r *Redis) Set(ctx context.Context, vendorID uint, m performance.Metrics) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key(vendorID), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, vendorID uint) error {
	return r.rdb.Del(ctx, key(vendorID)).Err()
}

// Close releases the connection pool
func (r *Redis) Close() error {
	return r.rdb.Close()
}
