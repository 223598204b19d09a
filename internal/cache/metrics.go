// Package cache holds read-through caches for derived vendor data.
package cache

import (
	"context"
	"time"

	"vendor-service/internal/performance"
	"vendor-service/pkg/config"

	"go.uber.org/zap"
)

// MetricsCache stores the last known metrics of a vendor
type MetricsCache interface {
	Get(ctx context.Context, vendorID uint) (performance.Metrics, bool, error)
	Set(ctx context.Context, vendorID uint, m performance.Metrics) error
	Delete(ctx context.Context, vendorID uint) error
}

// New returns a redis backed cache when an address is configured, an in-memory one otherwise
func New(ctx context.Context, cfg *config.CacheConfig, log *zap.Logger) (MetricsCache, error) {
	if cfg.RedisAddr == "" {
		log.Info("Using in-memory metrics cache", zap.Duration("ttl", cfg.TTL))
		return NewMemory(cfg.TTL), nil
	}
	c, err := NewRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Using redis metrics cache", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return c, nil
}

// Memory is a process local MetricsCache
type Memory struct {
	items *TTLCache[uint, performance.Metrics]
	ttl   time.Duration
}

// NewMemory returns an in-memory cache whose entries live for ttl
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{items: NewTTLCache[uint, performance.Metrics](), ttl: ttl}
}

func (m *Memory) Get(_ context.Context, vendorID uint) (performance.Metrics, bool, error) {
	v, ok := m.items.Get(vendorID)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, vendorID uint, metrics performance.Metrics) error {
	m.items.Set(vendorID, metrics, m.ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, vendorID uint) error {
	m.items.Delete(vendorID)
	return nil
}
