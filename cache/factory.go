package cache

import (
	"fmt"
	"log"

	"github.com/haophotography/gallery-backend/cache/memory"
	"github.com/haophotography/gallery-backend/cache/redis"
	"github.com/haophotography/gallery-backend/config"
)

// NewProvider 按配置创建缓存提供者。
// 未指定类型时退回内存缓存。
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "memory", "":
		memConfig := memory.Config{
			NumCounters: 1000000,
			MaxCost:     1073741824, // 1GB
			BufferItems: 64,
		}
		provider, err := memory.NewMemory(memConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		log.Println("[Cache] Using in-memory cache provider")
		return provider, nil

	case "redis":
		provider, err := redis.NewRedis(&redis.Config{
			Address:  cfg.CacheRedisAddr,
			Password: cfg.CacheRedisPassword,
			DB:       cfg.CacheRedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		log.Printf("[Cache] Using redis cache provider at %s", cfg.CacheRedisAddr)
		return provider, nil

	default:
		return nil, fmt.Errorf("unsupported cache provider type: %s", cfg.CacheType)
	}
}
