package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zsiec/abxclient/internal/config"
)

// Open builds the Store selected by cfg. Redis keys are namespaced by runID
// so concurrent or repeated runs never see each other's packets.
func Open(ctx context.Context, cfg config.StoreConfig, runID string) (Store, error) {
	switch cfg.Backend {
	case config.StoreBackendMemory, "":
		return NewMemoryStore(), nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		return NewRedisStore(client, RedisOptions{
			Prefix:    cfg.Redis.KeyPrefix + runID + ":",
			TTL:       cfg.Redis.TTL,
			OwnClient: true,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}
