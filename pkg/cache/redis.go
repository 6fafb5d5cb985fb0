package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/pkg/config"
)

const pingTimeout = 5 * time.Second

// Addr formats the host:port of cfg.
func Addr(cfg config.RedisConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// OpenSessionClient connects to the Redis instance that persists the acting
// user. The returned close func logs instead of failing.
func OpenSessionClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := Addr(cfg)

	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "agenda-gateway",
		MaxRetries: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	logger.Info("session store connected", zap.String("redis_addr", addr), zap.Int("redis_db", cfg.DB))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis", zap.String("redis_addr", addr), zap.Error(err))
		}
	}
	return client, closeFn, nil
}
