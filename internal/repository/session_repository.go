package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/pkg/storage"
)

// DefaultSessionKey is the key the acting user id is stored under.
const DefaultSessionKey = "currentUserId"

// RedisSessionRepository keeps the acting user id in Redis.
type RedisSessionRepository struct {
	client redis.Cmdable
	key    string
	logger *zap.Logger
}

// NewRedisSessionRepository constructs a Redis backed session store.
func NewRedisSessionRepository(client redis.Cmdable, key string, logger *zap.Logger) *RedisSessionRepository {
	if key == "" {
		key = DefaultSessionKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionRepository{client: client, key: key, logger: logger}
}

// Load returns the stored value; false when the key is absent.
func (r *RedisSessionRepository) Load(ctx context.Context) (string, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		r.logger.Warn("failed to read session from redis", zap.String("key", r.key), zap.Error(err))
		return "", false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return raw, true, nil
}

// Save stores value without expiry.
func (r *RedisSessionRepository) Save(ctx context.Context, value string) error {
	if err := r.client.Set(ctx, r.key, value, 0).Err(); err != nil {
		r.logger.Warn("failed to write session to redis", zap.String("key", r.key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Clear removes the key.
func (r *RedisSessionRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Warn("failed to clear session in redis", zap.String("key", r.key), zap.Error(err))
		return fmt.Errorf("redis delete %s: %w", r.key, err)
	}
	return nil
}

// FileSessionRepository keeps the acting user id in a file named after the
// key inside the storage directory.
type FileSessionRepository struct {
	files *storage.LocalStorage
	key   string
}

// NewFileSessionRepository constructs a file backed session store.
func NewFileSessionRepository(files *storage.LocalStorage, key string) *FileSessionRepository {
	if key == "" {
		key = DefaultSessionKey
	}
	return &FileSessionRepository{files: files, key: key}
}

// Load returns the stored value; false when the file is absent.
func (r *FileSessionRepository) Load(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, ok, err := r.files.Read(r.key)
	if err != nil || !ok {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Save replaces the stored value.
func (r *FileSessionRepository) Save(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.files.Save(r.key, []byte(value))
	return err
}

// Clear removes the stored value.
func (r *FileSessionRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.files.Delete(r.key)
}
