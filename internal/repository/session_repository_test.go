package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/rsvp-agenda/pkg/storage"
)

func TestFileSessionRepositoryRoundTrip(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewFileSessionRepository(files, "")
	ctx := context.Background()

	_, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, "42"))
	value, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", value)
	assert.FileExists(t, files.Path(DefaultSessionKey))

	require.NoError(t, repo.Clear(ctx))
	_, ok, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSessionRepositoryHonoursContext(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewFileSessionRepository(files, "acting")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, repo.Save(ctx, "1"), context.Canceled)
}

func TestRedisSessionRepositoryReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	core, logs := observer.New(zapcore.WarnLevel)
	repo := NewRedisSessionRepository(client, "", zap.New(core))
	ctx := context.Background()

	_, ok, err := repo.Load(ctx)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), DefaultSessionKey)

	require.Error(t, repo.Save(ctx, "7"))
	require.Error(t, repo.Clear(ctx))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "failed to read session from redis", entries[0].Message)
	assert.Equal(t, DefaultSessionKey, entries[0].ContextMap()["key"])
	assert.Equal(t, "failed to write session to redis", entries[1].Message)
	assert.Equal(t, "failed to clear session in redis", entries[2].Message)
}
