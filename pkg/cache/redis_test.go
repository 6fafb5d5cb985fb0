package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rsvp-agenda/pkg/config"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, "redis.local:6380", Addr(config.RedisConfig{Host: "redis.local", Port: 6380}))
}

func TestOpenSessionClientUnreachable(t *testing.T) {
	client, closeFn, err := OpenSessionClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Nil(t, client)
	assert.Nil(t, closeFn)
}
