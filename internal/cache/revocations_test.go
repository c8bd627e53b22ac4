package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/expense-tracker/backend/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRedisClientRejectsBadDB(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: "localhost:6379", DB: "zero"})
	assert.Error(t, err)
}

func TestRevocationListIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, config.RedisConfig{Addr: addr, DB: "0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	list := NewRevocationList(client, zap.NewNop(), time.Minute)
	hash := uuid.NewString()

	revoked, err := list.IsRevoked(ctx, hash)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, hash))

	revoked, err = list.IsRevoked(ctx, hash)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, revokedKeyPrefix+hash).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}
