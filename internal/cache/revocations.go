package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const revokedKeyPrefix = "revoked:"

// RevocationList stores revoked access token digests as Redis keys that
// expire on their own after ttl.
type RevocationList struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func NewRevocationList(client *redis.Client, logger *zap.Logger, ttl time.Duration) *RevocationList {
	return &RevocationList{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func (r *RevocationList) Revoke(ctx context.Context, tokenHash string) error {
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenHash, time.Now().Unix(), r.ttl).Err(); err != nil {
		r.logger.Error("Failed to store revoked token", zap.Error(err))
		return err
	}
	return nil
}

func (r *RevocationList) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenHash).Result()
	if err != nil {
		r.logger.Error("Failed to look up revoked token", zap.Error(err))
		return false, err
	}
	return n > 0, nil
}
