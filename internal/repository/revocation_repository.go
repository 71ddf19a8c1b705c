package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked_token:"

// RevocationRepository tracks access tokens invalidated by logout. Entries
// carry the remaining token lifetime as TTL, so Redis expires them the moment
// the token itself would stop verifying anyway.
type RevocationRepository struct {
	client *redis.Client
}

func NewRevocationRepository(client *redis.Client) *RevocationRepository {
	return &RevocationRepository{client: client}
}

func (r *RevocationRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
