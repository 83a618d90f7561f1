package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// SessionRepository keeps the token revocation denylist in Redis. Tokens are
// stateless; logout stores the token's jti with a TTL matching its remaining
// lifetime, so a "logged out" token stops validating before its natural expiry.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository constructs the repository. A nil client degrades to
// no-op revocation (tokens then stay valid until expiry).
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Revoke denylists the token id until its natural expiry.
func (r *SessionRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r.client == nil || tokenID == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether the token id has been denylisted.
func (r *SessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.client == nil || tokenID == "" {
		return false, nil
	}
	_, err := r.client.Get(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("check session %s: %w", tokenID, err)
	}
	return true, nil
}
