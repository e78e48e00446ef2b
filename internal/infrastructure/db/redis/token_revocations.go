package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduka/campus-auth/internal/core/ports"
)

// TokenRevocations is a Redis backed token blacklist.
// Key format: revoked:<token_id>, expiring when the token itself would.
type TokenRevocations struct {
	client *redis.Client
	now    func() time.Time
}

var _ ports.TokenRevocationStore = (*TokenRevocations)(nil)

// NewTokenRevocations wraps client.
func NewTokenRevocations(client *redis.Client) *TokenRevocations {
	return &TokenRevocations{client: client, now: time.Now}
}

// Revoke blacklists tokenID until the given expiry. Already expired tokens
// are not stored.
func (t *TokenRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(t.now())
	if ttl <= 0 {
		return nil
	}
	if err := t.client.Set(ctx, t.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been blacklisted.
func (t *TokenRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := t.client.Exists(ctx, t.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (t *TokenRevocations) key(tokenID string) string {
	return "revoked:" + tokenID
}
