package ports

import (
	"context"
	"time"
)

// TokenRevocationStore remembers revoked token ids until they would have
// expired anyway.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
