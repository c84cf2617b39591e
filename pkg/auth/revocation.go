package auth

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationChecker reports whether a token id has been revoked
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RevocationList is a redis-backed denylist of token ids. A nil list, or one
// without a client, revokes nothing.
type RevocationList struct {
	client *redis.Client
}

func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

func revokedKey(tokenID string) string {
	return revokedKeyPrefix + tokenID
}

// Revoke denies the token id until ttl elapses, normally the token's remaining lifetime
func (r *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return errors.New("revocation list not configured")
	}
	if tokenID == "" {
		return errors.New("token id is required")
	}
	return errors.Wrap(r.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(), "revoke token")
}

func (r *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || r.client == nil || tokenID == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check revoked token")
	}
	return n > 0, nil
}
