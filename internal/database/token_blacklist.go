package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "kaiac:token:revoked:"

// TokenBlacklist tracks revoked JWTs in Redis until they expire on their own
type TokenBlacklist struct {
	rdb *redis.Client
}

func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb}
}

// Revoke marks a token as revoked until its natural expiry
func (b *TokenBlacklist) Revoke(token string, until time.Duration) {
	if b == nil || b.rdb == nil {
		return
	}
	if until <= 0 {
		until = time.Minute
	}
	b.rdb.Set(context.Background(), blacklistPrefix+token, "1", until)
}

// IsRevoked reports whether a token has been revoked by logout
func (b *TokenBlacklist) IsRevoked(token string) bool {
	if b == nil || b.rdb == nil {
		return false
	}
	n, err := b.rdb.Exists(context.Background(), blacklistPrefix+token).Result()
	return err == nil && n > 0
}
