package di

import (
	"github.com/redis/go-redis/v9"

	jwtmw "github.com/ZyrticX/DELTA-MIX/internal/platform/jwt"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/session"
)

// NewRevocationChecker returns the Redis token store, or nil when Redis is unavailable
// so that the middleware skips revocation checks.
func NewRevocationChecker(rdb *redis.Client) jwtmw.RevocationChecker {
	if rdb == nil {
		return nil
	}
	return session.NewTokenStore(rdb, "token")
}
