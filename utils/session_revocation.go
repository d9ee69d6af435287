package utils

import (
	"context"
	"sync"
	"time"
)

const revokedSessionPrefix = "session:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// RevokeSession remembers a logged out session id until its cookie would expire anyway,
// so a copy of the old cookie is no longer accepted.
func RevokeSession(ctx context.Context, id string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if id == "" || ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedSessionPrefix+id, "1", ttl).Err(); err != nil {
			Sugar.Warnf("session revoke failed id=%s err=%v", id, err)
		}
		return
	}
	revokedMu.Lock()
	revoked[id] = expiresAt
	revokedMu.Unlock()
}

// IsSessionRevoked reports whether id was logged out. Redis errors fail open.
func IsSessionRevoked(ctx context.Context, id string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedSessionPrefix+id).Result()
		if err != nil {
			Sugar.Warnf("session revocation lookup failed id=%s err=%v", id, err)
			return false
		}
		return n > 0
	}

	revokedMu.RLock()
	expiresAt, ok := revoked[id]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedMu.Lock()
		delete(revoked, id)
		revokedMu.Unlock()
		return false
	}
	return true
}
