package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultFamilyLeaseTTL bounds how long a crashed run keeps a family locked
const DefaultFamilyLeaseTTL = 15 * time.Minute

// releaseLeaseScript deletes the lease only while it still holds our token
var releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisFamilyLease prevents two job runs from recomputing the same family at once.
// Every Acquire takes a fresh token so runs sharing the lease never release each other.
type RedisFamilyLease struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisFamilyLease(client *redis.Client, ttl time.Duration) *RedisFamilyLease {
	if ttl <= 0 {
		ttl = DefaultFamilyLeaseTTL
	}
	return &RedisFamilyLease{client: client, ttl: ttl, tokens: make(map[string]string)}
}

func familyLeaseKey(familyCode string) string {
	return fmt.Sprintf("variants:lease:family:%s", familyCode)
}

// Acquire takes the lease of a family. It returns false when another run holds it.
func (l *RedisFamilyLease) Acquire(ctx context.Context, familyCode string) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, familyLeaseKey(familyCode), token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease on family %q: %w", familyCode, err)
	}
	if ok {
		l.mu.Lock()
		l.tokens[familyCode] = token
		l.mu.Unlock()
	}
	return ok, nil
}

// Release gives the lease back if this run still holds it
func (l *RedisFamilyLease) Release(ctx context.Context, familyCode string) error {
	l.mu.Lock()
	token, ok := l.tokens[familyCode]
	delete(l.tokens, familyCode)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseLeaseScript.Run(ctx, l.client, []string{familyLeaseKey(familyCode)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lease on family %q: %w", familyCode, err)
	}
	return nil
}
