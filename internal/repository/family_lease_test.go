package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisTestClient connects to REDIS_TEST_URL and skips the test when redis is not running
func redisTestClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisFamilyLease_AcquireRelease(t *testing.T) {
	client := redisTestClient(t)
	ctx := context.Background()
	family := "lease_test_" + time.Now().Format("150405.000000")
	t.Cleanup(func() { client.Del(context.Background(), familyLeaseKey(family)) })

	first := NewRedisFamilyLease(client, time.Minute)
	second := NewRedisFamilyLease(client, time.Minute)

	ok, err := first.Acquire(ctx, family)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx, family)
	require.NoError(t, err)
	assert.False(t, ok, "a held lease cannot be taken twice")

	// only the holder releases
	require.NoError(t, second.Release(ctx, family))
	ok, err = second.Acquire(ctx, family)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx, family))
	ok, err = second.Acquire(ctx, family)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx, family))
}

func TestRedisFamilyLease_ReleaseWithoutLease(t *testing.T) {
	client := redisTestClient(t)
	lease := NewRedisFamilyLease(client, 0)

	assert.Equal(t, DefaultFamilyLeaseTTL, lease.ttl)
	assert.NoError(t, lease.Release(context.Background(), "never_taken_"+time.Now().Format("150405.000000")))
}

func TestRedisFamilyLease_ReleaseKeepsLeaseTakenOverByAnotherRun(t *testing.T) {
	client := redisTestClient(t)
	ctx := context.Background()
	family := "lease_takeover_" + time.Now().Format("150405.000000")
	key := familyLeaseKey(family)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	lease := NewRedisFamilyLease(client, time.Minute)
	ok, err := lease.Acquire(ctx, family)
	require.NoError(t, err)
	require.True(t, ok)

	// the lease expired and another run took it
	require.NoError(t, client.Set(ctx, key, "other-run", time.Minute).Err())

	require.NoError(t, lease.Release(ctx, family))
	holder, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-run", holder)
}

func TestRedisFamilyLease_TokenPerAcquire(t *testing.T) {
	client := redisTestClient(t)
	ctx := context.Background()
	family := "lease_token_" + time.Now().Format("150405.000000")
	key := familyLeaseKey(family)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	lease := NewRedisFamilyLease(client, time.Minute)
	ok, err := lease.Acquire(ctx, family)
	require.NoError(t, err)
	require.True(t, ok)
	first, err := client.Get(ctx, key).Result()
	require.NoError(t, err)

	// a second run in the same process is refused and cannot release the first one
	ok, err = lease.Acquire(ctx, family)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lease.Release(ctx, family))
	ok, err = lease.Acquire(ctx, family)
	require.NoError(t, err)
	require.True(t, ok)
	second, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	require.NoError(t, lease.Release(ctx, family))
}
