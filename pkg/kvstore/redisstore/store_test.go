package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-portal/components/portal"
)

// Set PORTAL_TEST_REDIS_ADDR (for example localhost:6379) to run against a
// live server.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("PORTAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PORTAL_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestOpenRequiresClient(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without client")
	}
}

func TestStorePublishesAcrossInstances(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	channel := "portal:test:" + time.Now().Format("150405.000000")
	key := channel + ":" + portal.AccessOverridesKey

	writer, err := Open(ctx, Config{Client: client, Channel: channel})
	require.NoError(t, err)
	defer writer.Close()
	reader, err := Open(ctx, Config{Client: client, Channel: channel})
	require.NoError(t, err)
	defer reader.Close()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	changed := make(chan struct{}, 4)
	reader.Subscribe(key, func() { changed <- struct{}{} })

	require.NoError(t, writer.Set(ctx, key, `{"hr":{"recruitment":false}}`))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for pub/sub notification")
	}

	value, ok, err := reader.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"hr":{"recruitment":false}}`, value)

	require.NoError(t, writer.Delete(ctx, key))
	_, ok, err = reader.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
