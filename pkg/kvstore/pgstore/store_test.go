package pgstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-portal/components/portal"
)

// Set PORTAL_TEST_PG_URL to run against a live database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("PORTAL_TEST_PG_URL")
	if url == "" {
		t.Skip("PORTAL_TEST_PG_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestOpenRequiresPool(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without pool")
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "://not a url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStoreNotifiesAcrossInstances(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano()
	cfg := Config{
		Pool:    pool,
		Table:   fmt.Sprintf("portal_kv_test_%d", suffix),
		Channel: fmt.Sprintf("portal_kv_test_%d", suffix),
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+cfg.Table)
	})

	writer, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer writer.Close()
	reader, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer reader.Close()

	changed := make(chan struct{}, 4)
	reader.Subscribe(portal.AccessOverridesKey, func() { changed <- struct{}{} })

	require.NoError(t, writer.Set(ctx, portal.AccessOverridesKey, `{"manager":{"team-calendar":false}}`))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for NOTIFY")
	}
	value, ok, err := reader.Get(ctx, portal.AccessOverridesKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"manager":{"team-calendar":false}}`, value)

	// Unchanged writes stay quiet.
	require.NoError(t, writer.Set(ctx, portal.AccessOverridesKey, `{"manager":{"team-calendar":false}}`))
	select {
	case <-changed:
		t.Fatalf("unexpected notification for unchanged value")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, writer.Delete(ctx, portal.AccessOverridesKey))
	_, ok, err = reader.Get(ctx, portal.AccessOverridesKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
