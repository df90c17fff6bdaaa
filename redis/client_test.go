package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := NewFromUniversal(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type document struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestJSONDocuments(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "doc:1", document{ID: "1", Count: 2}))

	raw, err := mr.Get("doc:1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1","count":2}`, raw)

	var doc document
	require.NoError(t, client.GetJSON(ctx, "doc:1", &doc))
	require.Equal(t, document{ID: "1", Count: 2}, doc)

	require.ErrorIs(t, client.GetJSON(ctx, "doc:2", &doc), ErrNotFound)
	_, err = client.Get(ctx, "doc:2")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mr.Set("doc:3", "{"))
	require.Error(t, client.GetJSON(ctx, "doc:3", &doc))
}

func TestAtomically(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	err := client.Atomically(ctx, func(b *Batch) error {
		b.Set("fp:abc", "1")
		b.ZAdd("index", 2, "b")
		b.ZAdd("index", 1, "a")
		b.ZAdd("index", 3, "c")
		return b.SetJSON("doc:1", document{ID: "1"})
	})
	require.NoError(t, err)

	value, err := client.Get(ctx, "fp:abc")
	require.NoError(t, err)
	require.Equal(t, "1", value)

	items, err := client.ZRevRange(ctx, "index", 0, -1)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, items)

	items, err = client.ZRevRange(ctx, "index", 0, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, items)

	t.Run("Failing fill discards the batch", func(t *testing.T) {
		err := client.Atomically(ctx, func(b *Batch) error {
			b.Set("fp:discarded", "1")
			return b.SetJSON("doc:bad", func() {})
		})
		require.Error(t, err)
		_, err = client.Get(ctx, "fp:discarded")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLock(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	release, err := client.Lock(ctx, "fp:abc")
	require.NoError(t, err)
	require.True(t, mr.Exists("lock:fp:abc"))

	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = client.Lock(short, "fp:abc")
	require.Error(t, err)

	require.NoError(t, release())
	require.False(t, mr.Exists("lock:fp:abc"))

	release, err = client.Lock(ctx, "fp:abc")
	require.NoError(t, err)
	require.NoError(t, release())
	require.ErrorIs(t, release(), redislock.ErrLockNotHeld)
}

func TestNewClientConfig(t *testing.T) {
	t.Run("Host is required", func(t *testing.T) {
		os.Unsetenv("CNIS_REDIS_HOST")
		_, err := NewClient(0)
		require.Error(t, err)
	})
	t.Run("Standalone", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("CNIS_REDIS_HOST", mr.Host())
		t.Setenv("CNIS_REDIS_PORT", mr.Port())
		client, err := NewClient(0)
		require.NoError(t, err)
		defer client.Close()
		require.NoError(t, client.Ping(context.Background()))
		require.Equal(t, 3*time.Second, client.lockExpiration)
	})
	t.Run("Failover options", func(t *testing.T) {
		cfg := &Config{Host: "sentinel", HASentinelPort: "26379", HASentinelMasterName: "primary",
			HASentinelSocketTimeout: 0.5, AuthRequired: true, Password: "secret"}
		client := CreateFailoverClient(cfg, 2)
		defer client.Close()
		require.NotNil(t, client)
	})
}
