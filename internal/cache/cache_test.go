package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("2"), 0))

	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", string(v))

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)

	_, ok, _ = m.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemorySetDropsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "old", []byte("x"), time.Second))
	now = now.Add(time.Hour)
	require.NoError(t, m.Set(ctx, "new", []byte("y"), time.Second))
	assert.Equal(t, 1, m.Len())
}

func TestMemoryCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	type result struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, SetJSON(ctx, m, "r", result{ID: 7, Title: "Soup"}, time.Minute))

	var got result
	ok, err := GetJSON(ctx, m, "r", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, result{ID: 7, Title: "Soup"}, got)

	ok, err = GetJSON(ctx, m, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "bad", []byte("{"), time.Minute))
	_, err = GetJSON(ctx, m, "bad", &got)
	assert.Error(t, err)
}

func TestNewWithoutRedis(t *testing.T) {
	c, err := New(context.Background(), Options{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
}

func TestRedisIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis integration test")
	}
	ctx := context.Background()

	c, err := New(ctx, Options{RedisAddr: addr}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	key := "recipe-planner:test:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))
	v, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))

	_, ok, err = c.Get(ctx, key+":missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewUnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, Options{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	assert.Error(t, err)
}
