package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "models", []byte("v1"), time.Minute))
	got, ok, err := c.Get(ctx, "models")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(got))

	got[0] = 'x'
	again, _, _ := c.Get(ctx, "models")
	assert.Equal(t, "v1", string(again), "Get returns a copy")

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "models")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "forever"))
	_, ok, _ = c.Get(ctx, "forever")
	assert.False(t, ok)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCache(client, "test:")
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, "models")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "models", []byte(`{"data":[]}`), 30*time.Second))
	assert.True(t, mr.Exists("test:cache:models"))

	got, ok, err := c.Get(ctx, "models")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"data":[]}`, string(got))

	mr.FastForward(31 * time.Second)
	_, ok, err = c.Get(ctx, "models")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("test:cache:k"))
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, _, err = NewRedisCache(client, "").Get(context.Background(), "models")
	require.Error(t, err)
}

type failingStore struct {
	Store
	err error
}

func (f failingStore) GetAPIKey(context.Context, string) (*APIKey, error) { return nil, f.err }

func TestInstrumentedStorePassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	st := WithInstrumentation(failingStore{err: boom}, "test")
	_, err := st.GetAPIKey(context.Background(), "x")
	require.ErrorIs(t, err, boom)

	st = WithInstrumentation(failingStore{err: ErrNotFound}, "")
	_, err = st.GetAPIKey(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Nil(t, WithInstrumentation(nil, "x"))
}
