package idempotency

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyExtraction(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/sessions/s1/pay", nil)
	assert.Empty(t, Key(r))

	r.Header.Set(Header, "  abc-123  ")
	assert.Equal(t, "abc-123", Key(r))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k1", []byte(`{"status":"succeeded"}`), time.Minute))

	payload, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"status":"succeeded"}`), payload)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k1", []byte("x"), -time.Second))

	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k1", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "k1", []byte("b"), time.Minute))

	payload, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), payload)
}
