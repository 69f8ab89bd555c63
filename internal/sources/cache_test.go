package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := OpenCache(":memory:", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := memCache(t, time.Hour)

	_, ok := c.Get("https://example.org/a")
	assert.False(t, ok)

	c.Set("https://example.org/a", []byte(`{"v":1}`))
	got, ok := c.Get("https://example.org/a")
	require.True(t, ok)
	assert.Equal(t, `{"v":1}`, string(got))

	// Overwrites replace the payload.
	c.Set("https://example.org/a", []byte(`{"v":2}`))
	got, ok = c.Get("https://example.org/a")
	require.True(t, ok)
	assert.Equal(t, `{"v":2}`, string(got))
}

func TestCacheExpiry(t *testing.T) {
	c := memCache(t, -time.Second) // everything is born expired

	c.Set("stale", []byte("x"))
	_, ok := c.Get("stale")
	assert.False(t, ok)

	dropped, err := c.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), dropped)
}

func TestCachePurgeKeepsFreshEntries(t *testing.T) {
	c := memCache(t, time.Hour)
	c.Set("fresh", []byte("x"))

	dropped, err := c.Purge()
	require.NoError(t, err)
	assert.Zero(t, dropped)

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}
