package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viettran295/vTrade/internal/types"
)

// TestScanCacheStaleness pins the refresh policy: absent entries and
// entries at or past the interval need a refresh, fresh entries do not.
func TestScanCacheStaleness(t *testing.T) {
	cache := NewScanCache()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, cache.NeedsRefresh("AAPL", now, time.Hour), "absent symbol needs a fetch")

	series, err := types.NewSeries("AAPL", []types.Bar{{Datetime: now, Close: 100}})
	require.NoError(t, err)

	cache.Put("AAPL", series, now)

	assert.False(t, cache.NeedsRefresh("AAPL", now.Add(59*time.Minute), time.Hour))
	assert.True(t, cache.NeedsRefresh("AAPL", now.Add(time.Hour), time.Hour), "interval boundary is stale")
	assert.True(t, cache.NeedsRefresh("AAPL", now.Add(2*time.Hour), time.Hour))
}

// TestScanCacheGetPut verifies the round trip and the entry count.
func TestScanCacheGetPut(t *testing.T) {
	cache := NewScanCache()
	now := time.Now()

	_, ok := cache.Get("AAPL")
	assert.False(t, ok)

	series, err := types.NewSeries("AAPL", []types.Bar{{Datetime: now, Close: 100}})
	require.NoError(t, err)

	cache.Put("AAPL", series, now)

	got, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.Same(t, series, got)
	assert.Equal(t, 1, cache.Len())
}
