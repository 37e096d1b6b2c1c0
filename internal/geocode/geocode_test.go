package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haophotography/gallery-backend/cache/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *memory.Memory {
	t.Helper()
	provider, err := memory.NewMemory(memory.Config{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	require.NoError(t, err)
	return provider
}

func TestLookupReturnsCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Reykjavik, Iceland", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`[{"lat":"64.1466","lon":"-21.9426"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent/1.0", 5*time.Second, nil)
	coords, err := client.Lookup(context.Background(), "Reykjavik", "Iceland")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.InDelta(t, 64.1466, coords.Latitude, 0.0001)
	assert.InDelta(t, -21.9426, coords.Longitude, 0.0001)
}

func TestLookupEmptyResultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent/1.0", 5*time.Second, nil)
	coords, err := client.Lookup(context.Background(), "Nowhere", "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestLookupServerErrorIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent/1.0", 5*time.Second, nil)
	coords, err := client.Lookup(context.Background(), "Reykjavik", "Iceland")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestLookupCachesResults(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[{"lat":"35.6762","lon":"139.6503"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent/1.0", 5*time.Second, newTestCache(t))

	first, err := client.Lookup(context.Background(), "Tokyo", "Japan")
	require.NoError(t, err)
	require.NotNil(t, first)

	// 大小写不同的同一地点命中同一缓存条目
	second, err := client.Lookup(context.Background(), "TOKYO", "JAPAN")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Latitude, second.Latitude)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLookupCachesFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent/1.0", 5*time.Second, newTestCache(t))

	coords, err := client.Lookup(context.Background(), "Nowhere", "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, coords)

	coords, err = client.Lookup(context.Background(), "Nowhere", "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, coords)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
