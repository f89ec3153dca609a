package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingFetcher struct {
	calls map[string]int
	body  string
	err   error
}

func (m *countingFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[uri]++
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.body + "body of " + uri), nil
}

// --- CachedFetcher tests ---

func TestCachedFetcher_CacheHit(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedFetcher(inner, testMetrics())

	b1, err := cached.Fetch(context.Background(), "https://example.jp/a.csv")
	require.NoError(t, err)
	b2, err := cached.Fetch(context.Background(), "https://example.jp/a.csv")
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, 1, inner.calls["https://example.jp/a.csv"], "should only call inner once")
}

func TestCachedFetcher_DifferentKeysMiss(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedFetcher(inner, testMetrics())

	_, _ = cached.Fetch(context.Background(), "a")
	_, _ = cached.Fetch(context.Background(), "b")

	assert.Equal(t, 1, inner.calls["a"])
	assert.Equal(t, 1, inner.calls["b"])
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("timeout")}
	cached := NewCachedFetcher(inner, testMetrics())

	_, err := cached.Fetch(context.Background(), "a")
	require.Error(t, err)

	inner.err = nil
	b, err := cached.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "body of a", string(b))
	assert.Equal(t, 2, inner.calls["a"])
}

func TestCachedFetcher_ResetServesFreshBytes(t *testing.T) {
	inner := &countingFetcher{body: "v1 "}
	cached := NewCachedFetcher(inner, testMetrics())

	b, err := cached.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "v1 body of a", string(b))

	inner.body = "v2 "
	cached.Reset()
	b, err = cached.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "v2 body of a", string(b))
	assert.Equal(t, 2, inner.calls["a"])
}

func TestCachedFetcher_ResetSurfacesNewFailures(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedFetcher(inner, testMetrics())

	_, err := cached.Fetch(context.Background(), "a")
	require.NoError(t, err)

	inner.err = errors.New("gone")
	cached.Reset()
	_, err = cached.Fetch(context.Background(), "a")
	assert.EqualError(t, err, "gone")
}
