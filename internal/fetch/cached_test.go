package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/privacy-lens/internal/cache/cachetest"
)

func newTestFetcher(clock *cachetest.Clock, fn func(context.Context, string, *Options) (*Result, error)) *CachedFetcher {
	f := NewCachedFetcher(&CachedFetcherConfig{CacheTTL: time.Hour, Clock: clock.Now})
	f.fetch = fn
	return f
}

func TestDefaultCachedFetcherConfig(t *testing.T) {
	config := DefaultCachedFetcherConfig()
	require.NotNil(t, config)
	assert.Equal(t, DefaultPageCacheTTL, config.CacheTTL)
	assert.NotNil(t, config.Options)
}

func TestNewCachedFetcher_Defaults(t *testing.T) {
	f := NewCachedFetcher(&CachedFetcherConfig{})
	assert.Equal(t, DefaultPageCacheTTL, f.cacheTTL)
	assert.NotNil(t, f.options)

	assert.NotNil(t, NewCachedFetcher(nil))
}

func TestCachedFetcher_CachesSuccess(t *testing.T) {
	clock := cachetest.NewClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	calls := 0
	f := newTestFetcher(clock, func(_ context.Context, u string, _ *Options) (*Result, error) {
		calls++
		return &Result{URL: u, HTML: "<p>policy</p>", StatusCode: 200}, nil
	})

	first, err := f.Fetch(context.Background(), "https://example.com/privacy")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.Fetch(context.Background(), "https://example.com/privacy")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, "<p>policy</p>", second.HTML)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Hour)
	third, err := f.Fetch(context.Background(), "https://example.com/privacy")
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, 2, calls)
}

func TestCachedFetcher_FailuresNotCached(t *testing.T) {
	clock := cachetest.NewClock(time.Now())
	calls := 0
	f := newTestFetcher(clock, func(_ context.Context, u string, _ *Options) (*Result, error) {
		calls++
		return nil, &Error{URL: u, Message: "HTTP status 500"}
	})

	_, err := f.Fetch(context.Background(), "https://example.com/privacy")
	require.Error(t, err)
	_, err = f.Fetch(context.Background(), "https://example.com/privacy")
	require.Error(t, err)

	var fetchErr *Error
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 2, calls)
}

func TestCachedFetcher_Invalidate(t *testing.T) {
	clock := cachetest.NewClock(time.Now())
	calls := 0
	f := newTestFetcher(clock, func(_ context.Context, u string, _ *Options) (*Result, error) {
		calls++
		return &Result{URL: u}, nil
	})

	_, _ = f.Fetch(context.Background(), "https://example.com/privacy")
	f.InvalidateCache("https://example.com/privacy")
	res, err := f.Fetch(context.Background(), "https://example.com/privacy")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 2, calls)
}
