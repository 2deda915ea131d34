package fetch

import (
	"context"
	"time"

	"github.com/jonathan/privacy-lens/internal/cache"
)

// DefaultPageCacheTTL is how long a fetched page is reused.
const DefaultPageCacheTTL = 6 * time.Hour

// CachedFetcher wraps URL fetching with an in-process TTL cache. Only
// successful fetches are cached.
type CachedFetcher struct {
	cache    *cache.Cache[*Result]
	options  *Options
	cacheTTL time.Duration
	// fetch is URL unless replaced in tests.
	fetch func(ctx context.Context, urlStr string, opts *Options) (*Result, error)
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Options  *Options
	Clock    cache.Clock
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: DefaultPageCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultPageCacheTTL
	}
	return &CachedFetcher{
		cache:    cache.New[*Result](cache.WithClock(config.Clock)),
		options:  config.Options,
		cacheTTL: config.CacheTTL,
		fetch:    URL,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, using the cache if an entry is still fresh.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if cached, ok := f.cache.Get(urlStr); ok {
		copied := *cached
		return &CachedResult{Result: &copied, FromCache: true}, nil
	}

	result, err := f.fetch(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	stored := *result
	f.cache.Set(urlStr, &stored, f.cacheTTL)
	return &CachedResult{Result: result}, nil
}

// InvalidateCache drops a cached page, forcing a re-fetch on next request.
func (f *CachedFetcher) InvalidateCache(urlStr string) {
	f.cache.Delete(urlStr)
}
