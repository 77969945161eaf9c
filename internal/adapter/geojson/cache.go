package geojson

import (
	"context"
	"sync"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/couchcryptid/medal-flow-etl/internal/observability"
)

// CachedFetcher memoizes the most recent non-empty fetch. The service reads a
// single map URL and its geometry does not change between renders, so one
// download serves every render after the first. Fetching a different URL
// replaces the memoized result.
type CachedFetcher struct {
	inner   Fetcher
	metrics *observability.Metrics

	mu       sync.Mutex
	url      string
	features []domain.MapFeature
}

// NewCachedFetcher creates a memoizing decorator around a fetcher.
func NewCachedFetcher(inner Fetcher, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{inner: inner, metrics: metrics}
}

func (c *CachedFetcher) Fetch(ctx context.Context, url string) ([]domain.MapFeature, error) {
	if features, ok := c.lookup(url); ok {
		c.metrics.GeoJSONCache.WithLabelValues("hit").Inc()
		return features, nil
	}
	c.metrics.GeoJSONCache.WithLabelValues("miss").Inc()

	features, err := c.inner.Fetch(ctx, url)
	if err != nil {
		return features, err
	}
	// Empty results stay uncached so the next render retries the download.
	if len(features) > 0 {
		c.mu.Lock()
		c.url, c.features = url, features
		c.mu.Unlock()
	}
	return features, nil
}

func (c *CachedFetcher) lookup(url string) ([]domain.MapFeature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.features == nil || c.url != url {
		return nil, false
	}
	return c.features, true
}
