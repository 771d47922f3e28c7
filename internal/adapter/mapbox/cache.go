package mapbox

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Country
// centroids never change, so entries live until evicted.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) GeocodeCountry(ctx context.Context, country string) (domain.GeocodingResult, error) {
	key := "country:" + strings.ToLower(strings.TrimSpace(country))
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.GeocodeCountry(ctx, country)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.PlaceName != "" {
		c.cache.put(key, result)
	}
	return result, nil
}

// lruCache is a mutex-guarded LRU over container/list. The front of the list
// is the most recently used entry.
type lruCache struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List
	items      map[string]*list.Element
}

type cacheEntry struct {
	key    string
	result domain.GeocodingResult
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(1, maxEntries),
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result, true
}

func (c *lruCache) put(key string, result domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, result: result})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
