package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Cache layers a TTL cache over any source. Current prices are cached per
// asset/currency; historic prices are cached per asset/currency/hour since
// candles do not change.
type Cache struct {
	source Source
	ttl    time.Duration

	mu       sync.RWMutex
	current  map[string]cachedPrice
	historic map[string]decimal.Decimal
}

type cachedPrice struct {
	price   decimal.Decimal
	fetched time.Time
}

// NewCache wraps a source with the given TTL for current prices.
func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{
		source:   source,
		ttl:      ttl,
		current:  make(map[string]cachedPrice),
		historic: make(map[string]decimal.Decimal),
	}
}

func (c *Cache) PriceAt(ctx context.Context, asset, currency string, at time.Time) (decimal.Decimal, error) {
	key := asset + "/" + currency + "/" + at.Truncate(time.Hour).Format(time.RFC3339)

	c.mu.RLock()
	if p, ok := c.historic[key]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	p, err := c.source.PriceAt(ctx, asset, currency, at)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.historic[key] = p
	c.mu.Unlock()
	return p, nil
}

func (c *Cache) CurrentPrice(ctx context.Context, asset, currency string) (decimal.Decimal, error) {
	key := asset + "/" + currency

	c.mu.RLock()
	if cached, ok := c.current[key]; ok && time.Since(cached.fetched) < c.ttl {
		c.mu.RUnlock()
		return cached.price, nil
	}
	c.mu.RUnlock()

	p, err := c.source.CurrentPrice(ctx, asset, currency)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.current[key] = cachedPrice{price: p, fetched: time.Now()}
	c.mu.Unlock()
	return p, nil
}

// Warm fetches current prices for the given assets so later lookups hit
// the cache. Errors are returned for logging; warming is best effort.
func (c *Cache) Warm(ctx context.Context, assets []string, currency string) map[string]error {
	failures := make(map[string]error)
	for _, asset := range assets {
		if _, err := c.CurrentPrice(ctx, asset, currency); err != nil {
			failures[asset] = err
		}
	}
	return failures
}
