package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps StaticSource to count upstream hits.
type countingSource struct {
	static  *StaticSource
	calls   int
	current int
}

func (c *countingSource) PriceAt(ctx context.Context, asset, currency string, at time.Time) (decimal.Decimal, error) {
	c.calls++
	return c.static.PriceAt(ctx, asset, currency, at)
}

func (c *countingSource) CurrentPrice(ctx context.Context, asset, currency string) (decimal.Decimal, error) {
	c.current++
	return c.static.CurrentPrice(ctx, asset, currency)
}

func TestStaticSource(t *testing.T) {
	s := NewStaticSource(map[string]decimal.Decimal{"BTC": decimal.NewFromInt(30000)})

	p, err := s.CurrentPrice(context.Background(), "BTC", "AUD")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(30000)))

	_, err = s.PriceAt(context.Background(), "DOGE", "AUD", time.Now())
	require.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestCacheHistoricPricesByHour(t *testing.T) {
	src := &countingSource{static: NewStaticSource(map[string]decimal.Decimal{"BTC": decimal.NewFromInt(30000)})}
	cache := NewCache(src, time.Minute)

	at := time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p, err := cache.PriceAt(context.Background(), "BTC", "AUD", at.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.True(t, p.Equal(decimal.NewFromInt(30000)))
	}
	// all three lookups fall in the same hour bucket
	assert.Equal(t, 1, src.calls)

	_, err := cache.PriceAt(context.Background(), "BTC", "AUD", at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCacheCurrentPriceTTL(t *testing.T) {
	src := &countingSource{static: NewStaticSource(map[string]decimal.Decimal{"BTC": decimal.NewFromInt(30000)})}
	cache := NewCache(src, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := cache.CurrentPrice(context.Background(), "BTC", "AUD")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.current)
}

func TestCacheErrorsAreNotCached(t *testing.T) {
	src := &countingSource{static: NewStaticSource(nil)}
	cache := NewCache(src, time.Hour)

	_, err := cache.CurrentPrice(context.Background(), "BTC", "AUD")
	require.Error(t, err)
	_, err = cache.CurrentPrice(context.Background(), "BTC", "AUD")
	require.Error(t, err)
	assert.Equal(t, 2, src.current)
}

func TestWarmReportsFailures(t *testing.T) {
	src := &countingSource{static: NewStaticSource(map[string]decimal.Decimal{"BTC": decimal.NewFromInt(30000)})}
	cache := NewCache(src, time.Hour)

	failures := cache.Warm(context.Background(), []string{"BTC", "DOGE"}, "AUD")
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures["DOGE"], ErrPriceUnavailable)

	// BTC is now cached
	_, err := cache.CurrentPrice(context.Background(), "BTC", "AUD")
	require.NoError(t, err)
	assert.Equal(t, 2, src.current)
}
