package pricing

import (
	"context"
	"fmt"
	"time"

	coinbasepro "github.com/preichenberger/go-coinbasepro/v2"
	"github.com/shopspring/decimal"
)

// CoinbaseSource resolves prices against the Coinbase Pro API.
type CoinbaseSource struct {
	client *coinbasepro.Client
}

// NewCoinbaseSource builds a source over a default Coinbase Pro client.
func NewCoinbaseSource() *CoinbaseSource {
	return &CoinbaseSource{client: coinbasepro.NewClient()}
}

// productID maps asset/currency to a Coinbase product, e.g. BTC-AUD.
func productID(asset, currency string) string {
	return fmt.Sprintf("%s-%s", asset, currency)
}

func (c *CoinbaseSource) PriceAt(_ context.Context, asset, currency string, at time.Time) (decimal.Decimal, error) {
	params := coinbasepro.GetHistoricRatesParams{
		Start:       at.Add(-time.Hour),
		End:         at.Add(time.Hour),
		Granularity: 3600,
	}
	rates, err := c.client.GetHistoricRates(productID(asset, currency), params)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s at %s: %v", ErrPriceUnavailable, asset, at.Format(time.RFC3339), err)
	}
	if len(rates) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s at %s", ErrPriceUnavailable, asset, at.Format(time.RFC3339))
	}

	// Rates come newest first; take the candle closest to the requested time.
	closest := rates[0]
	for _, r := range rates[1:] {
		if absDuration(r.Time.Sub(at)) < absDuration(closest.Time.Sub(at)) {
			closest = r
		}
	}
	return decimal.NewFromFloat(closest.Close), nil
}

func (c *CoinbaseSource) CurrentPrice(_ context.Context, asset, currency string) (decimal.Decimal, error) {
	ticker, err := c.client.GetTicker(productID(asset, currency))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, asset, err)
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: bad ticker price %q", ErrPriceUnavailable, asset, ticker.Price)
	}
	return price, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
