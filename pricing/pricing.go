// Package pricing supplies market prices for income valuation and
// optimization analysis. Prices are advisory inputs: a missing price is a
// validation warning upstream, never a fatal error.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when a source has no price for the
// requested asset/time.
var ErrPriceUnavailable = errors.New("price unavailable")

// Source answers price queries in a quote currency.
type Source interface {
	// PriceAt returns the asset's unit price at (or nearest to) the given time.
	PriceAt(ctx context.Context, asset, currency string, at time.Time) (decimal.Decimal, error)
	// CurrentPrice returns the asset's latest unit price.
	CurrentPrice(ctx context.Context, asset, currency string) (decimal.Decimal, error)
}

// StaticSource serves prices from a fixed table, keyed by asset symbol.
// Used for tests and offline runs.
type StaticSource struct {
	Prices map[string]decimal.Decimal
}

// NewStaticSource builds a source over the given asset -> price table.
func NewStaticSource(prices map[string]decimal.Decimal) *StaticSource {
	return &StaticSource{Prices: prices}
}

func (s *StaticSource) PriceAt(_ context.Context, asset, _ string, _ time.Time) (decimal.Decimal, error) {
	return s.lookup(asset)
}

func (s *StaticSource) CurrentPrice(_ context.Context, asset, _ string) (decimal.Decimal, error) {
	return s.lookup(asset)
}

func (s *StaticSource) lookup(asset string) (decimal.Decimal, error) {
	if p, ok := s.Prices[asset]; ok {
		return p, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
}
