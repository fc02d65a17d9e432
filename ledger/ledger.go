// Package ledger tracks acquisition lots per asset and consumes them in
// strict first-in, first-out order on disposal.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a discrete acquisition of an asset. A lot is created exactly once
// per acquisition event; only Remaining changes afterward, strictly by
// consumption, so 0 <= Remaining <= OriginalQuantity always holds.
type Lot struct {
	Asset            string
	OriginalQuantity decimal.Decimal
	Remaining        decimal.Decimal
	CostBasisPerUnit decimal.Decimal
	AcquiredAt       time.Time
	TxID             string
}

// CostBasisRemaining is the cost basis still attached to the lot.
func (l *Lot) CostBasisRemaining() decimal.Decimal {
	return l.Remaining.Mul(l.CostBasisPerUnit)
}

// LotDraw is one lot's contribution to satisfying a disposal.
type LotDraw struct {
	Lot       *Lot
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
}

// ConsumptionResult lists the draws that satisfied one disposal, plus the
// unmet quantity when the ledger ran out of lots.
type ConsumptionResult struct {
	Asset          string
	Requested      decimal.Decimal
	Draws          []LotDraw
	TotalCostBasis decimal.Decimal
	Shortfall      decimal.Decimal
}

// Consumed is the quantity actually drawn from lots.
func (r ConsumptionResult) Consumed() decimal.Decimal {
	return r.Requested.Sub(r.Shortfall)
}

// Ledger holds per-asset lot sequences ordered by acquisition time, ties
// broken by insertion order. Sequences are append-only and never reordered;
// each report generation owns its own instance, so no locking is needed.
type Ledger struct {
	lots map[string][]*Lot
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{lots: make(map[string][]*Lot)}
}

// Acquire appends a new lot for the asset. Callers feed acquisitions in
// chronological order; the ledger does not re-sort.
func (l *Ledger) Acquire(asset string, quantity, costBasisPerUnit decimal.Decimal, acquiredAt time.Time, txID string) *Lot {
	lot := &Lot{
		Asset:            asset,
		OriginalQuantity: quantity,
		Remaining:        quantity,
		CostBasisPerUnit: costBasisPerUnit,
		AcquiredAt:       acquiredAt,
		TxID:             txID,
	}
	l.lots[asset] = append(l.lots[asset], lot)
	return lot
}

// Consume draws the requested quantity from the asset's lots oldest-first,
// splitting lots as needed. If the lots are exhausted first, the result
// reports the unmet quantity as shortfall; the caller decides the zero-cost
// basis policy for that portion.
func (l *Ledger) Consume(asset string, quantity decimal.Decimal) ConsumptionResult {
	result := ConsumptionResult{Asset: asset, Requested: quantity}
	remaining := quantity

	for _, lot := range l.lots[asset] {
		if remaining.Sign() <= 0 {
			break
		}
		if lot.Remaining.Sign() <= 0 {
			continue
		}
		draw := decimal.Min(lot.Remaining, remaining)
		cost := draw.Mul(lot.CostBasisPerUnit)
		result.Draws = append(result.Draws, LotDraw{Lot: lot, Quantity: draw, CostBasis: cost})
		result.TotalCostBasis = result.TotalCostBasis.Add(cost)
		lot.Remaining = lot.Remaining.Sub(draw)
		remaining = remaining.Sub(draw)
	}

	if remaining.Sign() > 0 {
		result.Shortfall = remaining
	}
	return result
}

// Lots returns the asset's lot sequence, oldest first. The slice is shared
// with the ledger; callers must not reorder it.
func (l *Ledger) Lots(asset string) []*Lot {
	return l.lots[asset]
}

// OpenLots returns every lot with remaining quantity, across all assets,
// for post-hoc analysis such as strategy generation.
func (l *Ledger) OpenLots() []*Lot {
	var open []*Lot
	for _, lots := range l.lots {
		for _, lot := range lots {
			if lot.Remaining.Sign() > 0 {
				open = append(open, lot)
			}
		}
	}
	return open
}

// Assets returns the asset symbols the ledger has seen.
func (l *Ledger) Assets() []string {
	assets := make([]string, 0, len(l.lots))
	for asset := range l.lots {
		assets = append(assets, asset)
	}
	return assets
}

// TotalRemaining sums the remaining quantity across the asset's lots.
func (l *Ledger) TotalRemaining(asset string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots[asset] {
		total = total.Add(lot.Remaining)
	}
	return total
}
