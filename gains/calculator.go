// Package gains computes realized capital gain/loss for disposals from a
// FIFO consumption result, applying the jurisdiction's long-holding
// discount per consumed lot.
package gains

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/crypto-cgt-cli/ledger"
	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// Result is the gain/loss outcome of one disposal. All amounts are kept at
// full decimal precision; rounding to currency precision happens once, at
// report aggregation.
type Result struct {
	Proceeds        decimal.Decimal
	CostBasis       decimal.Decimal
	CapitalGain     decimal.Decimal
	CapitalLoss     decimal.Decimal
	TaxableAmount   decimal.Decimal
	DiscountApplied decimal.Decimal
	PerLot          []tax.LotPortion
}

// Calculate produces the gain/loss for a disposal. netProceeds is the
// disposal's proceeds with any disposal-side fee already subtracted;
// disposedAt is the disposal timestamp used for per-lot holding periods.
//
// A shortfall in the consumption result is treated as a zero-cost-basis
// portion: its share of the proceeds is pure gain, undiscounted since no
// acquisition date exists for it.
func Calculate(netProceeds decimal.Decimal, consumption ledger.ConsumptionResult, disposedAt time.Time, j tax.Jurisdiction) Result {
	res := Result{Proceeds: netProceeds, CostBasis: consumption.TotalCostBasis}

	rawGain := netProceeds.Sub(consumption.TotalCostBasis)
	if rawGain.Sign() >= 0 {
		res.CapitalGain = rawGain
	} else {
		res.CapitalLoss = rawGain.Abs()
	}

	for _, draw := range consumption.Draws {
		portion := perLotPortion(netProceeds, consumption.Requested, draw.Quantity, draw.CostBasis)
		lp := tax.LotPortion{
			AcquiredAt:      draw.Lot.AcquiredAt,
			AcquisitionTxID: draw.Lot.TxID,
			Quantity:        draw.Quantity,
			CostBasis:       draw.CostBasis,
			Proceeds:        portion.proceeds,
			Gain:            portion.gain,
		}
		if portion.gain.Sign() > 0 && j.HoldingQualifies(draw.Lot.AcquiredAt, disposedAt) {
			discount := portion.gain.Mul(j.DiscountRate)
			lp.Discounted = true
			lp.TaxableAmount = portion.gain.Sub(discount)
			res.DiscountApplied = res.DiscountApplied.Add(discount)
		} else {
			// Losses are never discounted; they offset in full.
			lp.TaxableAmount = portion.gain
		}
		res.TaxableAmount = res.TaxableAmount.Add(lp.TaxableAmount)
		res.PerLot = append(res.PerLot, lp)
	}

	if consumption.Shortfall.Sign() > 0 {
		portion := perLotPortion(netProceeds, consumption.Requested, consumption.Shortfall, decimal.Zero)
		lp := tax.LotPortion{
			Quantity:           consumption.Shortfall,
			CostBasis:          decimal.Zero,
			Proceeds:           portion.proceeds,
			Gain:               portion.gain,
			TaxableAmount:      portion.gain,
			ZeroBasisShortfall: true,
		}
		res.TaxableAmount = res.TaxableAmount.Add(lp.TaxableAmount)
		res.PerLot = append(res.PerLot, lp)
	}

	return res
}

type lotPortion struct {
	proceeds decimal.Decimal
	gain     decimal.Decimal
}

// perLotPortion allocates proceeds to a drawn quantity proportionally by
// quantity and computes that portion's raw gain.
func perLotPortion(netProceeds, requested, quantity, costBasis decimal.Decimal) lotPortion {
	proceeds := decimal.Zero
	if requested.Sign() > 0 {
		proceeds = netProceeds.Mul(quantity).Div(requested)
	}
	return lotPortion{proceeds: proceeds, gain: proceeds.Sub(costBasis)}
}
