// Package optimization proposes tax strategies from a finished report. It
// is a pure analysis over already-computed results: it never mutates the
// ledger or re-runs FIFO consumption.
package optimization

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/crypto-cgt-cli/ledger"
	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// Input carries everything strategy generation reads. OpenLots and
// CurrentPrices enable unrealized-position analysis; both are optional.
type Input struct {
	Transactions  []tax.TaxableTransaction
	OpenLots      []*ledger.Lot
	Jurisdiction  tax.Jurisdiction
	CurrentPrices map[string]decimal.Decimal
	RiskTolerance tax.RiskTolerance
	AsOf          time.Time
	PeriodEnd     time.Time
}

// discountWindow is how far ahead of the holding threshold a lot counts as
// "approaching" for discount-timing purposes.
const discountWindow = 90 * 24 * time.Hour

// GenerateStrategies analyses the input and returns proposals filtered by
// risk tolerance and sorted ascending by priority.
func GenerateStrategies(in Input) []tax.TaxStrategy {
	if in.RiskTolerance == "" {
		in.RiskTolerance = tax.RiskConservative
	}

	var strategies []tax.TaxStrategy
	strategies = append(strategies, lossHarvesting(in)...)
	strategies = append(strategies, discountTiming(in)...)
	strategies = append(strategies, lotSelection(in)...)
	strategies = append(strategies, disposalTiming(in)...)
	strategies = append(strategies, personalUseReview(in)...)

	filtered := strategies[:0]
	for _, s := range strategies {
		if allowedByRisk(s.Tier, in.RiskTolerance) {
			filtered = append(filtered, s)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Priority < filtered[j].Priority
	})
	return filtered
}

func allowedByRisk(tier tax.ComplianceTier, risk tax.RiskTolerance) bool {
	switch risk {
	case tax.RiskConservative:
		return tier == tax.TierSafe
	case tax.RiskModerate:
		return tier != tax.TierAggressive
	default:
		return true
	}
}

// lossHarvesting ranks unrealized-loss positions by magnitude.
func lossHarvesting(in Input) []tax.TaxStrategy {
	type position struct {
		asset string
		loss  decimal.Decimal
	}
	losses := make(map[string]decimal.Decimal)
	for _, lot := range in.OpenLots {
		price, ok := in.CurrentPrices[lot.Asset]
		if !ok {
			continue
		}
		value := lot.Remaining.Mul(price)
		basis := lot.CostBasisRemaining()
		if value.LessThan(basis) {
			losses[lot.Asset] = losses[lot.Asset].Add(basis.Sub(value))
		}
	}
	if len(losses) == 0 {
		return nil
	}

	positions := make([]position, 0, len(losses))
	for asset, loss := range losses {
		positions = append(positions, position{asset: asset, loss: loss})
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].loss.Equal(positions[j].loss) {
			return positions[i].asset < positions[j].asset
		}
		return positions[i].loss.GreaterThan(positions[j].loss)
	})

	var strategies []tax.TaxStrategy
	for rank, p := range positions {
		strategies = append(strategies, tax.TaxStrategy{
			Type: tax.LossHarvesting,
			Description: fmt.Sprintf("Realize the unrealized loss of %s %s on %s to offset capital gains",
				p.loss.Round(in.Jurisdiction.CurrencyPrecision), in.Jurisdiction.Currency, p.asset),
			EstimatedSavings: p.loss,
			Steps: []string{
				fmt.Sprintf("Review open %s lots with cost basis above current market value", p.asset),
				fmt.Sprintf("Dispose of the loss-making %s position before the period ends", p.asset),
				"Apply the realized loss against realized gains in the same period",
			},
			RiskNotes: "Realizing a loss changes the portfolio position; re-entering immediately may attract wash-sale style scrutiny.",
			Tier:      tax.TierSafe,
			Priority:  1 + rank,
		})
	}
	return strategies
}

// discountTiming flags lots approaching the long-holding threshold where
// deferring disposal would earn the discount.
func discountTiming(in Input) []tax.TaxStrategy {
	var strategies []tax.TaxStrategy
	rank := 0
	for _, lot := range in.OpenLots {
		price, ok := in.CurrentPrices[lot.Asset]
		if !ok {
			continue
		}
		qualifiesAt := lot.AcquiredAt.AddDate(0, 0, in.Jurisdiction.DiscountDays)
		if !in.AsOf.Before(qualifiesAt) {
			continue // already qualified
		}
		if qualifiesAt.Sub(in.AsOf) > discountWindow {
			continue
		}
		gain := lot.Remaining.Mul(price).Sub(lot.CostBasisRemaining())
		if gain.Sign() <= 0 {
			continue
		}
		savings := gain.Mul(in.Jurisdiction.DiscountRate)
		strategies = append(strategies, tax.TaxStrategy{
			Type: tax.DiscountTiming,
			Description: fmt.Sprintf("Defer disposal of the %s lot acquired %s until %s to qualify for the long-holding discount",
				lot.Asset, lot.AcquiredAt.Format("2006-01-02"), qualifiesAt.Format("2006-01-02")),
			EstimatedSavings: savings,
			Steps: []string{
				fmt.Sprintf("Hold the %s lot until %s", lot.Asset, qualifiesAt.Format("2006-01-02")),
				"Dispose after the threshold date to halve the taxable gain",
			},
			RiskNotes: "Savings assume the market value holds until the qualify date.",
			Tier:      tax.TierSafe,
			Priority:  10 + rank,
		})
		rank++
	}
	return strategies
}

// lotSelection estimates savings from specific identification of
// higher-basis lots over FIFO order, where the jurisdiction permits it.
func lotSelection(in Input) []tax.TaxStrategy {
	if !in.Jurisdiction.Supports(tax.SpecificID) {
		return nil
	}

	byAsset := make(map[string][]*ledger.Lot)
	for _, lot := range in.OpenLots {
		byAsset[lot.Asset] = append(byAsset[lot.Asset], lot)
	}

	assets := make([]string, 0, len(byAsset))
	for asset := range byAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var strategies []tax.TaxStrategy
	rank := 0
	for _, asset := range assets {
		lots := byAsset[asset]
		if len(lots) < 2 {
			continue
		}
		fifo := lots[0]
		highest := lots[0]
		for _, lot := range lots[1:] {
			if lot.AcquiredAt.Before(fifo.AcquiredAt) {
				fifo = lot
			}
			if lot.CostBasisPerUnit.GreaterThan(highest.CostBasisPerUnit) {
				highest = lot
			}
		}
		if highest == fifo || !highest.CostBasisPerUnit.GreaterThan(fifo.CostBasisPerUnit) {
			continue
		}
		qty := decimal.Min(fifo.Remaining, highest.Remaining)
		savings := highest.CostBasisPerUnit.Sub(fifo.CostBasisPerUnit).Mul(qty)
		strategies = append(strategies, tax.TaxStrategy{
			Type: tax.LotSelection,
			Description: fmt.Sprintf("For a planned %s disposal, specifically identify the lot acquired %s instead of FIFO order",
				asset, highest.AcquiredAt.Format("2006-01-02")),
			EstimatedSavings: savings,
			Steps: []string{
				"Confirm the broker or records support specific identification",
				fmt.Sprintf("Nominate the higher-basis %s lot at disposal time", asset),
				"Keep contemporaneous records of the nomination",
			},
			RiskNotes: "Specific identification requires adequate records; the default remains FIFO without them.",
			Tier:      tax.TierModerate,
			Priority:  20 + rank,
		})
		rank++
	}
	return strategies
}

// disposalTiming suggests deferring further gains when the period already
// carries substantial realized gains and the period end is near.
func disposalTiming(in Input) []tax.TaxStrategy {
	realized := decimal.Zero
	for _, tt := range in.Transactions {
		realized = realized.Add(tt.CapitalGain)
	}
	if realized.Sign() <= 0 {
		return nil
	}
	if in.PeriodEnd.IsZero() || in.PeriodEnd.Sub(in.AsOf) > discountWindow {
		return nil
	}
	return []tax.TaxStrategy{{
		Type: tax.DisposalTiming,
		Description: fmt.Sprintf("%s %s of gains are already realized this period; defer further profitable disposals past %s",
			realized.Round(in.Jurisdiction.CurrencyPrecision), in.Jurisdiction.Currency, in.PeriodEnd.Format("2006-01-02")),
		EstimatedSavings: decimal.Zero,
		Steps: []string{
			"Review planned disposals with unrealized gains",
			fmt.Sprintf("Defer them past %s to shift the gain into the next period", in.PeriodEnd.Format("2006-01-02")),
		},
		RiskNotes: "Deferral trades tax timing against market exposure.",
		Tier:      tax.TierModerate,
		Priority:  30,
	}}
}

// personalUseReview flags small disposals that were not marked as
// personal use but fall under the threshold.
func personalUseReview(in Input) []tax.TaxStrategy {
	count := 0
	total := decimal.Zero
	for _, tt := range in.Transactions {
		if tt.Treatment.EventType != tax.Disposal || tt.Transaction.PersonalUse {
			continue
		}
		disp := tt.Transaction.Disposed()
		if disp == nil {
			continue
		}
		proceeds, ok := tt.Transaction.GrossFiatValue(disp.Amount)
		if !ok || !proceeds.LessThan(in.Jurisdiction.PersonalUseThreshold) {
			continue
		}
		if tt.CapitalGain.Sign() > 0 {
			count++
			total = total.Add(tt.TaxableAmount)
		}
	}
	if count == 0 {
		return nil
	}
	return []tax.TaxStrategy{{
		Type: tax.PersonalUseClassification,
		Description: fmt.Sprintf("%d small disposals under the personal-use threshold were taxed; review whether any were genuine personal-use spends",
			count),
		EstimatedSavings: total,
		Steps: []string{
			"Identify disposals that paid for personal goods or services",
			"Gather evidence of personal-use intent at acquisition",
			"Amend the transaction metadata and regenerate the report",
		},
		RiskNotes: "Personal-use claims without contemporaneous intent evidence are commonly challenged.",
		Tier:      tax.TierAggressive,
		Priority:  40,
	}}
}
