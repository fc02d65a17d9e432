package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// buildSummary aggregates the accumulated taxable transactions. It never
// re-reads the lot ledger. All intermediate math stays at full precision;
// rounding to the jurisdiction's currency precision happens here, once.
func buildSummary(taxables []tax.TaxableTransaction, j tax.Jurisdiction) tax.TaxSummary {
	var (
		totalGains  = decimal.Zero
		totalLosses = decimal.Zero
		discount    = decimal.Zero
		income      = decimal.Zero
		deductions  = decimal.Zero
		taxable     = decimal.Zero
	)
	byAsset := make(map[string]tax.AssetSummary)

	for _, tt := range taxables {
		totalGains = totalGains.Add(tt.CapitalGain)
		totalLosses = totalLosses.Add(tt.CapitalLoss)
		income = income.Add(tt.IncomeAmount)
		deductions = deductions.Add(tt.Deduction)
		taxable = taxable.Add(tt.TaxableAmount)

		for _, portion := range tt.LotBreakdown {
			if portion.Discounted {
				discount = discount.Add(portion.Gain.Sub(portion.TaxableAmount))
			}
		}

		switch tt.Treatment.EventType {
		case tax.Disposal:
			if disp := tt.Transaction.Disposed(); disp != nil {
				s := byAsset[disp.Asset]
				s.Asset = disp.Asset
				s.Gains = s.Gains.Add(tt.CapitalGain)
				s.Losses = s.Losses.Add(tt.CapitalLoss)
				s.Disposals++
				byAsset[disp.Asset] = s
			}
		case tax.Acquisition:
			if acq := tt.Transaction.Acquired(); acq != nil {
				s := byAsset[acq.Asset]
				s.Asset = acq.Asset
				s.Acquisitions++
				byAsset[acq.Asset] = s
			}
		case tax.Income:
			if recv := tt.Transaction.Received; recv != nil {
				s := byAsset[recv.Asset]
				s.Asset = recv.Asset
				s.Income = s.Income.Add(tt.IncomeAmount)
				byAsset[recv.Asset] = s
			}
		}
	}

	p := j.CurrencyPrecision
	for asset, s := range byAsset {
		s.Gains = s.Gains.Round(p)
		s.Losses = s.Losses.Round(p)
		s.Income = s.Income.Round(p)
		byAsset[asset] = s
	}

	return tax.TaxSummary{
		TotalGains:       totalGains.Round(p),
		TotalLosses:      totalLosses.Round(p),
		NetCapitalGain:   totalGains.Sub(totalLosses).Round(p),
		DiscountApplied:  discount.Round(p),
		OrdinaryIncome:   income.Round(p),
		Deductions:       deductions.Round(p),
		NetTaxableAmount: taxable.Add(income).Sub(deductions).Round(p),
		ByAsset:          byAsset,
	}
}

func missingPriceIssue(t tax.Transaction, asset string) tax.Issue {
	return tax.Issue{
		Severity: tax.SeverityWarning,
		Code:     tax.IssueMissingPrice,
		Message:  fmt.Sprintf("no market price available for %s at %s; valued at zero", asset, t.Timestamp.Format("2006-01-02 15:04:05")),
		TxID:     t.ID,
	}
}
