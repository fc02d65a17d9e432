package rules

import (
	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// DefaultRules is the stock routing table, in spec priority order:
// self-custody moves, disposals, acquisitions, income, fees, then a
// low-confidence catch-all.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "self-transfer",
			Priority: 10,
			Matches: func(tx tax.Transaction, _ tax.Jurisdiction) bool {
				return tx.Kind == tax.Transfer && tx.SelfTransfer
			},
			Apply: func(tx tax.Transaction, _ tax.Jurisdiction) tax.TaxTreatment {
				return tax.TaxTreatment{
					EventType:      tax.NonTaxable,
					Classification: "self_transfer",
					Reason:         "transfer between self-owned accounts",
				}
			},
		},
		{
			Name:     "staking-movement",
			Priority: 20,
			Matches: func(tx tax.Transaction, _ tax.Jurisdiction) bool {
				return tx.Kind == tax.StakingDeposit || tx.Kind == tax.StakingWithdrawal
			},
			Apply: func(tx tax.Transaction, _ tax.Jurisdiction) tax.TaxTreatment {
				return tax.TaxTreatment{
					EventType:      tax.NonTaxable,
					Classification: "staking_movement",
					Reason:         "assets moved into or out of staking remain owned by the taxpayer",
				}
			},
		},
		{
			Name:     "disposal",
			Priority: 30,
			Matches: func(tx tax.Transaction, _ tax.Jurisdiction) bool {
				d := tx.Disposed()
				return d != nil && d.Amount.Sign() > 0 &&
					(tx.Kind == tax.SpotTrade || tx.Kind == tax.Swap || tx.Kind == tax.LiquidityAdd)
			},
			Apply: func(tx tax.Transaction, j tax.Jurisdiction) tax.TaxTreatment {
				treatment := tax.TaxTreatment{
					EventType:      tax.Disposal,
					Classification: classifyDisposal(tx.Kind),
					// Eligibility is potential only; the calculator decides
					// per consumed lot once holding periods are known.
					DiscountEligible: true,
					Reason:           "asset left the account via sale, swap or spend",
				}
				if tx.PersonalUse {
					if proceeds, ok := tx.GrossFiatValue(tx.Disposed().Amount); ok &&
						proceeds.LessThan(j.PersonalUseThreshold) {
						treatment.PersonalUseExempt = true
						treatment.Reason = "personal-use disposal below jurisdiction threshold"
					}
				}
				return treatment
			},
		},
		{
			Name:     "acquisition",
			Priority: 40,
			Matches: func(tx tax.Transaction, _ tax.Jurisdiction) bool {
				a := tx.Acquired()
				return a != nil && a.Amount.Sign() > 0 &&
					(tx.Kind == tax.SpotTrade || tx.Kind == tax.LiquidityRemove || tx.Kind == tax.Transfer)
			},
			Apply: func(tx tax.Transaction, _ tax.Jurisdiction) tax.TaxTreatment {
				return tax.TaxTreatment{
					EventType:      tax.Acquisition,
					Classification: classifyAcquisition(tx.Kind),
					Reason:         "asset entered the account, a new lot is recorded",
				}
			},
		},
		{
			Name:     "income",
			Priority: 50,
			Matches: func(tx tax.Transaction, _ tax.Jurisdiction) bool {
				return tx.IsIncomeKind()
			},
			Apply: func(tx tax.Transaction, _ tax.Jurisdiction) tax.TaxTreatment {
				return tax.TaxTreatment{
					EventType:      tax.Income,
					Classification: string(tx.Kind),
					Reason:         "ordinary income valued at market price at receipt",
				}
			},
		},
		{
			Name:     "fee",
			Priority: 60,
			Matches: func(tx tax.Transaction, _ tax.Jurisdiction) bool {
				return tx.Kind == tax.FeeOnly
			},
			Apply: func(tx tax.Transaction, _ tax.Jurisdiction) tax.TaxTreatment {
				return tax.TaxTreatment{
					EventType:      tax.Deductible,
					Classification: "fee",
					Reason:         "standalone fee deductible against taxable amounts",
				}
			},
		},
		{
			Name:     "fallback",
			Priority: 1000,
			Matches: func(tax.Transaction, tax.Jurisdiction) bool {
				return true
			},
			Apply: func(tx tax.Transaction, _ tax.Jurisdiction) tax.TaxTreatment {
				return tax.TaxTreatment{
					EventType:      tax.NonTaxable,
					Classification: "unclassified",
					LowConfidence:  true,
					Reason:         "no classification rule matched, flagged for review",
				}
			},
		},
	}
}

func classifyDisposal(kind tax.TransactionKind) string {
	switch kind {
	case tax.Swap:
		return "swap_out"
	case tax.LiquidityAdd:
		return "liquidity_add"
	default:
		return "sale"
	}
}

func classifyAcquisition(kind tax.TransactionKind) string {
	switch kind {
	case tax.LiquidityRemove:
		return "liquidity_remove"
	case tax.Transfer:
		return "transfer_in"
	default:
		return "purchase"
	}
}
