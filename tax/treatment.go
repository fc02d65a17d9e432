package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxEventType routes a transaction into one of the five tax treatments.
type TaxEventType string

const (
	Acquisition TaxEventType = "ACQUISITION"
	Disposal    TaxEventType = "DISPOSAL"
	Income      TaxEventType = "INCOME"
	Deductible  TaxEventType = "DEDUCTIBLE"
	NonTaxable  TaxEventType = "NON_TAXABLE"
)

// TaxTreatment is the classification outcome for a single transaction.
// Computed once, never mutated afterward.
type TaxTreatment struct {
	EventType         TaxEventType
	Classification    string
	PersonalUseExempt bool
	DiscountEligible  bool
	// LowConfidence marks the fallback classification for unmatched
	// transactions, so downstream consumers can surface them for review
	// instead of silently fabricating tax liability.
	LowConfidence bool
	Reason        string
	AppliedRules  []string
}

// LotPortion records one consumed lot's contribution to a disposal's
// gain/loss, for per-lot reporting.
type LotPortion struct {
	AcquiredAt       time.Time
	AcquisitionTxID  string
	Quantity         decimal.Decimal
	CostBasis        decimal.Decimal
	Proceeds         decimal.Decimal
	Gain             decimal.Decimal
	Discounted       bool
	TaxableAmount    decimal.Decimal
	ZeroBasisShortfall bool
}

// TaxableTransaction pairs a transaction with its treatment and, when
// applicable, the computed capital gain/loss and income amounts.
type TaxableTransaction struct {
	Transaction Transaction
	Treatment   TaxTreatment

	CapitalGain   decimal.Decimal
	CapitalLoss   decimal.Decimal
	TaxableAmount decimal.Decimal
	IncomeAmount  decimal.Decimal
	Deduction     decimal.Decimal

	LotBreakdown []LotPortion
	Issues       []Issue
}
