package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxPeriod is the reporting window a report covers.
type TaxPeriod struct {
	Start time.Time
	End   time.Time
	Label string
}

// AssetSummary is the per-asset slice of the report summary.
type AssetSummary struct {
	Asset        string
	Gains        decimal.Decimal
	Losses       decimal.Decimal
	Income       decimal.Decimal
	Disposals    int
	Acquisitions int
}

// TaxSummary aggregates the taxable transactions of one report. Amounts are
// rounded to the jurisdiction's currency precision; this is the only place
// rounding happens.
type TaxSummary struct {
	TotalGains       decimal.Decimal
	TotalLosses      decimal.Decimal
	NetCapitalGain   decimal.Decimal
	DiscountApplied  decimal.Decimal
	OrdinaryIncome   decimal.Decimal
	Deductions       decimal.Decimal
	NetTaxableAmount decimal.Decimal
	ByAsset          map[string]AssetSummary
}

// ReportMetadata carries counts and provenance for one generation run.
type ReportMetadata struct {
	TransactionCount int
	ProcessedCount   int
	Sources          []string
	Duration         time.Duration
	// Incomplete is set when generation was cancelled between chunks;
	// aggregated state up to the last completed chunk is retained.
	Incomplete bool
}

// TaxReport is the immutable output of one generator invocation. All
// numbers are final; external formatters never recompute.
type TaxReport struct {
	ID           string
	Jurisdiction Jurisdiction
	Period       TaxPeriod
	GeneratedAt  time.Time
	Transactions []TaxableTransaction
	Summary      TaxSummary
	Strategies   []TaxStrategy
	Metadata     ReportMetadata
	Issues       []Issue
}
