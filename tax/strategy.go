package tax

import "github.com/shopspring/decimal"

// StrategyType is the closed set of optimization strategies.
type StrategyType string

const (
	LossHarvesting            StrategyType = "LOSS_HARVESTING"
	DiscountTiming            StrategyType = "DISCOUNT_TIMING"
	PersonalUseClassification StrategyType = "PERSONAL_USE_CLASSIFICATION"
	DisposalTiming            StrategyType = "DISPOSAL_TIMING"
	LotSelection              StrategyType = "LOT_SELECTION"
)

// ComplianceTier grades how defensible a strategy is.
type ComplianceTier string

const (
	TierSafe       ComplianceTier = "SAFE"
	TierModerate   ComplianceTier = "MODERATE"
	TierAggressive ComplianceTier = "AGGRESSIVE"
)

// RiskTolerance biases which strategies are surfaced.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// TaxStrategy is a read-only optimization proposal computed from a finished
// report. Strategies never feed back into the ledger.
type TaxStrategy struct {
	Type             StrategyType
	Description      string
	EstimatedSavings decimal.Decimal
	Steps            []string
	RiskNotes        string
	Tier             ComplianceTier
	// Priority ranks strategies; lower is higher priority.
	Priority int
}
