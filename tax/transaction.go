package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the closed set of normalized transaction types the
// engine understands. Anything an upstream normalizer cannot map lands on
// Unknown and is classified conservatively.
type TransactionKind string

const (
	SpotTrade         TransactionKind = "spot_trade"
	Transfer          TransactionKind = "transfer"
	FeeOnly           TransactionKind = "fee"
	StakingDeposit    TransactionKind = "staking_deposit"
	StakingWithdrawal TransactionKind = "staking_withdrawal"
	StakingReward     TransactionKind = "staking_reward"
	Interest          TransactionKind = "interest"
	Airdrop           TransactionKind = "airdrop"
	Swap              TransactionKind = "swap"
	LiquidityAdd      TransactionKind = "liquidity_add"
	LiquidityRemove   TransactionKind = "liquidity_remove"
	Unknown           TransactionKind = "unknown"
)

// AssetAmount pairs an asset symbol with an exact decimal quantity.
type AssetAmount struct {
	Asset  string
	Amount decimal.Decimal
}

// Transaction is a normalized transaction record produced by an upstream
// collaborator. The engine never mutates these.
type Transaction struct {
	ID        string
	Timestamp time.Time
	Kind      TransactionKind
	Source    string

	// Received holds the asset entering the account (buy side, swap-in,
	// reward, transfer-in). Sent holds the asset leaving (sell side,
	// swap-out, transfer-out). Either may be nil depending on Kind.
	Received *AssetAmount
	Sent     *AssetAmount

	Fee *AssetAmount

	// FiatValue is the total fiat value of the transaction when the
	// normalizer could determine one: total cost for a buy, gross proceeds
	// for a sell, market value at receipt for income.
	FiatValue *decimal.Decimal

	// UnitPrice is the per-unit market price annotation, when supplied.
	UnitPrice *decimal.Decimal

	// SelfTransfer marks a transfer between accounts owned by the same
	// taxpayer. Set by the normalizer, never inferred here.
	SelfTransfer bool

	// PersonalUse marks an asset acquired or spent for direct personal
	// consumption. Required for the personal-use exemption to apply;
	// absent metadata the exemption never auto-applies.
	PersonalUse bool
}

// Acquired returns the asset-quantity pair entering the account for this
// transaction kind, or nil if the kind has no acquisition side.
func (t Transaction) Acquired() *AssetAmount {
	switch t.Kind {
	case SpotTrade, Swap, LiquidityRemove, StakingReward, Interest, Airdrop, Transfer, StakingWithdrawal:
		return t.Received
	default:
		return nil
	}
}

// Disposed returns the asset-quantity pair leaving the account for this
// transaction kind, or nil if the kind has no disposal side.
func (t Transaction) Disposed() *AssetAmount {
	switch t.Kind {
	case SpotTrade, Swap, LiquidityAdd, Transfer, StakingDeposit:
		return t.Sent
	default:
		return nil
	}
}

// IsIncomeKind reports whether the kind is ordinary income at receipt.
func (t Transaction) IsIncomeKind() bool {
	switch t.Kind {
	case StakingReward, Interest, Airdrop:
		return true
	}
	return false
}

// GrossFiatValue resolves the transaction's total fiat value from its
// annotations: FiatValue wins, otherwise UnitPrice times the given quantity.
// The bool reports whether a value could be resolved.
func (t Transaction) GrossFiatValue(quantity decimal.Decimal) (decimal.Decimal, bool) {
	if t.FiatValue != nil {
		return *t.FiatValue, true
	}
	if t.UnitPrice != nil {
		return t.UnitPrice.Mul(quantity), true
	}
	return decimal.Zero, false
}
