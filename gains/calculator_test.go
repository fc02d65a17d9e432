package gains

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/crypto-cgt-cli/ledger"
	"github.com/tallyworks/crypto-cgt-cli/tax"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSingleLotShortHoldGain(t *testing.T) {
	// Acquire 1.0 BTC at total cost 30,030 (fee included); dispose 0.3 BTC
	// at net proceeds 15,584.40 (52,000 x 0.3 minus 15.60 fee).
	j := tax.DefaultJurisdiction()
	l := ledger.New()
	acquiredAt := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("30030"), acquiredAt, "buy-1")

	consumption := l.Consume("BTC", d("0.3"))
	disposedAt := acquiredAt.AddDate(0, 3, 0)
	res := Calculate(d("15584.40"), consumption, disposedAt, j)

	assert.True(t, res.CostBasis.Equal(d("9009")), "cost basis %s", res.CostBasis)
	assert.True(t, res.CapitalGain.Equal(d("6575.40")), "gain %s", res.CapitalGain)
	assert.True(t, res.CapitalLoss.IsZero())
	// under 365 days: no discount
	assert.True(t, res.DiscountApplied.IsZero())
	assert.True(t, res.TaxableAmount.Equal(d("6575.40")))
	assert.True(t, l.Lots("BTC")[0].Remaining.Equal(d("0.7")))
}

func TestTwoLotSpan(t *testing.T) {
	j := tax.DefaultJurisdiction()
	l := ledger.New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("0.7"), d("30030"), t0, "buy-1")
	l.Acquire("BTC", d("1"), d("45045"), t0.AddDate(0, 2, 0), "buy-2")

	consumption := l.Consume("BTC", d("0.8"))
	res := Calculate(d("41600"), consumption, t0.AddDate(0, 6, 0), j)

	wantBasis := d("0.7").Mul(d("30030")).Add(d("0.1").Mul(d("45045")))
	assert.True(t, res.CostBasis.Equal(wantBasis))
	require.Len(t, res.PerLot, 2)
	assert.Equal(t, "buy-1", res.PerLot[0].AcquisitionTxID)
	assert.True(t, l.Lots("BTC")[0].Remaining.IsZero())
}

func TestLongHoldingDiscountAppliesPerLot(t *testing.T) {
	j := tax.DefaultJurisdiction()
	l := ledger.New()
	t0 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("10000"), t0, "old")
	l.Acquire("BTC", d("1"), d("10000"), t0.AddDate(0, 11, 0), "young")

	// Dispose 2 BTC thirteen months after the first lot: the first lot
	// qualifies for the discount, the second does not.
	disposedAt := t0.AddDate(0, 13, 0)
	consumption := l.Consume("BTC", d("2"))
	res := Calculate(d("40000"), consumption, disposedAt, j)

	require.Len(t, res.PerLot, 2)
	assert.True(t, res.PerLot[0].Discounted)
	assert.False(t, res.PerLot[1].Discounted)

	// each lot: proceeds 20,000, basis 10,000, gain 10,000
	assert.True(t, res.PerLot[0].TaxableAmount.Equal(d("5000")))
	assert.True(t, res.PerLot[1].TaxableAmount.Equal(d("10000")))
	assert.True(t, res.DiscountApplied.Equal(d("5000")))
	assert.True(t, res.TaxableAmount.Equal(d("15000")))
	assert.True(t, res.CapitalGain.Equal(d("20000")))
}

func TestLossesAreNeverDiscounted(t *testing.T) {
	j := tax.DefaultJurisdiction()
	l := ledger.New()
	t0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("50000"), t0, "buy")

	// long holding, disposed at a loss
	consumption := l.Consume("BTC", d("1"))
	res := Calculate(d("30000"), consumption, t0.AddDate(2, 0, 0), j)

	assert.True(t, res.CapitalGain.IsZero())
	assert.True(t, res.CapitalLoss.Equal(d("20000")))
	assert.True(t, res.DiscountApplied.IsZero())
	assert.True(t, res.TaxableAmount.Equal(d("-20000")))
	assert.False(t, res.PerLot[0].Discounted)
}

func TestShortfallPortionIsZeroBasisGain(t *testing.T) {
	j := tax.DefaultJurisdiction()
	l := ledger.New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("0.5"), d("20000"), t0, "buy")

	consumption := l.Consume("BTC", d("1"))
	res := Calculate(d("60000"), consumption, t0.AddDate(0, 1, 0), j)

	require.Len(t, res.PerLot, 2)
	shortfall := res.PerLot[1]
	assert.True(t, shortfall.ZeroBasisShortfall)
	assert.True(t, shortfall.CostBasis.IsZero())
	// half the proceeds carry zero basis
	assert.True(t, shortfall.Proceeds.Equal(d("30000")))
	assert.True(t, shortfall.TaxableAmount.Equal(d("30000")))
	assert.False(t, shortfall.Discounted)
}

func TestZeroCostBasisAirdropDisposal(t *testing.T) {
	// An airdropped lot with zero basis disposed later yields gain equal
	// to the full proceeds.
	j := tax.DefaultJurisdiction()
	l := ledger.New()
	t0 := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("UNI", d("100"), decimal.Zero, t0, "airdrop")

	consumption := l.Consume("UNI", d("100"))
	res := Calculate(d("750"), consumption, t0.AddDate(0, 2, 0), j)

	assert.True(t, res.CostBasis.IsZero())
	assert.True(t, res.CapitalGain.Equal(d("750")))
	assert.True(t, res.TaxableAmount.Equal(d("750")))
}

func TestGainAndLossNeverBothNonzero(t *testing.T) {
	j := tax.DefaultJurisdiction()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, proceeds := range []string{"5000", "3000", "1000"} {
		l := ledger.New()
		l.Acquire("ETH", d("2"), d("1500"), t0, "buy")
		res := Calculate(d(proceeds), l.Consume("ETH", d("2")), t0.AddDate(0, 1, 0), j)
		assert.True(t, res.CapitalGain.IsZero() || res.CapitalLoss.IsZero())
	}
}
