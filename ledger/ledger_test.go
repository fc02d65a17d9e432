package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConsumeDrawsOldestLotFirst(t *testing.T) {
	l := New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("30030"), t0, "tx-a")
	l.Acquire("BTC", d("1"), d("45045"), t0.AddDate(0, 6, 0), "tx-b")

	res := l.Consume("BTC", d("0.3"))
	require.Len(t, res.Draws, 1)
	assert.Equal(t, "tx-a", res.Draws[0].Lot.TxID)
	assert.True(t, res.Draws[0].Quantity.Equal(d("0.3")))
	assert.True(t, res.TotalCostBasis.Equal(d("9009")), "cost basis drawn should be 0.3 x 30030, got %s", res.TotalCostBasis)
	assert.True(t, res.Shortfall.IsZero())

	// remaining quantity on the first lot is reduced, second untouched
	lots := l.Lots("BTC")
	assert.True(t, lots[0].Remaining.Equal(d("0.7")))
	assert.True(t, lots[1].Remaining.Equal(d("1")))
}

func TestConsumeSpansLotsAndSplits(t *testing.T) {
	l := New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("0.7"), d("30030"), t0, "tx-a")
	l.Acquire("BTC", d("1"), d("45045"), t0.AddDate(0, 3, 0), "tx-b")

	res := l.Consume("BTC", d("0.8"))
	require.Len(t, res.Draws, 2)
	assert.Equal(t, "tx-a", res.Draws[0].Lot.TxID)
	assert.Equal(t, "tx-b", res.Draws[1].Lot.TxID)
	assert.True(t, res.Draws[0].Quantity.Equal(d("0.7")))
	assert.True(t, res.Draws[1].Quantity.Equal(d("0.1")))

	wantCost := d("0.7").Mul(d("30030")).Add(d("0.1").Mul(d("45045")))
	assert.True(t, res.TotalCostBasis.Equal(wantCost))

	// lot A consumed to zero
	assert.True(t, l.Lots("BTC")[0].Remaining.IsZero())
	assert.True(t, l.Lots("BTC")[1].Remaining.Equal(d("0.9")))
}

func TestConsumeShortfall(t *testing.T) {
	l := New()
	l.Acquire("ETH", d("2"), d("1000"), time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), "tx-a")

	res := l.Consume("ETH", d("3.5"))
	assert.True(t, res.Shortfall.Equal(d("1.5")))
	assert.True(t, res.Consumed().Equal(d("2")))
	assert.True(t, res.TotalCostBasis.Equal(d("2000")))
	assert.True(t, l.TotalRemaining("ETH").IsZero())
}

func TestConsumeUnknownAssetIsAllShortfall(t *testing.T) {
	l := New()
	res := l.Consume("DOGE", d("10"))
	assert.True(t, res.Shortfall.Equal(d("10")))
	assert.Empty(t, res.Draws)
	assert.True(t, res.TotalCostBasis.IsZero())
}

func TestQuantityConservation(t *testing.T) {
	l := New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	acquired := decimal.Zero
	for i, q := range []string{"0.5", "1.25", "0.125", "2"} {
		l.Acquire("BTC", d(q), d("20000"), t0.AddDate(0, 0, i), "tx")
		acquired = acquired.Add(d(q))
	}

	consumed := decimal.Zero
	for _, q := range []string{"0.4", "1", "0.001"} {
		res := l.Consume("BTC", d(q))
		consumed = consumed.Add(res.Consumed())
	}

	// sum(remaining) + sum(consumed) == sum(acquired), at every point
	assert.True(t, l.TotalRemaining("BTC").Add(consumed).Equal(acquired))
}

func TestFullyConsumedLotIsSkipped(t *testing.T) {
	l := New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("100"), t0, "tx-a")
	l.Acquire("BTC", d("1"), d("200"), t0.AddDate(0, 1, 0), "tx-b")

	l.Consume("BTC", d("1"))
	res := l.Consume("BTC", d("0.5"))
	require.Len(t, res.Draws, 1)
	assert.Equal(t, "tx-b", res.Draws[0].Lot.TxID)
	assert.True(t, res.TotalCostBasis.Equal(d("100")))
}

func TestSameTimestampLotsConsumeInInsertionOrder(t *testing.T) {
	l := New()
	t0 := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("100"), t0, "tx-first")
	l.Acquire("BTC", d("1"), d("200"), t0, "tx-second")

	res := l.Consume("BTC", d("1.5"))
	require.Len(t, res.Draws, 2)
	assert.Equal(t, "tx-first", res.Draws[0].Lot.TxID)
	assert.Equal(t, "tx-second", res.Draws[1].Lot.TxID)
}

func TestOpenLots(t *testing.T) {
	l := New()
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Acquire("BTC", d("1"), d("100"), t0, "tx-a")
	l.Acquire("ETH", d("5"), d("50"), t0, "tx-b")
	l.Consume("BTC", d("1"))

	open := l.OpenLots()
	require.Len(t, open, 1)
	assert.Equal(t, "ETH", open[0].Asset)
}
