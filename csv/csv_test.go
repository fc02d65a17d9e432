package csv

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

const sampleInput = `id,timestamp,kind,source,in_asset,in_amount,out_asset,out_amount,fee_asset,fee_amount,fiat_value,unit_price,self_transfer,personal_use
buy-1,2023-08-01T10:00:00Z,spot_trade,kraken,BTC,1,,,AUD,30,30000,,false,false
reward-1,2024-01-15T00:00:00Z,staking_reward,validator,ATOM,12,,,,,,15.50,false,false
move-1,2024-02-01T00:00:00Z,transfer,kraken,BTC,0.5,,,,,,,true,
`

func TestReadTransactions(t *testing.T) {
	txs, err := ReadTransactions(strings.NewReader(sampleInput))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	buy := txs[0]
	assert.Equal(t, "buy-1", buy.ID)
	assert.Equal(t, tax.SpotTrade, buy.Kind)
	assert.Equal(t, "kraken", buy.Source)
	assert.Equal(t, time.Date(2023, 8, 1, 10, 0, 0, 0, time.UTC), buy.Timestamp)
	require.NotNil(t, buy.Received)
	assert.Equal(t, "BTC", buy.Received.Asset)
	assert.True(t, buy.Received.Amount.Equal(decimal.NewFromInt(1)))
	assert.Nil(t, buy.Sent)
	require.NotNil(t, buy.Fee)
	assert.Equal(t, "AUD", buy.Fee.Asset)
	require.NotNil(t, buy.FiatValue)
	assert.True(t, buy.FiatValue.Equal(decimal.NewFromInt(30000)))
	assert.Nil(t, buy.UnitPrice)

	reward := txs[1]
	assert.Equal(t, tax.StakingReward, reward.Kind)
	require.NotNil(t, reward.UnitPrice)
	assert.True(t, reward.UnitPrice.Equal(decimal.RequireFromString("15.50")))

	move := txs[2]
	assert.Equal(t, tax.Transfer, move.Kind)
	assert.True(t, move.SelfTransfer)
	assert.False(t, move.PersonalUse)
}

func TestReadTransactionsUnknownKind(t *testing.T) {
	input := strings.Join(InputHeaders, ",") + "\n" +
		"x-1,2023-08-01T10:00:00Z,margin_call,kraken,BTC,1,,,,,,,,\n"
	txs, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, tax.Unknown, txs[0].Kind)
}

func TestReadTransactionsBadHeader(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader("id,when\nx,2023\n"))
	require.Error(t, err)
}

func TestReadTransactionsBadTimestamp(t *testing.T) {
	input := strings.Join(InputHeaders, ",") + "\n" +
		"x-1,01/08/2023,spot_trade,kraken,BTC,1,,,,,,,,\n"
	_, err := ReadTransactions(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadTransactionsAmountWithoutAsset(t *testing.T) {
	input := strings.Join(InputHeaders, ",") + "\n" +
		"x-1,2023-08-01T10:00:00Z,spot_trade,kraken,,1,,,,,,,,\n"
	_, err := ReadTransactions(strings.NewReader(input))
	require.Error(t, err)
}

func TestToCsvRoundsTrip(t *testing.T) {
	gain := decimal.RequireFromString("6575.40")
	report := &tax.TaxReport{
		Transactions: []tax.TaxableTransaction{{
			Transaction: tax.Transaction{
				ID: "sell-1", Kind: tax.SpotTrade, Source: "kraken",
				Timestamp: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
				Sent:      &tax.AssetAmount{Asset: "BTC", Amount: decimal.RequireFromString("0.3")},
			},
			Treatment:     tax.TaxTreatment{EventType: tax.Disposal},
			CapitalGain:   gain,
			TaxableAmount: gain,
			Issues:        []tax.Issue{{Code: tax.IssueMissingPrice}},
		}},
	}

	buf, err := ToCsv(report)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(ReportHeaders, ","), lines[0])
	assert.Contains(t, lines[1], "sell-1")
	assert.Contains(t, lines[1], "6575.4")
	assert.Contains(t, lines[1], "missing_price")
	assert.Contains(t, lines[1], "DISPOSAL")
}
