package db

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tallyworks/crypto-cgt-cli/tax"
	"github.com/tallyworks/crypto-cgt-cli/util"
)

func TestReportToRecord(t *testing.T) {
	j := tax.DefaultJurisdiction()
	report := &tax.TaxReport{
		ID:           "AU-FY2023-2024-1",
		Jurisdiction: j,
		Period: tax.TaxPeriod{
			Start: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			Label: "FY2023-2024",
		},
		GeneratedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Summary: tax.TaxSummary{
			TotalGains:       decimal.RequireFromString("6575.40"),
			NetCapitalGain:   decimal.RequireFromString("6575.40"),
			NetTaxableAmount: decimal.RequireFromString("6575.40"),
		},
		Metadata: tax.ReportMetadata{TransactionCount: 2, ProcessedCount: 2},
	}

	record := reportToRecord(report)
	assert.Equal(t, "AU-FY2023-2024-1", record.ReportID)
	assert.Equal(t, j.Code, record.Jurisdiction)
	assert.Equal(t, j.Currency, record.Currency)
	assert.Equal(t, "FY2023-2024", record.YearLabel)
	assert.True(t, util.FromNumeric(record.TotalGains).Equal(decimal.RequireFromString("6575.40")))
	assert.True(t, util.FromNumeric(record.TotalLosses).IsZero())
	assert.Equal(t, 2, record.TransactionCount)
	assert.False(t, record.Incomplete)
}

func TestTransactionToRecord(t *testing.T) {
	gain := decimal.RequireFromString("6575.40")
	tt := tax.TaxableTransaction{
		Transaction: tax.Transaction{
			ID: "sell-1", Kind: tax.SpotTrade, Source: "kraken",
			Timestamp: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
			Sent:      &tax.AssetAmount{Asset: "BTC", Amount: decimal.RequireFromString("0.3")},
		},
		Treatment:     tax.TaxTreatment{EventType: tax.Disposal},
		CapitalGain:   gain,
		TaxableAmount: gain,
		Issues: []tax.Issue{
			{Code: tax.IssueMissingPrice},
			{Code: tax.IssueLedgerShortfall},
		},
	}

	row := transactionToRecord(tt)
	assert.Equal(t, "sell-1", row.TxID)
	assert.Equal(t, "BTC", row.Asset)
	assert.True(t, util.FromNumeric(row.Quantity).Equal(decimal.RequireFromString("0.3")))
	assert.True(t, util.FromNumeric(row.CapitalGain).Equal(gain))
	assert.Equal(t, "DISPOSAL", row.EventType)
	assert.Equal(t, "missing_price;ledger_shortfall", row.Issues)
}
