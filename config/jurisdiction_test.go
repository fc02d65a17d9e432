package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

const ukPreset = `
code = "UK"
name = "United Kingdom"
currency = "GBP"
currency-precision = 2
tax-year-start-month = 4
tax-year-start-day = 6
discount-rate = "0"
discount-days = 0
personal-use-threshold = "0"
cost-basis-methods = ["FIFO"]
`

func writePreset(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jurisdiction.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadJurisdictionEmptyPathUsesDefault(t *testing.T) {
	j, err := LoadJurisdiction("")
	require.NoError(t, err)
	assert.Equal(t, tax.DefaultJurisdiction(), j)
}

func TestLoadJurisdictionFromPreset(t *testing.T) {
	j, err := LoadJurisdiction(writePreset(t, ukPreset))
	require.NoError(t, err)

	assert.Equal(t, "UK", j.Code)
	assert.Equal(t, "GBP", j.Currency)
	assert.Equal(t, time.April, j.TaxYearStartMonth)
	assert.Equal(t, 6, j.TaxYearStartDay)
	assert.True(t, j.DiscountRate.Equal(decimal.Zero))
	assert.Equal(t, []tax.CostBasisMethod{tax.FIFO}, j.CostBasisMethods)
}

func TestLoadJurisdictionBadRate(t *testing.T) {
	preset := `
code = "XX"
currency = "USD"
tax-year-start-month = 1
tax-year-start-day = 1
discount-rate = "half"
personal-use-threshold = "0"
cost-basis-methods = ["FIFO"]
`
	_, err := LoadJurisdiction(writePreset(t, preset))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discount-rate")
}

func TestLoadJurisdictionInvalidPreset(t *testing.T) {
	preset := `
code = "XX"
currency = "USD"
tax-year-start-month = 1
tax-year-start-day = 1
discount-rate = "0.5"
personal-use-threshold = "0"
cost-basis-methods = []
`
	_, err := LoadJurisdiction(writePreset(t, preset))
	require.Error(t, err)
}

func TestLoadJurisdictionMissingFile(t *testing.T) {
	_, err := LoadJurisdiction(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
