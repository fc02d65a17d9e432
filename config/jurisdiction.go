package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// jurisdictionFile is the TOML shape of a jurisdiction preset. Rates and
// thresholds are strings so they parse through exact decimals, never
// binary floats.
type jurisdictionFile struct {
	Code                 string
	Name                 string
	Currency             string
	CurrencyPrecision    int32  `toml:"currency-precision"`
	TaxYearStartMonth    int    `toml:"tax-year-start-month"`
	TaxYearStartDay      int    `toml:"tax-year-start-day"`
	DiscountRate         string `toml:"discount-rate"`
	DiscountDays         int    `toml:"discount-days"`
	PersonalUseThreshold string `toml:"personal-use-threshold"`
	CostBasisMethods     []string `toml:"cost-basis-methods"`
}

// LoadJurisdiction reads a jurisdiction preset from a TOML file. An empty
// path returns the built-in default.
func LoadJurisdiction(path string) (tax.Jurisdiction, error) {
	if path == "" {
		return tax.DefaultJurisdiction(), nil
	}

	var file jurisdictionFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return tax.Jurisdiction{}, fmt.Errorf("decoding jurisdiction preset %s: %w", path, err)
	}

	rate, err := decimal.NewFromString(file.DiscountRate)
	if err != nil {
		return tax.Jurisdiction{}, fmt.Errorf("invalid discount-rate %q: %w", file.DiscountRate, err)
	}
	threshold, err := decimal.NewFromString(file.PersonalUseThreshold)
	if err != nil {
		return tax.Jurisdiction{}, fmt.Errorf("invalid personal-use-threshold %q: %w", file.PersonalUseThreshold, err)
	}

	methods := make([]tax.CostBasisMethod, 0, len(file.CostBasisMethods))
	for _, m := range file.CostBasisMethods {
		methods = append(methods, tax.CostBasisMethod(m))
	}

	j := tax.Jurisdiction{
		Code:                 file.Code,
		Name:                 file.Name,
		Currency:             file.Currency,
		CurrencyPrecision:    file.CurrencyPrecision,
		TaxYearStartMonth:    time.Month(file.TaxYearStartMonth),
		TaxYearStartDay:      file.TaxYearStartDay,
		DiscountRate:         rate,
		DiscountDays:         file.DiscountDays,
		PersonalUseThreshold: threshold,
		CostBasisMethods:     methods,
	}
	if err := j.Validate(); err != nil {
		return tax.Jurisdiction{}, fmt.Errorf("jurisdiction preset %s: %w", path, err)
	}
	return j, nil
}
