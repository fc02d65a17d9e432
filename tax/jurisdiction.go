package tax

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CostBasisMethod selects the lot consumption order for disposals.
type CostBasisMethod string

const (
	FIFO       CostBasisMethod = "FIFO"
	SpecificID CostBasisMethod = "SPECIFIC_ID"
)

// Jurisdiction holds one jurisdiction's tax rules as configuration. The
// engine never hardcodes law beyond the single default preset.
type Jurisdiction struct {
	Code              string
	Name              string
	Currency          string
	CurrencyPrecision int32

	// Tax year starts on this month/day and runs for one year.
	TaxYearStartMonth time.Month
	TaxYearStartDay   int

	// Gains on lots held at least DiscountDays are reduced by DiscountRate.
	DiscountRate decimal.Decimal
	DiscountDays int

	// Disposals below this amount with explicit personal-use intent are
	// exempt from capital gains.
	PersonalUseThreshold decimal.Decimal

	CostBasisMethods []CostBasisMethod
}

// DefaultJurisdiction is the built-in preset: a 50% long-holding discount
// after 365 days and a 10,000 personal-use threshold, July tax year.
func DefaultJurisdiction() Jurisdiction {
	return Jurisdiction{
		Code:                 "AU",
		Name:                 "Australia",
		Currency:             "AUD",
		CurrencyPrecision:    2,
		TaxYearStartMonth:    time.July,
		TaxYearStartDay:      1,
		DiscountRate:         decimal.NewFromFloat(0.5),
		DiscountDays:         365,
		PersonalUseThreshold: decimal.NewFromInt(10000),
		CostBasisMethods:     []CostBasisMethod{FIFO, SpecificID},
	}
}

// Validate reports jurisdiction configuration errors. These are fatal and
// must abort report generation before any ledger mutation.
func (j Jurisdiction) Validate() error {
	if j.Code == "" {
		return errors.New("jurisdiction code must be set")
	}
	if j.Currency == "" {
		return errors.New("jurisdiction currency must be set")
	}
	if j.TaxYearStartMonth < time.January || j.TaxYearStartMonth > time.December {
		return fmt.Errorf("invalid tax year start month %d", j.TaxYearStartMonth)
	}
	if j.TaxYearStartDay < 1 || j.TaxYearStartDay > 31 {
		return fmt.Errorf("invalid tax year start day %d", j.TaxYearStartDay)
	}
	if j.DiscountRate.IsNegative() || j.DiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("discount rate %s must be within [0, 1]", j.DiscountRate)
	}
	if j.DiscountDays < 0 {
		return fmt.Errorf("discount threshold days %d must not be negative", j.DiscountDays)
	}
	if j.PersonalUseThreshold.IsNegative() {
		return fmt.Errorf("personal use threshold %s must not be negative", j.PersonalUseThreshold)
	}
	if len(j.CostBasisMethods) == 0 {
		return errors.New("at least one cost basis method must be supported")
	}
	for _, m := range j.CostBasisMethods {
		if m != FIFO && m != SpecificID {
			return fmt.Errorf("unsupported cost basis method %q", m)
		}
	}
	return nil
}

// Supports reports whether the jurisdiction allows the given method.
func (j Jurisdiction) Supports(method CostBasisMethod) bool {
	for _, m := range j.CostBasisMethods {
		if m == method {
			return true
		}
	}
	return false
}

// TaxYearBounds returns the inclusive start and exclusive end of the tax
// year labelled by the given year. For a July start, year 2024 covers
// 2023-07-01 through 2024-06-30; for a January start it is the calendar
// year itself.
func (j Jurisdiction) TaxYearBounds(year int) (time.Time, time.Time) {
	startYear := year
	if j.TaxYearStartMonth != time.January || j.TaxYearStartDay != 1 {
		startYear = year - 1
	}
	start := time.Date(startYear, j.TaxYearStartMonth, j.TaxYearStartDay, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// YearLabel formats the label for the tax year, e.g. "FY2023-2024" for a
// mid-year start or "2024" for a calendar year.
func (j Jurisdiction) YearLabel(year int) string {
	start, _ := j.TaxYearBounds(year)
	if start.Year() != year {
		return fmt.Sprintf("FY%d-%d", start.Year(), year)
	}
	return fmt.Sprintf("%d", year)
}

// HoldingQualifies reports whether a lot acquired at acquiredAt and disposed
// at disposedAt meets the long-holding discount threshold.
func (j Jurisdiction) HoldingQualifies(acquiredAt, disposedAt time.Time) bool {
	return !disposedAt.Before(acquiredAt.AddDate(0, 0, j.DiscountDays))
}
