package db

import (
	"time"

	"github.com/jackc/pgtype"
)

type Report struct {
	ID           uint
	ReportID     string `gorm:"uniqueIndex"`
	Jurisdiction string
	Currency     string
	YearLabel    string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	GeneratedAt  time.Time

	TotalGains       pgtype.Numeric `gorm:"type:numeric"`
	TotalLosses      pgtype.Numeric `gorm:"type:numeric"`
	NetCapitalGain   pgtype.Numeric `gorm:"type:numeric"`
	DiscountApplied  pgtype.Numeric `gorm:"type:numeric"`
	OrdinaryIncome   pgtype.Numeric `gorm:"type:numeric"`
	Deductions       pgtype.Numeric `gorm:"type:numeric"`
	NetTaxableAmount pgtype.Numeric `gorm:"type:numeric"`

	TransactionCount int
	ProcessedCount   int
	Incomplete       bool
}

type ReportTransaction struct {
	ID       uint
	ReportId uint
	Report   Report

	TxID      string
	Timestamp time.Time
	Kind      string
	Source    string
	EventType string
	Asset     string

	Quantity      pgtype.Numeric `gorm:"type:numeric"`
	CapitalGain   pgtype.Numeric `gorm:"type:numeric"`
	CapitalLoss   pgtype.Numeric `gorm:"type:numeric"`
	TaxableAmount pgtype.Numeric `gorm:"type:numeric"`
	Income        pgtype.Numeric `gorm:"type:numeric"`
	Deduction     pgtype.Numeric `gorm:"type:numeric"`

	Exempt bool
	Issues string
}
