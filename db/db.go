package db

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tallyworks/crypto-cgt-cli/tax"
	"github.com/tallyworks/crypto-cgt-cli/util"
)

// PostgresDbConnect connects to the database according to the passed in parameters
func PostgresDbConnect(host string, port string, database string, user string, password string, level string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable", host, port, database, user, password)
	gormLogLevel := logger.Silent

	if level == "info" {
		gormLogLevel = logger.Info
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(gormLogLevel)})
}

// MigrateModels runs the gorm automigrations with all the db models. This will migrate as needed and do nothing if nothing has changed.
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Report{},
		&ReportTransaction{},
	)
}

// StoreTaxReport persists a finished report and its transactions atomically.
// Ordering matters due to the foreign key relation: the report row is created
// first so each transaction row can reference it.
func StoreTaxReport(db *gorm.DB, report *tax.TaxReport) error {
	record := reportToRecord(report)
	return db.Transaction(func(dbTransaction *gorm.DB) error {
		// return any error will rollback
		if err := dbTransaction.Create(&record).Error; err != nil {
			return err
		}

		for _, tt := range report.Transactions {
			row := transactionToRecord(tt)
			row.Report = record
			if err := dbTransaction.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTaxReport loads one report and its transactions by report id.
func GetTaxReport(db *gorm.DB, reportID string) (Report, []ReportTransaction, error) {
	var report Report
	if err := db.Where("report_id = ?", reportID).First(&report).Error; err != nil {
		return report, nil, err
	}

	var rows []ReportTransaction
	if err := db.Where("report_id = ?", report.ID).Order("timestamp asc, id asc").Find(&rows).Error; err != nil {
		return report, nil, err
	}
	return report, rows, nil
}

// GetTaxReports lists stored reports, newest first.
func GetTaxReports(db *gorm.DB) ([]Report, error) {
	var reports []Report
	err := db.Order("generated_at desc").Find(&reports).Error
	return reports, err
}

func reportToRecord(report *tax.TaxReport) Report {
	return Report{
		ReportID:         report.ID,
		Jurisdiction:     report.Jurisdiction.Code,
		Currency:         report.Jurisdiction.Currency,
		YearLabel:        report.Period.Label,
		PeriodStart:      report.Period.Start,
		PeriodEnd:        report.Period.End,
		GeneratedAt:      report.GeneratedAt,
		TotalGains:       util.ToNumeric(report.Summary.TotalGains),
		TotalLosses:      util.ToNumeric(report.Summary.TotalLosses),
		NetCapitalGain:   util.ToNumeric(report.Summary.NetCapitalGain),
		DiscountApplied:  util.ToNumeric(report.Summary.DiscountApplied),
		OrdinaryIncome:   util.ToNumeric(report.Summary.OrdinaryIncome),
		Deductions:       util.ToNumeric(report.Summary.Deductions),
		NetTaxableAmount: util.ToNumeric(report.Summary.NetTaxableAmount),
		TransactionCount: report.Metadata.TransactionCount,
		ProcessedCount:   report.Metadata.ProcessedCount,
		Incomplete:       report.Metadata.Incomplete,
	}
}

func transactionToRecord(tt tax.TaxableTransaction) ReportTransaction {
	asset, quantity := "", util.ToNumeric(decimal.Zero)
	if disp := tt.Transaction.Disposed(); disp != nil {
		asset = disp.Asset
		quantity = util.ToNumeric(disp.Amount)
	} else if acq := tt.Transaction.Acquired(); acq != nil {
		asset = acq.Asset
		quantity = util.ToNumeric(acq.Amount)
	}

	codes := make([]string, 0, len(tt.Issues))
	for _, issue := range tt.Issues {
		codes = append(codes, issue.Code)
	}

	return ReportTransaction{
		TxID:          tt.Transaction.ID,
		Timestamp:     tt.Transaction.Timestamp,
		Kind:          string(tt.Transaction.Kind),
		Source:        tt.Transaction.Source,
		EventType:     string(tt.Treatment.EventType),
		Asset:         asset,
		Quantity:      quantity,
		CapitalGain:   util.ToNumeric(tt.CapitalGain),
		CapitalLoss:   util.ToNumeric(tt.CapitalLoss),
		TaxableAmount: util.ToNumeric(tt.TaxableAmount),
		Income:        util.ToNumeric(tt.IncomeAmount),
		Deduction:     util.ToNumeric(tt.Deduction),
		Exempt:        tt.Treatment.PersonalUseExempt,
		Issues:        strings.Join(codes, ";"),
	}
}
