package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// ReportHeaders is the column layout of an exported report CSV.
var ReportHeaders = []string{
	"id", "timestamp", "kind", "source", "event_type",
	"proceeds_asset", "proceeds_amount",
	"capital_gain", "capital_loss", "taxable_amount",
	"income", "deduction", "exempt", "issues",
}

// RowToCsv builds a single row in the format expected by ReportHeaders.
func RowToCsv(tt tax.TaxableTransaction) []string {
	asset, amount := "", ""
	if disp := tt.Transaction.Disposed(); disp != nil {
		asset = disp.Asset
		amount = disp.Amount.String()
	} else if acq := tt.Transaction.Acquired(); acq != nil {
		asset = acq.Asset
		amount = acq.Amount.String()
	}

	issues := ""
	for i, issue := range tt.Issues {
		if i > 0 {
			issues += "; "
		}
		issues += issue.Code
	}

	return []string{
		tt.Transaction.ID,
		tt.Transaction.Timestamp.Format(time.RFC3339),
		string(tt.Transaction.Kind),
		tt.Transaction.Source,
		string(tt.Treatment.EventType),
		asset,
		amount,
		tt.CapitalGain.String(),
		tt.CapitalLoss.String(),
		tt.TaxableAmount.String(),
		tt.IncomeAmount.String(),
		tt.Deduction.String(),
		fmt.Sprintf("%t", tt.Treatment.PersonalUseExempt),
		issues,
	}
}

// ToCsv writes the report's transactions to a byte buffer.
func ToCsv(report *tax.TaxReport) (bytes.Buffer, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)

	if err := w.Write(ReportHeaders); err != nil {
		return b, fmt.Errorf("writing csv header: %w", err)
	}
	for _, tt := range report.Transactions {
		if err := w.Write(RowToCsv(tt)); err != nil {
			return b, fmt.Errorf("writing csv row for %s: %w", tt.Transaction.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return b, err
	}
	return b, nil
}
