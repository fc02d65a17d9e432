package tax

import (
	"fmt"
	"time"
)

// IssueSeverity separates recoverable warnings from per-transaction errors.
type IssueSeverity string

const (
	SeverityWarning IssueSeverity = "warning"
	SeverityError   IssueSeverity = "error"
)

// Issue is a structured validation or processing finding attached to a
// transaction or report. Issues are collected and returned, never thrown,
// so a partial result is always available.
type Issue struct {
	Severity IssueSeverity
	Code     string
	Message  string
	TxID     string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
}

// Issue codes produced by validation and the processing pipeline.
const (
	IssueMissingID        = "missing_id"
	IssueMissingTimestamp = "missing_timestamp"
	IssueMissingAsset     = "missing_asset"
	IssueInvalidQuantity  = "invalid_quantity"
	IssueFutureDated      = "future_dated"
	IssueMissingPrice     = "missing_price"
	IssueLedgerShortfall  = "ledger_shortfall"
)

// ValidateTransaction checks one normalized transaction and returns its
// issues. Construction and validation are deliberately decoupled so
// partial or invalid records can still be inspected upstream.
func ValidateTransaction(t Transaction, now time.Time) []Issue {
	var issues []Issue

	if t.ID == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     IssueMissingID,
			Message:  "transaction has no id",
		})
	}
	if t.Timestamp.IsZero() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     IssueMissingTimestamp,
			Message:  "transaction has no timestamp",
			TxID:     t.ID,
		})
	} else if t.Timestamp.After(now) {
		// Clock skew is common in exchange exports, keep the record.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     IssueFutureDated,
			Message:  fmt.Sprintf("transaction is dated in the future (%s)", t.Timestamp.Format(time.RFC3339)),
			TxID:     t.ID,
		})
	}

	if t.Received == nil && t.Sent == nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     IssueMissingAsset,
			Message:  "transaction carries no asset-quantity pair",
			TxID:     t.ID,
		})
	}
	for _, side := range []*AssetAmount{t.Received, t.Sent, t.Fee} {
		if side == nil {
			continue
		}
		if side.Asset == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     IssueMissingAsset,
				Message:  "asset-quantity pair has no asset symbol",
				TxID:     t.ID,
			})
		}
		if side.Amount.IsNegative() {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     IssueInvalidQuantity,
				Message:  fmt.Sprintf("quantity %s for %s must not be negative", side.Amount, side.Asset),
				TxID:     t.ID,
			})
		}
	}

	if t.FiatValue != nil && t.FiatValue.IsNegative() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     IssueInvalidQuantity,
			Message:  fmt.Sprintf("fiat value %s must not be negative", t.FiatValue),
			TxID:     t.ID,
		})
	}

	return issues
}

// HasError reports whether any issue in the list is error severity.
func HasError(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
