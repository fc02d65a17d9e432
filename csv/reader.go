// Package csv reads normalized transaction exports and writes report rows.
// The input format is one transaction per row; exchange-specific exports are
// expected to be converted to this layout upstream.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// InputHeaders is the expected header row of a normalized transaction CSV.
var InputHeaders = []string{
	"id", "timestamp", "kind", "source",
	"in_asset", "in_amount", "out_asset", "out_amount",
	"fee_asset", "fee_amount", "fiat_value", "unit_price",
	"self_transfer", "personal_use",
}

var knownKinds = map[string]tax.TransactionKind{
	string(tax.SpotTrade):         tax.SpotTrade,
	string(tax.Transfer):          tax.Transfer,
	string(tax.FeeOnly):           tax.FeeOnly,
	string(tax.StakingDeposit):    tax.StakingDeposit,
	string(tax.StakingWithdrawal): tax.StakingWithdrawal,
	string(tax.StakingReward):     tax.StakingReward,
	string(tax.Interest):          tax.Interest,
	string(tax.Airdrop):           tax.Airdrop,
	string(tax.Swap):              tax.Swap,
	string(tax.LiquidityAdd):      tax.LiquidityAdd,
	string(tax.LiquidityRemove):   tax.LiquidityRemove,
}

// ReadTransactions parses a normalized transaction CSV. Unrecognized kinds
// map to Unknown rather than failing the read; the classifier flags those
// downstream. Structural problems (wrong column count, bad numbers, bad
// timestamps) are errors with the offending line number.
func ReadTransactions(r io.Reader) ([]tax.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var txs []tax.Transaction
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		t, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func checkHeader(header []string) error {
	if len(header) != len(InputHeaders) {
		return fmt.Errorf("expected %d columns, got %d", len(InputHeaders), len(header))
	}
	for i, h := range header {
		if !strings.EqualFold(strings.TrimSpace(h), InputHeaders[i]) {
			return fmt.Errorf("unexpected column %d: %q (want %q)", i+1, h, InputHeaders[i])
		}
	}
	return nil
}

func parseRecord(record []string) (tax.Transaction, error) {
	var t tax.Transaction
	if len(record) != len(InputHeaders) {
		return t, fmt.Errorf("expected %d fields, got %d", len(InputHeaders), len(record))
	}

	t.ID = strings.TrimSpace(record[0])

	if ts := strings.TrimSpace(record[1]); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return t, fmt.Errorf("timestamp %q: %w", ts, err)
		}
		t.Timestamp = parsed.UTC()
	}

	kind := strings.ToLower(strings.TrimSpace(record[2]))
	if k, ok := knownKinds[kind]; ok {
		t.Kind = k
	} else {
		t.Kind = tax.Unknown
	}
	t.Source = strings.TrimSpace(record[3])

	var err error
	if t.Received, err = parseAssetAmount(record[4], record[5]); err != nil {
		return t, fmt.Errorf("in leg: %w", err)
	}
	if t.Sent, err = parseAssetAmount(record[6], record[7]); err != nil {
		return t, fmt.Errorf("out leg: %w", err)
	}
	if t.Fee, err = parseAssetAmount(record[8], record[9]); err != nil {
		return t, fmt.Errorf("fee: %w", err)
	}
	if t.FiatValue, err = parseOptionalDecimal(record[10]); err != nil {
		return t, fmt.Errorf("fiat_value: %w", err)
	}
	if t.UnitPrice, err = parseOptionalDecimal(record[11]); err != nil {
		return t, fmt.Errorf("unit_price: %w", err)
	}
	t.SelfTransfer = parseBool(record[12])
	t.PersonalUse = parseBool(record[13])
	return t, nil
}

func parseAssetAmount(asset, amount string) (*tax.AssetAmount, error) {
	asset = strings.TrimSpace(asset)
	amount = strings.TrimSpace(amount)
	if asset == "" && amount == "" {
		return nil, nil
	}
	if asset == "" {
		return nil, fmt.Errorf("amount %q without an asset", amount)
	}
	qty := decimal.Zero
	if amount != "" {
		var err error
		qty, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", amount, err)
		}
	}
	return &tax.AssetAmount{Asset: asset, Amount: qty}, nil
}

func parseOptionalDecimal(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}
