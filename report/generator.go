// Package report orchestrates classification, ledger consumption and gain
// calculation over a transaction batch, in bounded chunks, and assembles
// the aggregate tax report.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyworks/crypto-cgt-cli/config"
	"github.com/tallyworks/crypto-cgt-cli/gains"
	"github.com/tallyworks/crypto-cgt-cli/ledger"
	"github.com/tallyworks/crypto-cgt-cli/optimization"
	"github.com/tallyworks/crypto-cgt-cli/pricing"
	"github.com/tallyworks/crypto-cgt-cli/rules"
	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// State is the generator's lifecycle position. Transitions are strictly
// forward; FAILED is terminal.
type State string

const (
	StateInitialized     State = "INITIALIZED"
	StateFiltering       State = "FILTERING"
	StateClassifying     State = "CLASSIFYING"
	StateConsumingLedger State = "CONSUMING_LEDGER"
	StateAggregating     State = "AGGREGATING"
	StateOptimizing      State = "OPTIMIZING"
	StateComplete        State = "COMPLETE"
	StateFailed          State = "FAILED"
)

// Fatal errors: no partial result is meaningful for these.
var (
	ErrDuplicateTransactionID = errors.New("duplicate transaction id in batch")
	ErrMissingYear            = errors.New("report year must be set")
	ErrStrictValidation       = errors.New("strict mode: transaction failed validation")
)

// DefaultChunkSize bounds peak memory for hundred-thousand-scale inputs
// while keeping progress callbacks frequent enough to be useful.
const DefaultChunkSize = 1000

// ProgressFunc is invoked between chunks with monotonically non-decreasing
// processed counts.
type ProgressFunc func(processed, total int)

// Options tune one generation run.
type Options struct {
	Year           int
	ChunkSize      int
	Strict         bool
	WithStrategies bool
	RiskTolerance  tax.RiskTolerance
	Progress       ProgressFunc
}

// Generator runs one report generation. Each instance owns an isolated lot
// ledger, so concurrent generations in the same process are safe as long
// as each uses its own Generator.
type Generator struct {
	jurisdiction tax.Jurisdiction
	classifier   *rules.Classifier
	prices       pricing.Source
	opts         Options

	state  State
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewGenerator validates configuration up front; configuration errors are
// fatal before any processing. prices may be nil, in which case income
// events without price annotations are valued at zero with a warning.
func NewGenerator(j tax.Jurisdiction, prices pricing.Source, opts Options) (*Generator, error) {
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jurisdiction: %w", err)
	}
	if opts.Year == 0 {
		return nil, ErrMissingYear
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.RiskTolerance == "" {
		opts.RiskTolerance = tax.RiskConservative
	}
	return &Generator{
		jurisdiction: j,
		classifier:   rules.NewClassifier(),
		prices:       prices,
		opts:         opts,
		state:        StateInitialized,
		ledger:       ledger.New(),
		now:          time.Now,
	}, nil
}

// State returns the generator's current lifecycle state.
func (g *Generator) State() State {
	return g.state
}

// Generate runs the pipeline over the batch. Input order is the tiebreak
// for identical timestamps, so acquisitions recorded before disposals at
// the same instant are consumed in that order. Chunking never changes
// results versus a single pass.
func (g *Generator) Generate(ctx context.Context, txs []tax.Transaction) (*tax.TaxReport, error) {
	started := g.now()

	g.state = StateFiltering
	periodStart, periodEnd := g.jurisdiction.TaxYearBounds(g.opts.Year)

	if err := checkDuplicateIDs(txs); err != nil {
		g.state = StateFailed
		return nil, err
	}

	ordered := make([]tax.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var inPeriod []tax.Transaction
	for _, t := range ordered {
		if t.Timestamp.Before(periodStart) || !t.Timestamp.Before(periodEnd) {
			continue
		}
		inPeriod = append(inPeriod, t)
	}
	total := len(inPeriod)

	// Classification is pure, so the whole period is classified before any
	// ledger mutation. Cancellation is observed between chunks only.
	g.state = StateClassifying
	treatments := make([]tax.TaxTreatment, total)
	cancelled := false
	for start := 0; start < total && !cancelled; start += g.opts.ChunkSize {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		end := min(start+g.opts.ChunkSize, total)
		for i := start; i < end; i++ {
			treatments[i] = g.classifier.Classify(inPeriod[i], g.jurisdiction)
		}
	}

	var (
		taxables     []tax.TaxableTransaction
		reportIssues []tax.Issue
		processed    int
	)

	g.state = StateConsumingLedger
	for start := 0; start < total && !cancelled; start += g.opts.ChunkSize {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		end := min(start+g.opts.ChunkSize, total)

		chunk := make([]tax.TaxableTransaction, 0, end-start)
		for i := start; i < end; i++ {
			tt, err := g.processOne(ctx, inPeriod[i], treatments[i])
			if err != nil {
				g.state = StateFailed
				return nil, err
			}
			chunk = append(chunk, tt)
		}

		// Commit the chunk only once it completed in full.
		taxables = append(taxables, chunk...)
		processed = end
		if g.opts.Progress != nil {
			g.opts.Progress(processed, total)
		}
	}

	g.state = StateAggregating
	summary := buildSummary(taxables, g.jurisdiction)
	for _, tt := range taxables {
		reportIssues = append(reportIssues, tt.Issues...)
	}

	var strategies []tax.TaxStrategy
	if g.opts.WithStrategies && !cancelled {
		g.state = StateOptimizing
		strategies = optimization.GenerateStrategies(optimization.Input{
			Transactions:  taxables,
			OpenLots:      g.ledger.OpenLots(),
			Jurisdiction:  g.jurisdiction,
			CurrentPrices: g.currentPrices(ctx),
			RiskTolerance: g.opts.RiskTolerance,
			AsOf:          g.now(),
			PeriodEnd:     periodEnd,
		})
	}

	g.state = StateComplete
	generatedAt := g.now()
	rep := &tax.TaxReport{
		ID:           fmt.Sprintf("%s-%s-%d", g.jurisdiction.Code, g.jurisdiction.YearLabel(g.opts.Year), generatedAt.UnixNano()),
		Jurisdiction: g.jurisdiction,
		Period: tax.TaxPeriod{
			Start: periodStart,
			End:   periodEnd,
			Label: g.jurisdiction.YearLabel(g.opts.Year),
		},
		GeneratedAt:  generatedAt,
		Transactions: taxables,
		Summary:      summary,
		Strategies:   strategies,
		Metadata: tax.ReportMetadata{
			TransactionCount: total,
			ProcessedCount:   processed,
			Sources:          collectSources(taxables),
			Duration:         generatedAt.Sub(started),
			Incomplete:       cancelled,
		},
		Issues: reportIssues,
	}

	config.Log.Info(fmt.Sprintf("Generated report %s: %d/%d transactions, %d issues", rep.ID, processed, total, len(reportIssues)))
	return rep, nil
}

// processOne applies one classified transaction to the ledger and computes
// its amounts. Per-transaction failures are recorded as issues; only strict
// mode turns them into an abort.
func (g *Generator) processOne(ctx context.Context, t tax.Transaction, treatment tax.TaxTreatment) (tax.TaxableTransaction, error) {
	tt := tax.TaxableTransaction{Transaction: t, Treatment: treatment}
	tt.Issues = tax.ValidateTransaction(t, g.now())

	if tax.HasError(tt.Issues) {
		if g.opts.Strict {
			return tt, fmt.Errorf("%w: %s", ErrStrictValidation, firstError(tt.Issues).Message)
		}
		// Invalid records take no ledger effect.
		return tt, nil
	}

	switch treatment.EventType {
	case tax.Acquisition:
		g.applyAcquisition(ctx, t, &tt)
	case tax.Disposal:
		g.applyDisposal(ctx, t, treatment, &tt)
	case tax.Income:
		g.applyIncome(ctx, t, &tt)
	case tax.Deductible:
		g.applyDeductible(ctx, t, &tt)
	case tax.NonTaxable:
		// No ledger effect. Self transfers keep their original lots since
		// the ledger tracks the taxpayer, not individual accounts.
	}

	if g.opts.Strict && tax.HasError(tt.Issues) {
		return tt, fmt.Errorf("%w: %s", ErrStrictValidation, firstError(tt.Issues).Message)
	}
	return tt, nil
}

func (g *Generator) applyAcquisition(ctx context.Context, t tax.Transaction, tt *tax.TaxableTransaction) {
	acq := t.Acquired()
	if acq == nil || acq.Amount.Sign() <= 0 {
		return
	}
	cost, ok := g.resolveValue(ctx, t, acq.Asset, acq.Amount)
	if !ok {
		tt.Issues = append(tt.Issues, missingPriceIssue(t, acq.Asset))
		cost = decimal.Zero
	}
	cost = cost.Add(g.feeValue(ctx, t))
	g.ledger.Acquire(acq.Asset, acq.Amount, cost.Div(acq.Amount), t.Timestamp, t.ID)
}

func (g *Generator) applyDisposal(ctx context.Context, t tax.Transaction, treatment tax.TaxTreatment, tt *tax.TaxableTransaction) {
	disp := t.Disposed()
	if disp == nil || disp.Amount.Sign() <= 0 {
		return
	}

	gross, ok := g.resolveValue(ctx, t, disp.Asset, disp.Amount)
	if !ok {
		tt.Issues = append(tt.Issues, missingPriceIssue(t, disp.Asset))
	}
	net := gross.Sub(g.feeValue(ctx, t))

	consumption := g.ledger.Consume(disp.Asset, disp.Amount)
	if consumption.Shortfall.Sign() > 0 {
		tt.Issues = append(tt.Issues, tax.Issue{
			Severity: tax.SeverityWarning,
			Code:     tax.IssueLedgerShortfall,
			Message: fmt.Sprintf("disposal of %s %s exceeds recorded lots by %s; shortfall carries zero cost basis",
				disp.Amount, disp.Asset, consumption.Shortfall),
			TxID: t.ID,
		})
	}

	if treatment.PersonalUseExempt {
		// The units still leave the ledger, but no gain or loss is
		// recognized on an exempt personal-use disposal.
		return
	}

	res := gains.Calculate(net, consumption, t.Timestamp, g.jurisdiction)
	tt.CapitalGain = res.CapitalGain
	tt.CapitalLoss = res.CapitalLoss
	tt.TaxableAmount = res.TaxableAmount
	tt.LotBreakdown = res.PerLot

	// A swap's incoming leg is an acquisition at the market value of what
	// was given up.
	if acq := t.Acquired(); acq != nil && acq.Amount.Sign() > 0 {
		g.ledger.Acquire(acq.Asset, acq.Amount, gross.Div(acq.Amount), t.Timestamp, t.ID)
	}
}

func (g *Generator) applyIncome(ctx context.Context, t tax.Transaction, tt *tax.TaxableTransaction) {
	recv := t.Received
	if recv == nil || recv.Amount.Sign() <= 0 {
		return
	}
	value, ok := g.resolveValue(ctx, t, recv.Asset, recv.Amount)
	if !ok {
		// Policy: missing price at receipt is a warning with zero-valued
		// income, not a fatal error.
		tt.Issues = append(tt.Issues, missingPriceIssue(t, recv.Asset))
		value = decimal.Zero
	}
	tt.IncomeAmount = value

	costPerUnit := decimal.Zero
	if value.Sign() > 0 {
		costPerUnit = value.Div(recv.Amount)
	}
	g.ledger.Acquire(recv.Asset, recv.Amount, costPerUnit, t.Timestamp, t.ID)
}

func (g *Generator) applyDeductible(ctx context.Context, t tax.Transaction, tt *tax.TaxableTransaction) {
	fee := t.Fee
	if fee == nil {
		return
	}
	if fee.Asset == g.jurisdiction.Currency {
		tt.Deduction = fee.Amount
		return
	}
	value, ok := g.resolveValue(ctx, t, fee.Asset, fee.Amount)
	if !ok {
		tt.Issues = append(tt.Issues, missingPriceIssue(t, fee.Asset))
		return
	}
	tt.Deduction = value
}

// resolveValue resolves a fiat value for quantity of asset at the
// transaction time: annotations first, then the price source.
func (g *Generator) resolveValue(ctx context.Context, t tax.Transaction, asset string, quantity decimal.Decimal) (decimal.Decimal, bool) {
	if v, ok := t.GrossFiatValue(quantity); ok {
		return v, true
	}
	if g.prices != nil {
		price, err := g.prices.PriceAt(ctx, asset, g.jurisdiction.Currency, t.Timestamp)
		if err == nil {
			return price.Mul(quantity), true
		}
	}
	return decimal.Zero, false
}

// feeValue resolves the transaction's fee in report currency; fees that
// cannot be valued contribute zero.
func (g *Generator) feeValue(ctx context.Context, t tax.Transaction) decimal.Decimal {
	if t.Fee == nil {
		return decimal.Zero
	}
	if t.Fee.Asset == g.jurisdiction.Currency || t.Fee.Asset == "" {
		return t.Fee.Amount
	}
	if g.prices != nil {
		price, err := g.prices.PriceAt(ctx, t.Fee.Asset, g.jurisdiction.Currency, t.Timestamp)
		if err == nil {
			return price.Mul(t.Fee.Amount)
		}
	}
	return decimal.Zero
}

func (g *Generator) currentPrices(ctx context.Context) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal)
	if g.prices == nil {
		return prices
	}
	for _, asset := range g.ledger.Assets() {
		if p, err := g.prices.CurrentPrice(ctx, asset, g.jurisdiction.Currency); err == nil {
			prices[asset] = p
		}
	}
	return prices
}

func checkDuplicateIDs(txs []tax.Transaction) error {
	seen := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			continue // caught per-transaction by validation
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTransactionID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

func collectSources(taxables []tax.TaxableTransaction) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, tt := range taxables {
		src := tt.Transaction.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; !ok {
			seen[src] = struct{}{}
			sources = append(sources, src)
		}
	}
	sort.Strings(sources)
	return sources
}

func firstError(issues []tax.Issue) tax.Issue {
	for _, i := range issues {
		if i.Severity == tax.SeverityError {
			return i
		}
	}
	return tax.Issue{}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
