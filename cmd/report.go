package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallyworks/crypto-cgt-cli/config"
	"github.com/tallyworks/crypto-cgt-cli/csv"
	dbTypes "github.com/tallyworks/crypto-cgt-cli/db"
	"github.com/tallyworks/crypto-cgt-cli/pricing"
	"github.com/tallyworks/crypto-cgt-cli/report"
	"github.com/tallyworks/crypto-cgt-cli/tax"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a capital gains tax report from a transaction CSV",
	Long: `Reads normalized transactions from a CSV file, classifies them for the
configured jurisdiction, consumes cost-basis lots in FIFO order and writes
the resulting report to stdout as JSON or CSV.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&conf.Report.Input, "report.input", "", "transaction CSV file to read")
	reportCmd.Flags().StringVar(&conf.Report.Format, "report.format", "json", "output format (json|csv)")
	reportCmd.Flags().BoolVar(&conf.Report.Store, "report.store", false, "store the report in the database")
}

func runReport(cmd *cobra.Command, args []string) error {
	if conf.Report.Input == "" {
		return fmt.Errorf("report.input must be set")
	}
	if conf.Report.Year == 0 {
		return fmt.Errorf("report.year must be set")
	}

	jurisdiction, err := config.LoadJurisdiction(conf.Report.JurisdictionFile)
	if err != nil {
		return err
	}

	file, err := os.Open(conf.Report.Input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", conf.Report.Input, err)
	}
	defer file.Close()

	txs, err := csv.ReadTransactions(file)
	if err != nil {
		return err
	}
	config.Log.Info(fmt.Sprintf("Read %d transactions from %s", len(txs), conf.Report.Input))

	gen, err := report.NewGenerator(jurisdiction, priceSource(), report.Options{
		Year:           conf.Report.Year,
		ChunkSize:      conf.Report.ChunkSize,
		Strict:         conf.Report.Strict,
		WithStrategies: conf.Report.Strategies,
		RiskTolerance:  tax.RiskTolerance(strings.ToLower(conf.Report.RiskTolerance)),
		Progress: func(processed, total int) {
			config.Log.Debug(fmt.Sprintf("Processed %d/%d transactions", processed, total))
		},
	})
	if err != nil {
		return err
	}

	rep, err := gen.Generate(cmd.Context(), txs)
	if err != nil {
		return err
	}

	if conf.Report.Store {
		if err := config.ValidateDatabaseConf(conf); err != nil {
			return err
		}
		db, err := dbTypes.PostgresDbConnect(conf.Database.Host, conf.Database.Port, conf.Database.Database,
			conf.Database.User, conf.Database.Password, strings.ToLower(conf.Database.LogLevel))
		if err != nil {
			config.Log.Fatal("Could not establish connection to the database", err)
		}
		if err := dbTypes.MigrateModels(db); err != nil {
			return err
		}
		if err := dbTypes.StoreTaxReport(db, rep); err != nil {
			return err
		}
		config.Log.Info(fmt.Sprintf("Stored report %s", rep.ID))
	}

	switch strings.ToLower(conf.Report.Format) {
	case "csv":
		buffer, err := csv.ToCsv(rep)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(buffer.Bytes())
		return err
	default:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rep)
	}
}

// priceSource builds the configured price source. The static provider has no
// price table on the CLI path, so unannotated income values fall back to the
// missing price policy.
func priceSource() pricing.Source {
	switch strings.ToLower(conf.Pricing.Provider) {
	case "coinbase":
		ttl := time.Duration(conf.Pricing.RefreshMinutes) * time.Minute
		return pricing.NewCache(pricing.NewCoinbaseSource(), ttl)
	}
	return nil
}
