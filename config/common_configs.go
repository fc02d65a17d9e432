package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallyworks/crypto-cgt-cli/tax"
	"github.com/tallyworks/crypto-cgt-cli/util"
)

// These flag helpers are shared across commands.

func SetupLogFlags(logConf *log, cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&logConf.Level, "log.level", "info", "log level")
	cmd.PersistentFlags().BoolVar(&logConf.Pretty, "log.pretty", false, "pretty logs")
	cmd.PersistentFlags().StringVar(&logConf.Path, "log.path", "", "log path (default is $HOME/.crypto-cgt-cli/logs.txt)")
}

func SetupDatabaseFlags(databaseConf *database, cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&databaseConf.Host, "database.host", "", "database host")
	cmd.PersistentFlags().StringVar(&databaseConf.Port, "database.port", "5432", "database port")
	cmd.PersistentFlags().StringVar(&databaseConf.Database, "database.database", "", "database name")
	cmd.PersistentFlags().StringVar(&databaseConf.User, "database.user", "", "database user")
	cmd.PersistentFlags().StringVar(&databaseConf.Password, "database.password", "", "database password")
	cmd.PersistentFlags().StringVar(&databaseConf.LogLevel, "database.log-level", "", "database loglevel")
}

func SetupReportFlags(reportConf *report, cmd *cobra.Command) {
	cmd.PersistentFlags().IntVar(&reportConf.Year, "report.year", 0, "tax year to report")
	cmd.PersistentFlags().StringVar(&reportConf.JurisdictionFile, "report.jurisdiction-file", "", "jurisdiction preset file (TOML); built-in default when unset")
	cmd.PersistentFlags().IntVar(&reportConf.ChunkSize, "report.chunk-size", 1000, "transactions processed per chunk")
	cmd.PersistentFlags().BoolVar(&reportConf.Strict, "report.strict", false, "abort on first per-transaction error")
	cmd.PersistentFlags().BoolVar(&reportConf.Strategies, "report.strategies", false, "generate optimization strategies")
	cmd.PersistentFlags().StringVar(&reportConf.RiskTolerance, "report.risk-tolerance", string(tax.RiskConservative), "risk tolerance for strategies (conservative|moderate|aggressive)")
}

func SetupPricingFlags(pricingConf *pricing, cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&pricingConf.Provider, "pricing.provider", "static", "price source (static|coinbase)")
	cmd.PersistentFlags().StringVar(&pricingConf.Currency, "pricing.currency", "", "quote currency for prices (defaults to jurisdiction currency)")
	cmd.PersistentFlags().StringSliceVar(&pricingConf.Assets, "pricing.assets", nil, "assets to keep priced in the cache")
	cmd.PersistentFlags().IntVar(&pricingConf.RefreshMinutes, "pricing.refresh-minutes", 60, "minutes between scheduled price refreshes")
}

func validateLogConf(logConf log) error {
	switch strings.ToLower(logConf.Level) {
	case "", "debug", "info", "warn", "error", "fatal", "panic":
		return nil
	}
	return fmt.Errorf("invalid log level %q", logConf.Level)
}

func validateDatabaseConf(dbConf database) error {
	if util.StrNotSet(dbConf.Host) {
		return errors.New("database host must be set")
	}
	if util.StrNotSet(dbConf.Port) {
		return errors.New("database port must be set")
	}
	if util.StrNotSet(dbConf.Database) {
		return errors.New("database name (i.e. database) must be set")
	}
	if util.StrNotSet(dbConf.User) {
		return errors.New("database user must be set")
	}
	if util.StrNotSet(dbConf.Password) {
		return errors.New("database password must be set")
	}
	return nil
}

// ValidateDatabaseConf is exported for commands that require a database.
func ValidateDatabaseConf(c Config) error {
	return validateDatabaseConf(c.Database)
}

func validateReportConf(reportConf report) error {
	if reportConf.ChunkSize < 0 {
		return fmt.Errorf("chunk size %d must not be negative", reportConf.ChunkSize)
	}
	switch tax.RiskTolerance(strings.ToLower(reportConf.RiskTolerance)) {
	case "", tax.RiskConservative, tax.RiskModerate, tax.RiskAggressive:
	default:
		return fmt.Errorf("invalid risk tolerance %q", reportConf.RiskTolerance)
	}
	switch strings.ToLower(reportConf.Format) {
	case "", "json", "csv":
	default:
		return fmt.Errorf("invalid output format %q", reportConf.Format)
	}
	return nil
}

func validatePricingConf(pricingConf pricing) error {
	switch strings.ToLower(pricingConf.Provider) {
	case "", "static", "coinbase":
	default:
		return fmt.Errorf("invalid pricing provider %q", pricingConf.Provider)
	}
	if pricingConf.RefreshMinutes < 0 {
		return errors.New("pricing refresh-minutes must not be negative")
	}
	return nil
}
