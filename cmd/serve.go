package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tallyworks/crypto-cgt-cli/client"
	"github.com/tallyworks/crypto-cgt-cli/config"
	dbTypes "github.com/tallyworks/crypto-cgt-cli/db"
	"github.com/tallyworks/crypto-cgt-cli/pricing"
	"github.com/tallyworks/crypto-cgt-cli/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report generation HTTP API",
	Long: `Starts the HTTP API for generating and retrieving reports. Stored
reports require a reachable database; the price cache is refreshed on a
schedule when a live pricing provider is configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&conf.API.Host, "api.host", ":8080", "listen address for the API")
}

// setup connects to the database, runs migrations and builds the scheduler.
func setup(cfg config.Config) (*gorm.DB, *gocron.Scheduler, error) {
	if err := config.ValidateDatabaseConf(cfg); err != nil {
		return nil, nil, err
	}

	db, err := dbTypes.PostgresDbConnect(cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
		cfg.Database.User, cfg.Database.Password, strings.ToLower(cfg.Database.LogLevel))
	if err != nil {
		config.Log.Fatal("Could not establish connection to the database", err)
	}

	sqldb, _ := db.DB()
	sqldb.SetMaxIdleConns(10)
	sqldb.SetMaxOpenConns(100)
	sqldb.SetConnMaxLifetime(time.Hour)

	// run database migrations at every runtime
	if err := dbTypes.MigrateModels(db); err != nil {
		config.Log.Error("Error running DB migrations", err)
		return nil, nil, err
	}

	scheduler := gocron.NewScheduler(time.UTC)
	return db, scheduler, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	db, scheduler, err := setup(conf)
	if err != nil {
		return err
	}

	jurisdiction, err := config.LoadJurisdiction(conf.Report.JurisdictionFile)
	if err != nil {
		return err
	}

	prices := priceSource()
	if cache, ok := prices.(*pricing.Cache); ok && len(conf.Pricing.Assets) > 0 {
		currency := conf.Pricing.Currency
		if currency == "" {
			currency = jurisdiction.Currency
		}
		minutes := conf.Pricing.RefreshMinutes
		if minutes <= 0 {
			minutes = 60
		}
		if _, err := scheduler.Every(minutes).Minutes().Do(tasks.PriceRefreshTask, cache, conf.Pricing.Assets, currency); err != nil {
			config.Log.Error("Error scheduling price refresh task", err)
			return err
		}
		scheduler.StartAsync()
		defer scheduler.Stop()
	}

	router := client.NewRouter(&client.Server{
		DB:           db,
		Jurisdiction: jurisdiction,
		Prices:       prices,
	})

	config.Log.Info(fmt.Sprintf("Starting API on %s", conf.API.Host))
	return router.Run(conf.API.Host)
}
