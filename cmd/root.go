package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tallyworks/crypto-cgt-cli/config"
)

var (
	cfgFile string        // config file location to load
	conf    config.Config // stores the unmarshaled config loaded from Viper, available to all commands in the cmd package
	rootCmd = &cobra.Command{
		Use:   "crypto-cgt-cli",
		Short: "A CLI tool for generating crypto capital gains tax reports",
		Long: `Crypto CGT CLI classifies normalized exchange transactions, tracks
cost-basis lots and generates capital gains tax reports, with optional
tax optimization strategies.`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// initConfig on initialize of cobra guarantees config struct will be set before all subcommands are executed
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.crypto-cgt-cli/config.toml)")

	config.SetupLogFlags(&conf.Log, rootCmd)
	config.SetupDatabaseFlags(&conf.Database, rootCmd)
	config.SetupReportFlags(&conf.Report, rootCmd)
	config.SetupPricingFlags(&conf.Pricing, rootCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("toml")
	} else {
		// Check in current working dir
		pwd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Could not determine current working dir. Err: %v", err)
		}
		if _, err := os.Stat(fmt.Sprintf("%v/config.toml", pwd)); err == nil {
			cfgFile = pwd
		} else {
			// file not in current working dir. Check home dir instead
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatalf("Failed to find user home dir. Err: %v", err)
			}
			cfgFile = fmt.Sprintf("%s/.crypto-cgt-cli", home)
		}
		viper.AddConfigPath(cfgFile)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	var noConfig bool
	err := viper.ReadInConfig()
	if err != nil {
		if strings.Contains(err.Error(), "Config File \"config\" Not Found") {
			noConfig = true
		} else {
			log.Fatalf("Failed to read config file. Err: %v", err)
		}
	}

	if !noConfig {
		log.Println("CFG successfully read from: ", cfgFile)
		// Unmarshal the config into struct
		err = viper.Unmarshal(&conf)
		if err != nil {
			log.Fatalf("Failed to unmarshal config. Err: %v", err)
		}
	}

	// Validate config
	err = conf.Validate()
	if err != nil {
		log.Fatalf("Failed to validate config. Err: %v", err)
	}

	config.DoConfigureLogger(conf.Log.Path, conf.Log.Level, conf.Log.Pretty)
}
