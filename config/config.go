package config

import (
	"github.com/BurntSushi/toml"
	"github.com/imdario/mergo"
)

// Config is the application configuration, loaded from a TOML file and
// merged with CLI flags.
type Config struct {
	ConfigFileLocation string
	Log                log
	Database           database
	Report             report
	Pricing            pricing
	API                api
}

type log struct {
	Level  string
	Path   string
	Pretty bool
}

type database struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string `mapstructure:"log-level"`
}

type report struct {
	Year             int
	JurisdictionFile string `mapstructure:"jurisdiction-file"`
	ChunkSize        int    `mapstructure:"chunk-size"`
	Strict           bool
	Strategies       bool
	RiskTolerance    string `mapstructure:"risk-tolerance"`
	Input            string
	Format           string
	Store            bool
}

type pricing struct {
	Provider string
	Currency string
	Assets   []string
	// RefreshMinutes controls the scheduled price cache refresh.
	RefreshMinutes int `mapstructure:"refresh-minutes"`
}

type api struct {
	Host string
}

// GetConfig decodes a TOML config file.
func GetConfig(configFileLocation string) (Config, error) {
	var conf Config
	_, err := toml.DecodeFile(configFileLocation, &conf)
	return conf, err
}

// MergeConfigs overlays the override config onto the defaults.
func MergeConfigs(def Config, override Config) Config {
	if err := mergo.Merge(&override, def); err != nil {
		Log.Error("Error merging configs", err)
	}
	return override
}

// Validate checks the whole config; configuration errors are fatal and
// abort before any processing.
func (c Config) Validate() error {
	if err := validateLogConf(c.Log); err != nil {
		return err
	}
	if err := validateReportConf(c.Report); err != nil {
		return err
	}
	if err := validatePricingConf(c.Pricing); err != nil {
		return err
	}
	return nil
}
