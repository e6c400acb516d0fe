package config

import (
	"fmt"
	"os"
	"strings"

	"pair-analysis/src/models"
	"pair-analysis/src/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, read after the optional .env file.
const (
	EnvLogLevel           = "PAIR_ANALYSIS_LOG_LEVEL"
	EnvDBConnectionString = "PAIR_ANALYSIS_DB_CONNECTION_STRING"
	EnvDataDir            = "PAIR_ANALYSIS_DATADIR"
	EnvKafkaBrokers       = "PAIR_ANALYSIS_KAFKA_BROKERS"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from YAML bytes, applying env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	// Defaults where zero is a valid setting go in before decoding.
	modelConfig := models.MConfig{
		Network: models.MNetworkConfig{MaxRetries: utils.DefaultMaxRetries},
	}
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDBConnectionString); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		c.Events.KafkaBrokers = v
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = utils.AppName
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Exchange.Name == "" {
		c.Exchange.Name = utils.DefaultExchange
	}
	if c.Exchange.RequestsPerSecond <= 0 {
		c.Exchange.RequestsPerSecond = utils.DefaultRequestsPerSecond
	}
	if c.StakeCurrency == "" {
		c.StakeCurrency = utils.DefaultStakeCurrency
	}
	if c.DataDir == "" {
		c.DataDir = utils.DefaultDataDir
	}
	c.DataFormatOHLCV = strings.ToLower(c.DataFormatOHLCV)
	if c.DataFormatOHLCV == "" {
		c.DataFormatOHLCV = utils.FormatSQLite
	}
	if c.JoinMode == "" {
		c.JoinMode = utils.JoinLeft
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = utils.DefaultRequestTimeout
	}
	if c.Analysis.ReferenceCurrency == "" {
		c.Analysis.ReferenceCurrency = utils.DefaultReferenceCurrency
	}
	if c.Analysis.TopN == 0 {
		c.Analysis.TopN = utils.DefaultTopN
	}
}

// -----------------------------------------------------------------------------

// Validate performs structural configuration validation. Presence of pairs
// and timeframe is checked by the preprocessing validator.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Port != 0 && (c.Port <= 1024 || c.Port > 65535) {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	if c.DataDir == "" {
		return fmt.Errorf("datadir cannot be empty")
	}

	// Storage
	switch c.DataFormatOHLCV {
	case utils.FormatSQLite, utils.FormatJSON, utils.FormatParquet:
	case utils.FormatPostgres:
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported dataformat_ohlcv: %q", c.DataFormatOHLCV)
	}

	switch c.JoinMode {
	case utils.JoinLeft, utils.JoinUnion:
	default:
		return fmt.Errorf("unsupported join_mode: %q (must be %q or %q)", c.JoinMode, utils.JoinLeft, utils.JoinUnion)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.LogFile.MaxSizeMB < 0 || c.LogFile.MaxBackups < 0 || c.LogFile.MaxAgeDays < 0 {
		return fmt.Errorf("log_file limits cannot be negative")
	}

	if c.Analysis.TopN < 0 {
		return fmt.Errorf("analysis top_n cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Snapshot returns an independent copy of the configuration.
func (c *Config) Snapshot() models.MConfig {
	cp := *c.MConfig
	cp.Pairs = append([]string(nil), c.Pairs...)
	cp.Network.Proxies = append([]string(nil), c.Network.Proxies...)
	return cp
}
