package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	LogFile  MLogFileConfig `yaml:"log_file"`
	GrpcHost string         `yaml:"grpc_host"`
	GrpcPort int            `yaml:"grpc_port"`

	Exchange        MExchangeConfig `yaml:"exchange"`
	StakeCurrency   string          `yaml:"stake_currency"`
	Timeframe       string          `yaml:"timeframe"`
	Pairs           []string        `yaml:"pairs"`
	Timerange       string          `yaml:"timerange"`
	DataDir         string          `yaml:"datadir"`
	DataFormatOHLCV string          `yaml:"dataformat_ohlcv"`
	JoinMode        string          `yaml:"join_mode"`

	Storage  MStorageConfig  `yaml:"storage"`
	Network  MNetworkConfig  `yaml:"network"`
	Analysis MAnalysisConfig `yaml:"analysis"`
	Events   MEventsConfig   `yaml:"events"`
}

// MLogFileConfig enables rotating file output next to stdout when Path is set.
type MLogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MEventsConfig publishes run events to Kafka when KafkaBrokers is set.
type MEventsConfig struct {
	KafkaBrokers string `yaml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic"`
}

type MExchangeConfig struct {
	Name              string  `yaml:"name"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type MStorageConfig struct {
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MAnalysisConfig struct {
	ReferenceCurrency string `yaml:"reference_currency"`
	TopN              int    `yaml:"top_n"`
}
