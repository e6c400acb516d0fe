package utils

// -----------------------------------------------------------------------------

const (
	AppName = "pair-analysis"

	DefaultExchange          = "binance"
	DefaultStakeCurrency     = "USDT"
	DefaultDataDir           = "user_data/data"
	DefaultRequestsPerSecond = 10.0
	DefaultRequestTimeout    = 30
	DefaultMaxRetries        = 3

	// DefaultNewPairsDays is the lookback for pairs without local data when
	// the time range has no start.
	DefaultNewPairsDays = 30

	DefaultReferenceCurrency = "BTC"
	DefaultTopN              = 8
)

// Candle storage formats (dataformat_ohlcv).
const (
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
	FormatParquet  = "parquet"
	FormatJSON     = "json"
)

// Table join modes.
const (
	JoinLeft  = "left"
	JoinUnion = "union"
)

// Artifact suffixes, prefixed by a generation stamp.
const (
	TableFileSuffix   = "_data_preprocessing.csv"
	PlotFileSuffix    = "_plot.png"
	HeatMapFileSuffix = "_heat_map.png"
)
