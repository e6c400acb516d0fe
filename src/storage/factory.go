package storage

import (
	"fmt"

	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/utils"
)

// NewCandleStore picks the backend named by cfg.DataFormatOHLCV and
// initializes it.
func NewCandleStore(cfg models.MConfig, log *logger.Logger) (interfaces.ICandleStore, error) {
	var store interfaces.ICandleStore

	switch cfg.DataFormatOHLCV {
	case utils.FormatSQLite, "":
		store = NewAsyncSQLiteDB(cfg, log.Named("SQLiteDB"))
	case utils.FormatPostgres:
		store = NewPostgresDB(cfg, log.Named("PostgresDB"))
	case utils.FormatJSON:
		store = NewJSONStore(cfg.DataDir, log.Named("JSONStore"))
	case utils.FormatParquet:
		store = NewParquetStore(cfg.DataDir, log.Named("ParquetStore"))
	default:
		return nil, fmt.Errorf("unsupported dataformat_ohlcv: %q", cfg.DataFormatOHLCV)
	}

	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.DataFormatOHLCV, err)
	}
	return store, nil
}
