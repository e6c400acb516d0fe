package interfaces

import (
	"context"

	"pair-analysis/src/models"
)

// -----------------------------------------------------------------------------
// ICandleStore defines the contract for local candle history storage.
// -----------------------------------------------------------------------------

type ICandleStore interface {

	// Initialize sets up schema, tables or directories.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Load returns the stored candles of pair inside tr, ascending.
	Load(ctx context.Context, pair, timeframe string, tr models.TimeRange) ([]models.MCandle, error)

	// -----------------------------------------------------------------------------

	// Store merges candles into the stored series. Existing timestamps are overwritten.
	Store(ctx context.Context, pair, timeframe string, candles []models.MCandle) error

	// -----------------------------------------------------------------------------

	// Coverage returns the first and last stored open time. ok is false when
	// nothing is stored.
	Coverage(ctx context.Context, pair, timeframe string) (first, last int64, ok bool, err error)

	// -----------------------------------------------------------------------------

	// Erase removes the stored series.
	Erase(ctx context.Context, pair, timeframe string) error

	// -----------------------------------------------------------------------------

	// Close the underlying connection or files.
	Close() error
}

// -----------------------------------------------------------------------------
// IHistoryProvider loads and refreshes candle history for the pipeline.
// -----------------------------------------------------------------------------

type IHistoryProvider interface {

	// LoadData returns one series per pair that has data inside tr, in the
	// order of pairs. Pairs without data are skipped with a warning.
	LoadData(ctx context.Context, timeframe string, pairs []string, tr models.TimeRange) ([]models.MPairSeries, error)

	// -----------------------------------------------------------------------------

	// RefreshOHLCVData downloads missing candles and returns the pairs that
	// are still unavailable.
	RefreshOHLCVData(ctx context.Context, exchange IExchange, pairs []string, timeframes []string,
		tr models.TimeRange, newPairsDays int, erase bool) ([]string, error)
}
