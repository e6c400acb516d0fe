package interfaces

import (
	"context"

	"pair-analysis/src/models"
)

// -----------------------------------------------------------------------------
// IExchange is the market data side of a crypto exchange.
// -----------------------------------------------------------------------------

type IExchange interface {

	// Name returns the exchange identifier, e.g. "binance".
	Name() string

	// -----------------------------------------------------------------------------

	// Markets returns the pairs listed by the exchange.
	Markets(ctx context.Context) ([]models.MMarket, error)

	// -----------------------------------------------------------------------------

	// ValidatePairs fails if any pair is not listed.
	ValidatePairs(ctx context.Context, pairs []string) error

	// -----------------------------------------------------------------------------

	// ValidateTimeframe fails if the exchange cannot serve candles of this size.
	ValidateTimeframe(timeframe string) error

	// -----------------------------------------------------------------------------

	// FetchOHLCV returns candles with open time in [sinceMs, untilMs], ascending.
	FetchOHLCV(ctx context.Context, pair, timeframe string, sinceMs, untilMs int64) ([]models.MCandle, error)
}
