package preprocessing

import (
	"context"
	"strings"

	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
)

// -----------------------------------------------------------------------------

// AvailabilityEnsurer makes sure candle history exists locally before the
// table is built.
type AvailabilityEnsurer struct {
	Exchange interfaces.IExchange
	History  interfaces.IHistoryProvider
	Logger   *logger.Logger
}

func NewAvailabilityEnsurer(exchange interfaces.IExchange, history interfaces.IHistoryProvider, log *logger.Logger) *AvailabilityEnsurer {
	return &AvailabilityEnsurer{Exchange: exchange, History: history, Logger: log}
}

// -----------------------------------------------------------------------------

// Ensure downloads missing candles without erasing stored ones and returns
// the pairs that remain unavailable. Those are logged, not fatal.
func (e *AvailabilityEnsurer) Ensure(ctx context.Context, pairs []string, timeframe string, tr models.TimeRange, newPairsDays int) ([]string, error) {
	unavailable, err := e.History.RefreshOHLCVData(ctx, e.Exchange, pairs, []string{timeframe}, tr, newPairsDays, false)
	if err != nil {
		return nil, helpers.NewDataUnavailableError("failed to refresh candle history", err)
	}

	if len(unavailable) > 0 {
		e.Logger.Warning("Pairs [%s] not available on exchange %s.", strings.Join(unavailable, ","), e.Exchange.Name())
	}
	return unavailable, nil
}

// -----------------------------------------------------------------------------

// Without returns pairs minus excluded, keeping order.
func Without(pairs, excluded []string) []string {
	if len(excluded) == 0 {
		return pairs
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, p := range excluded {
		skip[p] = struct{}{}
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := skip[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
