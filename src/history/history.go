package history

import (
	"context"
	"fmt"
	"time"

	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/utils"
)

// -----------------------------------------------------------------------------

// History loads candle series from a store and tops them up from an exchange.
type History struct {
	Store  interfaces.ICandleStore
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewHistory(store interfaces.ICandleStore, log *logger.Logger) *History {
	return &History{
		Store:  store,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// LoadData returns the series of every pair with data inside tr, in the
// order given. Pairs without data are skipped with a warning.
func (h *History) LoadData(ctx context.Context, timeframe string, pairs []string, tr models.TimeRange) ([]models.MPairSeries, error) {
	result := make([]models.MPairSeries, 0, len(pairs))

	for _, pair := range pairs {
		candles, err := h.Store.Load(ctx, pair, timeframe, tr)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s %s: %w", pair, timeframe, err)
		}
		if len(candles) == 0 {
			h.Logger.Warning("No history data for pair %s, timeframe %s, timerange %s. Download it first.",
				pair, timeframe, tr.String())
			continue
		}
		result = append(result, models.MPairSeries{Pair: pair, Candles: candles})
	}

	return result, nil
}

// -----------------------------------------------------------------------------

// RefreshOHLCVData downloads what is missing for every pair and timeframe
// and returns the pairs that are not listed on the exchange or still have no
// stored candles. Download errors of a single pair are logged, not returned.
func (h *History) RefreshOHLCVData(ctx context.Context, exchange interfaces.IExchange, pairs []string, timeframes []string,
	tr models.TimeRange, newPairsDays int, erase bool) ([]string, error) {

	markets, err := exchange.Markets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load markets from %s: %w", exchange.Name(), err)
	}
	listed := make(map[string]struct{}, len(markets))
	for _, m := range markets {
		listed[m.Symbol] = struct{}{}
	}

	var unavailable []string
	for idx, pair := range pairs {
		if _, ok := listed[pair]; !ok {
			h.Logger.Info("Skipping pair %s, not available on %s", pair, exchange.Name())
			unavailable = append(unavailable, pair)
			continue
		}

		missing := false
		for _, tf := range timeframes {
			h.Logger.Info("Downloading pair %s, interval %s (%d/%d)", pair, tf, idx+1, len(pairs))

			if erase {
				if err := h.Store.Erase(ctx, pair, tf); err != nil {
					return nil, fmt.Errorf("failed to erase %s %s: %w", pair, tf, err)
				}
				h.Logger.Info("Deleted data for %s %s", pair, tf)
			}

			if err := h.downloadPairHistory(ctx, exchange, pair, tf, tr, newPairsDays); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				h.Logger.Error("Failed to download history data for pair %s, timeframe %s: %v", pair, tf, err)
			}

			_, _, ok, err := h.Store.Coverage(ctx, pair, tf)
			if err != nil {
				return nil, fmt.Errorf("failed to read coverage of %s %s: %w", pair, tf, err)
			}
			if !ok {
				missing = true
			}
		}
		if missing {
			unavailable = append(unavailable, pair)
		}
	}

	return unavailable, nil
}

// -----------------------------------------------------------------------------

// downloadPairHistory fetches the gaps before the first and after the last
// stored candle. Without stored data the whole window is fetched, starting at
// the range start or newPairsDays ago.
func (h *History) downloadPairHistory(ctx context.Context, exchange interfaces.IExchange, pair, timeframe string,
	tr models.TimeRange, newPairsDays int) error {

	now := h.now().UTC()

	startMs := now.AddDate(0, 0, -newPairsDays).UnixMilli()
	if tr.HasStart() {
		startMs = tr.Start.UnixMilli()
	}
	startMs, err := utils.CandleOpen(startMs, timeframe)
	if err != nil {
		return err
	}

	endMs := now.UnixMilli()
	if tr.HasEnd() && tr.End.UnixMilli() < endMs {
		endMs = tr.End.UnixMilli()
	}

	first, last, ok, err := h.Store.Coverage(ctx, pair, timeframe)
	if err != nil {
		return err
	}

	type window struct{ from, to int64 }
	var windows []window
	if !ok {
		windows = append(windows, window{startMs, endMs})
	} else {
		if startMs < first {
			before, _ := utils.StepCandle(first, timeframe, -1)
			windows = append(windows, window{startMs, before})
		}
		if next, _ := utils.StepCandle(last, timeframe, 1); next <= endMs {
			windows = append(windows, window{next, endMs})
		}
	}

	for _, w := range windows {
		if w.from > w.to {
			continue
		}
		candles, err := exchange.FetchOHLCV(ctx, pair, timeframe, w.from, w.to)
		if err != nil {
			return err
		}

		// The running candle would freeze with partial values.
		complete := candles[:0]
		for _, c := range candles {
			if closeMs, _ := utils.StepCandle(c.Timestamp, timeframe, 1); closeMs <= now.UnixMilli() {
				complete = append(complete, c)
			}
		}

		if err := h.Store.Store(ctx, pair, timeframe, complete); err != nil {
			return err
		}
		h.Logger.Debug("Stored %d candles for %s %s between %d and %d", len(complete), pair, timeframe, w.from, w.to)
	}

	return nil
}
