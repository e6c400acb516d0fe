package preprocessing

import (
	"context"
	"fmt"
	"strings"

	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/table"
	"pair-analysis/src/utils"
)

// -----------------------------------------------------------------------------

// TableBuilder turns per-pair candles into one close price table with a
// column per base symbol.
type TableBuilder struct {
	History  interfaces.IHistoryProvider
	JoinMode string
	Logger   *logger.Logger
}

func NewTableBuilder(history interfaces.IHistoryProvider, joinMode string, log *logger.Logger) *TableBuilder {
	if joinMode == "" {
		joinMode = utils.JoinLeft
	}
	return &TableBuilder{History: history, JoinMode: joinMode, Logger: log}
}

// -----------------------------------------------------------------------------

// Build loads pairs inside tr and joins their close prices by date.
func (b *TableBuilder) Build(ctx context.Context, pairs []string, timeframe string, tr models.TimeRange) (*table.Table, error) {
	if len(pairs) == 0 {
		return nil, helpers.NewNoUsablePairsError("no pairs left to build the table from")
	}

	data, err := b.History.LoadData(ctx, timeframe, pairs, tr)
	if err != nil {
		return nil, helpers.NewDataUnavailableError("failed to load candle history", err)
	}

	return b.Merge(data)
}

// -----------------------------------------------------------------------------

// Merge joins the series in order. The first series defines the rows in
// left mode; union mode keeps every date.
func (b *TableBuilder) Merge(data []models.MPairSeries) (*table.Table, error) {
	var series []table.Series
	owner := make(map[string]string)

	for _, item := range data {
		if len(item.Candles) == 0 {
			continue
		}
		base, _, ok := utils.SplitPair(item.Pair)
		if !ok {
			return nil, helpers.NewInvalidPairError(item.Pair, "expected BASE/QUOTE")
		}

		key := strings.ToUpper(base)
		if prev, dup := owner[key]; dup {
			return nil, helpers.NewColumnCollisionError(base, prev, item.Pair)
		}
		owner[key] = item.Pair

		s := table.Series{
			Name:   base,
			Dates:  make([]int64, len(item.Candles)),
			Values: make([]float64, len(item.Candles)),
		}
		for i, c := range item.Candles {
			s.Dates[i] = c.Timestamp
			s.Values[i] = c.Close
		}
		series = append(series, s)
	}

	if len(series) == 0 {
		return nil, helpers.NewNoUsablePairsError("none of the requested pairs has candle data")
	}

	t := table.NewFromSeries(series[0])
	for _, s := range series[1:] {
		switch b.JoinMode {
		case utils.JoinUnion:
			t.UnionJoin(s)
		case utils.JoinLeft:
			t.LeftJoin(s)
		default:
			return nil, helpers.NewInvalidParameterError("join_mode", b.JoinMode, fmt.Errorf("must be %q or %q", utils.JoinLeft, utils.JoinUnion))
		}
	}

	b.Logger.Info("Built table with %d rows and columns %v", t.Rows(), t.Columns)
	return t, nil
}
