package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/utils"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.binance.com"

	// Binance caps a klines page at 1000 rows.
	maxCandlesPerRequest = 1000
	marketsCacheTTL      = time.Hour
)

// Intervals served by /api/v3/klines.
var supportedTimeframes = map[string]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {}, "1M": {},
}

// -----------------------------------------------------------------------------

type BinanceExchange struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger

	mu        sync.Mutex
	markets   []models.MMarket
	bySymbol  map[string]models.MMarket
	fetchedAt time.Time
	now       func() time.Time
}

// -----------------------------------------------------------------------------

func NewBinanceExchange(cfg models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *BinanceExchange {
	baseURL := cfg.Exchange.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &BinanceExchange{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Logger:  log,
		now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

func (b *BinanceExchange) Name() string {
	return "binance"
}

// -----------------------------------------------------------------------------

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// Markets returns the listed spot pairs, cached for an hour.
func (b *BinanceExchange) Markets(ctx context.Context) ([]models.MMarket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.markets != nil && b.now().Sub(b.fetchedAt) < marketsCacheTTL {
		return b.markets, nil
	}

	body, err := b.Network.Get(ctx, b.BaseURL+"/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}

	var resp exchangeInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	markets := make([]models.MMarket, 0, len(resp.Symbols))
	bySymbol := make(map[string]models.MMarket, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		m := models.MMarket{
			Symbol: s.BaseAsset + "/" + s.QuoteAsset,
			ID:     s.Symbol,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "TRADING",
		}
		markets = append(markets, m)
		bySymbol[m.Symbol] = m
	}

	b.markets = markets
	b.bySymbol = bySymbol
	b.fetchedAt = b.now()
	b.Logger.Info("Loaded %d markets from %s", len(markets), b.Name())
	return markets, nil
}

// -----------------------------------------------------------------------------

func (b *BinanceExchange) market(ctx context.Context, pair string) (models.MMarket, bool, error) {
	if _, err := b.Markets(ctx); err != nil {
		return models.MMarket{}, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.bySymbol[pair]
	return m, ok, nil
}

// -----------------------------------------------------------------------------

// ValidatePairs fails on the first pair that is not listed. Listed but
// inactive pairs only produce a warning.
func (b *BinanceExchange) ValidatePairs(ctx context.Context, pairs []string) error {
	for _, pair := range pairs {
		m, ok, err := b.market(ctx, pair)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("pair %s is not available on %s", pair, b.Name())
		}
		if !m.Active {
			b.Logger.Warning("Pair %s is currently not active on %s", pair, b.Name())
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (b *BinanceExchange) ValidateTimeframe(timeframe string) error {
	if _, ok := supportedTimeframes[timeframe]; !ok {
		return fmt.Errorf("invalid timeframe %q, this exchange supports: %s", timeframe, strings.Join(b.Timeframes(), ", "))
	}
	return nil
}

// Timeframes lists the supported candle sizes, shortest first.
func (b *BinanceExchange) Timeframes() []string {
	tfs := make([]string, 0, len(supportedTimeframes))
	for tf := range supportedTimeframes {
		tfs = append(tfs, tf)
	}
	sort.Slice(tfs, func(i, j int) bool {
		di, _ := utils.TimeframeToDuration(tfs[i])
		dj, _ := utils.TimeframeToDuration(tfs[j])
		return di < dj
	})
	return tfs
}

// -----------------------------------------------------------------------------

// FetchOHLCV pages through /api/v3/klines until untilMs is covered.
func (b *BinanceExchange) FetchOHLCV(ctx context.Context, pair, timeframe string, sinceMs, untilMs int64) ([]models.MCandle, error) {
	if err := b.ValidateTimeframe(timeframe); err != nil {
		return nil, err
	}
	m, ok, err := b.market(ctx, pair)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("pair %s is not available on %s", pair, b.Name())
	}

	var candles []models.MCandle
	cursor := sinceMs
	for cursor <= untilMs {
		params := map[string]string{
			"symbol":    m.ID,
			"interval":  timeframe,
			"startTime": strconv.FormatInt(cursor, 10),
			"endTime":   strconv.FormatInt(untilMs, 10),
			"limit":     strconv.Itoa(maxCandlesPerRequest),
		}
		body, err := b.Network.Get(ctx, b.BaseURL+"/api/v3/klines", params)
		if err != nil {
			return candles, err
		}

		page, err := parseKlines(body)
		if err != nil {
			return candles, fmt.Errorf("klines for %s: %w", pair, err)
		}
		for _, c := range page {
			if c.Timestamp >= sinceMs && c.Timestamp <= untilMs {
				candles = append(candles, c)
			}
		}

		if len(page) < maxCandlesPerRequest {
			break
		}
		if cursor, err = utils.StepCandle(page[len(page)-1].Timestamp, timeframe, 1); err != nil {
			return candles, err
		}
	}

	b.Logger.Debug("Fetched %d %s candles for %s", len(candles), timeframe, pair)
	return candles, nil
}

// -----------------------------------------------------------------------------

// parseKlines decodes the positional kline rows. Prices arrive as strings and
// are parsed with decimal to avoid float rounding on the way in.
func parseKlines(data []byte) ([]models.MCandle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	candles := make([]models.MCandle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline %d has %d fields", i, len(row))
		}

		var ts int64
		if err := json.Unmarshal(row[0], &ts); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}

		var fields [5]decimal.Decimal
		for j := range fields {
			if err := fields[j].UnmarshalJSON(row[j+1]); err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
		}

		candles = append(candles, models.MCandle{
			Timestamp: ts,
			Open:      fields[0].InexactFloat64(),
			High:      fields[1].InexactFloat64(),
			Low:       fields[2].InexactFloat64(),
			Close:     fields[3].InexactFloat64(),
			Volume:    fields[4].InexactFloat64(),
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}
