package models

import "time"

// MCandle is one OHLCV bar. Timestamp is the bar open time in unix milliseconds.
type MCandle struct {
	Timestamp int64   `json:"timestamp" parquet:"timestamp"`
	Open      float64 `json:"open" parquet:"open"`
	High      float64 `json:"high" parquet:"high"`
	Low       float64 `json:"low" parquet:"low"`
	Close     float64 `json:"close" parquet:"close"`
	Volume    float64 `json:"volume" parquet:"volume"`
}

// Time returns the open time in UTC.
func (c MCandle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// MPairSeries is the candle history of one pair, ascending by timestamp.
type MPairSeries struct {
	Pair    string    `json:"pair"`
	Candles []MCandle `json:"candles"`
}

// MMarket describes a tradable pair listed by an exchange.
type MMarket struct {
	Symbol string `json:"symbol"` // BASE/QUOTE
	ID     string `json:"id"`     // exchange native id, e.g. BTCUSDT
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	Active bool   `json:"active"`
}
