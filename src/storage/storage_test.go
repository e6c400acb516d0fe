package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = int64(86_400_000)

var base = time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC).UnixMilli()

func candle(i int64, close float64) models.MCandle {
	return models.MCandle{Timestamp: base + i*day, Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 10}
}

func stores(t *testing.T) map[string]interfaces.ICandleStore {
	dir := t.TempDir()
	log := logger.NewLogger(nil, "StorageTest")

	out := map[string]interfaces.ICandleStore{
		utils.FormatSQLite:  NewAsyncSQLiteDB(models.MConfig{DataDir: dir}, log),
		utils.FormatJSON:    NewJSONStore(filepath.Join(dir, "json"), log),
		utils.FormatParquet: NewParquetStore(filepath.Join(dir, "parquet"), log),
	}
	if dsn := os.Getenv("PAIR_ANALYSIS_TEST_PG_DSN"); dsn != "" {
		out[utils.FormatPostgres] = NewPostgresDB(models.MConfig{
			Name:    "pair_analysis_test",
			Storage: models.MStorageConfig{DBConnectionString: dsn},
		}, log)
	}

	for name, s := range out {
		require.NoError(t, s.Initialize(), name)
		t.Cleanup(func() { s.Close() })
	}
	return out
}

func TestStoreLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Erase(ctx, "ETH/USDT", "1d"))

			_, _, ok, err := s.Coverage(ctx, "ETH/USDT", "1d")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Store(ctx, "ETH/USDT", "1d", []models.MCandle{candle(2, 12), candle(0, 10), candle(1, 11)}))

			got, err := s.Load(ctx, "ETH/USDT", "1d", models.TimeRange{})
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, candle(0, 10), got[0])
			assert.Equal(t, 12.0, got[2].Close)

			first, last, ok, err := s.Coverage(ctx, "ETH/USDT", "1d")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, base, first)
			assert.Equal(t, base+2*day, last)
		})
	}
}

func TestStoreMergesWithoutErasing(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Erase(ctx, "BTC/USDT", "1d"))
			require.NoError(t, s.Store(ctx, "BTC/USDT", "1d", []models.MCandle{candle(0, 1), candle(1, 2)}))
			require.NoError(t, s.Store(ctx, "BTC/USDT", "1d", []models.MCandle{candle(1, 20), candle(2, 3)}))

			got, err := s.Load(ctx, "BTC/USDT", "1d", models.TimeRange{})
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, 1.0, got[0].Close)
			assert.Equal(t, 20.0, got[1].Close)
			assert.Equal(t, 3.0, got[2].Close)

			// other timeframes are separate series
			other, err := s.Load(ctx, "BTC/USDT", "1h", models.TimeRange{})
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestLoadRespectsTimeRange(t *testing.T) {
	ctx := context.Background()
	tr := models.TimeRange{
		Start: time.UnixMilli(base + day).UTC(),
		End:   time.UnixMilli(base + 2*day).UTC(),
	}
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Erase(ctx, "XRP/USDT", "1d"))
			require.NoError(t, s.Store(ctx, "XRP/USDT", "1d", []models.MCandle{candle(0, 1), candle(1, 2), candle(2, 3), candle(3, 4)}))

			got, err := s.Load(ctx, "XRP/USDT", "1d", tr)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, base+day, got[0].Timestamp)
			assert.Equal(t, base+2*day, got[1].Timestamp)
		})
	}
}

func TestFileStorePath(t *testing.T) {
	s := NewJSONStore("/data", nil)
	assert.Equal(t, filepath.Join("/data", "BTC_USDT-5m.json"), s.Path("BTC/USDT", "5m"))
}

func TestMergeCandles(t *testing.T) {
	got := MergeCandles([]models.MCandle{candle(1, 1), candle(0, 0)}, []models.MCandle{candle(1, 9)})
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0].Close)
	assert.Equal(t, 9.0, got[1].Close)
}

func TestNewCandleStoreRejectsUnknownFormat(t *testing.T) {
	_, err := NewCandleStore(models.MConfig{DataFormatOHLCV: "feather"}, logger.NewLogger(nil, "StorageTest"))
	assert.Error(t, err)
}

func TestNewCandleStoreDefaultsToSQLite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCandleStore(models.MConfig{DataDir: dir}, logger.NewLogger(nil, "StorageTest"))
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &AsyncSQLiteDB{}, s)
	assert.FileExists(t, filepath.Join(dir, "candles.sqlite"))
}
