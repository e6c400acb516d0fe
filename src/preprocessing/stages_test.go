package preprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pair-analysis/src/helpers"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/table"
	"pair-analysis/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckParams(t *testing.T) {
	v := NewValidator(newMockExchange(), logger.NewLogger(nil, "ValidatorTest"))

	tests := []struct {
		name string
		in   ValidatorInput
		want error
	}{
		{"ok", ValidatorInput{Pairs: []string{"ETH/USDT"}, Timeframe: "1d", StakeCurrency: "USDT"}, nil},
		{"no timeframe", ValidatorInput{Pairs: []string{"ETH/USDT"}, StakeCurrency: "USDT"}, helpers.ErrMissingParameter},
		{"no pairs", ValidatorInput{Timeframe: "1d", StakeCurrency: "USDT"}, helpers.ErrMissingParameter},
		{"foreign quote", ValidatorInput{Pairs: []string{"ETH/BTC"}, Timeframe: "1d", StakeCurrency: "USDT"}, helpers.ErrInvalidPair},
		{"no separator", ValidatorInput{Pairs: []string{"ETHUSDT"}, Timeframe: "1d", StakeCurrency: "USDT"}, helpers.ErrInvalidPair},
		{"bad pattern", ValidatorInput{Pairs: []string{"(ETH/USDT"}, Timeframe: "1d", StakeCurrency: "USDT"}, helpers.ErrInvalidPair},
		{"bare repetition", ValidatorInput{Pairs: []string{"*/USDT"}, Timeframe: "1d", StakeCurrency: "USDT"}, helpers.ErrInvalidPair},
		{"alternation", ValidatorInput{Pairs: []string{"AAVE|ETH/USDT"}, Timeframe: "1d", StakeCurrency: "USDT"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckParams(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMergeDetectsColumnCollision(t *testing.T) {
	b := NewTableBuilder(&fakeHistory{}, "", logger.NewLogger(nil, "BuilderTest"))
	_, err := b.Merge([]models.MPairSeries{
		{Pair: "eth/USDT", Candles: closes(t0, 1)},
		{Pair: "ETH/USDT", Candles: closes(t0, 2)},
	})
	assert.ErrorIs(t, err, helpers.ErrColumnCollision)
	assert.Contains(t, err.Error(), "ETH/USDT")
}

func TestMergeRejectsUnknownJoinMode(t *testing.T) {
	b := NewTableBuilder(&fakeHistory{}, "outer", logger.NewLogger(nil, "BuilderTest"))
	_, err := b.Merge([]models.MPairSeries{
		{Pair: "AAA/USDT", Candles: closes(t0, 1)},
		{Pair: "BBB/USDT", Candles: closes(t0, 2)},
	})
	assert.ErrorIs(t, err, helpers.ErrInvalidParameter)
}

func TestMergeSkipsEmptySeries(t *testing.T) {
	b := NewTableBuilder(&fakeHistory{}, utils.JoinLeft, logger.NewLogger(nil, "BuilderTest"))
	tbl, err := b.Merge([]models.MPairSeries{
		{Pair: "AAA/USDT"},
		{Pair: "BBB/USDT", Candles: closes(t0, 2, 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Rows())
}

func TestPersisterNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, logger.NewLogger(nil, "PersisterTest"))
	fixed := time.Unix(1600000000, 0)
	p.now = func() time.Time { return fixed }

	tbl := table.NewFromSeries(table.Series{Name: "A", Dates: []int64{t0}, Values: []float64{1}})

	first, err := p.Persist(tbl)
	require.NoError(t, err)
	second, err := p.Persist(tbl)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(first, utils.TableFileSuffix))
	assert.Equal(t, "1600000000000000000", ArtifactStamp(first))
	assert.Equal(t, "1600000000000000001", ArtifactStamp(second))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "date,A\n2018-01-10T00:00:00Z,1.0\n", string(data))
}

func TestPersisterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	p := NewPersister(dir, logger.NewLogger(nil, "PersisterTest"))

	path, err := p.Persist(table.NewFromSeries(table.Series{Name: "A"}))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"A", "C"}, Without([]string{"A", "B", "C"}, []string{"B", "X"}))
	assert.Equal(t, []string{"A"}, Without([]string{"A"}, nil))
	assert.Empty(t, Without([]string{"A"}, []string{"A"}))
}
