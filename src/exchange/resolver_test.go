package exchange

import (
	"testing"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExchange(t *testing.T) {
	log := logger.NewLogger(nil, "ResolverTest")

	ex, err := LoadExchange(models.MConfig{Exchange: models.MExchangeConfig{Name: "Binance"}}, nil, log)
	require.NoError(t, err)
	assert.Equal(t, "binance", ex.Name())

	_, err = LoadExchange(models.MConfig{Exchange: models.MExchangeConfig{Name: "mtgox"}}, nil, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binance")
}

func TestSupportedIsSorted(t *testing.T) {
	assert.Contains(t, Supported(), "binance")
}
