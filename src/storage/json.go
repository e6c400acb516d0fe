package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"
)

// jsonCodec stores rows as [timestamp, open, high, low, close, volume].
type jsonCodec struct{}

func (jsonCodec) ext() string { return "json" }

func (jsonCodec) read(path string) ([]models.MCandle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows [][6]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	candles := make([]models.MCandle, len(rows))
	for i, r := range rows {
		candles[i] = models.MCandle{
			Timestamp: int64(r[0]),
			Open:      r[1],
			High:      r[2],
			Low:       r[3],
			Close:     r[4],
			Volume:    r[5],
		}
	}
	return candles, nil
}

func (jsonCodec) write(path string, candles []models.MCandle) error {
	rows := make([][6]float64, len(candles))
	for i, c := range candles {
		rows[i] = [6]float64{float64(c.Timestamp), c.Open, c.High, c.Low, c.Close, c.Volume}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal candles: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// -----------------------------------------------------------------------------

func NewJSONStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{Dir: dir, Logger: log, codec: jsonCodec{}}
}
