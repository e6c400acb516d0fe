package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/utils"
)

// candleCodec reads and writes a whole series file.
type candleCodec interface {
	ext() string
	read(path string) ([]models.MCandle, error)
	write(path string, candles []models.MCandle) error
}

// -----------------------------------------------------------------------------

// FileStore keeps one file per pair and timeframe, e.g. BTC_USDT-1d.json.
type FileStore struct {
	Dir    string
	Logger *logger.Logger

	codec candleCodec
	mu    sync.Mutex
}

// -----------------------------------------------------------------------------

func (s *FileStore) Initialize() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Dir, err)
	}
	return nil
}

// Path returns the file backing a series.
func (s *FileStore) Path(pair, timeframe string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s-%s.%s", utils.PairToFilename(pair), timeframe, s.codec.ext()))
}

// -----------------------------------------------------------------------------

func (s *FileStore) readAll(pair, timeframe string) ([]models.MCandle, error) {
	path := s.Path(pair, timeframe)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	candles, err := s.codec.read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return candles, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Load(ctx context.Context, pair, timeframe string, tr models.TimeRange) ([]models.MCandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(pair, timeframe)
	if err != nil {
		return nil, err
	}

	var out []models.MCandle
	for _, c := range all {
		if tr.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Store(ctx context.Context, pair, timeframe string, candles []models.MCandle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll(pair, timeframe)
	if err != nil {
		return err
	}

	merged := MergeCandles(existing, candles)

	// Write next to the target, then rename over it.
	path := s.Path(pair, timeframe)
	tmp := path + ".tmp"
	if err := s.codec.write(tmp, merged); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Coverage(ctx context.Context, pair, timeframe string) (int64, int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(pair, timeframe)
	if err != nil || len(all) == 0 {
		return 0, 0, false, err
	}
	return all[0].Timestamp, all[len(all)-1].Timestamp, true, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Erase(ctx context.Context, pair, timeframe string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path(pair, timeframe))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

// MergeCandles unions two series by timestamp. On duplicates the incoming
// candle wins. The result is ascending.
func MergeCandles(existing, incoming []models.MCandle) []models.MCandle {
	byTs := make(map[int64]models.MCandle, len(existing)+len(incoming))
	for _, c := range existing {
		byTs[c.Timestamp] = c
	}
	for _, c := range incoming {
		byTs[c.Timestamp] = c
	}

	out := make([]models.MCandle, 0, len(byTs))
	for _, c := range byTs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}
