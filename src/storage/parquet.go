package storage

import (
	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/parquet-go/parquet-go"
)

type parquetCodec struct{}

func (parquetCodec) ext() string { return "parquet" }

func (parquetCodec) read(path string) ([]models.MCandle, error) {
	return parquet.ReadFile[models.MCandle](path)
}

func (parquetCodec) write(path string, candles []models.MCandle) error {
	return parquet.WriteFile(path, candles)
}

// -----------------------------------------------------------------------------

func NewParquetStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{Dir: dir, Logger: log, codec: parquetCodec{}}
}
