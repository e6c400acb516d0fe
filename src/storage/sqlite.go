package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Path   string
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewAsyncSQLiteDB stores candles in cfg.Storage.DBPath, or candles.sqlite
// inside the data directory.
func NewAsyncSQLiteDB(cfg models.MConfig, log *logger.Logger) *AsyncSQLiteDB {
	path := cfg.Storage.DBPath
	if path == "" {
		path = filepath.Join(cfg.DataDir, "candles.sqlite")
	}
	return &AsyncSQLiteDB{
		Path:   path,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	if dir := filepath.Dir(d.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", d.Path)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS candles (
			pair TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			ts INTEGER NOT NULL,
			open REAL,
			high REAL,
			low REAL,
			close REAL,
			volume REAL,
			PRIMARY KEY (pair, timeframe, ts)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create candles: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Load(ctx context.Context, pair, timeframe string, tr models.TimeRange) ([]models.MCandle, error) {
	from, to := rangeBounds(tr)
	rows, err := d.DB.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume FROM candles
		WHERE pair = ? AND timeframe = ? AND ts >= ? AND ts <= ?
		ORDER BY ts
	`, pair, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles for %s: %w", pair, err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Store(ctx context.Context, pair, timeframe string, candles []models.MCandle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (pair, timeframe, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (pair, timeframe, ts) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, pair, timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("failed to store candle %d for %s: %w", c.Timestamp, pair, err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Coverage(ctx context.Context, pair, timeframe string) (int64, int64, bool, error) {
	row := d.DB.QueryRowContext(ctx,
		"SELECT MIN(ts), MAX(ts) FROM candles WHERE pair = ? AND timeframe = ?", pair, timeframe)
	return scanCoverage(row)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Erase(ctx context.Context, pair, timeframe string) error {
	_, err := d.DB.ExecContext(ctx, "DELETE FROM candles WHERE pair = ? AND timeframe = ?", pair, timeframe)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
