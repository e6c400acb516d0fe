package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	DSN    string
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresDB keeps candles in a schema named after the application.
func NewPostgresDB(cfg models.MConfig, log *logger.Logger) *PostgresDB {
	schema := strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(strings.ToLower(cfg.Name))
	if schema == "" {
		schema = "pair_analysis"
	}
	return &PostgresDB{
		DSN:    cfg.Storage.DBConnectionString,
		Schema: schema,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.DSN)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			pair TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			ts BIGINT NOT NULL,
			open DOUBLE PRECISION,
			high DOUBLE PRECISION,
			low DOUBLE PRECISION,
			close DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			PRIMARY KEY (pair, timeframe, ts)
		);
	`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create candles: %w", err)
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

func (d *PostgresDB) table() string {
	return fmt.Sprintf(`"%s"."candles"`, d.Schema)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Load(ctx context.Context, pair, timeframe string, tr models.TimeRange) ([]models.MCandle, error) {
	from, to := rangeBounds(tr)
	rows, err := d.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT ts, open, high, low, close, volume FROM %s
		WHERE pair = $1 AND timeframe = $2 AND ts >= $3 AND ts <= $4
		ORDER BY ts
	`, d.table()), pair, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles for %s: %w", pair, err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Store(ctx context.Context, pair, timeframe string, candles []models.MCandle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (pair, timeframe, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pair, timeframe, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`, d.table()))
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

func (d *PostgresDB) Coverage(ctx context.Context, pair, timeframe string) (int64, int64, bool, error) {
	row := d.DB.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT MIN(ts), MAX(ts) FROM %s WHERE pair = $1 AND timeframe = $2", d.table()), pair, timeframe)
	return scanCoverage(row)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Erase(ctx context.Context, pair, timeframe string) error {
	_, err := d.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE pair = $1 AND timeframe = $2", d.table()), pair, timeframe)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
