package storage

import (
	"database/sql"
	"math"

	"pair-analysis/src/models"
)

// rangeBounds turns an open or closed time range into inclusive ms bounds.
func rangeBounds(tr models.TimeRange) (int64, int64) {
	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if tr.HasStart() {
		from = tr.Start.UnixMilli()
	}
	if tr.HasEnd() {
		to = tr.End.UnixMilli()
	}
	return from, to
}

// -----------------------------------------------------------------------------

func scanCandles(rows *sql.Rows) ([]models.MCandle, error) {
	var candles []models.MCandle
	for rows.Next() {
		var c models.MCandle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// -----------------------------------------------------------------------------

func scanCoverage(row *sql.Row) (int64, int64, bool, error) {
	var first, last sql.NullInt64
	if err := row.Scan(&first, &last); err != nil {
		return 0, 0, false, err
	}
	if !first.Valid || !last.Valid {
		return 0, 0, false, nil
	}
	return first.Int64, last.Int64, true, nil
}
