package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateColumn is the header of the row key column.
const DateColumn = "date"

// -----------------------------------------------------------------------------

// Table is a date indexed wide table. Values[c][r] is column c at row r;
// NaN marks a missing cell.
type Table struct {
	Dates   []int64 // unix ms, ascending
	Columns []string
	Values  [][]float64
}

// Series is one named column keyed by date.
type Series struct {
	Name   string
	Dates  []int64
	Values []float64
}

// -----------------------------------------------------------------------------

// NewFromSeries seeds a table with one column.
func NewFromSeries(s Series) *Table {
	return &Table{
		Dates:   append([]int64(nil), s.Dates...),
		Columns: []string{s.Name},
		Values:  [][]float64{append([]float64(nil), s.Values...)},
	}
}

// -----------------------------------------------------------------------------

// Rows returns the number of rows.
func (t *Table) Rows() int {
	return len(t.Dates)
}

// Column returns the values of name, or false if absent.
func (t *Table) Column(name string) ([]float64, bool) {
	for i, c := range t.Columns {
		if c == name {
			return t.Values[i], true
		}
	}
	return nil, false
}

// -----------------------------------------------------------------------------

// LeftJoin adds s as a new column. Rows stay those of t; dates of t missing
// from s get NaN and dates only in s are dropped.
func (t *Table) LeftJoin(s Series) {
	lookup := index(s)
	col := make([]float64, len(t.Dates))
	for r, d := range t.Dates {
		if v, ok := lookup[d]; ok {
			col[r] = v
		} else {
			col[r] = math.NaN()
		}
	}
	t.Columns = append(t.Columns, s.Name)
	t.Values = append(t.Values, col)
}

// -----------------------------------------------------------------------------

// UnionJoin adds s as a new column over the sorted union of both date sets.
func (t *Table) UnionJoin(s Series) {
	seen := make(map[int64]struct{}, len(t.Dates)+len(s.Dates))
	dates := make([]int64, 0, len(t.Dates)+len(s.Dates))
	for _, d := range t.Dates {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	for _, d := range s.Dates {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	// Re-key existing columns onto the new row set.
	old := make(map[int64]int, len(t.Dates))
	for r, d := range t.Dates {
		old[d] = r
	}
	for c := range t.Values {
		col := make([]float64, len(dates))
		for r, d := range dates {
			if or, ok := old[d]; ok {
				col[r] = t.Values[c][or]
			} else {
				col[r] = math.NaN()
			}
		}
		t.Values[c] = col
	}
	t.Dates = dates
	t.LeftJoin(s)
}

func index(s Series) map[int64]float64 {
	m := make(map[int64]float64, len(s.Dates))
	for i, d := range s.Dates {
		m[d] = s.Values[i]
	}
	return m
}

// -----------------------------------------------------------------------------

// WriteCSV writes the header "date,<columns...>" then one row per date.
// Dates are RFC 3339 UTC; NaN is an empty field.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{DateColumn}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for r, d := range t.Dates {
		record[0] = time.UnixMilli(d).UTC().Format(time.RFC3339)
		for c := range t.Columns {
			v := t.Values[c][r]
			if math.IsNaN(v) {
				record[c+1] = ""
			} else {
				record[c+1] = formatPrice(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatPrice writes the shortest exact decimal, keeping a fractional part
// so whole prices read back as floats ("1.0", not "1").
func formatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// -----------------------------------------------------------------------------

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty table")
	}

	header := records[0]
	if len(header) < 1 || strings.TrimSpace(header[0]) != DateColumn {
		return nil, fmt.Errorf("first column must be %q, got %v", DateColumn, header)
	}

	t := &Table{
		Columns: append([]string(nil), header[1:]...),
		Values:  make([][]float64, len(header)-1),
	}
	for _, rec := range records[1:] {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", rec[0], err)
		}
		t.Dates = append(t.Dates, ts.UnixMilli())
		for c := range t.Columns {
			v := math.NaN()
			if s := rec[c+1]; s != "" {
				if v, err = strconv.ParseFloat(s, 64); err != nil {
					return nil, fmt.Errorf("bad value %q in column %s: %w", s, t.Columns[c], err)
				}
			}
			t.Values[c] = append(t.Values[c], v)
		}
	}
	return t, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
