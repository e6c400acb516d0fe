package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PNGRenderer draws analysis charts with gonum/plot.
type PNGRenderer struct {
	PlotWidth, PlotHeight vg.Length
	HeatMapSide           vg.Length
	Logger                *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPNGRenderer(log *logger.Logger) *PNGRenderer {
	return &PNGRenderer{
		PlotWidth:   32 * vg.Inch,
		PlotHeight:  12 * vg.Inch,
		HeatMapSide: 24 * vg.Inch,
		Logger:      log,
	}
}

// -----------------------------------------------------------------------------

// RenderPlot draws one line per column over time. Missing points break the
// line instead of being interpolated.
func (r *PNGRenderer) RenderPlot(dates []int64, columns []string, values [][]float64, path string) error {
	if len(columns) != len(values) {
		return fmt.Errorf("got %d columns and %d value series", len(columns), len(values))
	}

	p := plot.New()
	p.X.Label.Text = "date"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for i, name := range columns {
		segments := splitSegments(dates, values[i])
		for j, seg := range segments {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return fmt.Errorf("line for %s: %w", name, err)
			}
			line.Color = plotutil.Color(i)
			line.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
			p.Add(line)
			if j == 0 {
				p.Legend.Add(name, line)
			}
		}
	}

	if err := save(p, r.PlotWidth, r.PlotHeight, path); err != nil {
		return err
	}
	r.Logger.Debug("Rendered plot of %d series to %s", len(columns), path)
	return nil
}

// splitSegments turns a column into runs of consecutive present points,
// with x in unix seconds.
func splitSegments(dates []int64, values []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for k, v := range values {
		if k >= len(dates) {
			break
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(dates[k]) / 1000, Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// -----------------------------------------------------------------------------

// RenderHeatMap draws the matrix as coloured cells annotated with their
// value. The first label is the top row.
func (r *PNGRenderer) RenderHeatMap(matrix models.MCorrelationMatrix, path string) error {
	n := len(matrix.Labels)
	if n == 0 || len(matrix.Values) != n {
		return fmt.Errorf("heat map needs a square matrix, got %d labels and %d rows", n, len(matrix.Values))
	}

	grid := correlationGrid{m: matrix.Values}
	hm := plotter.NewHeatMap(grid, blues(64))
	hm.Max = 1
	if hm.Min >= hm.Max || math.IsInf(hm.Min, 0) {
		hm.Min = hm.Max - 1
	}
	hm.NaN = color.Gray{Y: 0xdd}

	p := plot.New()
	p.Add(hm)

	labels, err := annotations(grid)
	if err != nil {
		return err
	}
	p.Add(labels)

	rows := make([]string, n)
	for i, l := range matrix.Labels {
		rows[n-1-i] = l
	}
	p.NominalX(matrix.Labels...)
	p.NominalY(rows...)

	if err := save(p, r.HeatMapSide, r.HeatMapSide, path); err != nil {
		return err
	}
	r.Logger.Debug("Rendered %dx%d heat map to %s", n, n, path)
	return nil
}

// correlationGrid maps a square matrix onto integer coordinates with row
// zero drawn at the top.
type correlationGrid struct {
	m [][]float64
}

func (g correlationGrid) Dims() (c, r int)   { return len(g.m), len(g.m) }
func (g correlationGrid) Z(c, r int) float64 { return g.m[len(g.m)-1-r][c] }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

func annotations(g correlationGrid) (*plotter.Labels, error) {
	c, r := g.Dims()
	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, c*r),
		Labels: make([]string, 0, c*r),
	}
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			xyl.XYs = append(xyl.XYs, plotter.XY{X: g.X(i), Y: g.Y(j)})
			xyl.Labels = append(xyl.Labels, strconv.FormatFloat(g.Z(i, j), 'f', 2, 64))
		}
	}

	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, fmt.Errorf("heat map labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	return labels, nil
}

// -----------------------------------------------------------------------------

// bluePalette runs from near white to dark blue.
type bluePalette []color.Color

func (p bluePalette) Colors() []color.Color { return p }

func blues(n int) bluePalette {
	from := [3]float64{247, 251, 255}
	to := [3]float64{8, 48, 107}
	out := make(bluePalette, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		out[i] = color.NRGBA{
			R: uint8(from[0] + (to[0]-from[0])*t),
			G: uint8(from[1] + (to[1]-from[1])*t),
			B: uint8(from[2] + (to[2]-from[2])*t),
			A: 255,
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
