package analysis

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePreprocessor struct {
	path     string
	err      error
	runID    string
	observer interfaces.IRunObserver
}

func (f *fakePreprocessor) Execute(ctx context.Context) (string, error) {
	f.emit(models.StateValidating)
	if f.err != nil {
		f.emit(models.StateFailed)
		return "", f.err
	}
	f.emit(models.StateDone)
	return f.path, nil
}

func (f *fakePreprocessor) emit(state models.RunState) {
	if f.observer != nil {
		f.observer.OnRunEvent(models.MRunEvent{RunID: f.runID, State: state})
	}
}

func (f *fakePreprocessor) SetRunID(id string)                      { f.runID = id }
func (f *fakePreprocessor) SetObserver(obs interfaces.IRunObserver) { f.observer = obs }

type fakeRenderer struct {
	plotPath    string
	heatMapPath string
	columns     []string
	plotted     [][]float64
	matrix      models.MCorrelationMatrix
	err         error
}

func (f *fakeRenderer) RenderPlot(dates []int64, columns []string, values [][]float64, path string) error {
	f.plotPath, f.columns, f.plotted = path, columns, values
	return f.err
}

func (f *fakeRenderer) RenderHeatMap(matrix models.MCorrelationMatrix, path string) error {
	f.heatMapPath, f.matrix = path, matrix
	return nil
}

type recorder struct {
	states []models.RunState
}

func (r *recorder) OnRunEvent(e models.MRunEvent) { r.states = append(r.states, e.State) }

const sampleTable = "date,ETH,BTC,XRP\n" +
	"2021-01-01T00:00:00Z,100,1000,\n" +
	"2021-01-02T00:00:00Z,150,1000,2\n" +
	"2021-01-03T00:00:00Z,300,1500,3\n"

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1700000000000000000_data_preprocessing.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newFacade(path string, renderer *fakeRenderer) *AnalysisFacade {
	cfg := models.MConfig{}
	cfg.Analysis.ReferenceCurrency = "btc"
	cfg.Analysis.TopN = 2
	return NewAnalysisFacade(cfg, &fakePreprocessor{path: path}, renderer, logger.NewLogger(nil, "AnalysisTest"))
}

// -----------------------------------------------------------------------------

func TestExecuteProducesReport(t *testing.T) {
	path := writeTable(t, sampleTable)
	renderer := &fakeRenderer{}
	a := newFacade(path, renderer)
	rec := &recorder{}
	a.Observer = rec
	a.SetRunID("run-1")

	report, err := a.Execute(context.Background())
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "1700000000000000000_plot.png"), report.PlotPath)
	assert.Equal(t, filepath.Join(dir, "1700000000000000000_heat_map.png"), report.HeatMapPath)
	assert.Equal(t, report.PlotPath, renderer.plotPath)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "run-1", a.Preprocessing.(*fakePreprocessor).runID)

	// ETH/BTC: 0.1, 0.15, 0.2 -> 1, 1.5, 2
	assert.Equal(t, []string{"ETH", "BTC", "XRP"}, renderer.columns)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2}, renderer.plotted[0], 1e-12)
	assert.Equal(t, []float64{1, 1, 1}, renderer.plotted[1])
	assert.True(t, math.IsNaN(renderer.plotted[2][0]))
	assert.InDelta(t, 1.0, renderer.plotted[2][2], 1e-12)

	require.Len(t, report.TopTokens, 2)
	assert.Equal(t, "ETH", report.TopTokens[0].Token)
	assert.InDelta(t, 2.0, report.TopTokens[0].BtcPrice, 1e-12)

	assert.Equal(t, []string{"ETH", "BTC", "XRP"}, report.Correlation.Labels)
	assert.Equal(t, 1.0, report.Correlation.Values[0][0])
	// BTC/BTC is constant
	assert.Equal(t, 0.0, report.Correlation.Values[0][1])

	assert.Equal(t, []models.RunState{models.StateAnalysing, models.StateDone}, rec.states)
}

func TestExecutePublishesOneTerminalState(t *testing.T) {
	path := writeTable(t, sampleTable)
	a := newFacade(path, &fakeRenderer{})
	rec := &recorder{}
	a.SetObserver(rec)

	_, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.RunState{models.StateValidating, models.StateAnalysing, models.StateDone}, rec.states)
}

func TestExecutePreprocessingFailureIsTerminal(t *testing.T) {
	a := newFacade("", &fakeRenderer{})
	a.Preprocessing.(*fakePreprocessor).err = helpers.NewNoUsablePairsError("none")
	rec := &recorder{}
	a.SetObserver(rec)

	_, err := a.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []models.RunState{models.StateValidating, models.StateFailed}, rec.states)
}

func TestExecuteStopsOnPreprocessingError(t *testing.T) {
	renderer := &fakeRenderer{}
	a := newFacade("", renderer)
	a.Preprocessing.(*fakePreprocessor).err = helpers.NewNoUsablePairsError("none")

	_, err := a.Execute(context.Background())
	assert.ErrorIs(t, err, helpers.ErrNoUsablePairs)
	assert.Empty(t, renderer.plotPath)
}

func TestAnalyseMissingFile(t *testing.T) {
	a := newFacade("", &fakeRenderer{})
	_, err := a.Analyse(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, helpers.ErrDataUnavailable)

	_, err = a.Analyse(t.TempDir())
	assert.ErrorIs(t, err, helpers.ErrDataUnavailable)
}

func TestAnalyseMissingReferenceColumn(t *testing.T) {
	path := writeTable(t, "date,ETH\n2021-01-01T00:00:00Z,1\n")
	rec := &recorder{}
	a := newFacade(path, &fakeRenderer{})
	a.Observer = rec

	_, err := a.Analyse(path)
	assert.ErrorIs(t, err, helpers.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "BTC")
	assert.Equal(t, []models.RunState{models.StateAnalysing, models.StateFailed}, rec.states)
}

func TestAnalyseWithoutReference(t *testing.T) {
	path := writeTable(t, "date,ETH\n2021-01-01T00:00:00Z,2\n2021-01-02T00:00:00Z,3\n")
	renderer := &fakeRenderer{}
	a := newFacade(path, renderer)
	a.ReferenceCurrency = ""

	report, err := a.Analyse(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5}, renderer.plotted[0])
	assert.Equal(t, "ETH", report.TopTokens[0].Token)
}

func TestAnalyseRenderFailure(t *testing.T) {
	path := writeTable(t, sampleTable)
	a := newFacade(path, &fakeRenderer{err: os.ErrPermission})

	_, err := a.Analyse(path)
	assert.ErrorIs(t, err, helpers.ErrIOFailure)
}

func TestTextTable(t *testing.T) {
	out := TextTable([]models.MTokenScore{{Token: "ETH", BtcPrice: 2}, {Token: "XRP", BtcPrice: 0.123456789}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "token")
	assert.Contains(t, lines[0], "btc_price")
	assert.Contains(t, lines[2], "2.00000000")
	assert.Contains(t, lines[3], "0.12345679")
}
