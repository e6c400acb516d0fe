package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"pair-analysis/src/analysis/core"
	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/preprocessing"
	"pair-analysis/src/table"
	"pair-analysis/src/utils"
)

type AnalysisFacade struct {
	ReferenceCurrency string
	TopN              int

	Preprocessing interfaces.IPreprocessor
	Renderer      interfaces.IRenderer
	Observer      interfaces.IRunObserver
	Logger        *logger.Logger

	runID string
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg models.MConfig, pre interfaces.IPreprocessor, renderer interfaces.IRenderer, log *logger.Logger) *AnalysisFacade {
	topN := cfg.Analysis.TopN
	if topN == 0 {
		topN = utils.DefaultTopN
	}
	return &AnalysisFacade{
		ReferenceCurrency: strings.ToUpper(cfg.Analysis.ReferenceCurrency),
		TopN:              topN,
		Preprocessing:     pre,
		Renderer:          renderer,
		Logger:            log,
		now:               time.Now,
	}
}

// -----------------------------------------------------------------------------

// SetRunID tags events of this facade and its preprocessing with id.
func (a *AnalysisFacade) SetRunID(id string) {
	a.runID = id
	a.Preprocessing.SetRunID(id)
}

// SetObserver sets the receiver of run events for the whole run. The
// preprocessing DONE is held back so that observers see a single terminal
// state, published after analysis.
func (a *AnalysisFacade) SetObserver(obs interfaces.IRunObserver) {
	a.Observer = obs
	a.Preprocessing.SetObserver(stageObserver{next: obs})
}

// stageObserver forwards preprocessing events except its DONE.
type stageObserver struct {
	next interfaces.IRunObserver
}

func (s stageObserver) OnRunEvent(event models.MRunEvent) {
	if s.next == nil || event.State == models.StateDone {
		return
	}
	s.next.OnRunEvent(event)
}

func (a *AnalysisFacade) publish(state models.RunState, message, artifact string) {
	if a.Observer == nil {
		return
	}
	a.Observer.OnRunEvent(models.MRunEvent{
		RunID:     a.runID,
		State:     state,
		Message:   message,
		Artifact:  artifact,
		Timestamp: a.now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// Execute runs preprocessing and analyses the table it wrote.
func (a *AnalysisFacade) Execute(ctx context.Context) (*models.MAnalysisReport, error) {
	path, err := a.Preprocessing.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return a.Analyse(path)
}

// -----------------------------------------------------------------------------

// Analyse reads a persisted table, renders its plot and heatmap next to it
// and returns the report.
func (a *AnalysisFacade) Analyse(tablePath string) (*models.MAnalysisReport, error) {
	a.publish(models.StateAnalysing, "", tablePath)

	report, err := a.analyse(tablePath)
	if err != nil {
		a.Logger.Error("Analysis failed: %v", err)
		a.publish(models.StateFailed, err.Error(), "")
		return nil, err
	}

	a.publish(models.StateDone, "analysis finished", report.HeatMapPath)
	return report, nil
}

func (a *AnalysisFacade) analyse(tablePath string) (*models.MAnalysisReport, error) {
	if err := checkFile(tablePath); err != nil {
		return nil, err
	}

	tbl, err := table.ReadCSVFile(tablePath)
	if err != nil {
		return nil, helpers.NewDataUnavailableError(fmt.Sprintf("failed to read %s", tablePath), err)
	}
	if tbl.Rows() == 0 {
		return nil, helpers.NewDataUnavailableError(fmt.Sprintf("table %s has no rows", tablePath), nil)
	}

	relative, err := a.relativePrices(tbl)
	if err != nil {
		return nil, err
	}

	normalized := make([][]float64, len(relative))
	for i, col := range relative {
		normalized[i] = core.Normalize(col)
	}

	plotPath, heatMapPath := artifactPaths(tablePath, a.now())

	if err := a.Renderer.RenderPlot(tbl.Dates, tbl.Columns, normalized, plotPath); err != nil {
		return nil, helpers.NewIOError("failed to render plot", err)
	}
	a.Logger.Info("save plot file path: %s", plotPath)

	matrix := models.MCorrelationMatrix{
		Labels: append([]string(nil), tbl.Columns...),
		Values: core.CorrelationMatrix(relative),
	}
	if err := a.Renderer.RenderHeatMap(matrix, heatMapPath); err != nil {
		return nil, helpers.NewIOError("failed to render heat map", err)
	}
	a.Logger.Info("save heat map file path: %s", heatMapPath)

	top := a.topTokens(tbl.Columns, normalized)
	a.Logger.Info("Top %d tokens:\n%s", len(top), TextTable(top))

	return &models.MAnalysisReport{
		RunID:       a.runID,
		TablePath:   tablePath,
		PlotPath:    plotPath,
		HeatMapPath: heatMapPath,
		TopTokens:   top,
		Correlation: matrix,
		FinishedAt:  a.now().UnixMilli(),
	}, nil
}

// -----------------------------------------------------------------------------

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return helpers.NewDataUnavailableError(fmt.Sprintf("data pre-processing file err, please check file. path: %s", path), err)
	}
	return nil
}

// relativePrices divides every column by the reference column. Without a
// reference currency the prices are returned unchanged.
func (a *AnalysisFacade) relativePrices(tbl *table.Table) ([][]float64, error) {
	if a.ReferenceCurrency == "" {
		return tbl.Values, nil
	}

	ref, ok := tbl.Column(a.ReferenceCurrency)
	if !ok {
		return nil, helpers.NewDataUnavailableError(
			fmt.Sprintf("reference column %s missing from table, columns are %v", a.ReferenceCurrency, tbl.Columns), nil)
	}

	out := make([][]float64, len(tbl.Values))
	for i, col := range tbl.Values {
		out[i] = core.Ratio(col, ref)
	}
	return out, nil
}

// topTokens ranks columns by their value on the last row.
func (a *AnalysisFacade) topTokens(columns []string, normalized [][]float64) []models.MTokenScore {
	items := make([]core.Ranked, len(columns))
	for i, name := range columns {
		col := normalized[i]
		items[i] = core.Ranked{Label: name, Value: col[len(col)-1]}
	}

	ranked := core.TopN(items, a.TopN)
	out := make([]models.MTokenScore, len(ranked))
	for i, r := range ranked {
		out[i] = models.MTokenScore{Token: r.Label, BtcPrice: r.Value}
	}
	return out
}

// -----------------------------------------------------------------------------

// artifactPaths places the images next to the table, sharing its stamp.
func artifactPaths(tablePath string, now time.Time) (string, string) {
	dir := filepath.Dir(tablePath)
	stamp := preprocessing.ArtifactStamp(tablePath)
	if stamp == "" {
		stamp = fmt.Sprintf("%d", now.UnixNano())
	}
	return filepath.Join(dir, stamp+utils.PlotFileSuffix), filepath.Join(dir, stamp+utils.HeatMapFileSuffix)
}

// -----------------------------------------------------------------------------

// TextTable formats scores as a right aligned two column table.
func TextTable(scores []models.MTokenScore) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "\ttoken\tbtc_price\t")
	fmt.Fprintln(w, "\t-----\t---------\t")
	for _, s := range scores {
		fmt.Fprintf(w, "\t%s\t%.8f\t\n", s.Token, s.BtcPrice)
	}
	w.Flush()
	return sb.String()
}
