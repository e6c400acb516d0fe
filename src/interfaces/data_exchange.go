package interfaces

import (
	"context"

	"pair-analysis/src/models"
)

// -----------------------------------------------------------------------------
// IRunObserver receives pipeline state transitions.
// -----------------------------------------------------------------------------

type IRunObserver interface {
	OnRunEvent(event models.MRunEvent)
}

// -----------------------------------------------------------------------------
// IRenderer draws analysis charts to image files.
// -----------------------------------------------------------------------------

type IRenderer interface {

	// RenderPlot draws one line per column against time.
	RenderPlot(dates []int64, columns []string, values [][]float64, path string) error

	// -----------------------------------------------------------------------------

	// RenderHeatMap draws an annotated correlation matrix.
	RenderHeatMap(matrix models.MCorrelationMatrix, path string) error
}

// -----------------------------------------------------------------------------
// IPreprocessor produces the merged price table for a run.
// -----------------------------------------------------------------------------

type IPreprocessor interface {
	Execute(ctx context.Context) (string, error)
	SetRunID(id string)
	SetObserver(obs IRunObserver)
}

// -----------------------------------------------------------------------------
// IAnalysisRunner runs one complete analysis.
// -----------------------------------------------------------------------------

type IAnalysisRunner interface {
	Execute(ctx context.Context) (*models.MAnalysisReport, error)
	SetRunID(id string)
}
