package preprocessing

import (
	"context"
	"time"

	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/utils"
)

// -----------------------------------------------------------------------------

// DataPreprocessing runs validate, ensure, build and persist in that order
// and returns the path of the written table.
type DataPreprocessing struct {
	Config    models.MConfig
	Timerange models.TimeRange

	Validator *Validator
	Ensurer   *AvailabilityEnsurer
	Builder   *TableBuilder
	Persister *Persister

	Observer interfaces.IRunObserver
	Logger   *logger.Logger

	runID string
	state models.RunState
	now   func() time.Time
}

// -----------------------------------------------------------------------------

// NewDataPreprocessing wires the pipeline stages. cfg is copied.
func NewDataPreprocessing(cfg models.MConfig, exchange interfaces.IExchange, history interfaces.IHistoryProvider, log *logger.Logger) (*DataPreprocessing, error) {
	tr, err := utils.ParseTimeRange(cfg.Timerange)
	if err != nil {
		return nil, helpers.NewInvalidParameterError("timerange", cfg.Timerange, err)
	}

	cfg.Pairs = append([]string(nil), cfg.Pairs...)
	if cfg.StakeCurrency == "" {
		cfg.StakeCurrency = utils.DefaultStakeCurrency
	}

	return &DataPreprocessing{
		Config:    cfg,
		Timerange: tr,
		Validator: NewValidator(exchange, log.Named("Validator")),
		Ensurer:   NewAvailabilityEnsurer(exchange, history, log.Named("AvailabilityEnsurer")),
		Builder:   NewTableBuilder(history, cfg.JoinMode, log.Named("TableBuilder")),
		Persister: NewPersister(cfg.DataDir, log.Named("Persister")),
		Logger:    log,
		state:     models.StateIdle,
		now:       time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

// SetRunID tags published events with id.
func (d *DataPreprocessing) SetRunID(id string) {
	d.runID = id
}

// SetObserver replaces the receiver of state transitions.
func (d *DataPreprocessing) SetObserver(obs interfaces.IRunObserver) {
	d.Observer = obs
}

// State returns the stage reached by the last Execute.
func (d *DataPreprocessing) State() models.RunState {
	return d.state
}

func (d *DataPreprocessing) transition(state models.RunState, message, artifact string) {
	d.state = state
	d.Logger.Debug("Preprocessing state: %s", state)
	if d.Observer != nil {
		d.Observer.OnRunEvent(models.MRunEvent{
			RunID:     d.runID,
			State:     state,
			Message:   message,
			Artifact:  artifact,
			Timestamp: d.now().UnixMilli(),
		})
	}
}

func (d *DataPreprocessing) fail(err error) (string, error) {
	d.Logger.Error("Data pre-processing failed: %v", err)
	d.transition(models.StateFailed, err.Error(), "")
	return "", err
}

// -----------------------------------------------------------------------------

// Execute runs one full pass. The first failing stage aborts the run and its
// error is returned as is.
func (d *DataPreprocessing) Execute(ctx context.Context) (string, error) {
	d.transition(models.StateValidating, "", "")
	pairs, err := d.Validator.Validate(ctx, ValidatorInput{
		Pairs:         d.Config.Pairs,
		Timeframe:     d.Config.Timeframe,
		StakeCurrency: d.Config.StakeCurrency,
	})
	if err != nil {
		return d.fail(err)
	}

	d.transition(models.StateEnsuringData, "", "")
	newPairsDays := utils.NewPairsDays(d.Timerange, d.now())
	unavailable, err := d.Ensurer.Ensure(ctx, pairs, d.Config.Timeframe, d.Timerange, newPairsDays)
	if err != nil {
		return d.fail(err)
	}
	pairs = Without(pairs, unavailable)

	d.transition(models.StateBuilding, "", "")
	tbl, err := d.Builder.Build(ctx, pairs, d.Config.Timeframe, d.Timerange)
	if err != nil {
		return d.fail(err)
	}

	d.transition(models.StatePersisting, "", "")
	path, err := d.Persister.Persist(tbl)
	if err != nil {
		return d.fail(err)
	}

	d.transition(models.StateDone, "data pre-processing finished", path)
	d.Logger.Info("data pre-processing finished")
	return path, nil
}
