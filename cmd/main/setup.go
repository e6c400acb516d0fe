package main

import (
	"fmt"

	"pair-analysis/src/analysis"
	"pair-analysis/src/config"
	"pair-analysis/src/events"
	"pair-analysis/src/exchange"
	"pair-analysis/src/helpers"
	"pair-analysis/src/history"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"
	"pair-analysis/src/network"
	"pair-analysis/src/preprocessing"
	"pair-analysis/src/render"
	"pair-analysis/src/storage"
)

// app holds the wired components shared by every command.
type app struct {
	Config        *config.Config
	Logger        *logger.Logger
	Store         interfaces.ICandleStore
	Preprocessing *preprocessing.DataPreprocessing
	Analysis      *analysis.AnalysisFacade
	Events        *events.KafkaPublisher
}

// -----------------------------------------------------------------------------

// setupApp loads the configuration and wires store, exchange and pipeline.
func setupApp(configPath string) (*app, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}
	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)
	snapshot := cfg.Snapshot()

	store, err := setupStore(snapshot, appLogger)
	if err != nil {
		appLogger.Close()
		return nil, err
	}

	ex, err := setupExchange(snapshot, appLogger)
	if err != nil {
		store.Close()
		appLogger.Close()
		return nil, err
	}

	hist := history.NewHistory(store, appLogger.Named("History"))
	pre, err := preprocessing.NewDataPreprocessing(snapshot, ex, hist, appLogger.Named("DataPreprocessing"))
	if err != nil {
		store.Close()
		appLogger.Close()
		return nil, err
	}

	renderer := render.NewPNGRenderer(appLogger.Named("Renderer"))
	facade := analysis.NewAnalysisFacade(snapshot, pre, renderer, appLogger.Named("Analysis"))

	a := &app{
		Config:        cfg,
		Logger:        appLogger,
		Store:         store,
		Preprocessing: pre,
		Analysis:      facade,
		Events:        events.NewKafkaPublisher(snapshot.Events, appLogger.Named("RunEvents")),
	}
	return a, nil
}

// observers adds the Kafka publisher, when configured, to extra.
func (a *app) observers(extra ...interfaces.IRunObserver) helpers.RunObservers {
	observers := helpers.RunObservers(extra)
	if a.Events != nil {
		observers = append(observers, a.Events)
	}
	return observers
}

// observePreprocessing is for runs that stop after the table.
func (a *app) observePreprocessing(extra ...interfaces.IRunObserver) {
	a.Preprocessing.SetObserver(a.observers(extra...))
}

// observeAnalysis is for runs driven by the analysis facade.
func (a *app) observeAnalysis(extra ...interfaces.IRunObserver) {
	a.Analysis.SetObserver(a.observers(extra...))
}

// -----------------------------------------------------------------------------

// setupStore opens the candle store named by dataformat_ohlcv
func setupStore(cfg models.MConfig, appLogger *logger.Logger) (interfaces.ICandleStore, error) {
	store, err := storage.NewCandleStore(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to init candle store: %w", err)
	}
	appLogger.Info("Using %s candle store", cfg.DataFormatOHLCV)
	return store, nil
}

// -----------------------------------------------------------------------------

// setupExchange builds the network manager and the configured exchange
func setupExchange(cfg models.MConfig, appLogger *logger.Logger) (interfaces.IExchange, error) {
	netMgr := network.NewAsyncNetworkManager(cfg, appLogger.Named("NetworkManager"))
	ex, err := exchange.LoadExchange(cfg, netMgr, appLogger.Named("Exchange"))
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange: %w", err)
	}
	return ex, nil
}

// -----------------------------------------------------------------------------

func (a *app) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Logger.Warning("Failed to flush run events: %v", err)
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warning("Failed to close candle store: %v", err)
	}
	a.Logger.Close()
}
