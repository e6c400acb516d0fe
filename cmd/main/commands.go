package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"pair-analysis/src/grpc_control"
	"pair-analysis/src/helpers"
	"pair-analysis/src/server"

	"github.com/google/subcommands"
)

// -----------------------------------------------------------------------------
// preprocess
// -----------------------------------------------------------------------------

type preprocessCmd struct {
	configPath *string
}

func (*preprocessCmd) Name() string     { return "preprocess" }
func (*preprocessCmd) Synopsis() string { return "download candles and write the merged price table" }
func (*preprocessCmd) Usage() string {
	return "preprocess:\n  Validate pairs, refresh local history and write {datadir}/{stamp}_data_preprocessing.csv.\n"
}
func (*preprocessCmd) SetFlags(*flag.FlagSet) {}

func (c *preprocessCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setupApp(*c.configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	a.observePreprocessing()

	path, err := a.Preprocessing.Execute(ctx)
	if err != nil {
		a.Logger.Error("Preprocessing failed [%s]: %v", helpers.KindOf(err), err)
		return subcommands.ExitFailure
	}
	fmt.Println(path)
	return subcommands.ExitSuccess
}

// -----------------------------------------------------------------------------
// analyse
// -----------------------------------------------------------------------------

type analyseCmd struct {
	configPath *string
	table      string
}

func (*analyseCmd) Name() string     { return "analyse" }
func (*analyseCmd) Synopsis() string { return "preprocess, then plot prices and pair correlations" }
func (*analyseCmd) Usage() string {
	return "analyse [-table path]:\n  Run preprocessing and render the plot and heat map next to the table.\n  With -table, analyse an existing table instead.\n"
}

func (c *analyseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.table, "table", "", "analyse this table instead of running preprocessing")
}

func (c *analyseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setupApp(*c.configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	a.observeAnalysis()

	var runErr error
	if c.table != "" {
		_, runErr = a.Analysis.Analyse(c.table)
	} else {
		_, runErr = a.Analysis.Execute(ctx)
	}
	if runErr != nil {
		a.Logger.Error("Analysis failed [%s]: %v", helpers.KindOf(runErr), runErr)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

type serveCmd struct {
	configPath *string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve reports, trigger runs and stream run events" }
func (*serveCmd) Usage() string {
	return "serve:\n  Start the report server (REST + websocket) and the gRPC health service.\n"
}
func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setupApp(*c.configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	cfg := a.Config.Snapshot()
	srv := server.NewReportServer(&cfg, a.Analysis, a.Logger.Named("ReportServer"))
	healthSvc := grpc_control.NewHealthService(a.Logger.Named("HealthService"))

	a.observeAnalysis(srv, healthSvc)

	if _, err := healthSvc.Listen(cfg.GrpcHost, grpcPort(cfg.GrpcPort)); err != nil {
		a.Logger.Error("%v", err)
		return subcommands.ExitFailure
	}

	errs := make(chan error, 2)
	go func() { errs <- srv.Start() }()
	go func() { errs <- healthSvc.Serve() }()

	status := subcommands.ExitSuccess
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutting down...")
	case err := <-errs:
		if err != nil {
			a.Logger.Error("Server failed: %v", err)
			status = subcommands.ExitFailure
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		a.Logger.Warning("Report server shutdown: %v", err)
	}
	healthSvc.Stop()
	return status
}

func grpcPort(port int) int {
	if port == 0 {
		return 50051
	}
	return port
}
