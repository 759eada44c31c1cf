package main

import (
	"context"
	"fmt"
	"os"

	"geotab/internal/bodies"
	"geotab/internal/cli"
	"geotab/internal/columns"
	"geotab/internal/config"
	"geotab/internal/logging"
	"geotab/internal/pipeline"
	"geotab/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.Setup(cfg)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.Paths.DatabasePath)
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer store.Close()

	catalog, err := columns.Load(cfg.Paths.RulesFile)
	if err != nil {
		return err
	}
	primaries, err := bodies.NewTable(bodies.GalileoEras, bodies.GalileoBases)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe := pipeline.New(ctx, cfg.Processing.ParallelJobs, log, store, pipeline.Settings{
		ObservationWorkers: cfg.Processing.ObservationWorkers,
		Sampling:           cfg.Processing.Sampling,
		TilingMin:          cfg.Processing.TilingMin,
		Catalog:            catalog,
		Primaries:          primaries,
	})
	defer pipe.Stop()

	return cli.NewRootCmd(cfg, log, store, pipe, catalog, primaries).Execute()
}
