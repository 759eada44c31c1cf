package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"geotab/internal/backplane"
	"geotab/internal/columns"
	"geotab/internal/fsutil"
	"geotab/internal/storage"
	"geotab/internal/suite"
)

// router implements Processor and routes jobs to their concrete handlers.
type router struct {
	log      *slog.Logger
	store    *storage.Store
	settings Settings
	openFn   sourceOpener
}

type sourceOpener func(path string, sampling int) (backplane.Source, error)

func openArchive(path string, sampling int) (backplane.Source, error) {
	return backplane.OpenArchive(path, sampling)
}

func newRouter(logger *slog.Logger, store *storage.Store, settings Settings) Processor {
	if settings.Catalog == nil {
		settings.Catalog = columns.Build()
	}
	return &router{
		log:      logger,
		store:    store,
		settings: settings,
		openFn:   openArchive,
	}
}

func (r *router) Process(ctx context.Context, job Job) Result {
	switch job.Type {
	case JobTabulate:
		return r.handleTabulate(ctx, job)
	case JobCumulative:
		return r.handleCumulative(ctx, job)
	default:
		return Result{Job: job, Error: fmt.Errorf("unknown job type: %s", job.Type)}
	}
}

// handleTabulate writes the tables of the volume at job.InputPath into
// job.Output. Options: volume (defaults to the directory name), selection,
// first.
func (r *router) handleTabulate(ctx context.Context, job Job) Result {
	vol := fsutil.Volume{
		ID:  getStringOption(job.Options, "volume", filepath.Base(job.InputPath)),
		Dir: job.InputPath,
	}
	levels, err := columns.ParseLevels(getStringOption(job.Options, "selection", "SD"))
	if err != nil {
		return Result{Job: job, Error: err}
	}
	output := job.Output
	if output == "" {
		output = job.InputPath
	}

	src, err := r.openFn(suite.ArchivePath(vol), r.settings.Sampling)
	if err != nil {
		return Result{Job: job, Error: err, Meta: map[string]any{"volume": vol.ID}}
	}
	defer src.Close()

	res, err := suite.New(vol, output, src, suite.Options{
		Levels:    levels,
		Workers:   r.settings.ObservationWorkers,
		First:     getIntOption(job.Options, "first"),
		TilingMin: r.settings.TilingMin,
		Catalog:   r.settings.Catalog,
		Primaries: r.settings.Primaries,
		RunID:     job.ID,
		Store:     r.store,
		Logger:    r.log,
	}).Run(ctx)
	return Result{Job: job, Error: err, Meta: res.Meta()}
}

// handleCumulative concatenates the tables of every volume under
// job.InputPath. Options: collection (required), selection.
func (r *router) handleCumulative(ctx context.Context, job Job) Result {
	collection := getStringOption(job.Options, "collection", "")
	if collection == "" {
		return Result{Job: job, Error: fmt.Errorf("cumulative job %s: collection is required", job.ID)}
	}
	levels, err := columns.ParseLevels(getStringOption(job.Options, "selection", "SD"))
	if err != nil {
		return Result{Job: job, Error: err}
	}
	output := job.Output
	if output == "" {
		output = job.InputPath
	}
	res, err := suite.Cumulative(ctx, job.InputPath, output, collection, levels, r.log)
	return Result{Job: job, Error: err, Meta: res.Meta()}
}

// Helper functions to safely extract typed options from job.Options map
func getStringOption(options map[string]any, key, defaultValue string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

func getIntOption(options map[string]any, key string) int {
	switch val := options[key].(type) {
	case int:
		return val
	case float64:
		return int(val)
	}
	return 0
}
