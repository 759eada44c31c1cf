package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/columns"
	"geotab/internal/config"
	"geotab/internal/fsutil"
	"geotab/internal/pipeline"
	"geotab/internal/server"
	"geotab/internal/storage"
)

// maxInFlight bounds the jobs a command waits on at once so that no result
// overflows the subscription buffer.
const maxInFlight = 8

type pipelineClient interface {
	Submit(job pipeline.Job) error
	Subscribe() (<-chan pipeline.Result, func())
}

type sourceOpener func(path string, sampling int) (backplane.Source, error)

type serverFunc func(ctx context.Context, addr string, store *storage.Store, pipe pipelineClient, log *slog.Logger) error

func defaultServe(ctx context.Context, addr string, store *storage.Store, pipe pipelineClient, log *slog.Logger) error {
	return server.Serve(ctx, addr, store, pipe, log)
}

func defaultOpen(path string, sampling int) (backplane.Source, error) {
	return backplane.OpenArchive(path, sampling)
}

// Root wires CLI commands to the pipeline.
type Root struct {
	pipeline  pipelineClient
	cfg       *config.Config
	log       *slog.Logger
	store     *storage.Store
	catalog   *columns.Catalog
	primaries *bodies.Table
	openFn    sourceOpener
	serveFn   serverFunc
}

// NewRoot constructs the CLI root.
func NewRoot(pl pipelineClient, cfg *config.Config, logger *slog.Logger, store *storage.Store, catalog *columns.Catalog, primaries *bodies.Table) *Root {
	if catalog == nil {
		catalog = columns.Build()
	}
	return &Root{
		pipeline:  pl,
		cfg:       cfg,
		log:       logger,
		store:     store,
		catalog:   catalog,
		primaries: primaries,
		openFn:    defaultOpen,
		serveFn:   defaultServe,
	}
}

// volumePlan selects the volumes a tabulate run covers.
type volumePlan struct {
	input      string
	output     string // "" writes tables beside each archive
	collection string
	exclude    []string
	newOnly    bool
}

// target pairs a volume with the directory its tables go to.
type target struct {
	vol    fsutil.Volume
	outDir string
}

func (p volumePlan) outDir(vol fsutil.Volume) string {
	if p.output == "" {
		return vol.Dir
	}
	rel, err := filepath.Rel(p.input, vol.Dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = vol.ID
	}
	return filepath.Join(p.output, rel)
}

// volumes lists the targets of a plan. Explicit directories bypass the
// collection glob but not --new-only.
func (r *Root) volumes(p volumePlan, dirs []string) ([]target, error) {
	var vols []fsutil.Volume
	if len(dirs) > 0 {
		for _, d := range dirs {
			d = filepath.Clean(d)
			vols = append(vols, fsutil.Volume{ID: filepath.Base(d), Dir: d})
		}
	} else {
		collection := p.collection
		if collection == "" {
			collection = filepath.Base(filepath.Clean(p.input))
		}
		glob, err := fsutil.VolumeGlob(collection)
		if err != nil {
			return nil, err
		}
		if vols, err = fsutil.ListVolumes(p.input, glob, p.exclude); err != nil {
			return nil, err
		}
	}

	var out []target
	for _, v := range vols {
		t := target{vol: v, outDir: p.outDir(v)}
		if p.newOnly && fsutil.HasMatch(t.outDir, "*_inventory.csv") {
			r.log.Info("volume already tabulated", "volume", v.ID)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func tabulateJob(t target, selection string, first int) pipeline.Job {
	return pipeline.Job{
		ID:        newRunID(),
		Type:      pipeline.JobTabulate,
		InputPath: t.vol.Dir,
		Output:    t.outDir,
		Options: map[string]any{
			"volume":    t.vol.ID,
			"selection": selection,
			"first":     first,
		},
	}
}

func newRunID() string { return uuid.NewString() }

func (r *Root) enqueueAndWait(ctx context.Context, job pipeline.Job) error {
	return r.runJobs(ctx, []pipeline.Job{job})
}

// runJobs submits jobs, keeping at most maxInFlight outstanding, and waits
// for all of them. It fails if any job failed.
func (r *Root) runJobs(ctx context.Context, jobs []pipeline.Job) error {
	resCh, unsubscribe := r.pipeline.Subscribe()
	defer unsubscribe()

	pending := make(map[string]bool)
	var failed []string
	next := 0
	for next < len(jobs) || len(pending) > 0 {
		for next < len(jobs) && len(pending) < maxInFlight {
			err := r.enqueue(ctx, jobs[next])
			if errors.Is(err, pipeline.ErrQueueFull) && len(pending) > 0 {
				break
			}
			if err != nil {
				return err
			}
			pending[jobs[next].ID] = true
			next++
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-resCh:
			if !ok {
				return fmt.Errorf("pipeline stopped before completion")
			}
			if !pending[res.Job.ID] {
				continue
			}
			delete(pending, res.Job.ID)
			if res.Error != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", res.Job.InputPath, res.Error))
			}
		}
	}

	switch len(failed) {
	case 0:
		return nil
	case 1:
		return errors.New(failed[0])
	default:
		return fmt.Errorf("%d of %d jobs failed:\n  %s", len(failed), len(jobs), strings.Join(failed, "\n  "))
	}
}

func (r *Root) enqueue(ctx context.Context, job pipeline.Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := r.pipeline.Submit(job); err != nil {
		return err
	}

	r.log.Info("job queued", "type", job.Type, "id", job.ID, "input", job.InputPath)
	return nil
}
