// Package suite writes the geometry tables of a volume.
package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/columns"
	"geotab/internal/format"
	"geotab/internal/fsutil"
	"geotab/internal/logging"
	"geotab/internal/record"
	"geotab/internal/storage"
	"geotab/internal/tiles"
)

// ErrPanic wraps a panic recovered while processing one observation.
var ErrPanic = errors.New("observation panicked")

// ArchiveSuffix names a volume's backplane archive: <volume>_backplanes.db.
const ArchiveSuffix = "_backplanes.db"

// ArchivePath is the backplane archive of vol.
func ArchivePath(vol fsutil.Volume) string {
	return filepath.Join(vol.Dir, vol.ID+ArchiveSuffix)
}

// IsConfigDefect reports whether err comes from a bad column, format or
// tile declaration. Such errors abort the run instead of skipping one
// observation.
func IsConfigDefect(err error) bool {
	return errors.Is(err, format.ErrColumnOverflow) ||
		errors.Is(err, format.ErrUnknownFormat) ||
		errors.Is(err, tiles.ErrMalformedRule)
}

// Options configure a volume run.
type Options struct {
	Levels    []columns.Level
	Workers   int
	First     int // at most this many observations; 0 = all
	TilingMin int
	Catalog   *columns.Catalog
	Primaries *bodies.Table
	RunID     string
	Store     *storage.Store
	Logger    *slog.Logger
}

// Result summarizes a volume run.
type Result struct {
	VolumeID     string
	Observations int
	Succeeded    int
	Failed       int
	Files        []string
	Unused       map[string][]int // table file -> column positions
}

// Meta flattens r for job results.
func (r Result) Meta() map[string]any {
	return map[string]any{
		"volume":       r.VolumeID,
		"observations": r.Observations,
		"succeeded":    r.Succeeded,
		"failed":       r.Failed,
		"files":        r.Files,
	}
}

// Suite generates every table of one volume.
type Suite struct {
	vol    fsutil.Volume
	outDir string
	src    backplane.Source
	opts   Options
	log    *slog.Logger
	tables []record.Table
}

// New prepares a run over the observations of src. Tables are written to
// outDir.
func New(vol fsutil.Volume, outDir string, src backplane.Source, opts Options) *Suite {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Catalog == nil {
		opts.Catalog = columns.Build()
	}
	if len(opts.Levels) == 0 {
		opts.Levels = []columns.Level{columns.Summary, columns.Detailed}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tables := []record.Table{record.InventoryTable{}}
	for _, l := range opts.Levels {
		tables = append(tables, record.Tables(l, opts.TilingMin)...)
	}
	return &Suite{
		vol:    vol,
		outDir: outDir,
		src:    src,
		opts:   opts,
		log:    logger.With("volume", vol.ID),
		tables: tables,
	}
}

// outcome holds one observation's rows, indexed like Suite.tables.
type outcome struct {
	rows [][]record.Row
	err  error
}

// Run processes every observation and writes the tables. A configuration
// defect aborts the run; any other failure skips the observation.
func (s *Suite) Run(ctx context.Context) (Result, error) {
	res := Result{VolumeID: s.vol.ID, Unused: map[string][]int{}}

	obs, err := s.src.Observations(ctx)
	if err != nil {
		return res, fmt.Errorf("list observations of %s: %w", s.vol.ID, err)
	}
	if s.opts.First > 0 && len(obs) > s.opts.First {
		obs = obs[:s.opts.First]
	}
	res.Observations = len(obs)
	s.log.Info("new geometry tables", "observations", len(obs), "levels", s.opts.Levels)

	outcomes := make([]outcome, len(obs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range obs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logging.LogObservationProgress(s.log, s.vol.ID, obs[i].String(), i+1, len(obs))
			rows, err := s.observe(gctx, obs[i])
			if err != nil && IsConfigDefect(err) {
				return fmt.Errorf("%s: %w", obs[i], err)
			}
			outcomes[i] = outcome{rows: rows, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	accs := make([]*record.Accumulator, len(s.tables))
	for i, t := range s.tables {
		accs[i] = record.NewAccumulator(t)
	}
	for i, o := range outcomes {
		if o.err != nil {
			res.Failed++
			s.skipped(obs[i], o.err)
			continue
		}
		res.Succeeded++
		for j, rows := range o.rows {
			accs[j].Append(rows)
		}
	}

	for _, acc := range accs {
		if len(acc.Lines()) == 0 {
			continue
		}
		name := record.FileName(acc.Table, s.vol.ID)
		if err := fsutil.WriteLines(filepath.Join(s.outDir, name), acc.Lines()); err != nil {
			return res, fmt.Errorf("write %s: %w", name, err)
		}
		res.Files = append(res.Files, name)
		if unused := acc.Unused(); len(unused) > 0 {
			res.Unused[name] = unused
			logging.LogUnusedColumns(s.log, s.vol.ID, name, unused)
		}
	}

	if err := s.opts.Store.RecordVolume(storage.VolumeResult{
		RunID:        s.opts.RunID,
		VolumeID:     s.vol.ID,
		Observations: res.Observations,
		Succeeded:    res.Succeeded,
		Failed:       res.Failed,
		Tables:       res.Files,
	}); err != nil {
		s.log.Warn("failed to record volume", "error", err)
	}
	return res, nil
}

// observe builds one observation's rows for every table. Panics are
// recovered into errors.
func (s *Suite) observe(ctx context.Context, obs backplane.Observation) (rows [][]record.Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Debug("recovered panic", "observation", obs.String(), "stack", string(debug.Stack()))
			rows, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	p, err := s.src.Provider(ctx, obs)
	if err != nil {
		return nil, err
	}

	recs := make(map[columns.Level]*record.Record, len(s.opts.Levels))
	for _, l := range s.opts.Levels {
		rec, err := record.New(obs, record.Params{
			VolumeID:  s.vol.ID,
			Level:     l,
			Provider:  p,
			Catalog:   s.opts.Catalog,
			Primaries: s.opts.Primaries,
			Logger:    s.log,
		})
		if err != nil {
			return nil, err
		}
		recs[l] = rec
	}

	rows = make([][]record.Row, len(s.tables))
	for i, t := range s.tables {
		level := t.Level()
		if level == "" {
			level = s.opts.Levels[0]
		}
		got, err := t.Rows(recs[level])
		if err != nil {
			return nil, fmt.Errorf("%s table: %w", t.Qualifier(), err)
		}
		rows[i] = got
	}
	return rows, nil
}

func (s *Suite) skipped(obs backplane.Observation, err error) {
	expected := errors.Is(err, backplane.ErrDataUnavailable)
	logging.LogObservationSkipped(s.log, s.vol.ID, obs.String(), err, expected)

	severity := "error"
	if expected {
		severity = "warn"
	}
	if serr := s.opts.Store.RecordObservationFailure(storage.ObservationFailure{
		RunID:       s.opts.RunID,
		VolumeID:    s.vol.ID,
		Observation: obs.String(),
		Severity:    severity,
		Message:     err.Error(),
	}); serr != nil {
		s.log.Warn("failed to record observation failure", "error", serr)
	}
}
