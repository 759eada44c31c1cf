package backplane

import (
	"context"
	"errors"
	"fmt"

	"geotab/internal/grid"
	"geotab/internal/storage"
)

// Archive serves observations from a volume's backplane archive.
type Archive struct {
	store    *storage.Archive
	sampling int
	known    map[string]bool
	records  []storage.ObservationRecord
	byID     map[int64]storage.ObservationRecord
}

// OpenArchive opens the archive at path. Grids are decimated to every
// sampling-th row and column.
func OpenArchive(path string, sampling int) (*Archive, error) {
	st, err := storage.OpenArchive(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	names, err := st.Bodies()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("list bodies in %s: %w", path, err)
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	recs, err := st.Observations()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("list observations in %s: %w", path, err)
	}
	byID := make(map[int64]storage.ObservationRecord, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	if sampling < 1 {
		sampling = 1
	}
	return &Archive{store: st, sampling: sampling, known: known, records: recs, byID: byID}, nil
}

// Close releases the archive.
func (a *Archive) Close() error { return a.store.Close() }

// Observations lists the archive's observations in storage order.
func (a *Archive) Observations(ctx context.Context) ([]Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Observation, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, Observation{
			ID:       r.ID,
			FileSpec: r.FileSpec,
			Basename: r.Basename,
			SCLK:     r.SCLK,
			Target:   r.Target,
			Shape:    grid.Shape{Rows: r.Rows, Cols: r.Cols},
		})
	}
	return out, nil
}

// Provider opens the geometry of one observation.
func (a *Archive) Provider(ctx context.Context, obs Observation) (Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := a.byID[obs.ID]
	if !ok {
		return nil, fmt.Errorf("%s: %w: not in archive", obs, ErrDataUnavailable)
	}
	if r.Rows == 0 || r.Cols == 0 {
		return nil, fmt.Errorf("%s: %w: empty sample grid", obs, ErrDataUnavailable)
	}
	field := make(map[string]bool, len(r.Bodies))
	for _, b := range r.Bodies {
		field[b] = true
	}
	shape := grid.Shape{
		Rows: (r.Rows + a.sampling - 1) / a.sampling,
		Cols: (r.Cols + a.sampling - 1) / a.sampling,
	}
	return &archiveProvider{
		archive: a,
		id:      r.ID,
		shape:   shape,
		field:   field,
		cache:   map[Key]grid.Grid{},
	}, nil
}

// archiveProvider loads backplanes on first use. It is owned by one worker.
type archiveProvider struct {
	archive *Archive
	id      int64
	shape   grid.Shape
	field   map[string]bool
	cache   map[Key]grid.Grid
}

func (p *archiveProvider) Shape() grid.Shape { return p.shape }

func (p *archiveProvider) Evaluate(key Key) (grid.Grid, error) {
	if g, ok := p.cache[key]; ok {
		return g, nil
	}
	rec, err := p.archive.store.Backplane(p.id, key.String())
	if errors.Is(err, storage.ErrNotFound) {
		return grid.Grid{}, fmt.Errorf("%s: %w", key, ErrQuantityUnavailable)
	}
	if err != nil {
		return grid.Grid{}, fmt.Errorf("%s: %w: %v", key, ErrDataUnavailable, err)
	}
	g, err := grid.New(grid.Shape{Rows: rec.Rows, Cols: rec.Cols}, rec.Values)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("%s: %w", key, err)
	}
	if rec.Mask != nil {
		g = g.MaskWhere(grid.Bits(rec.Mask).Collapse())
	}
	g = g.Decimate(p.archive.sampling)
	p.cache[key] = g
	return g, nil
}

func (p *archiveProvider) OccludedBy(target, other string) (grid.Grid, error) {
	return p.Evaluate(Key{Quantity: WhereInBack, Target: target, Params: other})
}

func (p *archiveProvider) InShadowOf(target, other string) (grid.Grid, error) {
	return p.Evaluate(Key{Quantity: WhereInsideShadow, Target: target, Params: other})
}

func (p *archiveProvider) Antisunward(target string) (grid.Grid, error) {
	return p.Evaluate(Key{Quantity: WhereAntisunward, Target: target})
}

func (p *archiveProvider) Sunward(target string) (grid.Grid, error) {
	return p.Evaluate(Key{Quantity: WhereSunward, Target: target})
}

func (p *archiveProvider) Exists(body string) bool {
	return p.archive.known[body] || p.field[body]
}

func (p *archiveProvider) Inventory(names []string) []string {
	var out []string
	for _, n := range names {
		if p.field[n] {
			out = append(out, n)
		}
	}
	return out
}
