package record

import (
	"errors"
	"fmt"
	"strings"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/columns"
	"geotab/internal/format"
	"geotab/internal/grid"
	"geotab/internal/tiles"
)

// Options control BuildRows.
type Options struct {
	// Tiles selects a detailed listing. Several sets are chained: their
	// subregion indices continue from one set to the next.
	Tiles []tiles.Set
	// TilingMin is the smallest global region that is subdivided.
	TilingMin int
	// IgnoreShadows drops shadow and face constraints from column masks.
	IgnoreShadows bool
	// StartIndex numbers the first subregion; zero means 1.
	StartIndex int
	// AllowZeroRows permits an empty result instead of a row of nulls.
	AllowZeroRows bool
	// NoMask skips column masks. Tile regions still apply.
	NoMask bool
	// NoBody omits the body name fields.
	NoBody bool
	// Target is written after the primary in the body name fields.
	Target string
}

// Row is one output line. Found flags the columns with at least one
// included sample.
type Row struct {
	Fields []string
	Found  []bool
}

// Line joins the fields with commas.
func (r Row) Line() string { return strings.Join(r.Fields, ",") }

// BuildRows assembles the rows for descs. Without tiles it returns exactly
// one row unless AllowZeroRows is set. With tiles it returns one row per
// non-empty subregion, falling back to a single row when no subregion
// yields data.
func BuildRows(rec *Record, descs []columns.Descriptor, opts Options) ([]Row, error) {
	start := opts.StartIndex
	if start == 0 {
		start = 1
	}
	b := &builder{rec: rec, descs: descs, opts: opts}
	detailed := len(opts.Tiles) > 0

	if len(opts.Tiles) > 1 {
		// An untiled row of one set would reuse the previous set's last index.
		b.chained = true
		var rows []Row
		counter := tiles.NewCounter(start)
		for _, set := range opts.Tiles {
			got, err := b.rows(set, true, counter.Start(), true)
			if err != nil {
				return nil, err
			}
			rows = append(rows, got...)
			counter.Advance(set)
		}
		if len(rows) > 0 || opts.AllowZeroRows {
			return rows, nil
		}
		b.chained = false
		return b.rows(nil, true, start, false)
	}

	var set tiles.Set
	if detailed {
		set = opts.Tiles[0]
	}
	return b.rows(set, detailed, start, opts.AllowZeroRows)
}

type builder struct {
	rec     *Record
	descs   []columns.Descriptor
	opts    Options
	chained bool
}

// region is one candidate row: index 0 is the whole (global) region.
type region struct {
	index    int
	excluded grid.Mask
}

func (b *builder) regions(set tiles.Set) ([]region, error) {
	if len(set) == 0 {
		return []region{{index: 0, excluded: grid.None()}}, nil
	}
	p := b.rec.Provider

	subs, global, err := tiles.Partition(p, set, b.opts.TilingMin)
	if err == nil {
		if subs == nil {
			return []region{{index: 0, excluded: global}}, nil
		}
		out := make([]region, len(subs))
		for i, m := range subs {
			out[i] = region{index: i + 1, excluded: m}
		}
		return out, nil
	}
	if errors.Is(err, backplane.ErrQuantityUnavailable) {
		b.rec.Logger.Warn("tiling unavailable; writing untiled row", "error", err)
		return []region{{index: 0, excluded: grid.None()}}, nil
	}
	return nil, err
}

func (b *builder) rows(set tiles.Set, detailed bool, start int, allowZero bool) ([]Row, error) {
	regions, err := b.regions(set)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, reg := range regions {
		if reg.index != 0 && reg.excluded.AllTrue() {
			continue
		}
		if reg.index == 0 && b.chained {
			continue
		}
		row, err := b.row(reg, detailed, start)
		if err != nil {
			return nil, err
		}
		if !anyFound(row.Found) && (reg.index > 0 || allowZero) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 || allowZero {
		return rows, nil
	}
	return b.rows(nil, detailed, start, false)
}

func (b *builder) row(reg region, detailed bool, start int) (Row, error) {
	rec := b.rec
	fields := append([]string(nil), rec.Prefixes...)
	if !b.opts.NoBody {
		fields = append(fields, bodyField(rec.Primary, bodies.NameLength))
		if b.opts.Target != "" {
			fields = append(fields, bodyField(b.opts.Target, bodies.NameLength))
		}
	}
	if detailed {
		fields = append(fields, fmt.Sprintf("%2d", reg.index+start-1))
	}

	found := make([]bool, len(b.descs))
	for i, d := range b.descs {
		values, err := b.evaluate(d)
		if err != nil {
			return Row{}, err
		}
		if !b.opts.NoMask {
			values = values.MaskWhere(rec.Masks().Mask(d.Key.Target, d.Rule, b.opts.IgnoreShadows))
		}
		values = values.MaskWhere(reg.excluded)
		found[i] = !values.AllMasked()

		spec, err := format.Lookup(d.Key.Quantity, d.FormatTag)
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", d.Name(), err)
		}
		text, warns, err := format.Format(values, spec)
		for _, w := range warns {
			rec.Logger.Warn(string(w), "column", d.Name())
		}
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", d.Name(), err)
		}
		fields = append(fields, text)
	}
	return Row{Fields: fields, Found: found}, nil
}

// evaluate returns the column's samples. A null target or an unavailable
// quantity yields a fully excluded value.
func (b *builder) evaluate(d columns.Descriptor) (grid.Grid, error) {
	missing := grid.Scalar(0).MaskWhere(grid.Uniform(true))
	if d.Key.Target == bodies.Null {
		return missing, nil
	}
	g, err := b.rec.Provider.Evaluate(d.Key)
	if errors.Is(err, backplane.ErrQuantityUnavailable) {
		b.rec.Logger.Debug("quantity unavailable", "column", d.Name())
		return missing, nil
	}
	if err != nil {
		return grid.Grid{}, fmt.Errorf("column %s: %w", d.Name(), err)
	}
	return g, nil
}

func anyFound(found []bool) bool {
	for _, f := range found {
		if f {
			return true
		}
	}
	return false
}
