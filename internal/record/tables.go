package record

import (
	"fmt"
	"strings"

	"geotab/internal/columns"
	"geotab/internal/tiles"
)

// TilingMin is the default smallest global region that is subdivided.
const TilingMin = 100

// Table is one kind of output file. Rows is safe to call concurrently for
// different records.
type Table interface {
	Qualifier() string
	// Level is "" for tables shared by every level.
	Level() columns.Level
	Rows(rec *Record) ([]Row, error)
}

// FileName is the name of t's file within a volume's output directory.
func FileName(t Table, volumeID string) string {
	if t.Qualifier() == "inventory" {
		return volumeID + "_inventory.csv"
	}
	return fmt.Sprintf("%s_%s_%s.tab", volumeID, t.Qualifier(), t.Level())
}

// Tables returns the tables written for one level: the sky, sun, ring and
// body tables.
func Tables(level columns.Level, tilingMin int) []Table {
	base := tableBase{level: level, tilingMin: tilingMin}
	return []Table{
		SkyTable{base},
		SunTable{base},
		RingTable{base},
		BodyTable{base},
	}
}

type tableBase struct {
	level     columns.Level
	tilingMin int
}

func (t tableBase) Level() columns.Level { return t.level }

func (t tableBase) detailed() bool { return t.level == columns.Detailed }

// InventoryTable lists the bodies in the field of view of each observation.
type InventoryTable struct{}

func (InventoryTable) Qualifier() string { return "inventory" }

func (InventoryTable) Level() columns.Level { return "" }

func (InventoryTable) Rows(rec *Record) ([]Row, error) {
	fields := append([]string(nil), rec.Prefixes...)
	fields = append(fields, quote(strings.Join(rec.Bodies, ",")))
	return []Row{{Fields: fields}}, nil
}

// SkyTable tabulates celestial coordinates. Its rows carry no body names.
type SkyTable struct{ tableBase }

func (SkyTable) Qualifier() string { return "sky" }

func (t SkyTable) Rows(rec *Record) ([]Row, error) {
	opts := Options{NoBody: true, TilingMin: t.tilingMin}
	if t.detailed() {
		opts.Tiles = []tiles.Set{rec.Catalog.SkyTiles()}
	}
	return BuildRows(rec, rec.Catalog.Sky(), opts)
}

// SunTable tabulates the geometry of the Sun.
type SunTable struct{ tableBase }

func (SunTable) Qualifier() string { return "sun" }

func (t SunTable) Rows(rec *Record) ([]Row, error) {
	return BuildRows(rec, rec.Catalog.Sun(t.level), Options{TilingMin: t.tilingMin})
}

// RingTable tabulates the primary's rings. Observations whose primary has
// no rings contribute nothing.
type RingTable struct{ tableBase }

func (RingTable) Qualifier() string { return "ring" }

func (t RingTable) Rows(rec *Record) ([]Row, error) {
	descs := rec.Catalog.Ring(rec.Primary, t.level)
	if rec.Primary == "" || len(descs) == 0 {
		return nil, nil
	}
	opts := Options{TilingMin: t.tilingMin}
	if t.detailed() {
		opts.Tiles = rec.Catalog.RingTiles(rec.Primary)
	}
	return BuildRows(rec, descs, opts)
}

// BodyTable tabulates the primary, then every other body in view.
type BodyTable struct{ tableBase }

func (BodyTable) Qualifier() string { return "body" }

func (t BodyTable) Rows(rec *Record) ([]Row, error) {
	var names []string
	if rec.Primary != "" {
		names = append(names, rec.Primary)
	}
	for _, b := range rec.Bodies {
		if b != rec.Primary {
			names = append(names, b)
		}
	}

	var rows []Row
	for _, name := range names {
		opts := Options{Target: name, TilingMin: t.tilingMin}
		if t.detailed() {
			opts.Tiles = []tiles.Set{rec.Catalog.BodyTiles(name)}
		}
		got, err := BuildRows(rec, rec.Catalog.Body(name, t.level), opts)
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", name, err)
		}
		rows = append(rows, got...)
	}
	return rows, nil
}

// Accumulator collects a table's lines across observations and tracks which
// columns never held data.
type Accumulator struct {
	Table Table
	lines []string
	used  []bool
}

// NewAccumulator returns an empty accumulator for t.
func NewAccumulator(t Table) *Accumulator { return &Accumulator{Table: t} }

// Append adds rows in order.
func (a *Accumulator) Append(rows []Row) {
	for _, r := range rows {
		a.lines = append(a.lines, r.Line())
		if len(r.Found) > len(a.used) {
			a.used = append(a.used, make([]bool, len(r.Found)-len(a.used))...)
		}
		for i, f := range r.Found {
			a.used[i] = a.used[i] || f
		}
	}
}

// Lines returns the accumulated lines.
func (a *Accumulator) Lines() []string { return a.lines }

// Unused returns the positions of geometry columns that were null in every
// row. It is empty until a row has been appended.
func (a *Accumulator) Unused() []int {
	var out []int
	for i, used := range a.used {
		if !used {
			out = append(out, i)
		}
	}
	return out
}
