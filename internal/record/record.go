// Package record turns one observation's geometry into formatted table rows.
package record

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/columns"
	"geotab/internal/mask"
)

// Record holds everything needed to build the rows of one observation at one
// level. It is owned by a single worker.
type Record struct {
	Observation backplane.Observation
	VolumeID    string
	Level       columns.Level

	Primary     string
	Secondaries []string
	Target      string
	Blocker     string
	Bodies      []string // in the field of view, then secondaries

	Prefixes []string
	Provider backplane.Provider
	Catalog  *columns.Catalog
	Logger   *slog.Logger

	masks *mask.Cache
}

// Params are the inputs to New besides the observation itself.
type Params struct {
	VolumeID  string
	Level     columns.Level
	Provider  backplane.Provider
	Catalog   *columns.Catalog
	Primaries *bodies.Table
	Logger    *slog.Logger
}

// New builds the record of obs: it looks up the primary from the spacecraft
// clock, translates the target, and takes the inventory of bodies in view.
func New(obs backplane.Observation, p Params) (*Record, error) {
	if p.Provider == nil {
		return nil, fmt.Errorf("record %s: no geometry provider", obs)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cat := p.Catalog
	if cat == nil {
		cat = columns.Build()
	}

	primary, secondaries, err := p.Primaries.Primary(obs.SCLK)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", obs, err)
	}

	r := &Record{
		Observation: obs,
		VolumeID:    p.VolumeID,
		Level:       p.Level,
		Primary:     primary,
		Secondaries: secondaries,
		Target:      bodies.Translate(obs.Target),
		Provider:    p.Provider,
		Catalog:     cat,
		Logger:      logger.With("observation", obs.String(), "level", string(p.Level)),
	}

	r.Prefixes = []string{
		quote(p.VolumeID),
		quote(fmt.Sprintf("%-32s", strings.ReplaceAll(obs.FileSpec, ".IMG", ".LBL"))),
	}

	names := bodies.All()
	if r.Target != "" && !bodies.Known(r.Target) && p.Provider.Exists(r.Target) {
		names = append(names, r.Target)
	}
	r.Bodies = append(p.Provider.Inventory(names), secondaries...)

	if primary != "" && slices.Contains(r.Bodies, r.Target) {
		r.Blocker = r.Target
	}
	return r, nil
}

// Masks returns the record's mask cache, creating it on first use.
func (r *Record) Masks() *mask.Cache {
	if r.masks == nil {
		r.masks = mask.NewCache(r.Provider, r.Primary, r.Blocker)
	}
	return r.masks
}

func quote(s string) string { return `"` + s + `"` }

// bodyField renders a name quoted and padded or truncated to width. An
// empty name renders as blanks.
func bodyField(name string, width int) string {
	if len(name) > width {
		return quote(name[:width])
	}
	return quote(name + strings.Repeat(" ", width-len(name)))
}
