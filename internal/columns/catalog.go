package columns

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/format"
	"geotab/internal/tiles"
)

// Level selects summary (one row per observation) or detailed (one row per
// subregion) tables.
type Level string

const (
	Summary  Level = "summary"
	Detailed Level = "detailed"
)

// Qualifier is the short form used in file names and --selection.
func (l Level) Qualifier() string {
	if l == Detailed {
		return "D"
	}
	return "S"
}

// ParseLevels converts a selection string such as "SD" into levels.
func ParseLevels(selection string) ([]Level, error) {
	var out []Level
	seen := map[rune]bool{}
	for _, c := range strings.ToUpper(selection) {
		if seen[c] {
			continue
		}
		seen[c] = true
		switch c {
		case 'S':
			out = append(out, Summary)
		case 'D':
			out = append(out, Detailed)
		default:
			return nil, fmt.Errorf("columns: unknown level %q in selection %q", c, selection)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("columns: empty selection")
	}
	return out, nil
}

// Catalog holds every table's descriptors and tile sets. It is built once
// and never modified; lookups for bodies outside the catalog are computed
// without caching.
type Catalog struct {
	sky  []Descriptor
	sun  map[Level][]Descriptor
	body map[string]map[Level][]Descriptor
	ring map[string]map[Level][]Descriptor

	skyTiles       tiles.Set
	bodyTiles      tiles.Set // templates over bodies.Placeholder
	ringTiles      tiles.Set
	outerRingTiles tiles.Set
}

// Build returns the built-in catalog.
func Build() *Catalog {
	c := &Catalog{
		sky: skyColumns(),
		sun: map[Level][]Descriptor{
			Summary:  sunColumns(true),
			Detailed: sunColumns(false),
		},
		body: map[string]map[Level][]Descriptor{},
		ring: map[string]map[Level][]Descriptor{},

		skyTiles:       latitudeBands(backplane.NewKey("declination", ""), tiles.All()),
		bodyTiles:      defaultBodyTiles(),
		ringTiles:      defaultRingTiles(false),
		outerRingTiles: defaultRingTiles(true),
	}
	for _, b := range bodies.All() {
		c.body[b] = map[Level][]Descriptor{
			Summary:  bodyColumns(b, true),
			Detailed: bodyColumns(b, false),
		}
	}
	for _, p := range bodies.Planets {
		if !bodies.HasRings(p) {
			continue
		}
		c.ring[p] = map[Level][]Descriptor{
			Summary:  ringColumns(p, true),
			Detailed: ringColumns(p, false),
		}
	}
	return c
}

func deg(x float64) float64 { return x * math.Pi / 180 }

// latitudeBands splits key into 20-degree bands between -70 and 70 degrees
// plus the two polar caps.
func latitudeBands(key backplane.Key, global tiles.Rule) tiles.Set {
	edges := []float64{-70, -50, -30, -10, 10, 30, 50, 70}
	set := tiles.Set{global, tiles.Below(key, deg(edges[0]))}
	for i := 1; i < len(edges); i++ {
		set = append(set, tiles.Between(key, deg(edges[i-1]), deg(edges[i])))
	}
	return append(set, tiles.Above(key, deg(edges[len(edges)-1])))
}

func defaultBodyTiles() tiles.Set {
	b := bodies.Placeholder
	global := tiles.All(
		tiles.Predicate(backplane.NewKey("where_in_front", b, b)),
		tiles.Predicate(backplane.NewKey(backplane.WhereSunward, b)),
	)
	return latitudeBands(backplane.NewKey("latitude", b), global)
}

// defaultRingTiles divides the rings by observed azimuth. The inner set
// covers radii below 150,000 km outside the planet's shadow; the outer set
// covers the rest.
func defaultRingTiles(outer bool) tiles.Set {
	b := bodies.Placeholder
	ring := b + ":RING"
	radius := backplane.NewKey("ring_radius", ring)
	az := backplane.NewKey("ring_azimuth", ring, "obs")

	var global tiles.Rule
	if outer {
		global = tiles.All(
			tiles.Predicate(backplane.NewKey("where_in_front", ring, b)),
			tiles.Above(radius, 150000),
		)
	} else {
		global = tiles.All(
			tiles.Predicate(backplane.NewKey("where_in_front", ring, b)),
			tiles.Predicate(backplane.NewKey("where_outside_shadow", ring, b)),
			tiles.Below(radius, 150000),
		)
	}

	edges := []float64{0.20, 0.45, 0.55, 0.80, 1.20, 1.45, 1.55, 1.80}
	set := tiles.Set{global}
	for i := 1; i < len(edges); i++ {
		set = append(set, tiles.Between(az, edges[i-1]*math.Pi, edges[i]*math.Pi))
	}
	return append(set, tiles.Any(
		tiles.Below(az, edges[0]*math.Pi),
		tiles.Above(az, edges[len(edges)-1]*math.Pi),
	))
}

// Sky returns the sky table columns; both levels share them.
func (c *Catalog) Sky() []Descriptor { return c.sky }

// Sun returns the sun table columns.
func (c *Catalog) Sun(level Level) []Descriptor { return c.sun[level] }

// Body returns the columns of one body. A body outside the catalog, such as
// a targeted irregular moon, gets columns expanded on the fly.
func (c *Catalog) Body(name string, level Level) []Descriptor {
	if byLevel, ok := c.body[name]; ok {
		return byLevel[level]
	}
	return bodyColumns(name, level == Summary)
}

// Ring returns the ring columns of a primary, or nil when it has no rings.
func (c *Catalog) Ring(primary string, level Level) []Descriptor {
	return c.ring[primary][level]
}

// SkyTiles returns the sky tiling.
func (c *Catalog) SkyTiles() tiles.Set { return c.skyTiles }

// BodyTiles returns the tiling of one body.
func (c *Catalog) BodyTiles(name string) tiles.Set {
	return c.bodyTiles.Expand(bodies.Placeholder, name)
}

// RingTiles returns the chained inner and outer ring tilings of a primary.
func (c *Catalog) RingTiles(primary string) []tiles.Set {
	return []tiles.Set{
		c.ringTiles.Expand(bodies.Placeholder, primary),
		c.outerRingTiles.Expand(bodies.Placeholder, primary),
	}
}

// Validate checks that every column has a format spec.
func (c *Catalog) Validate() error {
	check := func(ds []Descriptor) error {
		for _, d := range ds {
			if _, err := format.Lookup(d.Key.Quantity, d.FormatTag); err != nil {
				return fmt.Errorf("column %s: %w", d.Name(), err)
			}
		}
		return nil
	}
	lists := [][]Descriptor{c.sky}
	for _, l := range []Level{Summary, Detailed} {
		lists = append(lists, c.sun[l])
		for _, byLevel := range c.body {
			lists = append(lists, byLevel[l])
		}
		for _, byLevel := range c.ring {
			lists = append(lists, byLevel[l])
		}
	}
	for _, ds := range lists {
		if err := check(ds); err != nil {
			return err
		}
	}
	return nil
}

// Overrides replaces built-in tilings. Each field is a tile declaration
// list; keys may use the body placeholder.
type Overrides struct {
	Sky       any `yaml:"sky"`
	Body      any `yaml:"body"`
	Ring      any `yaml:"ring"`
	OuterRing any `yaml:"outer_ring"`
}

// Load returns the built-in catalog with the tilings declared in the YAML
// file at path. An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	c := Build()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	for _, f := range []struct {
		name string
		decl any
		dst  *tiles.Set
	}{
		{"sky", o.Sky, &c.skyTiles},
		{"body", o.Body, &c.bodyTiles},
		{"ring", o.Ring, &c.ringTiles},
		{"outer_ring", o.OuterRing, &c.outerRingTiles},
	} {
		if f.decl == nil {
			continue
		}
		set, err := tiles.ParseSet(f.decl)
		if err != nil {
			return nil, fmt.Errorf("%s tiling: %w", f.name, err)
		}
		*f.dst = set
	}
	return c, nil
}
