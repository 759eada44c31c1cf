package columns

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotab/internal/backplane"
	"geotab/internal/grid"
	"geotab/internal/tiles"
)

func TestBuiltInCatalogHasFormats(t *testing.T) {
	require.NoError(t, Build().Validate())
}

func TestSummaryAddsGridlessColumns(t *testing.T) {
	c := Build()
	detailed := c.Body("IO", Detailed)
	summary := c.Body("IO", Summary)
	require.Greater(t, len(summary), len(detailed))
	assert.Equal(t, detailed, summary[:len(detailed)])

	for _, d := range detailed {
		assert.Equal(t, "IO", d.Key.Target, d.Name())
	}
}

func TestIrregularMoonColumnsExpandOnTheFly(t *testing.T) {
	c := Build()
	got := c.Body("HIMALIA", Detailed)
	want := c.Body("IO", Detailed)
	require.Len(t, got, len(want))
	for i := range got {
		assert.Equal(t, want[i].Key.Expand("IO", "HIMALIA"), got[i].Key)
		assert.Equal(t, want[i].Rule, got[i].Rule)
	}
}

func TestRingColumnsOnlyForRingedPlanets(t *testing.T) {
	c := Build()
	assert.Nil(t, c.Ring("MARS", Summary))

	ring := c.Ring("SATURN", Summary)
	require.NotEmpty(t, ring)
	var diameter Descriptor
	for _, d := range ring {
		if d.Key.Quantity == "body_diameter_in_pixels" {
			diameter = d
		}
	}
	assert.Equal(t, backplane.NewKey("body_diameter_in_pixels", "SATURN:RING", 136780.0), diameter.Key)
}

func TestAlternateFormatTags(t *testing.T) {
	c := Build()
	var tags []string
	for _, d := range c.Ring("JUPITER", Detailed) {
		if d.FormatTag != "" {
			tags = append(tags, d.Name())
		}
	}
	assert.Equal(t, []string{
		"ring_angular_resolution(JUPITER:RING,km)/km",
		"ring_longitude(JUPITER:RING,obs)/-180",
	}, tags)
}

func TestTilingsExpandPerBody(t *testing.T) {
	c := Build()

	body := c.BodyTiles("EUROPA")
	require.Len(t, body, 10)
	assert.Equal(t, 9, body.Subregions())
	assert.Equal(t, tiles.Below(backplane.NewKey("latitude", "EUROPA"), -70*math.Pi/180), body[1])

	rings := c.RingTiles("SATURN")
	require.Len(t, rings, 2)
	assert.Equal(t, 8, rings[0].Subregions())
	assert.Equal(t, 8, rings[1].Subregions())
	assert.Equal(t, backplane.NewKey("ring_azimuth", "SATURN:RING", "obs"), rings[1][1].Key)

	sky := c.SkyTiles()
	assert.Equal(t, tiles.All(), sky[0])
	assert.Equal(t, backplane.NewKey("declination", ""), sky[5].Key)
}

// collect gathers the predicates of r and the thresholds applied to each key.
func collect(r tiles.Rule, flags map[backplane.Key]bool, edges map[backplane.Key][]float64) {
	switch r.Kind {
	case tiles.KindPredicate:
		flags[r.Key] = true
	case tiles.KindBelow:
		edges[r.Key] = append(edges[r.Key], r.Upper)
	case tiles.KindBetween:
		edges[r.Key] = append(edges[r.Key], r.Lower, r.Upper)
	case tiles.KindAbove:
		edges[r.Key] = append(edges[r.Key], r.Lower)
	}
	for _, c := range r.Children {
		collect(c, flags, edges)
	}
}

// sampled fills a provider so that every threshold of set is hit exactly,
// along with the values between, below and above them.
func sampled(t *testing.T, set tiles.Set) *backplane.Memory {
	t.Helper()
	flags := map[backplane.Key]bool{}
	edges := map[backplane.Key][]float64{}
	for _, r := range set {
		collect(r, flags, edges)
	}

	// Every combination of the per-key values appears once.
	values := map[backplane.Key][]float64{}
	n := 1
	for key, e := range edges {
		slices.Sort(e)
		e = slices.Compact(e)
		v := []float64{e[0] - 1}
		for i, x := range e {
			v = append(v, x)
			if i+1 < len(e) {
				v = append(v, (x+e[i+1])/2)
			}
		}
		values[key] = append(v, e[len(e)-1]+1)
		n *= len(values[key])
	}

	p := backplane.NewMemory(grid.Shape{Rows: 1, Cols: n})
	stride := 1
	for key, v := range values {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = v[(i/stride)%len(v)]
		}
		stride *= len(v)
		require.NoError(t, p.SetValues(key, vals))
	}
	for key := range flags {
		all := make([]bool, n)
		for i := range all {
			all[i] = true
		}
		require.NoError(t, p.SetFlags(key, all))
	}
	return p
}

func assertPartitioned(t *testing.T, name string, set tiles.Set) {
	t.Helper()
	p := sampled(t, set)
	n := p.Shape().Size()

	global, err := set[0].Members(p)
	require.NoError(t, err, name)
	in := global.Expand(n)
	require.Contains(t, in, true, "%s: empty global region", name)

	hits := make([]int, n)
	for k, r := range set[1:] {
		m, err := r.Members(p)
		require.NoError(t, err, name)
		for i, member := range m.Expand(n) {
			if member {
				hits[i]++
				assert.LessOrEqual(t, hits[i], 1, "%s: sample %d also in subregion %d", name, i, k+1)
			}
		}
	}
	for i := range hits {
		if in[i] {
			assert.Equal(t, 1, hits[i], "%s: global sample %d", name, i)
		}
	}
}

func TestBuiltInTilingsArePartitions(t *testing.T) {
	c := Build()

	assertPartitioned(t, "sky", c.SkyTiles())
	for _, b := range []string{"JUPITER", "IO", "SATURN", "TITAN"} {
		assertPartitioned(t, b, c.BodyTiles(b))
	}
	for _, primary := range []string{"JUPITER", "SATURN", "URANUS", "NEPTUNE"} {
		sets := c.RingTiles(primary)
		require.Len(t, sets, 2)
		assertPartitioned(t, primary+" inner rings", sets[0])
		assertPartitioned(t, primary+" outer rings", sets[1])
	}
}

func TestLoadOverridesTilings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
body:
  - [where_in_front, bodyx, bodyx]
  - [where_below, [latitude, bodyx], 0deg]
  - [where_above, [latitude, bodyx], 0deg]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	got := c.BodyTiles("IO")
	assert.Equal(t, tiles.Set{
		tiles.Predicate(backplane.NewKey("where_in_front", "IO", "IO")),
		tiles.Below(backplane.NewKey("latitude", "IO"), 0),
		tiles.Above(backplane.NewKey("latitude", "IO"), 0),
	}, got)
	assert.Equal(t, Build().SkyTiles(), c.SkyTiles())
}

func TestLoadRejectsMalformedTiling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sky: [[where_between, [declination, \"\"], 1]]\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, tiles.ErrMalformedRule)
}

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels("SD")
	require.NoError(t, err)
	assert.Equal(t, []Level{Summary, Detailed}, levels)

	levels, err = ParseLevels("dd")
	require.NoError(t, err)
	assert.Equal(t, []Level{Detailed}, levels)

	_, err = ParseLevels("X")
	assert.Error(t, err)
	_, err = ParseLevels("")
	assert.Error(t, err)
}
