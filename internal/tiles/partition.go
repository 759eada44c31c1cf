package tiles

import (
	"geotab/internal/backplane"
	"geotab/internal/grid"
)

// Set is a tiling: element 0 is the global region, the rest are the
// subregions, numbered from 1.
type Set []Rule

// Subregions is the number of numbered subregions.
func (s Set) Subregions() int {
	if len(s) == 0 {
		return 0
	}
	return len(s) - 1
}

// Expand substitutes body for placeholder in every rule.
func (s Set) Expand(placeholder, body string) Set {
	out := make(Set, len(s))
	for i, r := range s {
		out[i] = r.Expand(placeholder, body)
	}
	return out
}

// Partition returns one exclusion mask per subregion, each restricted to the
// global region, and the exclusion mask of the global region itself. The
// subregion masks are nil when the global region holds fewer than tilingMin
// samples.
func Partition(p backplane.Provider, s Set, tilingMin int) ([]grid.Mask, grid.Mask, error) {
	if len(s) == 0 {
		return nil, grid.None(), nil
	}
	in, err := s[0].Members(p)
	if err != nil {
		return nil, grid.Mask{}, err
	}
	global := in.Not().Collapse()
	if in.Count(p.Shape().Size()) < tilingMin {
		return nil, global, nil
	}

	out := make([]grid.Mask, 0, s.Subregions())
	for _, r := range s[1:] {
		sub, err := r.Members(p)
		if err != nil {
			return nil, grid.Mask{}, err
		}
		out = append(out, sub.And(in).Not().Collapse())
	}
	return out, global, nil
}

// Counter numbers subregions across chained sets.
type Counter struct {
	next int
}

// NewCounter starts numbering at start.
func NewCounter(start int) *Counter { return &Counter{next: start} }

// Start is the index of the next set's first subregion.
func (c *Counter) Start() int { return c.next }

// Advance moves past every subregion s declares, emitted or not.
func (c *Counter) Advance(s Set) { c.next += s.Subregions() }
