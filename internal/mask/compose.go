package mask

import (
	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/grid"
)

// Compose returns the samples of target excluded under rule. Predicates the
// provider cannot evaluate contribute nothing, and a target whose body does
// not exist is never excluded.
func Compose(p backplane.Provider, target, primary string, rule Rule, blocker string, ignoreShadows bool) grid.Mask {
	if target == blocker {
		blocker = ""
	}
	if !p.Exists(bodies.PrimaryName(target)) {
		return grid.None()
	}

	excluded := grid.None()
	or := func(g grid.Grid, err error) {
		if err == nil {
			excluded = excluded.Or(g.Truth())
		}
	}

	apply := func(flags Flags, by func(string, string) (grid.Grid, error)) {
		if flags&Rings != 0 && primary == bodies.RingedPrimary {
			or(by(target, bodies.MainRings(primary)))
		}
		if flags&Primary != 0 && primary != "" {
			or(by(target, primary))
			for _, c := range bodies.Companions(primary) {
				or(by(target, c))
			}
		}
		if flags&Blocker != 0 && blocker != "" {
			or(by(target, blocker))
		}
	}

	apply(rule.Masker, p.OccludedBy)
	if !ignoreShadows {
		apply(rule.Shadower, p.InShadowOf)
		if rule.Face&Day != 0 {
			or(p.Antisunward(target))
		}
		if rule.Face&Night != 0 {
			or(p.Sunward(target))
		}
	}
	return excluded.Collapse()
}

type cacheKey struct {
	target        string
	rule          Rule
	ignoreShadows bool
}

// Cache memoizes Compose for one record: the provider, primary and blocker
// are fixed.
type Cache struct {
	p        backplane.Provider
	primary  string
	blocker  string
	entries  map[cacheKey]grid.Mask
	composed int
}

// NewCache returns an empty cache.
func NewCache(p backplane.Provider, primary, blocker string) *Cache {
	return &Cache{p: p, primary: primary, blocker: blocker, entries: map[cacheKey]grid.Mask{}}
}

// Mask returns the exclusion mask for target under rule, composing it once.
func (c *Cache) Mask(target string, rule Rule, ignoreShadows bool) grid.Mask {
	k := cacheKey{target: target, rule: rule, ignoreShadows: ignoreShadows}
	if m, ok := c.entries[k]; ok {
		return m
	}
	m := Compose(c.p, target, c.primary, rule, c.blocker, ignoreShadows)
	c.entries[k] = m
	c.composed++
	return m
}

// Composed counts the masks built so far.
func (c *Cache) Composed() int { return c.composed }
