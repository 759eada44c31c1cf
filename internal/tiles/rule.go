// Package tiles divides an observation's samples into a global region and
// numbered subregions for detailed tables.
package tiles

import (
	"fmt"
	"strings"

	"geotab/internal/backplane"
	"geotab/internal/grid"
)

// Kind tags the variant held by a Rule.
type Kind uint8

const (
	KindPredicate Kind = iota // boolean quantity
	KindBelow                 // q < Upper
	KindBetween               // Lower <= q < Upper
	KindAbove                 // q >= Lower
	KindAll                   // every child
	KindAny                   // at least one child
)

var kindNames = map[Kind]string{
	KindPredicate: "predicate",
	KindBelow:     "where_below",
	KindBetween:   "where_between",
	KindAbove:     "where_above",
	KindAll:       "where_all",
	KindAny:       "where_any",
}

func (k Kind) String() string { return kindNames[k] }

// Rule selects a region of samples. Only the fields of its Kind are set.
type Rule struct {
	Kind     Kind
	Key      backplane.Key
	Lower    float64
	Upper    float64
	Children []Rule
}

func Predicate(key backplane.Key) Rule { return Rule{Kind: KindPredicate, Key: key} }

func Below(key backplane.Key, x float64) Rule { return Rule{Kind: KindBelow, Key: key, Upper: x} }

func Between(key backplane.Key, lo, hi float64) Rule {
	return Rule{Kind: KindBetween, Key: key, Lower: lo, Upper: hi}
}

func Above(key backplane.Key, x float64) Rule { return Rule{Kind: KindAbove, Key: key, Lower: x} }

func All(rules ...Rule) Rule { return Rule{Kind: KindAll, Children: rules} }

func Any(rules ...Rule) Rule { return Rule{Kind: KindAny, Children: rules} }

// Expand substitutes body for placeholder in every key.
func (r Rule) Expand(placeholder, body string) Rule {
	r.Key = r.Key.Expand(placeholder, body)
	if r.Children != nil {
		kids := make([]Rule, len(r.Children))
		for i, c := range r.Children {
			kids[i] = c.Expand(placeholder, body)
		}
		r.Children = kids
	}
	return r
}

// Members returns the samples inside the region. Samples excluded in the
// provider's grid are never members.
func (r Rule) Members(p backplane.Provider) (grid.Mask, error) {
	switch r.Kind {
	case KindPredicate:
		g, err := p.Evaluate(r.Key)
		if err != nil {
			return grid.Mask{}, err
		}
		return g.Truth(), nil

	case KindBelow, KindBetween, KindAbove:
		g, err := p.Evaluate(r.Key)
		if err != nil {
			return grid.Mask{}, err
		}
		return threshold(g, r), nil

	case KindAll:
		in := grid.Uniform(true)
		for _, c := range r.Children {
			m, err := c.Members(p)
			if err != nil {
				return grid.Mask{}, err
			}
			in = in.And(m)
		}
		return in, nil

	case KindAny:
		// Intersect the exclusions, then invert once.
		out := grid.Uniform(true)
		for _, c := range r.Children {
			m, err := c.Members(p)
			if err != nil {
				return grid.Mask{}, err
			}
			out = out.And(m.Not())
		}
		return out.Not(), nil
	}
	return grid.Mask{}, fmt.Errorf("%w: kind %d", ErrMalformedRule, r.Kind)
}

func threshold(g grid.Grid, r Rule) grid.Mask {
	in := func(v float64) bool {
		switch r.Kind {
		case KindBelow:
			return v < r.Upper
		case KindBetween:
			return v >= r.Lower && v < r.Upper
		default:
			return v >= r.Lower
		}
	}
	if g.Gridless() {
		return grid.Uniform(!g.Excluded(0) && in(g.Values[0]))
	}
	bits := make([]bool, g.Len())
	for i, v := range g.Values {
		bits[i] = !g.Excluded(i) && in(v)
	}
	return grid.Bits(bits)
}

func (r Rule) String() string {
	switch r.Kind {
	case KindPredicate:
		return r.Key.String()
	case KindBelow:
		return fmt.Sprintf("where_below(%s,%g)", r.Key, r.Upper)
	case KindBetween:
		return fmt.Sprintf("where_between(%s,%g,%g)", r.Key, r.Lower, r.Upper)
	case KindAbove:
		return fmt.Sprintf("where_above(%s,%g)", r.Key, r.Lower)
	}
	parts := make([]string, len(r.Children))
	for i, c := range r.Children {
		parts[i] = c.String()
	}
	return r.Kind.String() + "(" + strings.Join(parts, ",") + ")"
}
