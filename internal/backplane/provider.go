package backplane

import (
	"context"
	"errors"
	"fmt"

	"geotab/internal/grid"
)

var (
	// ErrDataUnavailable marks an observation whose geometry cannot be loaded.
	// The observation is skipped.
	ErrDataUnavailable = errors.New("geometry data unavailable")
	// ErrQuantityUnavailable marks a single quantity that cannot be evaluated.
	ErrQuantityUnavailable = errors.New("quantity unavailable")
)

// Provider evaluates geometry for one observation. Predicates return grids
// of 0/1.
type Provider interface {
	Shape() grid.Shape
	Evaluate(key Key) (grid.Grid, error)
	OccludedBy(target, other string) (grid.Grid, error)
	InShadowOf(target, other string) (grid.Grid, error)
	Antisunward(target string) (grid.Grid, error)
	Sunward(target string) (grid.Grid, error)
	Exists(body string) bool
	// Inventory returns the names, in order, that fall within the field of view.
	Inventory(names []string) []string
}

// Observation identifies one image of a volume.
type Observation struct {
	ID       int64
	FileSpec string
	Basename string
	SCLK     string
	Target   string
	Shape    grid.Shape
}

func (o Observation) String() string {
	if o.Basename != "" {
		return o.Basename
	}
	return fmt.Sprintf("observation-%d", o.ID)
}

// Source lists a volume's observations and opens their providers.
type Source interface {
	Observations(ctx context.Context) ([]Observation, error)
	Provider(ctx context.Context, obs Observation) (Provider, error)
	Close() error
}

// Memory is a Provider over grids held in memory.
type Memory struct {
	shape  grid.Shape
	planes map[Key]grid.Grid
	known  map[string]bool
	field  map[string]bool
}

// NewMemory returns an empty provider over shape.
func NewMemory(shape grid.Shape) *Memory {
	return &Memory{
		shape:  shape,
		planes: map[Key]grid.Grid{},
		known:  map[string]bool{},
		field:  map[string]bool{},
	}
}

// Set stores the grid for key.
func (m *Memory) Set(key Key, g grid.Grid) *Memory {
	m.planes[key] = g
	return m
}

// SetValues stores row-major values over the provider's shape.
func (m *Memory) SetValues(key Key, vals []float64) error {
	g, err := grid.New(m.shape, vals)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	m.planes[key] = g
	return nil
}

// SetFlags stores a predicate from booleans over the provider's shape.
func (m *Memory) SetFlags(key Key, flags []bool) error {
	vals := make([]float64, len(flags))
	for i, f := range flags {
		if f {
			vals[i] = 1
		}
	}
	return m.SetValues(key, vals)
}

// AddBodies registers bodies known to the geometry.
func (m *Memory) AddBodies(names ...string) *Memory {
	for _, n := range names {
		m.known[n] = true
	}
	return m
}

// InField registers bodies and places them in the field of view.
func (m *Memory) InField(names ...string) *Memory {
	for _, n := range names {
		m.known[n] = true
		m.field[n] = true
	}
	return m
}

func (m *Memory) Shape() grid.Shape { return m.shape }

func (m *Memory) Evaluate(key Key) (grid.Grid, error) {
	g, ok := m.planes[key]
	if !ok {
		return grid.Grid{}, fmt.Errorf("%s: %w", key, ErrQuantityUnavailable)
	}
	return g, nil
}

func (m *Memory) OccludedBy(target, other string) (grid.Grid, error) {
	return m.Evaluate(Key{Quantity: WhereInBack, Target: target, Params: other})
}

func (m *Memory) InShadowOf(target, other string) (grid.Grid, error) {
	return m.Evaluate(Key{Quantity: WhereInsideShadow, Target: target, Params: other})
}

func (m *Memory) Antisunward(target string) (grid.Grid, error) {
	return m.Evaluate(Key{Quantity: WhereAntisunward, Target: target})
}

func (m *Memory) Sunward(target string) (grid.Grid, error) {
	return m.Evaluate(Key{Quantity: WhereSunward, Target: target})
}

func (m *Memory) Exists(body string) bool { return m.known[body] }

func (m *Memory) Inventory(names []string) []string {
	var out []string
	for _, n := range names {
		if m.field[n] {
			out = append(out, n)
		}
	}
	return out
}
