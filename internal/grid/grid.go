package grid

import "fmt"

// Shape is the sample layout of an observation. The zero Shape is 0-D.
type Shape struct {
	Rows int
	Cols int
}

// Size is the number of samples; a 0-D shape holds one.
func (s Shape) Size() int {
	if s.Rows == 0 && s.Cols == 0 {
		return 1
	}
	return s.Rows * s.Cols
}

func (s Shape) String() string {
	if s.Rows == 0 && s.Cols == 0 {
		return "()"
	}
	return fmt.Sprintf("(%d,%d)", s.Rows, s.Cols)
}

// Grid is a sampled quantity: values in row-major order plus an exclusion
// mask. Gridless quantities have a 0-D shape and a single value.
type Grid struct {
	Shape  Shape
	Values []float64
	Mask   Mask
}

// Scalar returns a 0-D grid.
func Scalar(v float64) Grid {
	return Grid{Values: []float64{v}, Mask: None()}
}

// New returns a grid over shape with nothing excluded.
func New(shape Shape, values []float64) (Grid, error) {
	if len(values) != shape.Size() {
		return Grid{}, fmt.Errorf("grid: %d values for shape %s", len(values), shape)
	}
	return Grid{Shape: shape, Values: values, Mask: None()}, nil
}

// Fill returns a grid over shape with every sample set to v.
func Fill(shape Shape, v float64) Grid {
	vals := make([]float64, shape.Size())
	for i := range vals {
		vals[i] = v
	}
	return Grid{Shape: shape, Values: vals, Mask: None()}
}

// Len is the sample count.
func (g Grid) Len() int { return len(g.Values) }

// Gridless reports whether g is 0-D.
func (g Grid) Gridless() bool { return g.Shape.Rows == 0 && g.Shape.Cols == 0 }

// MaskWhere returns a copy of g with m added to its exclusions. A per-sample
// mask applied to a 0-D value excludes it only when every sample of the mask
// is excluded.
func (g Grid) MaskWhere(m Mask) Grid {
	if m.Len() != 0 && m.Len() != g.Len() {
		m = Uniform(m.AllTrue())
	}
	g.Mask = g.Mask.Or(m)
	return g
}

// Excluded reports whether sample i is excluded.
func (g Grid) Excluded(i int) bool { return g.Mask.At(i) }

// AllMasked reports whether no sample survives.
func (g Grid) AllMasked() bool {
	if len(g.Values) == 0 {
		return true
	}
	return g.Mask.Count(g.Len()) == g.Len()
}

// Included returns the values of samples that are not excluded.
func (g Grid) Included() []float64 {
	out := make([]float64, 0, len(g.Values))
	for i, v := range g.Values {
		if !g.Mask.At(i) {
			out = append(out, v)
		}
	}
	return out
}

// Scale returns a copy with every value multiplied by f.
func (g Grid) Scale(f float64) Grid {
	vals := make([]float64, len(g.Values))
	for i, v := range g.Values {
		vals[i] = v * f
	}
	g.Values = vals
	return g
}

// Truth converts a predicate grid into a mask flagging the samples where the
// predicate holds. Excluded samples never hold.
func (g Grid) Truth() Mask {
	if g.Gridless() {
		return Uniform(g.Values[0] != 0 && !g.Mask.At(0))
	}
	bits := make([]bool, len(g.Values))
	for i, v := range g.Values {
		bits[i] = v != 0 && !g.Mask.At(i)
	}
	return Mask{bits: bits}
}

// Decimate keeps every step-th row and column.
func (g Grid) Decimate(step int) Grid {
	if step <= 1 || g.Gridless() {
		return g
	}
	rows := (g.Shape.Rows + step - 1) / step
	cols := (g.Shape.Cols + step - 1) / step
	vals := make([]float64, 0, rows*cols)
	bits := make([]bool, 0, rows*cols)
	for r := 0; r < g.Shape.Rows; r += step {
		for c := 0; c < g.Shape.Cols; c += step {
			i := r*g.Shape.Cols + c
			vals = append(vals, g.Values[i])
			bits = append(bits, g.Mask.At(i))
		}
	}
	return Grid{Shape: Shape{Rows: rows, Cols: cols}, Values: vals, Mask: Mask{bits: bits}.Collapse()}
}
