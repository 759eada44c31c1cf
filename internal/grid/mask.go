// Package grid holds sampled geometry values and the exclusion masks applied
// to them.
package grid

// Mask marks excluded samples. A mask is either uniform (one flag standing
// for every sample of any grid) or a per-sample grid of flags. True means
// excluded.
type Mask struct {
	value bool
	bits  []bool
}

// Uniform returns a mask with the same flag for every sample.
func Uniform(excluded bool) Mask {
	return Mask{value: excluded}
}

// None is the mask that excludes nothing.
func None() Mask { return Uniform(false) }

// Bits returns a per-sample mask. The slice is copied.
func Bits(bits []bool) Mask {
	cp := make([]bool, len(bits))
	copy(cp, bits)
	return Mask{bits: cp}
}

// IsUniform reports whether m is uniform, and its flag when it is.
func (m Mask) IsUniform() (excluded bool, ok bool) {
	if m.bits == nil {
		return m.value, true
	}
	return false, false
}

// Len is the sample count of a grid mask; uniform masks report 0.
func (m Mask) Len() int { return len(m.bits) }

// At reports whether sample i is excluded.
func (m Mask) At(i int) bool {
	if m.bits == nil {
		return m.value
	}
	return m.bits[i]
}

// Expand materializes the mask over n samples.
func (m Mask) Expand(n int) []bool {
	out := make([]bool, n)
	if m.bits == nil {
		if m.value {
			for i := range out {
				out[i] = true
			}
		}
		return out
	}
	copy(out, m.bits)
	return out
}

// Not inverts every flag.
func (m Mask) Not() Mask {
	if m.bits == nil {
		return Uniform(!m.value)
	}
	out := make([]bool, len(m.bits))
	for i, b := range m.bits {
		out[i] = !b
	}
	return Mask{bits: out}
}

// Or combines two masks; a sample is excluded if either excludes it.
func (m Mask) Or(o Mask) Mask {
	switch {
	case m.bits == nil && m.value, o.bits == nil && o.value:
		return Uniform(true)
	case m.bits == nil:
		return o
	case o.bits == nil:
		return m
	}
	mustMatch(m, o)
	out := make([]bool, len(m.bits))
	for i := range out {
		out[i] = m.bits[i] || o.bits[i]
	}
	return Mask{bits: out}
}

// And combines two masks; a sample is excluded only if both exclude it.
func (m Mask) And(o Mask) Mask {
	switch {
	case m.bits == nil && !m.value, o.bits == nil && !o.value:
		return Uniform(false)
	case m.bits == nil:
		return o
	case o.bits == nil:
		return m
	}
	mustMatch(m, o)
	out := make([]bool, len(m.bits))
	for i := range out {
		out[i] = m.bits[i] && o.bits[i]
	}
	return Mask{bits: out}
}

// Count returns how many of n samples are flagged.
func (m Mask) Count(n int) int {
	if m.bits == nil {
		if m.value {
			return n
		}
		return 0
	}
	c := 0
	for _, b := range m.bits {
		if b {
			c++
		}
	}
	return c
}

// AllTrue reports whether every sample is flagged.
func (m Mask) AllTrue() bool {
	if m.bits == nil {
		return m.value
	}
	for _, b := range m.bits {
		if !b {
			return false
		}
	}
	return true
}

// AnyTrue reports whether at least one sample is flagged.
func (m Mask) AnyTrue() bool {
	if m.bits == nil {
		return m.value
	}
	for _, b := range m.bits {
		if b {
			return true
		}
	}
	return false
}

// Collapse replaces an all-true or all-false grid with the uniform variant.
func (m Mask) Collapse() Mask {
	if m.bits == nil {
		return m
	}
	if !m.AnyTrue() {
		return Uniform(false)
	}
	if m.AllTrue() {
		return Uniform(true)
	}
	return m
}

// Equal reports whether two masks flag the same samples.
func (m Mask) Equal(o Mask) bool {
	a, b := m.Collapse(), o.Collapse()
	if a.bits == nil || b.bits == nil {
		return a.bits == nil && b.bits == nil && a.value == b.value
	}
	if len(a.bits) != len(b.bits) {
		return false
	}
	for i := range a.bits {
		if a.bits[i] != b.bits[i] {
			return false
		}
	}
	return true
}

func mustMatch(a, b Mask) {
	if len(a.bits) != len(b.bits) {
		panic("grid: mask size mismatch")
	}
}
