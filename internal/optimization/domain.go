package optimization

import (
	"math"
	"math/rand"
)

// Bound is the inclusive range of one decision variable.
type Bound struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Span returns Max-Min, one less than the number of values the variable can
// take. It does not overflow for bounds covering the whole int range.
func (b Bound) Span() uint64 {
	return uint64(b.Max) - uint64(b.Min)
}

// Domain is the ordered list of variable bounds. Its length is the
// dimensionality of every candidate in a run.
type Domain []Bound

// UniformDomain returns n variables sharing the same bounds.
func UniformDomain(n, min, max int) Domain {
	d := make(Domain, n)
	for i := range d {
		d[i] = Bound{Min: min, Max: max}
	}
	return d
}

// Validate reports the first bound whose Min exceeds its Max.
func (d Domain) Validate() error {
	for i, b := range d {
		if b.Min > b.Max {
			return NewValidationError(ErrInvalidDomain, "variable %d has min %d greater than max %d", i, b.Min, b.Max)
		}
	}
	return nil
}

// Contains reports whether c has the domain's length and every element lies
// within its bound.
func (d Domain) Contains(c Candidate) bool {
	if len(c) != len(d) {
		return false
	}
	for i, v := range c {
		if v < d[i].Min || v > d[i].Max {
			return false
		}
	}
	return true
}

// Candidate is one point in the search space.
type Candidate []int

// Clone returns an independent copy of c.
func (c Candidate) Clone() Candidate {
	if c == nil {
		return nil
	}
	out := make(Candidate, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both candidates hold the same values.
func (c Candidate) Equal(other Candidate) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// With returns a copy of c with index i set to v.
func (c Candidate) With(i, v int) Candidate {
	out := c.Clone()
	out[i] = v
	return out
}

// RandomCandidate draws every element uniformly from its inclusive bound.
// An empty domain yields an empty candidate.
func RandomCandidate(d Domain, rng *rand.Rand) Candidate {
	c := make(Candidate, len(d))
	for i, b := range d {
		c[i] = draw(b, rng)
	}
	return c
}

func draw(b Bound, rng *rand.Rand) int {
	span := b.Span()
	switch {
	case span < math.MaxInt:
		return b.Min + rng.Intn(int(span)+1)
	case span == math.MaxUint64:
		return int(rng.Uint64())
	}
	// At least half of all uint64 values fall in [0, span].
	for {
		if x := rng.Uint64(); x <= span {
			return int(uint64(b.Min) + x)
		}
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Shift returns v+delta bounded to [lo, hi]. It saturates at the bound instead
// of wrapping when the sum would overflow. v itself is clamped first.
func Shift(v, delta, lo, hi int) int {
	v = Clamp(v, lo, hi)
	switch {
	case delta > 0:
		if uint64(delta) >= uint64(hi)-uint64(v) {
			return hi
		}
	case delta < 0:
		if uint64(0)-uint64(delta) >= uint64(v)-uint64(lo) {
			return lo
		}
	}
	return v + delta
}
