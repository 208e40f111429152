package optimization

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCandidate(t *testing.T) {
	tests := []struct {
		name   string
		domain Domain
	}{
		{name: "empty domain", domain: Domain{}},
		{name: "single variable", domain: Domain{{0, 9}}},
		{name: "fixed variable", domain: Domain{{3, 3}, {-2, 2}}},
		{name: "mixed bounds", domain: Domain{{-5, 5}, {0, 1}, {100, 120}, {0, 0}}},
		{name: "full int range", domain: Domain{{math.MinInt, math.MaxInt}}},
		{name: "lower half", domain: Domain{{math.MinInt, 0}}},
		{name: "wider than half", domain: Domain{{math.MinInt, 1}, {-1, math.MaxInt}}},
		{name: "integer limits", domain: Domain{{math.MaxInt - 1, math.MaxInt}, {math.MinInt, math.MinInt + 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 500; i++ {
				c := RandomCandidate(tt.domain, rng)
				require.Len(t, c, len(tt.domain))
				assert.True(t, tt.domain.Contains(c), "candidate %v outside %v", c, tt.domain)
			}
		})
	}
}

func TestRandomCandidateReachesBothBounds(t *testing.T) {
	d := Domain{{0, 3}, {-1, 1}}
	rng := rand.New(rand.NewSource(1))

	seenMin := make([]bool, len(d))
	seenMax := make([]bool, len(d))
	for i := 0; i < 1000; i++ {
		c := RandomCandidate(d, rng)
		for j, v := range c {
			if v == d[j].Min {
				seenMin[j] = true
			}
			if v == d[j].Max {
				seenMax[j] = true
			}
		}
	}

	for j := range d {
		assert.True(t, seenMin[j], "variable %d never drew its minimum", j)
		assert.True(t, seenMax[j], "variable %d never drew its maximum", j)
	}
}

func TestRandomCandidateSeeded(t *testing.T) {
	d := UniformDomain(6, 0, 9)
	a := RandomCandidate(d, rand.New(rand.NewSource(42)))
	b := RandomCandidate(d, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi int
		want      int
	}{
		{v: 5, lo: 0, hi: 9, want: 5},
		{v: -1, lo: 0, hi: 9, want: 0},
		{v: 10, lo: 0, hi: 9, want: 9},
		{v: 0, lo: 0, hi: 0, want: 0},
		{v: -7, lo: -5, hi: -2, want: -5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp(tt.v, tt.lo, tt.hi), "Clamp(%d, %d, %d)", tt.v, tt.lo, tt.hi)
	}
}

func TestBoundSpan(t *testing.T) {
	assert.Equal(t, uint64(0), Bound{3, 3}.Span())
	assert.Equal(t, uint64(9), Bound{0, 9}.Span())
	assert.Equal(t, uint64(math.MaxUint64), Bound{math.MinInt, math.MaxInt}.Span())
	assert.Equal(t, uint64(math.MaxInt)+1, Bound{math.MinInt, 0}.Span())
}

func TestShift(t *testing.T) {
	tests := []struct {
		name             string
		v, delta, lo, hi int
		want             int
	}{
		{name: "interior", v: 5, delta: 2, lo: 0, hi: 9, want: 7},
		{name: "down", v: 5, delta: -3, lo: 0, hi: 9, want: 2},
		{name: "zero delta", v: 5, delta: 0, lo: 0, hi: 9, want: 5},
		{name: "past max", v: 8, delta: 4, lo: 0, hi: 9, want: 9},
		{name: "past min", v: 1, delta: -4, lo: 0, hi: 9, want: 0},
		{name: "exactly max", v: 6, delta: 3, lo: 0, hi: 9, want: 9},
		{name: "at MaxInt", v: math.MaxInt, delta: 1, lo: math.MaxInt - 1, hi: math.MaxInt, want: math.MaxInt},
		{name: "at MinInt", v: math.MinInt, delta: -1, lo: math.MinInt, hi: math.MinInt + 1, want: math.MinInt},
		{name: "huge step up", v: math.MinInt, delta: math.MaxInt, lo: math.MinInt, hi: math.MaxInt, want: -1},
		{name: "huge step down", v: math.MaxInt, delta: math.MinInt, lo: math.MinInt, hi: math.MaxInt, want: -1},
		{name: "saturates huge step", v: 0, delta: math.MaxInt, lo: math.MinInt, hi: 10, want: 10},
		{name: "saturates MinInt step", v: 0, delta: math.MinInt, lo: -10, hi: math.MaxInt, want: -10},
		{name: "out of range input", v: 100, delta: -1, lo: 0, hi: 9, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shift(tt.v, tt.delta, tt.lo, tt.hi))
		})
	}
}

func TestDomainValidate(t *testing.T) {
	require.NoError(t, Domain{{0, 0}, {-3, 4}}.Validate())
	require.NoError(t, Domain{}.Validate())

	err := Domain{{0, 1}, {5, 4}}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDomain)
	assert.Contains(t, err.Error(), "variable 1")
}

func TestDomainContains(t *testing.T) {
	d := Domain{{0, 2}, {5, 6}}

	assert.True(t, d.Contains(Candidate{0, 5}))
	assert.True(t, d.Contains(Candidate{2, 6}))
	assert.False(t, d.Contains(Candidate{3, 5}))
	assert.False(t, d.Contains(Candidate{0, 4}))
	assert.False(t, d.Contains(Candidate{0}))
}

func TestCandidateIsValueObject(t *testing.T) {
	c := Candidate{1, 2, 3}

	clone := c.Clone()
	clone[0] = 99
	assert.Equal(t, 1, c[0])

	moved := c.With(2, 7)
	assert.Equal(t, Candidate{1, 2, 7}, moved)
	assert.Equal(t, Candidate{1, 2, 3}, c)

	assert.True(t, c.Equal(Candidate{1, 2, 3}))
	assert.False(t, c.Equal(moved))
	assert.Nil(t, Candidate(nil).Clone())
}

func TestProblemValidate(t *testing.T) {
	cost := func(Candidate) (float64, error) { return 0, nil }

	tests := []struct {
		name    string
		problem Problem
		kind    error
	}{
		{name: "valid", problem: Problem{Domain: Domain{{0, 1}}, Cost: cost}},
		{name: "nil cost", problem: Problem{Domain: Domain{{0, 1}}}, kind: ErrInvalidConfig},
		{name: "empty domain", problem: Problem{Domain: Domain{}, Cost: cost}, kind: ErrInvalidDomain},
		{name: "inverted bound", problem: Problem{Domain: Domain{{2, 1}}, Cost: cost}, kind: ErrInvalidDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.problem.Validate("test")
			if tt.kind == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.True(t, IsValidationError(err))

			e, ok := IsOptimizationError(err)
			require.True(t, ok)
			assert.Equal(t, "test", e.Component)
		})
	}
}

func TestOptionsRNG(t *testing.T) {
	a := Options{RandomSeed: 11}.RNG()
	b := Options{RandomSeed: 11}.RNG()
	assert.Equal(t, a.Int63(), b.Int63())

	shared := rand.New(rand.NewSource(3))
	assert.Same(t, shared, Options{RandomSeed: 11, Rand: shared}.RNG())

	assert.NotNil(t, Options{}.RNG())
	assert.NotNil(t, Options{}.Log())
}
