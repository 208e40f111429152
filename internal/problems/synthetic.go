package problems

import (
	"fmt"

	"github.com/copyleftdev/discopt/internal/optimization"
)

const (
	// QuadraticName is the catalog name of the squared distance benchmark.
	QuadraticName = "quadratic"
	// LinearName is the catalog name of the sum benchmark.
	LinearName = "linear"
)

// Quadratic costs the squared Euclidean distance to a target point.
type Quadratic struct {
	domain  optimization.Domain
	targets []int
}

// NewQuadratic needs one target per variable of domain.
func NewQuadratic(domain optimization.Domain, targets []int) (*Quadratic, error) {
	if len(domain) == 0 {
		return nil, invalid("quadratic needs bounds")
	}
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	if len(targets) != len(domain) {
		return nil, invalid("quadratic has %d targets for %d variables", len(targets), len(domain))
	}
	return &Quadratic{
		domain:  append(optimization.Domain(nil), domain...),
		targets: append([]int(nil), targets...),
	}, nil
}

// Name implements Problem.
func (q *Quadratic) Name() string { return QuadraticName }

// Domain implements Problem.
func (q *Quadratic) Domain() optimization.Domain { return q.domain }

// Cost implements Problem.
func (q *Quadratic) Cost(c optimization.Candidate) (float64, error) {
	if err := checkLength(QuadraticName, q.domain, c); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, v := range c {
		d := float64(v) - float64(q.targets[i])
		sum += d * d
	}
	return sum, nil
}

// Describe implements Problem.
func (q *Quadratic) Describe(c optimization.Candidate) ([]string, error) {
	if err := checkLength(QuadraticName, q.domain, c); err != nil {
		return nil, err
	}
	lines := make([]string, len(c))
	for i, v := range c {
		lines[i] = fmt.Sprintf("x%d = %d (target %d)", i, v, q.targets[i])
	}
	return lines, nil
}

// Linear costs the sum of the candidate's elements.
type Linear struct {
	domain optimization.Domain
}

// NewLinear builds a sum benchmark over domain.
func NewLinear(domain optimization.Domain) (*Linear, error) {
	if len(domain) == 0 {
		return nil, invalid("linear needs bounds")
	}
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	return &Linear{domain: append(optimization.Domain(nil), domain...)}, nil
}

// Name implements Problem.
func (l *Linear) Name() string { return LinearName }

// Domain implements Problem.
func (l *Linear) Domain() optimization.Domain { return l.domain }

// Cost implements Problem.
func (l *Linear) Cost(c optimization.Candidate) (float64, error) {
	if err := checkLength(LinearName, l.domain, c); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range c {
		sum += float64(v)
	}
	return sum, nil
}

// Describe implements Problem.
func (l *Linear) Describe(c optimization.Candidate) ([]string, error) {
	if err := checkLength(LinearName, l.domain, c); err != nil {
		return nil, err
	}
	lines := make([]string, len(c))
	for i, v := range c {
		lines[i] = fmt.Sprintf("x%d = %d", i, v)
	}
	return lines, nil
}
