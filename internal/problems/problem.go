// Package problems holds the built-in cost models the CLI and job server can
// optimize: a group flight schedule, a dorm assignment and two synthetic
// benchmarks.
package problems

import (
	"errors"

	"github.com/copyleftdev/discopt/internal/optimization"
)

const component = "problems"

var (
	// ErrUnknownProblem is returned when a name is not in the catalog.
	ErrUnknownProblem = errors.New("unknown problem")
	// ErrOutOfRange marks a candidate element that does not index a valid
	// choice of the problem.
	ErrOutOfRange = errors.New("candidate value out of range")
)

// Problem is a named search space with its objective.
type Problem interface {
	// Name returns the catalog name of the problem.
	Name() string
	// Domain returns the bounds a candidate must respect.
	Domain() optimization.Domain
	// Cost scores a candidate; lower is better.
	Cost(c optimization.Candidate) (float64, error)
	// Describe renders a candidate as human readable lines.
	Describe(c optimization.Candidate) ([]string, error)
}

// Optimization adapts p to the shape every strategy accepts.
func Optimization(p Problem) optimization.Problem {
	return optimization.Problem{
		Domain: p.Domain(),
		Cost:   p.Cost,
	}
}

func checkLength(name string, d optimization.Domain, c optimization.Candidate) error {
	if len(c) != len(d) {
		return optimization.WrapErrorf(ErrOutOfRange, "candidate has %d values, want %d", len(c), len(d)).
			WithComponent(component).
			WithOperation(name)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return optimization.NewValidationError(optimization.ErrInvalidConfig, format, args...).WithComponent(component)
}
