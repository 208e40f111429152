// Package optimizationtest provides cost functions and assertions shared by
// the strategy tests.
package optimizationtest

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// ErrCostFailure is returned by FailingCost.
var ErrCostFailure = errors.New("cost model failure")

// Quadratic returns the cost sum((x_i - target_i)^2), minimal at targets.
func Quadratic(targets ...int) optimization.CostFunction {
	return func(c optimization.Candidate) (float64, error) {
		sum := 0.0
		for i, v := range c {
			d := float64(v - targets[i])
			sum += d * d
		}
		return sum, nil
	}
}

// Sum returns the cost sum(x_i), minimal at every lower bound.
func Sum() optimization.CostFunction {
	return func(c optimization.Candidate) (float64, error) {
		sum := 0.0
		for _, v := range c {
			sum += float64(v)
		}
		return sum, nil
	}
}

// Constant returns a cost function that scores every candidate the same.
func Constant(v float64) optimization.CostFunction {
	return func(optimization.Candidate) (float64, error) {
		return v, nil
	}
}

// FailingCost wraps cost so that the n-th call (1-based) and every later call
// returns ErrCostFailure.
func FailingCost(cost optimization.CostFunction, n int) optimization.CostFunction {
	var calls atomic.Int64
	return func(c optimization.Candidate) (float64, error) {
		if calls.Add(1) >= int64(n) {
			return 0, ErrCostFailure
		}
		return cost(c)
	}
}

// Recording wraps cost and passes every evaluated candidate to record.
// record must be safe for concurrent use when the strategy evaluates in parallel.
func Recording(cost optimization.CostFunction, record func(optimization.Candidate)) optimization.CostFunction {
	return func(c optimization.Candidate) (float64, error) {
		record(c.Clone())
		return cost(c)
	}
}

// AssertInDomain fails the test if c is not a member of d.
func AssertInDomain(t testing.TB, d optimization.Domain, c optimization.Candidate) {
	t.Helper()

	if len(c) != len(d) {
		t.Fatalf("length mismatch: got %d, want %d", len(c), len(d))
	}
	for i, v := range c {
		if v < d[i].Min || v > d[i].Max {
			t.Fatalf("at index %d: value %d outside [%d, %d]", i, v, d[i].Min, d[i].Max)
		}
	}
}
