// Package optimization defines the discrete search space, cost functions and
// the Optimizer contract shared by every search strategy.
package optimization

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Optimizer defines the interface for search strategies
type Optimizer interface {
	// Name returns the registered strategy name
	Name() string

	// Optimize runs the search over the problem and returns the candidate it settled on
	Optimize(ctx context.Context, problem Problem) (*SearchResult, error)
}

// CostFunction maps a candidate to a scalar cost. Lower is better.
// It must be deterministic for a fixed candidate and must not fail for any
// in-bounds candidate.
type CostFunction func(Candidate) (float64, error)

// Problem bundles the caller-supplied search space and objective
type Problem struct {
	Domain Domain
	Cost   CostFunction
}

// Validate checks the problem before a search loop starts.
func (p Problem) Validate(component string) error {
	if p.Cost == nil {
		return NewValidationError(ErrInvalidConfig, "cost function is required").WithComponent(component)
	}
	if len(p.Domain) == 0 {
		return NewValidationError(ErrInvalidDomain, "domain must have at least one variable").WithComponent(component)
	}
	if err := p.Domain.Validate(); err != nil {
		if e, ok := IsOptimizationError(err); ok {
			return e.WithComponent(component)
		}
		return err
	}
	return nil
}

// SearchResult is the outcome of a run. The optimizer keeps no reference to it.
type SearchResult struct {
	Candidate   Candidate `json:"candidate"`
	Cost        float64   `json:"cost"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
}

// Progress is reported once per iteration (or generation) of a run.
type Progress struct {
	Strategy    string
	Iteration   int
	Cost        float64
	BestCost    float64
	Best        Candidate
	Temperature float64
}

// ProgressFunc receives progress updates. It runs on the search goroutine and
// must not retain Best beyond the call without cloning it.
type ProgressFunc func(Progress)

// Options carries the settings every strategy shares
type Options struct {
	// Random seed for reproducibility. Zero means seed from the clock.
	RandomSeed int64

	// Rand overrides RandomSeed when set
	Rand *rand.Rand

	// Logger used by the strategy. Defaults to a no-op logger.
	Logger *zap.Logger

	// Progress is called once per iteration when set
	Progress ProgressFunc
}

// RNG returns the random source the strategy should draw from.
func (o Options) RNG() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	if o.RandomSeed == 0 {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(o.RandomSeed))
}

// Log returns the configured logger or a no-op one.
func (o Options) Log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Report forwards p to the progress hook, if any.
func (o Options) Report(p Progress) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// CheckContext returns a wrapped context error once ctx is done.
func CheckContext(ctx context.Context, component string) error {
	select {
	case <-ctx.Done():
		return WrapError(ctx.Err(), "search interrupted").WithComponent(component)
	default:
		return nil
	}
}
