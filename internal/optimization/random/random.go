// Package random implements pure random sampling, the baseline every other
// strategy has to beat.
package random

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// Name is the registered strategy name
const Name = "random"

// DefaultTrials matches the sample count of the classic random optimizer
const DefaultTrials = 1000

// Config configures a random search
type Config struct {
	optimization.Options

	// Number of independent candidates to sample. Must be >= 1.
	Trials int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{Trials: DefaultTrials}
}

// Optimizer samples candidates independently and keeps the cheapest.
type Optimizer struct {
	config Config
}

// New validates cfg and returns a random search optimizer
func New(cfg Config) (*Optimizer, error) {
	if cfg.Trials < 1 {
		return nil, optimization.NewValidationError(optimization.ErrInvalidConfig,
			"trials must be >= 1, got %d", cfg.Trials).WithComponent(Name)
	}
	return &Optimizer{config: cfg}, nil
}

// Name returns the strategy name
func (o *Optimizer) Name() string { return Name }

// Optimize draws Trials candidates and returns the first one with the lowest cost.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.SearchResult, error) {
	if err := problem.Validate(Name); err != nil {
		return nil, err
	}

	rng := o.config.RNG()
	log := o.config.Log().With(zap.String("strategy", Name))
	eval := optimization.NewEvaluator(problem.Cost, Name)

	var best optimization.Candidate
	bestCost := math.Inf(1)
	costs := make([]float64, 0, o.config.Trials)

	for i := 0; i < o.config.Trials; i++ {
		if err := optimization.CheckContext(ctx, Name); err != nil {
			return nil, err
		}

		c := optimization.RandomCandidate(problem.Domain, rng)
		cost, err := eval.Eval(c)
		if err != nil {
			return nil, err
		}
		costs = append(costs, cost)

		// Strict comparison: the first candidate seen wins ties.
		if best == nil || cost < bestCost {
			best = c
			bestCost = cost
		}

		o.config.Report(optimization.Progress{
			Strategy:  Name,
			Iteration: i,
			Cost:      cost,
			BestCost:  bestCost,
			Best:      best,
		})
	}

	mean, std := stat.MeanStdDev(costs, nil)
	log.Debug("random search finished",
		zap.Int("trials", o.config.Trials),
		zap.Float64("best_cost", bestCost),
		zap.Float64("mean_cost", mean),
		zap.Float64("std_cost", std),
	)

	return &optimization.SearchResult{
		Candidate:   best,
		Cost:        bestCost,
		Iterations:  o.config.Trials,
		Evaluations: eval.Calls(),
	}, nil
}
