// Package hillclimb implements steepest-descent local search over the unit
// neighbourhood of a candidate.
//
// A climb is deterministic once its start is fixed and stops at the first
// local optimum it reaches, so different starts may return different optima.
// That is expected behaviour: use Restarts to sample several basins.
package hillclimb

import (
	"context"

	"go.uber.org/zap"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// Name is the registered strategy name
const Name = "hillclimb"

// Config configures a hill climb
type Config struct {
	optimization.Options

	// Start of the first climb. A random candidate is drawn when nil.
	Start optimization.Candidate

	// Number of independent climbs. Must be >= 1.
	Restarts int
}

// DefaultConfig returns a single climb from a random start
func DefaultConfig() Config {
	return Config{Restarts: 1}
}

// Optimizer runs one or more hill climbs and keeps the best local optimum.
type Optimizer struct {
	config Config
}

// New validates cfg and returns a hill-climbing optimizer
func New(cfg Config) (*Optimizer, error) {
	if cfg.Restarts < 1 {
		return nil, optimization.NewValidationError(optimization.ErrInvalidConfig,
			"restarts must be >= 1, got %d", cfg.Restarts).WithComponent(Name)
	}
	return &Optimizer{config: cfg}, nil
}

// Name returns the strategy name
func (o *Optimizer) Name() string { return Name }

// Optimize climbs from each start until no neighbour is strictly cheaper.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.SearchResult, error) {
	if err := problem.Validate(Name); err != nil {
		return nil, err
	}
	if o.config.Start != nil && !problem.Domain.Contains(o.config.Start) {
		return nil, optimization.NewValidationError(optimization.ErrInvalidConfig,
			"start candidate %v is outside the domain", []int(o.config.Start)).WithComponent(Name)
	}

	rng := o.config.RNG()
	log := o.config.Log().With(zap.String("strategy", Name))
	eval := optimization.NewEvaluator(problem.Cost, Name)

	var best *optimization.SearchResult
	iterations := 0

	for r := 0; r < o.config.Restarts; r++ {
		start := o.config.Start.Clone()
		if start == nil || r > 0 {
			start = optimization.RandomCandidate(problem.Domain, rng)
		}

		c, cost, n, err := o.climb(ctx, problem.Domain, eval, start, iterations)
		if err != nil {
			return nil, err
		}
		iterations += n

		log.Debug("climb reached local optimum",
			zap.Int("restart", r),
			zap.Ints("candidate", c),
			zap.Float64("cost", cost),
			zap.Int("moves", n-1),
		)

		if best == nil || cost < best.Cost {
			best = &optimization.SearchResult{Candidate: c, Cost: cost}
		}
	}

	best.Iterations = iterations
	best.Evaluations = eval.Calls()
	return best, nil
}

// climb descends from start and returns the local optimum, its cost and the
// number of iterations used.
func (o *Optimizer) climb(ctx context.Context, domain optimization.Domain, eval *optimization.Evaluator, start optimization.Candidate, offset int) (optimization.Candidate, float64, int, error) {
	current := start
	currentCost, err := eval.Eval(current)
	if err != nil {
		return nil, 0, 0, err
	}

	for iter := 1; ; iter++ {
		if err := optimization.CheckContext(ctx, Name); err != nil {
			return nil, 0, 0, err
		}

		next := -1
		nextCost := currentCost
		neighbors := Neighbors(domain, current)
		for k, n := range neighbors {
			cost, err := eval.Eval(n)
			if err != nil {
				return nil, 0, 0, err
			}
			// Strict improvement only; the first enumerated neighbour wins ties.
			if cost < nextCost {
				next = k
				nextCost = cost
			}
		}

		if next >= 0 {
			current = neighbors[next]
			currentCost = nextCost
		}

		o.config.Report(optimization.Progress{
			Strategy:  Name,
			Iteration: offset + iter - 1,
			Cost:      currentCost,
			BestCost:  currentCost,
			Best:      current,
		})

		if next < 0 {
			return current, currentCost, iter, nil
		}
	}
}

// Neighbors returns the unit neighbourhood of c in enumeration order: for each
// index ascending, the increment (if it stays within the upper bound) followed
// by the decrement (if it stays within the lower bound). Every neighbour is a
// fresh candidate.
func Neighbors(domain optimization.Domain, c optimization.Candidate) []optimization.Candidate {
	out := make([]optimization.Candidate, 0, 2*len(c))
	for i, v := range c {
		if v < domain[i].Max {
			out = append(out, c.With(i, v+1))
		}
		if v > domain[i].Min {
			out = append(out, c.With(i, v-1))
		}
	}
	return out
}
