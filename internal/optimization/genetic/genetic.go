// Package genetic implements an elitist genetic search over integer vectors.
//
// Every generation is ranked by cost; the top fraction survives unchanged and
// the rest of the population is refilled with mutations and single-point
// crossovers of those elites.
package genetic

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// Name is the registered strategy name
const Name = "genetic"

const (
	DefaultPopulationSize = 50
	DefaultStep           = 1
	DefaultMutationRate   = 0.2
	DefaultEliteFraction  = 0.2
	DefaultMaxGenerations = 100
)

// Config configures a genetic search
type Config struct {
	optimization.Options

	// Number of candidates per generation. Must be >= 2.
	PopulationSize int

	// Distance a mutation moves one variable. Must be >= 1.
	Step int

	// Probability that a refill slot is a mutation rather than a crossover, in [0, 1]
	MutationRate float64

	// Share of the ranked population kept as elites, in (0, 1].
	// floor(EliteFraction*PopulationSize) must be at least 1.
	EliteFraction float64

	// Number of generations to evaluate. Must be >= 1.
	MaxGenerations int

	// Evaluate a generation on this many goroutines. Values <= 1 evaluate
	// sequentially. The cost function must be safe for concurrent use when > 1.
	Workers int
}

// DefaultConfig returns the classic settings: 50 members, 20% elites, 20%
// mutations, 100 generations.
func DefaultConfig() Config {
	return Config{
		PopulationSize: DefaultPopulationSize,
		Step:           DefaultStep,
		MutationRate:   DefaultMutationRate,
		EliteFraction:  DefaultEliteFraction,
		MaxGenerations: DefaultMaxGenerations,
	}
}

// EliteCount returns floor(EliteFraction*PopulationSize). A small tolerance
// keeps products such as 0.29*100 from rounding down a whole member.
func (c Config) EliteCount() int {
	return int(math.Floor(c.EliteFraction*float64(c.PopulationSize) + 1e-9))
}

// Optimizer runs the genetic search
type Optimizer struct {
	config Config
	elite  int
}

// New validates cfg and returns a genetic optimizer. Configurations that
// would keep zero elites are rejected.
func New(cfg Config) (*Optimizer, error) {
	invalid := func(format string, args ...interface{}) error {
		return optimization.NewValidationError(optimization.ErrInvalidConfig, format, args...).WithComponent(Name)
	}

	switch {
	case cfg.PopulationSize < 2:
		return nil, invalid("population size must be >= 2, got %d", cfg.PopulationSize)
	case cfg.Step < 1:
		return nil, invalid("step must be >= 1, got %d", cfg.Step)
	case !(cfg.MutationRate >= 0 && cfg.MutationRate <= 1):
		return nil, invalid("mutation rate must be in [0, 1], got %v", cfg.MutationRate)
	case !(cfg.EliteFraction > 0 && cfg.EliteFraction <= 1):
		return nil, invalid("elite fraction must be in (0, 1], got %v", cfg.EliteFraction)
	case cfg.EliteCount() < 1:
		return nil, invalid("elite fraction %v of population %d keeps no elites", cfg.EliteFraction, cfg.PopulationSize)
	case cfg.MaxGenerations < 1:
		return nil, invalid("max generations must be >= 1, got %d", cfg.MaxGenerations)
	}
	return &Optimizer{config: cfg, elite: cfg.EliteCount()}, nil
}

// Name returns the strategy name
func (o *Optimizer) Name() string { return Name }

// Optimize evolves the population for MaxGenerations generations and returns
// the cheapest member of the final ranked generation.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.SearchResult, error) {
	if err := problem.Validate(Name); err != nil {
		return nil, err
	}

	rng := o.config.RNG()
	log := o.config.Log().With(zap.String("strategy", Name))
	eval := optimization.NewEvaluator(problem.Cost, Name)

	population := make([]optimization.Candidate, o.config.PopulationSize)
	for i := range population {
		population[i] = optimization.RandomCandidate(problem.Domain, rng)
	}

	var ranked []optimization.Candidate
	var costs []float64
	for gen := 0; gen < o.config.MaxGenerations; gen++ {
		if err := optimization.CheckContext(ctx, Name); err != nil {
			return nil, err
		}

		scores, err := o.evaluate(ctx, eval, population)
		if err != nil {
			return nil, err
		}
		ranked, costs = rank(population, scores)

		if ce := log.Check(zapcore.DebugLevel, "generation ranked"); ce != nil {
			mean, std := stat.MeanStdDev(costs, nil)
			ce.Write(
				zap.Int("generation", gen),
				zap.Float64("best_cost", costs[0]),
				zap.Float64("mean_cost", mean),
				zap.Float64("std_cost", std),
			)
		}

		o.config.Report(optimization.Progress{
			Strategy:  Name,
			Iteration: gen,
			Cost:      costs[0],
			BestCost:  costs[0],
			Best:      ranked[0],
		})

		if gen == o.config.MaxGenerations-1 {
			break
		}
		population = o.breed(problem.Domain, ranked, rng)
	}

	return &optimization.SearchResult{
		Candidate:   ranked[0].Clone(),
		Cost:        costs[0],
		Iterations:  o.config.MaxGenerations,
		Evaluations: eval.Calls(),
	}, nil
}

// evaluate scores every member, in parallel when Workers > 1. Scores are
// written by index so the result does not depend on scheduling.
func (o *Optimizer) evaluate(ctx context.Context, eval *optimization.Evaluator, population []optimization.Candidate) ([]float64, error) {
	scores := make([]float64, len(population))

	if o.config.Workers <= 1 {
		for i, c := range population {
			v, err := eval.Eval(c)
			if err != nil {
				return nil, err
			}
			scores[i] = v
		}
		return scores, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i, c := range population {
		g.Go(func() error {
			if gctx.Err() != nil {
				return optimization.CheckContext(gctx, Name)
			}
			v, err := eval.Eval(c)
			if err != nil {
				return err
			}
			scores[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// rank orders the population by ascending cost. The sort is stable, so equal
// costs keep their population order.
func rank(population []optimization.Candidate, scores []float64) ([]optimization.Candidate, []float64) {
	idx := make([]int, len(population))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] < scores[idx[b]]
	})

	ranked := make([]optimization.Candidate, len(idx))
	costs := make([]float64, len(idx))
	for i, j := range idx {
		ranked[i] = population[j]
		costs[i] = scores[j]
	}
	return ranked, costs
}

// breed builds the next generation: the elites unchanged, then mutations and
// crossovers of randomly chosen elites until the population is full.
func (o *Optimizer) breed(domain optimization.Domain, ranked []optimization.Candidate, rng *rand.Rand) []optimization.Candidate {
	next := make([]optimization.Candidate, 0, o.config.PopulationSize)
	for _, c := range ranked[:o.elite] {
		next = append(next, c.Clone())
	}

	for len(next) < o.config.PopulationSize {
		if rng.Float64() < o.config.MutationRate {
			parent := ranked[rng.Intn(o.elite)]
			next = append(next, mutate(domain, parent, o.config.Step, rng))
		} else {
			a := ranked[rng.Intn(o.elite)]
			b := ranked[rng.Intn(o.elite)]
			next = append(next, crossover(a, b, rng))
		}
	}
	return next
}

// mutate moves one random variable of c by -step or +step with equal
// probability, saturating at its bound.
func mutate(domain optimization.Domain, c optimization.Candidate, step int, rng *rand.Rand) optimization.Candidate {
	i := rng.Intn(len(c))
	delta := step
	if rng.Float64() < 0.5 {
		delta = -step
	}
	return c.With(i, optimization.Shift(c[i], delta, domain[i].Min, domain[i].Max))
}

// crossover joins the prefix of a with the suffix of b at a split point in
// [1, n-1]. Candidates shorter than two variables cannot be split, so a copy
// of a is returned.
func crossover(a, b optimization.Candidate, rng *rand.Rand) optimization.Candidate {
	n := len(a)
	if n < 2 {
		return a.Clone()
	}
	split := 1 + rng.Intn(n-1)

	child := make(optimization.Candidate, n)
	copy(child[:split], a[:split])
	copy(child[split:], b[split:])
	return child
}
