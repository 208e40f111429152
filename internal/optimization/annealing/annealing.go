// Package annealing implements simulated annealing with geometric cooling.
//
// A run keeps one current candidate and a temperature. Each iteration perturbs
// a single variable by up to Step, always accepts a move that is not worse and
// accepts a worse move with probability exp((costCurrent-costPerturbed)/T).
// High temperatures make the walk close to random; as T decays the search turns
// into greedy descent. By default the final state is returned, not the best
// state visited.
package annealing

import (
	"context"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// Name is the registered strategy name
const Name = "annealing"

const (
	DefaultInitialTemperature = 10000.0
	DefaultCoolingRate        = 0.95
	DefaultMinTemperature     = 0.1
	DefaultStep               = 1
)

// Config configures an annealing run
type Config struct {
	optimization.Options

	// Starting temperature. Must be > 0.
	InitialTemperature float64

	// Factor applied to the temperature after every iteration, in (0, 1)
	CoolingRate float64

	// The run stops once the temperature falls below this value. Must be > 0.
	MinTemperature float64

	// Maximum magnitude of a single perturbation. Must be >= 1.
	Step int

	// Return the best candidate visited instead of the final state
	TrackBest bool
}

// DefaultConfig returns the classic schedule: 10000 cooled by 0.95 down to 0.1
func DefaultConfig() Config {
	return Config{
		InitialTemperature: DefaultInitialTemperature,
		CoolingRate:        DefaultCoolingRate,
		MinTemperature:     DefaultMinTemperature,
		Step:               DefaultStep,
	}
}

// Optimizer runs simulated annealing
type Optimizer struct {
	config Config
}

// New validates cfg and returns an annealing optimizer
func New(cfg Config) (*Optimizer, error) {
	invalid := func(format string, args ...interface{}) error {
		return optimization.NewValidationError(optimization.ErrInvalidConfig, format, args...).WithComponent(Name)
	}

	switch {
	case cfg.CoolingRate <= 0 || cfg.CoolingRate >= 1 || math.IsNaN(cfg.CoolingRate):
		return nil, invalid("cooling rate must be in (0, 1), got %v", cfg.CoolingRate)
	case !(cfg.InitialTemperature > 0) || math.IsInf(cfg.InitialTemperature, 0):
		return nil, invalid("initial temperature must be a positive number, got %v", cfg.InitialTemperature)
	case !(cfg.MinTemperature > 0):
		return nil, invalid("minimum temperature must be > 0, got %v", cfg.MinTemperature)
	case cfg.Step < 1:
		return nil, invalid("step must be >= 1, got %d", cfg.Step)
	case cfg.Step > math.MaxInt/2:
		return nil, invalid("step must be <= %d, got %d", math.MaxInt/2, cfg.Step)
	}
	return &Optimizer{config: cfg}, nil
}

// Name returns the strategy name
func (o *Optimizer) Name() string { return Name }

// Optimize anneals from a random start until the temperature drops below
// MinTemperature.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.SearchResult, error) {
	if err := problem.Validate(Name); err != nil {
		return nil, err
	}

	rng := o.config.RNG()
	log := o.config.Log().With(zap.String("strategy", Name))
	eval := optimization.NewEvaluator(problem.Cost, Name)
	domain := problem.Domain

	current := optimization.RandomCandidate(domain, rng)
	currentCost, err := eval.Eval(current)
	if err != nil {
		return nil, err
	}
	best, bestCost := current, currentCost

	temp := o.config.InitialTemperature
	iter := 0
	accepted := 0
	for ; temp >= o.config.MinTemperature; iter++ {
		if err := optimization.CheckContext(ctx, Name); err != nil {
			return nil, err
		}

		i := rng.Intn(len(domain))
		delta := rng.Intn(2*o.config.Step+1) - o.config.Step
		next := current.With(i, optimization.Shift(current[i], delta, domain[i].Min, domain[i].Max))

		nextCost, err := eval.Eval(next)
		if err != nil {
			return nil, err
		}

		if accept(currentCost, nextCost, temp, rng) {
			current, currentCost = next, nextCost
			accepted++
		}
		if currentCost < bestCost {
			best, bestCost = current, currentCost
		}

		o.config.Report(optimization.Progress{
			Strategy:    Name,
			Iteration:   iter,
			Cost:        currentCost,
			BestCost:    bestCost,
			Best:        best,
			Temperature: temp,
		})

		temp *= o.config.CoolingRate
	}

	log.Debug("annealing finished",
		zap.Int("iterations", iter),
		zap.Int("accepted", accepted),
		zap.Float64("final_temperature", temp),
		zap.Float64("final_cost", currentCost),
		zap.Float64("best_cost", bestCost),
	)

	result := &optimization.SearchResult{
		Candidate:   current,
		Cost:        currentCost,
		Iterations:  iter,
		Evaluations: eval.Calls(),
	}
	if o.config.TrackBest {
		result.Candidate, result.Cost = best, bestCost
	}
	return result, nil
}

// accept decides whether to move from a state costing curr to one costing
// next at temperature temp. Moves that are not worse are always taken. For a
// worse move the exponent (curr-next)/temp is negative, so the probability is
// strictly below one and shrinks as temp falls.
func accept(curr, next, temp float64, rng *rand.Rand) bool {
	if next <= curr {
		return true
	}
	p := math.Exp((curr - next) / temp)
	return rng.Float64() < p
}
