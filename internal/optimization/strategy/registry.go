// Package strategy builds optimizers by name from loosely-typed parameters, as
// received from the HTTP API or the command line.
package strategy

import (
	"fmt"
	"sort"

	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/optimization/annealing"
	"github.com/copyleftdev/discopt/internal/optimization/genetic"
	"github.com/copyleftdev/discopt/internal/optimization/hillclimb"
	"github.com/copyleftdev/discopt/internal/optimization/random"
)

// Params holds the tuning knobs of every strategy. Zero values select the
// strategy's default; fields that do not apply to the chosen strategy are
// ignored.
type Params struct {
	// random
	Trials int `json:"trials,omitempty" yaml:"trials,omitempty"`

	// hillclimb
	Restarts int   `json:"restarts,omitempty" yaml:"restarts,omitempty"`
	Start    []int `json:"start,omitempty" yaml:"start,omitempty"`

	// annealing
	InitialTemperature float64 `json:"initial_temperature,omitempty" yaml:"initial_temperature,omitempty"`
	CoolingRate        float64 `json:"cooling_rate,omitempty" yaml:"cooling_rate,omitempty"`
	MinTemperature     float64 `json:"min_temperature,omitempty" yaml:"min_temperature,omitempty"`
	TrackBest          bool    `json:"track_best,omitempty" yaml:"track_best,omitempty"`

	// annealing and genetic
	Step int `json:"step,omitempty" yaml:"step,omitempty"`

	// genetic
	PopulationSize int `json:"population_size,omitempty" yaml:"population_size,omitempty"`
	// nil keeps the default rate; an explicit 0 breeds by crossover only.
	MutationRate   *float64 `json:"mutation_rate,omitempty" yaml:"mutation_rate,omitempty"`
	EliteFraction  float64  `json:"elite_fraction,omitempty" yaml:"elite_fraction,omitempty"`
	MaxGenerations int      `json:"max_generations,omitempty" yaml:"max_generations,omitempty"`
	Workers        int      `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Constructor builds an optimizer from params and shared options
type Constructor func(Params, optimization.Options) (optimization.Optimizer, error)

var registry = map[string]Constructor{
	random.Name:    newRandom,
	hillclimb.Name: newHillClimb,
	annealing.Name: newAnnealing,
	genetic.Name:   newGenetic,
}

// New returns the optimizer registered under name.
func New(name string, params Params, opts optimization.Options) (optimization.Optimizer, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, optimization.NewValidationError(optimization.ErrInvalidConfig,
			"unknown strategy %q", name).WithComponent("strategy")
	}
	return ctor(params, opts)
}

// Known reports whether name is a registered strategy.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line summary per strategy, keyed by name.
func Describe() map[string]string {
	return map[string]string{
		random.Name:    fmt.Sprintf("independent uniform sampling (default %d trials)", random.DefaultTrials),
		hillclimb.Name: "steepest descent over +/-1 neighbours until a local optimum",
		annealing.Name: fmt.Sprintf("simulated annealing from T=%g cooled by %g to %g",
			annealing.DefaultInitialTemperature, annealing.DefaultCoolingRate, annealing.DefaultMinTemperature),
		genetic.Name: fmt.Sprintf("elitist genetic search (population %d, %d generations)",
			genetic.DefaultPopulationSize, genetic.DefaultMaxGenerations),
	}
}

func newRandom(p Params, opts optimization.Options) (optimization.Optimizer, error) {
	cfg := random.DefaultConfig()
	cfg.Options = opts
	if p.Trials != 0 {
		cfg.Trials = p.Trials
	}
	opt, err := random.New(cfg)
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func newHillClimb(p Params, opts optimization.Options) (optimization.Optimizer, error) {
	cfg := hillclimb.DefaultConfig()
	cfg.Options = opts
	if p.Restarts != 0 {
		cfg.Restarts = p.Restarts
	}
	if p.Start != nil {
		cfg.Start = optimization.Candidate(p.Start).Clone()
	}
	opt, err := hillclimb.New(cfg)
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func newAnnealing(p Params, opts optimization.Options) (optimization.Optimizer, error) {
	cfg := annealing.DefaultConfig()
	cfg.Options = opts
	if p.InitialTemperature != 0 {
		cfg.InitialTemperature = p.InitialTemperature
	}
	if p.CoolingRate != 0 {
		cfg.CoolingRate = p.CoolingRate
	}
	if p.MinTemperature != 0 {
		cfg.MinTemperature = p.MinTemperature
	}
	if p.Step != 0 {
		cfg.Step = p.Step
	}
	cfg.TrackBest = p.TrackBest
	opt, err := annealing.New(cfg)
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func newGenetic(p Params, opts optimization.Options) (optimization.Optimizer, error) {
	cfg := genetic.DefaultConfig()
	cfg.Options = opts
	if p.PopulationSize != 0 {
		cfg.PopulationSize = p.PopulationSize
	}
	if p.Step != 0 {
		cfg.Step = p.Step
	}
	if p.MutationRate != nil {
		cfg.MutationRate = *p.MutationRate
	}
	if p.EliteFraction != 0 {
		cfg.EliteFraction = p.EliteFraction
	}
	if p.MaxGenerations != 0 {
		cfg.MaxGenerations = p.MaxGenerations
	}
	cfg.Workers = p.Workers
	opt, err := genetic.New(cfg)
	if err != nil {
		return nil, err
	}
	return opt, nil
}
