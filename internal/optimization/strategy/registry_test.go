package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/optimization/optimizationtest"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"annealing", "genetic", "hillclimb", "random"}, Names())

	desc := Describe()
	for _, name := range Names() {
		assert.NotEmpty(t, desc[name], name)
		assert.True(t, Known(name))
	}
	assert.False(t, Known("tabu"))
}

func TestNewUnknown(t *testing.T) {
	opt, err := New("tabu", Params{}, optimization.Options{})
	require.Error(t, err)
	assert.Nil(t, opt)
	assert.ErrorIs(t, err, optimization.ErrInvalidConfig)
}

func TestNewAppliesParams(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		params   Params
		wantErr  bool
	}{
		{name: "random defaults", strategy: "random"},
		{name: "random negative trials", strategy: "random", params: Params{Trials: -1}, wantErr: true},
		{name: "hillclimb restarts", strategy: "hillclimb", params: Params{Restarts: 3}},
		{name: "annealing bad cooling", strategy: "annealing", params: Params{CoolingRate: 1.2}, wantErr: true},
		{name: "annealing custom", strategy: "annealing", params: Params{InitialTemperature: 50, CoolingRate: 0.9, Step: 2}},
		{name: "genetic zero elites", strategy: "genetic", params: Params{PopulationSize: 3}, wantErr: true},
		{name: "genetic custom", strategy: "genetic", params: Params{PopulationSize: 10, EliteFraction: 0.3, Workers: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := New(tt.strategy, tt.params, optimization.Options{RandomSeed: 1})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, opt)
				assert.True(t, optimization.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, opt.Name())
		})
	}
}

func TestGeneticExplicitZeroMutationRate(t *testing.T) {
	domain := optimization.Domain{{Min: 0, Max: 1_000_000}}
	const population = 10

	// novel counts evaluated values absent from the first generation. With a
	// single variable, crossover only copies elites.
	novel := func(rate *float64) int {
		initial := make(map[int]bool)
		calls, count := 0, 0
		cost := optimizationtest.Recording(optimizationtest.Constant(0), func(c optimization.Candidate) {
			if calls < population {
				initial[c[0]] = true
			} else if !initial[c[0]] {
				count++
			}
			calls++
		})
		opt, err := New("genetic", Params{PopulationSize: population, MaxGenerations: 5, MutationRate: rate},
			optimization.Options{RandomSeed: 6})
		require.NoError(t, err)
		_, err = opt.Optimize(context.Background(), optimization.Problem{Domain: domain, Cost: cost})
		require.NoError(t, err)
		return count
	}

	zero, one := 0.0, 1.0
	assert.Zero(t, novel(&zero), "a zero mutation rate must breed by crossover only")
	assert.Positive(t, novel(&one))
}

// Scenarios every strategy must solve exactly.
func TestAllStrategiesSolveScenarios(t *testing.T) {
	scenarios := []struct {
		name    string
		problem optimization.Problem
		want    optimization.Candidate
	}{
		{
			name:    "single variable quadratic",
			problem: optimization.Problem{Domain: optimization.Domain{{Min: 0, Max: 9}}, Cost: optimizationtest.Quadratic(7)},
			want:    optimization.Candidate{7},
		},
		{
			name:    "two binary variables",
			problem: optimization.Problem{Domain: optimization.Domain{{Min: 0, Max: 1}, {Min: 0, Max: 1}}, Cost: optimizationtest.Sum()},
			want:    optimization.Candidate{0, 0},
		},
	}

	for _, sc := range scenarios {
		for _, name := range Names() {
			t.Run(sc.name+"/"+name, func(t *testing.T) {
				params := Params{PopulationSize: 20, MaxGenerations: 30, Restarts: 3, TrackBest: true}
				opt, err := New(name, params, optimization.Options{RandomSeed: 42})
				require.NoError(t, err)

				result, err := opt.Optimize(context.Background(), sc.problem)
				require.NoError(t, err)
				assert.Equal(t, 0.0, result.Cost)
				assert.Equal(t, sc.want, result.Candidate)
				assert.Positive(t, result.Evaluations)
			})
		}
	}
}

func TestAllStrategiesStayInBounds(t *testing.T) {
	domain := optimization.Domain{{Min: 0, Max: 0}, {Min: -4, Max: 4}, {Min: 3, Max: 5}, {Min: -10, Max: -8}}
	cost := optimizationtest.Quadratic(0, 100, -100, 100)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			opt, err := New(name, Params{Trials: 300, Step: 3}, optimization.Options{RandomSeed: 8})
			require.NoError(t, err)

			recorded := optimizationtest.Recording(cost, func(c optimization.Candidate) {
				optimizationtest.AssertInDomain(t, domain, c)
			})
			result, err := opt.Optimize(context.Background(), optimization.Problem{Domain: domain, Cost: recorded})
			require.NoError(t, err)
			optimizationtest.AssertInDomain(t, domain, result.Candidate)

			// The optimum sits on the bounds: 0, 4, 3, -8.
			if name != "random" {
				assert.Equal(t, optimization.Candidate{0, 4, 3, -8}, result.Candidate)
			}
		})
	}
}

func TestAllStrategiesRejectInvalidDomain(t *testing.T) {
	for _, name := range Names() {
		opt, err := New(name, Params{}, optimization.Options{RandomSeed: 1})
		require.NoError(t, err)

		_, err = opt.Optimize(context.Background(), optimization.Problem{
			Domain: optimization.Domain{{Min: 0, Max: 1}, {Min: 4, Max: 2}},
			Cost:   optimizationtest.Sum(),
		})
		assert.ErrorIs(t, err, optimization.ErrInvalidDomain, name)

		_, err = opt.Optimize(context.Background(), optimization.Problem{
			Domain: optimization.Domain{},
			Cost:   optimizationtest.Sum(),
		})
		assert.ErrorIs(t, err, optimization.ErrInvalidDomain, name)
	}
}
