package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/discopt/internal/logging"
	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/optimization/genetic"
	"github.com/copyleftdev/discopt/internal/optimization/strategy"
	"github.com/copyleftdev/discopt/internal/problems"
)

type solveOptions struct {
	root *rootOptions

	problem    string
	strategy   string
	seed       int64
	bounds     []string
	targets    []int
	paramsPath string
	timeout    time.Duration
	jsonOutput bool

	catalog  problems.Catalog
	params   strategy.Params
	mutation float64
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	o := &solveOptions{root: root}
	return o.command()
}

func (o *solveOptions) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run one optimization and print the result",
		Example: `  discopt solve --problem flights --strategy genetic --seed 42
  discopt solve --problem quadratic --bounds=-10:10,-10:10 --targets 3,-4 --strategy hillclimb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.problem, "problem", problems.FlightsName, "Problem to solve")
	f.StringVar(&o.strategy, "strategy", "annealing", "Search strategy")
	f.Int64Var(&o.seed, "seed", 0, "Random seed (0 seeds from the clock)")
	f.StringSliceVar(&o.bounds, "bounds", nil, "Variable bounds as min:max, for quadratic and linear")
	f.IntSliceVar(&o.targets, "targets", nil, "Target point for quadratic")
	f.StringVar(&o.paramsPath, "params", "", "YAML file with strategy parameters")
	f.DurationVar(&o.timeout, "timeout", 0, "Stop the search after this long (0 means no limit)")
	f.BoolVar(&o.jsonOutput, "json", false, "Print the result as JSON")

	f.StringVar(&o.catalog.SchedulePath, "schedule", "", "Flight schedule CSV for the flights problem")
	f.StringVar(&o.catalog.TripPath, "trip", "", "Trip plan YAML for the flights problem")
	f.StringVar(&o.catalog.DormsPath, "dorms", "", "Dorm plan YAML for the dorms problem")

	p := &o.params
	f.IntVar(&p.Trials, "trials", 0, "random: number of samples")
	f.IntVar(&p.Restarts, "restarts", 0, "hillclimb: number of climbs")
	f.IntSliceVar(&p.Start, "start", nil, "hillclimb: starting candidate")
	f.Float64Var(&p.InitialTemperature, "temperature", 0, "annealing: initial temperature")
	f.Float64Var(&p.CoolingRate, "cooling", 0, "annealing: cooling rate in (0, 1)")
	f.Float64Var(&p.MinTemperature, "min-temperature", 0, "annealing: stop below this temperature")
	f.BoolVar(&p.TrackBest, "track-best", false, "annealing: return the best state seen instead of the final one")
	f.IntVar(&p.Step, "step", 0, "annealing, genetic: maximum change of one variable")
	f.IntVar(&p.PopulationSize, "population", 0, "genetic: population size")
	f.Float64Var(&o.mutation, "mutation", genetic.DefaultMutationRate, "genetic: probability a child is a mutant")
	f.Float64Var(&p.EliteFraction, "elite", 0, "genetic: fraction of the population kept each generation")
	f.IntVar(&p.MaxGenerations, "generations", 0, "genetic: number of generations")
	f.IntVar(&p.Workers, "workers", 0, "genetic: parallel cost evaluations")

	return cmd
}

// parseBounds turns "min:max" pairs into bounds.
func parseBounds(raw []string) ([]optimization.Bound, error) {
	out := make([]optimization.Bound, 0, len(raw))
	for _, r := range raw {
		lo, hi, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("bound %q: want min:max", r)
		}
		lower, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("bound %q: %w", r, err)
		}
		upper, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("bound %q: %w", r, err)
		}
		out = append(out, optimization.Bound{Min: lower, Max: upper})
	}
	return out, nil
}

// loadParams reads the params file and lets explicitly set flags override it.
func (o *solveOptions) loadParams(cmd *cobra.Command) (strategy.Params, error) {
	flags := cmd.Flags()
	if o.paramsPath == "" {
		p := o.params
		if flags.Changed("mutation") {
			p.MutationRate = &o.mutation
		}
		return p, nil
	}
	data, err := os.ReadFile(o.paramsPath)
	if err != nil {
		return strategy.Params{}, err
	}
	var p strategy.Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return strategy.Params{}, fmt.Errorf("params %s: %w", o.paramsPath, err)
	}

	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("trials", func() { p.Trials = o.params.Trials })
	set("restarts", func() { p.Restarts = o.params.Restarts })
	set("start", func() { p.Start = o.params.Start })
	set("temperature", func() { p.InitialTemperature = o.params.InitialTemperature })
	set("cooling", func() { p.CoolingRate = o.params.CoolingRate })
	set("min-temperature", func() { p.MinTemperature = o.params.MinTemperature })
	set("track-best", func() { p.TrackBest = o.params.TrackBest })
	set("step", func() { p.Step = o.params.Step })
	set("population", func() { p.PopulationSize = o.params.PopulationSize })
	set("mutation", func() { p.MutationRate = &o.mutation })
	set("elite", func() { p.EliteFraction = o.params.EliteFraction })
	set("generations", func() { p.MaxGenerations = o.params.MaxGenerations })
	set("workers", func() { p.Workers = o.params.Workers })
	return p, nil
}

type solveOutput struct {
	Strategy    string                     `json:"strategy"`
	Problem     string                     `json:"problem"`
	Result      *optimization.SearchResult `json:"result"`
	Description []string                   `json:"description"`
	Elapsed     string                     `json:"elapsed"`
}

func (o *solveOptions) run(cmd *cobra.Command) error {
	logger := o.root.logger.WithFields(map[string]interface{}{
		"problem":  o.problem,
		"strategy": o.strategy,
	})

	bounds, err := parseBounds(o.bounds)
	if err != nil {
		return err
	}
	p, err := o.catalog.Build(problems.Spec{Name: o.problem, Bounds: bounds, Targets: o.targets})
	if err != nil {
		return err
	}
	params, err := o.loadParams(cmd)
	if err != nil {
		return err
	}

	opt, err := strategy.New(o.strategy, params, optimization.Options{
		RandomSeed: o.seed,
		Logger:     logging.NewZapLogger(logger),
		Progress: func(pr optimization.Progress) {
			logger.Debug("progress", map[string]interface{}{
				"iteration": pr.Iteration,
				"cost":      pr.Cost,
				"best_cost": pr.BestCost,
			})
		},
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := opt.Optimize(ctx, problems.Optimization(p))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("search finished", map[string]interface{}{
		"cost":        res.Cost,
		"evaluations": res.Evaluations,
		"elapsed":     elapsed.String(),
	})

	lines, err := p.Describe(res.Candidate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(solveOutput{
			Strategy:    opt.Name(),
			Problem:     p.Name(),
			Result:      res,
			Description: lines,
			Elapsed:     elapsed.String(),
		})
	}

	fmt.Fprintf(out, "problem:     %s\n", p.Name())
	fmt.Fprintf(out, "strategy:    %s\n", opt.Name())
	fmt.Fprintf(out, "cost:        %g\n", res.Cost)
	fmt.Fprintf(out, "candidate:   %v\n", []int(res.Candidate))
	fmt.Fprintf(out, "iterations:  %d\n", res.Iterations)
	fmt.Fprintf(out, "evaluations: %d\n", res.Evaluations)
	fmt.Fprintln(out)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}
