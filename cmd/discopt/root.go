package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/discopt/internal/logging"
)

var version = "0.1.0"

type rootOptions struct {
	logLevel  string
	logFormat string
	logger    *logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "discopt",
		Short: "Discrete combinatorial optimization",
		Long: `discopt searches integer vectors for the lowest cost using random
search, hill-climbing, simulated annealing or a genetic algorithm.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = logging.NewWithFormat(
				logging.ParseLevel(opts.logLevel),
				logging.Format(opts.logFormat),
				cmd.ErrOrStderr(),
			)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		newSolveCmd(opts),
		newStrategiesCmd(),
		newProblemsCmd(),
	)
	return cmd
}
