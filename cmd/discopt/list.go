package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/discopt/internal/optimization/strategy"
	"github.com/copyleftdev/discopt/internal/problems"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List search strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc := strategy.Describe()
			for _, name := range strategy.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", name, desc[name])
			}
			return nil
		},
	}
}

func newProblemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "problems",
		Short: "List built-in problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var catalog problems.Catalog
			desc := catalog.Describe()
			for _, name := range catalog.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", name, desc[name])
			}
			return nil
		},
	}
}
