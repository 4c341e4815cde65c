package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/dag"
)

func newPlanCmd(root *rootOptions) *cobra.Command {
	var (
		script string
		order  bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the execution plan without running anything",
		Long: `Plan loads and validates the build file and prints the tasks grouped by
dependency depth. Tasks on the same level may run in parallel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			g, err := dag.LoadBuildFile(cfg.Orchestrator.BuildFile)
			if err != nil {
				return err
			}
			if script != "" {
				if g, err = g.Subgraph(script); err != nil {
					return err
				}
			}
			policy := dag.UnknownPolicy(cfg.Orchestrator.UnknownDependencies)
			if err := dag.Validate(g, dag.WithUnknownPolicy(policy)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if order {
				names, err := g.TopologicalOrder()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			levels, err := g.Levels()
			if err != nil {
				return err
			}
			for i, level := range levels {
				fmt.Fprintf(out, "level %d: %s\n", i, strings.Join(level, ", "))
			}
			unknown := g.UnknownDependencies()
			for _, task := range slices.Sorted(maps.Keys(unknown)) {
				fmt.Fprintf(out, "warning: %s depends on unknown %s\n", task, strings.Join(unknown[task], ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&script, "script", "s", "", "plan only this script and its dependencies")
	cmd.Flags().BoolVar(&order, "order", false, "print one task per line in execution order")
	return cmd
}
