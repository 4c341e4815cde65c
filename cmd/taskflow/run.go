package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/report"
	"github.com/kbukum/taskflow/validation"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		all        bool
		script     string
		noParallel bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every task, or one script and its dependencies",
		Example: `  taskflow run --all
  taskflow run --script test.sh
  taskflow run --all --no-parallel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if script != "" {
				if err := validation.New().TaskName("script", script).Validate(); err != nil {
					return err
				}
			}

			app, err := root.newApp()
			if err != nil {
				return err
			}
			if noParallel {
				app.Cfg.Orchestrator.Concurrency = 1
			}

			var summary *dag.Summary
			err = app.RunTask(cmd.Context(), func(ctx context.Context) error {
				var runErr error
				summary, runErr = app.Build(ctx, "", script)
				return runErr
			})
			if summary != nil {
				tableErr := report.WriteTable(cmd.OutOrStdout(), summary, report.TableOptions{
					Title:      "Build summary",
					NoColor:    noColor || app.Cfg.Logging.NoColor,
					ShowErrors: true,
				})
				if tableErr != nil && err == nil {
					err = tableErr
				}
			}
			if err != nil {
				return err
			}
			if !summary.AllSucceeded() {
				return fmt.Errorf("%d of %d tasks did not succeed: %v",
					len(summary.Unsuccessful()), summary.Scheduled, summary.Unsuccessful())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&all, "all", false, "run every task in the build file (default when --script is not given)")
	flags.StringVarP(&script, "script", "s", "", "run this script and everything it depends on")
	flags.BoolVar(&noParallel, "no-parallel", false, "run one task at a time")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.MarkFlagsMutuallyExclusive("all", "script")
	return cmd
}
