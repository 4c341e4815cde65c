package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/report"
)

func newClearLogsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-logs",
		Short: "Remove the build log and the dashboard file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			buildLog := cfg.Logging.File
			if buildLog == "" {
				buildLog = filepath.Join(cfg.Orchestrator.LogDir, "build.log")
			}

			removed, err := report.ClearLogs(buildLog, cfg.Orchestrator.DashboardFile)
			for _, path := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
			}
			if len(removed) == 0 && err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to clear")
			}
			return err
		},
	}
}
