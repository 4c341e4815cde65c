package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/bootstrap"
	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/report"
	"github.com/kbukum/taskflow/server"
	"github.com/kbukum/taskflow/server/endpoint"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port     int
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run reports over HTTP",
		Long: `Serve starts the report server. It exposes the last dashboard and every
run triggered through POST /api/v1/runs until it receives SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.newApp()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				app.Cfg.Server.Port = port
			}

			store := report.NewStore(app.Cfg.Orchestrator.History)
			seedStore(store, app)

			runCtx, cancelRuns := context.WithCancel(context.WithoutCancel(cmd.Context()))
			defer cancelRuns()

			var srv *server.Server
			app.OnStart(func(ctx context.Context) error {
				srv = server.New(app.Cfg.Server, logger.Get(bootstrap.LoggerServer),
					server.WithMetrics(app.Metrics()))
				srv.RegisterDefaultEndpoints(app.Name, app.BuildFileCheck())

				var trigger endpoint.Trigger
				if !readOnly {
					trigger = app.Build
				}
				srv.RegisterRunEndpoints(runCtx, store, trigger)
				return srv.Start(ctx)
			})
			app.OnStop(func(ctx context.Context) error {
				cancelRuns()
				return srv.Stop(ctx)
			})

			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides server.port")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable POST /api/v1/runs")
	return cmd
}

// seedStore loads the last exported dashboard so the latest run survives a
// restart.
func seedStore(store *report.Store, app *bootstrap.App) {
	path := app.Cfg.Orchestrator.DashboardFile
	s, err := report.LoadJSON(path)
	switch {
	case err == nil:
		store.Add(s)
	case errors.Is(err, errors.ErrNotFound):
		app.Logger.Debug("no dashboard to load", logger.Fields("path", path))
	default:
		app.Logger.Warn("unable to load dashboard", logger.Fields(
			"path", path,
			logger.FieldError, err.Error(),
		))
	}
}
