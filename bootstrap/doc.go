// Package bootstrap manages the lifecycle of taskflow processes.
//
// An App validates the configuration, initializes the global and component
// loggers, installs tracing and metrics, and runs startup and shutdown hooks
// around either a finite task (RunTask, used by the build commands) or a
// long-running service (Run, used by the HTTP server):
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    return err
//	}
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return build(ctx, app)
//	})
//
// SIGINT and SIGTERM cancel the task's context. Shutdown hooks, telemetry
// flushing and closing the build log always happen before RunTask returns.
package bootstrap
