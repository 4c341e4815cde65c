// Package dag runs a set of named tasks in dependency order.
//
// A Graph maps every task to the tasks it depends on. Validate rejects
// cyclic graphs before anything runs. A Scheduler then dispatches tasks as
// their dependencies finish, running independent tasks concurrently and
// sending each one through RunWithRetries, which calls the caller's Executor
// once per attempt. Summarize folds the per-task results into a Summary.
//
//	g := dag.Graph{"compile.sh": nil, "test.sh": {"compile.sh"}}
//	s := dag.NewScheduler(dag.WithConcurrency(4), dag.WithRetryPolicy(dag.DefaultRetryPolicy()))
//	summary, err := s.Run(ctx, g, executor)
//	if err != nil { // only a cycle (or an unknown dependency in strict mode)
//	    ...
//	}
//	if !summary.AllSucceeded() { os.Exit(1) }
//
// Executors are decorated with WithLogging, WithTracing and WithMetrics.
// Build files are read with LoadBuildFile.
package dag
