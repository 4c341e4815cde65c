// Package runner executes tasks as scripts.
//
// A task name is a path relative to the script directory. The interpreter is
// chosen by file suffix (".py" runs under python3, ".sh" and ".bash" under
// bash) and more can be registered with WithInterpreter. ScriptExecutor
// implements dag.Executor:
//
//	exec := runner.New(runner.Config{ScriptDir: "scripts", Timeout: 10 * time.Minute})
//	summary, err := dag.NewScheduler().Run(ctx, graph, exec)
package runner
