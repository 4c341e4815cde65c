// Package testutil provides a scripted executor and a state-transition
// recorder for testing code built on the dag package.
//
// Example:
//
//	func TestBuild(t *testing.T) {
//	    exec := testutil.NewFakeExecutor().
//	        FailTimes("test.sh", 1).
//	        NotFound("deploy.sh")
//	    rec := testutil.NewRecorder()
//
//	    s := dag.NewScheduler(dag.WithRetryPolicy(testutil.FastRetries(2)), rec.Option())
//	    summary, err := s.Run(context.Background(), dag.Graph{"test.sh": nil, "deploy.sh": {"test.sh"}}, exec)
//	    // ... assertions on summary, exec.Calls and rec.Index
//	}
package testutil
