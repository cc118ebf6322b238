// Package workerpool provides the executor used for asynchronous HTTP
// executions.
//
// A Pool is owned by whoever creates it; there is no package-level default.
//
//	pool := workerpool.New(workerpool.Config{MaxWorkers: 8})
//	defer pool.Shutdown(ctx)
//
//	if err := pool.Submit(func() { ... }); err != nil {
//	    // pool closed
//	}
package workerpool
