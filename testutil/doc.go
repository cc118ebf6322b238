// Package testutil starts components for tests and stops them when the test
// ends.
//
//	func TestRetry(t *testing.T) {
//	    up := testutil.Upstream(t)
//	    resp, err := client.URL(up.Server().URL() + "/flaky/job?fail=2").
//	        Retry(3, resilience.RetryStandard(), resilience.WaitNone()).
//	        Get(ctx)
//	    ...
//	    testutil.T(t).Reset(up) // /flaky keys fail again
//	}
//
// A TestComponent is a component.Component that can also be reset and
// snapshotted between test cases.
package testutil
