// Package httpclient provides a fluent HTTP request builder with bounded
// retries and synchronous or callback-based execution.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{Timeout: 10 * time.Second})
//	if err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	resp, err := client.URL("https://api.example.com/users/{id}").
//	    PathParam("id", "42").
//	    QueryParam("expand", "roles").
//	    AuthBearer(token).
//	    Get(ctx)
//	if err != nil {
//	    return err
//	}
//	defer resp.Close()
//
// # Retries
//
// A request without a retry policy makes exactly one attempt. With a policy
// the request makes at most MaxRetries+1 attempts, waiting
// policy.Wait(n) before the (n+1)th retry:
//
//	resp, err := client.URL(u).
//	    Retry(3, resilience.RetryStandard(), resilience.WaitExponential()).
//	    Post(ctx)
//
// When every attempt fails at the transport level the error satisfies
// IsRetryExhausted; when the predicate rejects the final status it
// satisfies IsStatusRetryExhausted.
//
// # Async
//
// The *Async methods run the same loop on a worker pool and report the
// outcome to exactly one method of a Callback. The response passed to
// OnResponse is closed when the handler returns. Package callback provides
// ready-made handlers with status checks and body decoding.
package httpclient
