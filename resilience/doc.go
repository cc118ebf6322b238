// Package resilience provides the fault-tolerance building blocks used by
// the HTTP client.
//
// This package includes:
//   - RetryPolicy: bounded retry count, a Retryable predicate and a WaitStrategy
//   - Retryables: RetryStandard, RetryOnStatus, RetryOnTransportError
//   - Wait strategies: WaitNone, WaitConstant, WaitLinear, WaitExponential
//   - RateLimiter: token bucket limiter backed by golang.org/x/time/rate
//   - CircuitBreaker: fails fast after consecutive failures
//   - Bulkhead: caps concurrent calls
//
// Example:
//
//	policy, err := resilience.NewRetryPolicy(3, resilience.RetryStandard(), resilience.WaitExponential())
//	if err != nil {
//	    return err
//	}
//	resp, err := client.URL("https://api.example.com/items").RetryPolicy(policy).Get(ctx)
package resilience
