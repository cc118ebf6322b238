package resilience

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Retry policy validation errors.
var (
	ErrInvalidMaxRetries = errors.New("maxRetries must be > 0")
	ErrNilRetryable      = errors.New("retryable must not be nil")
	ErrNilWaitStrategy   = errors.New("waitStrategy must not be nil")
)

const (
	// DefaultMaxRetries is the retry count installed by DefaultRetryPolicy.
	DefaultMaxRetries = 5

	// DefaultWait is the delay used by WaitConstantDefault and the step of WaitLinearDefault.
	DefaultWait = time.Second

	exponentialBase = 500 * time.Millisecond
	// maxExponent keeps 2^r * 500ms inside time.Duration.
	maxExponent = 30
)

// Retryable decides whether an attempt should be retried.
//
// Exactly one outcome is reported: err is non-nil when the attempt failed at
// the transport level, otherwise statusCode carries the response status.
type Retryable func(err error, statusCode int) bool

// WaitStrategy returns the delay before a retry. The first retry has index 0.
// Implementations must be safe for concurrent use and never return a
// negative duration.
type WaitStrategy func(retry int) time.Duration

// RetryPolicy configures bounded re-attempts of a single execution.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Retryable decides if an outcome warrants another attempt.
	Retryable Retryable
	// Wait computes the delay before each retry.
	Wait WaitStrategy
}

// NewRetryPolicy builds a validated RetryPolicy.
func NewRetryPolicy(maxRetries int, retryable Retryable, wait WaitStrategy) (RetryPolicy, error) {
	p := RetryPolicy{MaxRetries: maxRetries, Retryable: retryable, Wait: wait}
	if err := p.Validate(); err != nil {
		return RetryPolicy{}, err
	}
	return p, nil
}

// DefaultRetryPolicy retries 5 times on transport errors or 5xx status codes
// with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		Retryable:  RetryStandard(),
		Wait:       WaitExponential(),
	}
}

// Validate checks that the policy can drive a retry loop.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries <= 0 {
		return fmt.Errorf("%w (got: %d)", ErrInvalidMaxRetries, p.MaxRetries)
	}
	if p.Retryable == nil {
		return ErrNilRetryable
	}
	if p.Wait == nil {
		return ErrNilWaitStrategy
	}
	return nil
}

// Delay returns the wait before the given zero-based retry, clamped at zero.
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := p.Wait(retry)
	if d < 0 {
		return 0
	}
	return d
}

// --- Retryables ---

// RetryStandard retries on any transport error or any 5xx status code.
func RetryStandard() Retryable {
	return func(err error, statusCode int) bool {
		if err != nil {
			return true
		}
		return statusCode >= 500 && statusCode <= 599
	}
}

// RetryOnTransportError retries transport errors only; every response is final.
func RetryOnTransportError() Retryable {
	return func(err error, _ int) bool {
		return err != nil
	}
}

// RetryOnStatus retries transport errors and the listed status codes.
func RetryOnStatus(codes ...int) Retryable {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return func(err error, statusCode int) bool {
		if err != nil {
			return true
		}
		_, ok := set[statusCode]
		return ok
	}
}

// --- Wait strategies ---

// WaitNone retries immediately.
func WaitNone() WaitStrategy {
	return func(int) time.Duration { return 0 }
}

// WaitConstant waits d before every retry.
func WaitConstant(d time.Duration) WaitStrategy {
	return func(int) time.Duration { return d }
}

// WaitConstantDefault always waits one second.
func WaitConstantDefault() WaitStrategy {
	return WaitConstant(DefaultWait)
}

// WaitLinear waits (retry+1)*step: step for the first retry, 2*step for the second, ...
func WaitLinear(step time.Duration) WaitStrategy {
	return func(retry int) time.Duration {
		return time.Duration(retry+1) * step
	}
}

// WaitLinearDefault waits 1s, 2s, 3s, ...
func WaitLinearDefault() WaitStrategy {
	return WaitLinear(DefaultWait)
}

// WaitExponential is a randomized exponential backoff: the delay for retry r
// is drawn uniformly from [0, 2^r * 500ms).
func WaitExponential() WaitStrategy {
	return func(retry int) time.Duration {
		if retry < 0 {
			retry = 0
		}
		if retry > maxExponent {
			retry = maxExponent
		}
		ceiling := math.Pow(2, float64(retry)) * float64(exponentialBase)
		return time.Duration(rand.Float64() * ceiling) //nolint:gosec
	}
}
