// Package callback provides httpclient.Callback implementations that check
// the response status and hand the decoded body to a handler.
//
//	client.URL(u).GetAsync(ctx, callback.String(
//	    func(body string, resp *httpclient.Response) { ... },
//	    callback.Expect(http.StatusOK),
//	    callback.OnInvalidStatus(func(status int, resp *httpclient.Response) { ... }),
//	    callback.OnFailure(func(err error) { ... }),
//	))
package callback

import (
	"fmt"
	"net/http"

	"github.com/kbukum/httputils/httpclient"
)

// StatusCheck compares the response status with Expected, reports a
// mismatch to InvalidStatus and then passes the response to Checked.
type StatusCheck struct {
	// Expected is the status treated as valid. Zero means 200.
	Expected int
	// InvalidStatus is called when the status differs from Expected.
	InvalidStatus func(status int, resp *httpclient.Response)
	// SkipInvalid stops delivery to Checked after an invalid status.
	SkipInvalid bool
	// Checked receives the response after the status check.
	Checked func(resp *httpclient.Response)
	// Failure receives execution errors and body read errors.
	Failure func(err error)
}

var _ httpclient.Callback = (*StatusCheck)(nil)

// Option configures a StatusCheck.
type Option func(*StatusCheck)

// Expect sets the expected status code.
func Expect(status int) Option {
	return func(s *StatusCheck) { s.Expected = status }
}

// OnInvalidStatus sets the handler for unexpected status codes.
func OnInvalidStatus(fn func(status int, resp *httpclient.Response)) Option {
	return func(s *StatusCheck) { s.InvalidStatus = fn }
}

// SkipInvalid makes an unexpected status end delivery after InvalidStatus.
func SkipInvalid() Option {
	return func(s *StatusCheck) { s.SkipInvalid = true }
}

// OnFailure sets the failure handler.
func OnFailure(fn func(err error)) Option {
	return func(s *StatusCheck) { s.Failure = fn }
}

// New creates a StatusCheck that passes checked responses to checked.
func New(checked func(resp *httpclient.Response), opts ...Option) *StatusCheck {
	s := &StatusCheck{Checked: checked}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnResponse implements httpclient.Callback.
func (s *StatusCheck) OnResponse(resp *httpclient.Response) {
	if got := resp.Status(); got != s.expected() {
		if s.InvalidStatus != nil {
			s.InvalidStatus(got, resp)
		}
		if s.SkipInvalid {
			return
		}
	}
	if s.Checked != nil {
		s.Checked(resp)
	}
}

// OnFailure implements httpclient.Callback.
func (s *StatusCheck) OnFailure(err error) {
	if s.Failure != nil {
		s.Failure(err)
	}
}

func (s *StatusCheck) expected() int {
	if s.Expected == 0 {
		return http.StatusOK
	}
	return s.Expected
}

// String decodes the body as UTF-8 text before calling fn.
func String(fn func(body string, resp *httpclient.Response), opts ...Option) *StatusCheck {
	s := New(nil, opts...)
	s.Checked = func(resp *httpclient.Response) {
		body, err := resp.Text()
		if err != nil {
			s.OnFailure(fmt.Errorf("callback: read body: %w", err))
			return
		}
		fn(body, resp)
	}
	return s
}

// Bytes reads the raw body before calling fn.
func Bytes(fn func(body []byte, resp *httpclient.Response), opts ...Option) *StatusCheck {
	s := New(nil, opts...)
	s.Checked = func(resp *httpclient.Response) {
		body, err := resp.Bytes()
		if err != nil {
			s.OnFailure(fmt.Errorf("callback: read body: %w", err))
			return
		}
		fn(body, resp)
	}
	return s
}

// JSON unmarshals the body into a T before calling fn. Decode errors go to
// the failure handler.
func JSON[T any](fn func(v T, resp *httpclient.Response), opts ...Option) *StatusCheck {
	s := New(nil, opts...)
	s.Checked = func(resp *httpclient.Response) {
		var v T
		if err := resp.DecodeJSON(&v); err != nil {
			s.OnFailure(err)
			return
		}
		fn(v, resp)
	}
	return s
}
