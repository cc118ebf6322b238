package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "invalid_argument", ErrCodeInvalidArgument.String())
	assert.Equal(t, "invalid_uri", ErrCodeInvalidURI.String())
	assert.Equal(t, "transport", ErrCodeTransport.String())
	assert.Equal(t, "retry_exhausted", ErrCodeRetryExhausted.String())
	assert.Equal(t, "status_retry_exhausted", ErrCodeStatusRetryExhausted.String())
	assert.Equal(t, "callback", ErrCodeCallback.String())
	assert.Equal(t, "rejected", ErrCodeRejected.String())
	assert.Equal(t, "unknown", ErrorCode(99).String())
}

func TestError_Message(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Equal(t, "httpclient: transport: request failed: dial tcp: refused", NewTransportError(cause).Error())
	assert.Equal(t,
		"httpclient: status_retry_exhausted (HTTP 503): giving up after 4 attempts",
		NewStatusRetryExhaustedError(503, 4).Error())
}

func TestError_Classification(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", NewRetryExhaustedError(3, cause))

	assert.True(t, IsRetryExhausted(wrapped))
	assert.False(t, IsTransport(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	assert.True(t, IsInvalidArgument(NewInvalidArgumentError("x", nil)))
	assert.True(t, IsInvalidURI(NewInvalidURIError("h t", nil)))
	assert.True(t, IsCallback(NewCallbackError(cause)))
	assert.False(t, IsCallback(cause))
	assert.False(t, IsCallback(nil))
	assert.True(t, IsRejected(NewRejectedError(cause)))

	assert.Equal(t, 429, StatusCodeOf(NewStatusRetryExhaustedError(429, 2)))
	assert.Equal(t, 0, StatusCodeOf(cause))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(NewTransportError(context.DeadlineExceeded)))
	assert.True(t, IsTimeout(NewTransportError(timeoutErr{})))
	assert.False(t, IsTimeout(NewTransportError(errors.New("refused"))))
}
