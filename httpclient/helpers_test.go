package httpclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbukum/httputils/logger"
)

// outcome is one scripted transport result.
type outcome struct {
	status int
	body   string
	err    error
}

// scriptedTransport replays outcomes in order and tracks open bodies.
type scriptedTransport struct {
	mu       sync.Mutex
	outcomes []outcome
	calls    []*Call

	open         atomic.Int32
	openAtSend   []int32
	bodiesClosed atomic.Int32
}

func script(outcomes ...outcome) *scriptedTransport {
	return &scriptedTransport{outcomes: outcomes}
}

func status(code int) outcome { return outcome{status: code} }

func failure(err error) outcome { return outcome{err: err} }

func (s *scriptedTransport) Send(_ context.Context, call *Call) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call)
	s.openAtSend = append(s.openAtSend, s.open.Load())
	if len(s.outcomes) == 0 {
		return &http.Response{StatusCode: http.StatusOK, Body: s.newBody("")}, nil
	}
	next := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &http.Response{
		StatusCode: next.status,
		Header:     http.Header{},
		Body:       s.newBody(next.body),
	}, nil
}

func (s *scriptedTransport) newBody(content string) io.ReadCloser {
	s.open.Add(1)
	return &trackedBody{Reader: strings.NewReader(content), owner: s}
}

func (s *scriptedTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scriptedTransport) call(i int) *Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

type trackedBody struct {
	io.Reader
	owner  *scriptedTransport
	closed atomic.Bool
}

func (b *trackedBody) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		b.owner.open.Add(-1)
		b.owner.bodiesClosed.Add(1)
	}
	return nil
}

func newTestClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}
