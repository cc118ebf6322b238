package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/httputils/logger"
	"github.com/kbukum/httputils/workerpool"
)

// DoAsync executes the request on the client executor and reports the
// outcome to cb.
func (r *Request) DoAsync(ctx context.Context, method Method, cb Callback) {
	var exec workerpool.Executor
	if r.client != nil {
		exec = r.client.executor
	}
	r.DoAsyncOn(ctx, exec, method, cb)
}

// DoAsyncOn executes the request on exec and reports the outcome to cb.
//
// The snapshot is taken before DoAsyncOn returns, so later mutations of r do
// not affect this execution. On success cb.OnResponse runs and the response
// is closed afterwards, even if the handler panics. On failure
// cb.OnFailure runs instead. If exec rejects the task, cb.OnFailure is
// called on the calling goroutine with the rejection error.
func (r *Request) DoAsyncOn(ctx context.Context, exec workerpool.Executor, method Method, cb Callback) {
	snap, err := r.snapshot()
	if r.client == nil {
		cb.OnFailure(err)
		return
	}
	c := r.client

	if exec == nil {
		exec = c.executor
	}

	c.metrics.AsyncStarted(ctx, c.config.Name)
	task := func() {
		defer c.metrics.AsyncFinished(ctx, c.config.Name)
		if err != nil {
			c.invokeCallback("OnFailure", func() { cb.OnFailure(err) })
			return
		}
		c.deliver(ctx, method, snap, cb)
	}

	if submitErr := exec.Submit(task); submitErr != nil {
		c.metrics.AsyncFinished(ctx, c.config.Name)
		c.log.Warn("async request rejected", logger.ErrorFields("submit", submitErr))
		cb.OnFailure(submitErr)
	}
}

// deliver runs the sync loop and hands the outcome to exactly one handler.
func (c *Client) deliver(ctx context.Context, method Method, snap *requestSnapshot, cb Callback) {
	resp, err := c.execute(ctx, method, snap)
	if err != nil {
		c.invokeCallback("OnFailure", func() { cb.OnFailure(err) })
		return
	}
	defer resp.Close()
	c.invokeCallback("OnResponse", func() { cb.OnResponse(resp) })
}

// invokeCallback runs fn and turns a panic into an ErrCodeCallback error
// that is logged and passed to the callback error handler.
func (c *Client) invokeCallback(name string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			err := NewCallbackError(fmt.Errorf("panic in %s: %v", name, v))
			c.log.Error("callback panicked", logger.ErrorFields(name, err))
			if c.onCallbackError != nil {
				c.onCallbackError(err)
			}
		}
	}()
	fn()
}

// GetAsync executes a GET request on the client executor.
func (r *Request) GetAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodGet, cb) }

// PutAsync executes a PUT request on the client executor.
func (r *Request) PutAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodPut, cb) }

// PatchAsync executes a PATCH request on the client executor.
func (r *Request) PatchAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodPatch, cb) }

// PostAsync executes a POST request on the client executor.
func (r *Request) PostAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodPost, cb) }

// DeleteAsync executes a DELETE request on the client executor.
func (r *Request) DeleteAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodDelete, cb) }

// OptionsAsync executes an OPTIONS request on the client executor.
func (r *Request) OptionsAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodOptions, cb) }

// HeadAsync executes a HEAD request on the client executor.
func (r *Request) HeadAsync(ctx context.Context, cb Callback) { r.DoAsync(ctx, MethodHead, cb) }

// GetAsyncOn executes a GET request on exec.
func (r *Request) GetAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodGet, cb)
}

// PutAsyncOn executes a PUT request on exec.
func (r *Request) PutAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodPut, cb)
}

// PatchAsyncOn executes a PATCH request on exec.
func (r *Request) PatchAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodPatch, cb)
}

// PostAsyncOn executes a POST request on exec.
func (r *Request) PostAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodPost, cb)
}

// DeleteAsyncOn executes a DELETE request on exec.
func (r *Request) DeleteAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodDelete, cb)
}

// OptionsAsyncOn executes an OPTIONS request on exec.
func (r *Request) OptionsAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodOptions, cb)
}

// HeadAsyncOn executes a HEAD request on exec.
func (r *Request) HeadAsyncOn(ctx context.Context, exec workerpool.Executor, cb Callback) {
	r.DoAsyncOn(ctx, exec, MethodHead, cb)
}
