package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Response wraps one transport response and owns its body stream.
//
// The body is read at most once and cached, so Text, Bytes and DecodeJSON
// can be mixed freely. Close must be called on every exit path; it is
// idempotent.
type Response struct {
	raw *http.Response

	readOnce sync.Once
	body     []byte
	readErr  error

	closeOnce sync.Once
}

func newResponse(raw *http.Response) *Response {
	return &Response{raw: raw}
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	if r == nil || r.raw == nil {
		return 0
	}
	return r.raw.StatusCode
}

// IsOK reports a 2xx status.
func (r *Response) IsOK() bool { return statusInRange(r.Status(), 200) }

// IsRedirect reports a 3xx status.
func (r *Response) IsRedirect() bool { return statusInRange(r.Status(), 300) }

// IsClientError reports a 4xx status.
func (r *Response) IsClientError() bool { return statusInRange(r.Status(), 400) }

// IsServerError reports a 5xx status.
func (r *Response) IsServerError() bool { return statusInRange(r.Status(), 500) }

// Header returns the response headers.
func (r *Response) Header() http.Header {
	if r == nil || r.raw == nil {
		return http.Header{}
	}
	return r.raw.Header
}

// Raw returns the underlying *http.Response. Reading its body directly
// bypasses the cache used by Text and Bytes.
func (r *Response) Raw() *http.Response {
	return r.raw
}

// Bytes returns the response body.
func (r *Response) Bytes() ([]byte, error) {
	r.readOnce.Do(func() {
		if r.raw == nil || r.raw.Body == nil {
			return
		}
		r.body, r.readErr = io.ReadAll(r.raw.Body)
	})
	return r.body, r.readErr
}

// Text returns the response body decoded as UTF-8. Invalid sequences are
// replaced with U+FFFD.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("httpclient: decode response body: %w", err)
	}
	return nil
}

// Close releases the body stream. Errors from closing are swallowed and
// calling Close more than once is safe.
func (r *Response) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		closeBody(r.raw)
	})
	return nil
}

func closeBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}

// drainLimit bounds how much of an unread body is discarded so the
// connection can be reused.
const drainLimit = 64 << 10

func statusInRange(code, base int) bool {
	return code >= base && code <= base+99
}

// IsStatusOK reports whether resp has a 2xx status. A nil resp is not OK.
func IsStatusOK(resp *http.Response) bool {
	return resp != nil && statusInRange(resp.StatusCode, 200)
}

// IsStatusRedirect reports whether resp has a 3xx status.
func IsStatusRedirect(resp *http.Response) bool {
	return resp != nil && statusInRange(resp.StatusCode, 300)
}

// IsStatusClientError reports whether resp has a 4xx status.
func IsStatusClientError(resp *http.Response) bool {
	return resp != nil && statusInRange(resp.StatusCode, 400)
}

// IsStatusServerError reports whether resp has a 5xx status.
func IsStatusServerError(resp *http.Response) bool {
	return resp != nil && statusInRange(resp.StatusCode, 500)
}
