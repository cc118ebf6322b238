package httpclient

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP request method supported by the execution engine.
type Method string

// Supported methods.
const (
	MethodGet     Method = http.MethodGet
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodPost    Method = http.MethodPost
	MethodDelete  Method = http.MethodDelete
	MethodOptions Method = http.MethodOptions
	MethodHead    Method = http.MethodHead
)

// String returns the method name.
func (m Method) String() string { return string(m) }

// carriesBody reports whether the request entity is sent for this method.
func (m Method) carriesBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// ParseMethod returns the Method named by s, ignoring case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MethodGet, MethodPut, MethodPatch, MethodPost, MethodDelete, MethodOptions, MethodHead:
		return m, nil
	}
	return "", NewInvalidArgumentError(fmt.Sprintf("unsupported method %q", s), nil)
}
