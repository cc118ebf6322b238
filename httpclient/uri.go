package httpclient

import (
	"errors"
	"net/url"
	"strings"
)

// illegalURIChars are characters that are never valid unescaped in a URI.
const illegalURIChars = " \t\r\n\"<>\\^`{|}"

var errIllegalURIChar = errors.New("illegal character in uri")

type pathParam struct {
	name  string
	value string
}

// buildURI substitutes path parameters into template, parses the result and
// appends the query parameters in insertion order.
func buildURI(template string, params []pathParam, query []entry) (*url.URL, error) {
	raw := template
	for _, p := range params {
		raw = strings.ReplaceAll(raw, "{"+p.name+"}", p.value)
	}

	if strings.ContainsAny(raw, illegalURIChars) {
		return nil, NewInvalidURIError(raw, errIllegalURIChar)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, NewInvalidURIError(raw, err)
	}

	if len(query) == 0 {
		return u, nil
	}
	var b strings.Builder
	b.WriteString(u.RawQuery)
	for _, e := range query {
		for _, v := range e.values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(e.name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	u.RawQuery = b.String()
	return u, nil
}
