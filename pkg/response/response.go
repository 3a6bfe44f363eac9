// Package response builds mocked response descriptors by folding an
// ordered list of transformers over a fixed default.
package response

import (
	"net/http"
	"time"
)

// MockedByHeader marks a response as synthesized by a handler. The
// interception layer and tests use it to tell a deliberate mock apart
// from a resolver fault, which never carries it.
const MockedByHeader = "X-Mocked-By"

// MockedByValue is the value set on MockedByHeader by Default.
const MockedByValue = "mockwire"

// Response is a fully formed mocked response descriptor, ready for the
// delivery collaborator to translate into the host transport's format.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the status text, e.g. "OK".
	Status string

	// Header holds the response headers.
	Header http.Header

	// Cookies are set-cookie values to serialize, keyed by cookie name
	// with last-set-wins semantics.
	Cookies []*http.Cookie

	// Body is the response body, nil for an empty body.
	Body []byte

	// Delay is the minimum wait before the response is handed back to
	// the caller. The delivery collaborator honors it; this core only
	// carries the value.
	Delay time.Duration
}

// Default returns the descriptor every composition starts from:
// 200/OK, empty body, zero delay, and the mock marker header set.
func Default() *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Header:     http.Header{MockedByHeader: []string{MockedByValue}},
	}
}

// Clone returns a deep copy of the response. Transformers operate on
// clones so composition never mutates a previous descriptor.
func (r *Response) Clone() *Response {
	c := &Response{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Header:     r.Header.Clone(),
		Delay:      r.Delay,
	}
	if c.Header == nil {
		c.Header = http.Header{}
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	if len(r.Cookies) > 0 {
		c.Cookies = make([]*http.Cookie, len(r.Cookies))
		for i, ck := range r.Cookies {
			dup := *ck
			c.Cookies[i] = &dup
		}
	}
	return c
}

// Transformer maps one response descriptor to the next. Transformers
// receive a private clone and may modify it freely.
type Transformer func(*Response) *Response

// Compose folds the transformers left to right over the default
// descriptor. With no transformers it returns the default unchanged.
func Compose(transformers ...Transformer) *Response {
	r := Default()
	for _, t := range transformers {
		if t == nil {
			continue
		}
		r = t(r.Clone())
	}
	return r
}
