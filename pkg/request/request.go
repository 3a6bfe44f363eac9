// Package request defines the normalized descriptor of an observed
// outgoing call. The interception layer that physically captures traffic
// constructs one Request per observation; everything downstream treats it
// as read-only apart from the Params field attached during matching.
package request

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Request is a single observed outgoing call.
type Request struct {
	// ID uniquely identifies this observation.
	ID string

	// Method is the HTTP method, uppercased.
	Method string

	// URL is the absolute or relative target of the call.
	URL *url.URL

	// Header holds the request headers. Keys are canonicalized.
	Header http.Header

	// Body is the raw request body, nil when the request carried none.
	Body []byte

	// Params holds named path parameters extracted by the matched
	// handler's mask. Nil until a handler resolves the request.
	Params map[string]string
}

// Option configures a Request during construction.
type Option func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) Option {
	return func(r *Request) {
		r.Header.Add(key, value)
	}
}

// WithBody sets the raw request body.
func WithBody(body []byte) Option {
	return func(r *Request) {
		r.Body = body
	}
}

// WithJSONBody marshals v as the request body and sets the Content-Type
// header. It panics when v cannot be marshaled; requests are built by
// setup or interception code, where that is a programmer error.
func WithJSONBody(v any) Option {
	return func(r *Request) {
		b, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("request: marshal JSON body: %v", err))
		}
		r.Body = b
		r.Header.Set("Content-Type", "application/json")
	}
}

// New builds a normalized Request and assigns it a unique identifier.
func New(method, rawURL string, opts ...Option) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request: parse url %q: %w", rawURL, err)
	}

	r := &Request{
		ID:     uuid.NewString(),
		Method: strings.ToUpper(method),
		URL:    u,
		Header: http.Header{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustNew is like New but panics on an invalid URL.
func MustNew(method, rawURL string, opts ...Option) *Request {
	r, err := New(method, rawURL, opts...)
	if err != nil {
		panic(err.Error())
	}
	return r
}

// Query returns the parsed query string of the request URL.
func (r *Request) Query() url.Values {
	if r.URL == nil {
		return url.Values{}
	}
	return r.URL.Query()
}

// Cookies returns the cookies carried by the Cookie header.
func (r *Request) Cookies() []*http.Cookie {
	return (&http.Request{Header: r.Header}).Cookies()
}

// Cookie returns the named cookie, or http.ErrNoCookie.
func (r *Request) Cookie(name string) (*http.Cookie, error) {
	return (&http.Request{Header: r.Header}).Cookie(name)
}

// ContentType returns the media type of the request body, without
// parameters, or "" when none is declared.
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mt
}

// JSON decodes the body as a JSON object. The second return value is
// false when the body is absent or not a JSON object.
func (r *Request) JSON() (map[string]any, bool) {
	if len(r.Body) == 0 {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return nil, false
	}
	return m, true
}

// Form decodes the body as application/x-www-form-urlencoded values.
func (r *Request) Form() (url.Values, bool) {
	if len(r.Body) == 0 {
		return nil, false
	}
	v, err := url.ParseQuery(string(r.Body))
	if err != nil {
		return nil, false
	}
	return v, true
}
