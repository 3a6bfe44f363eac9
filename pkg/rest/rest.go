// Package rest declares REST request handlers: one HTTP method plus a
// URL mask, answered by a user resolver.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/mask"
	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
)

// AnyMethod matches every HTTP method.
const AnyMethod = "*"

// Handler answers requests whose method and URL match its selector.
type Handler struct {
	method   string
	matcher  *mask.Matcher
	resolver handler.Resolver
	when     func(*request.Request, map[string]string) bool
	usage    *handler.UsageState
}

var _ handler.Handler = (*Handler)(nil)

// Option configures a declared handler.
type Option func(*Handler)

// Once marks the handler as eligible to match only until its first
// successful resolution.
func Once() Option {
	return func(h *Handler) {
		h.usage = handler.NewUsageState(true)
	}
}

// When adds an extra predicate evaluated after the method and mask
// match, with the extracted mask parameters. Used by declarative handler
// files; programmatic setups usually express conditions inside the
// resolver instead.
func When(pred func(*request.Request, map[string]string) bool) Option {
	return func(h *Handler) {
		h.when = pred
	}
}

// New declares a handler for an explicit method. The mask follows
// pkg/mask template semantics. It panics on an invalid mask or a nil
// resolver: declarations are programmer errors, caught at setup time.
func New(method, urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	if resolver == nil {
		panic("rest: nil resolver")
	}
	if method == "" {
		panic("rest: empty method")
	}
	h := &Handler{
		method:   strings.ToUpper(method),
		matcher:  mask.MustCompile(urlMask),
		resolver: resolver,
		usage:    handler.NewUsageState(false),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewPattern declares a handler whose mask is a regular expression
// matched against the full URL string. No named parameters are produced.
func NewPattern(method string, pattern *regexp.Regexp, resolver handler.Resolver, opts ...Option) *Handler {
	if resolver == nil {
		panic("rest: nil resolver")
	}
	if method == "" {
		panic("rest: empty method")
	}
	h := &Handler{
		method:   strings.ToUpper(method),
		matcher:  mask.CompilePattern(pattern),
		resolver: resolver,
		usage:    handler.NewUsageState(false),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get declares a GET handler.
func Get(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodGet, urlMask, resolver, opts...)
}

// Head declares a HEAD handler.
func Head(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodHead, urlMask, resolver, opts...)
}

// Post declares a POST handler.
func Post(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodPost, urlMask, resolver, opts...)
}

// Put declares a PUT handler.
func Put(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodPut, urlMask, resolver, opts...)
}

// Patch declares a PATCH handler.
func Patch(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodPatch, urlMask, resolver, opts...)
}

// Delete declares a DELETE handler.
func Delete(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodDelete, urlMask, resolver, opts...)
}

// Options declares an OPTIONS handler.
func Options(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(http.MethodOptions, urlMask, resolver, opts...)
}

// All declares a handler matching every HTTP method.
func All(urlMask string, resolver handler.Resolver, opts ...Option) *Handler {
	return New(AnyMethod, urlMask, resolver, opts...)
}

// Protocol implements handler.Handler.
func (h *Handler) Protocol() handler.Protocol {
	return handler.ProtocolREST
}

// Parse matches the request URL against the mask and memoizes the
// result.
func (h *Handler) Parse(req *request.Request) (*handler.ParseResult, bool) {
	m := h.matcher.Match(req.URL)
	return &handler.ParseResult{Matched: m.Matches, Params: m.Params}, true
}

// Test reports whether the method and the memoized mask match both hold.
func (h *Handler) Test(req *request.Request, parsed *handler.ParseResult) bool {
	if parsed == nil || !parsed.Matched {
		return false
	}
	if h.method != AnyMethod && !strings.EqualFold(h.method, req.Method) {
		return false
	}
	if h.when != nil && !h.when(req, parsed.Params) {
		return false
	}
	return true
}

// Resolve attaches the extracted path parameters to the request and
// invokes the user resolver.
func (h *Handler) Resolve(ctx context.Context, req *request.Request, parsed *handler.ParseResult) ([]response.Transformer, error) {
	if parsed != nil {
		req.Params = parsed.Params
	}
	return h.resolver(ctx, req)
}

// Describe implements handler.Handler.
func (h *Handler) Describe() string {
	return fmt.Sprintf("[rest] %s %s", h.method, h.matcher.Source())
}

// Usage implements handler.Handler.
func (h *Handler) Usage() *handler.UsageState {
	return h.usage
}

// Warning surfaces the mask's query-string diagnostic, or "".
func (h *Handler) Warning() string {
	return h.matcher.Warning()
}
