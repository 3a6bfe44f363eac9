package graphql

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/mask"
	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
)

// AnyName is the universal operation-name selector. It is the only
// selector that matches anonymous operations.
const AnyName = "*"

// Resolver produces the transformers composing the mocked response for a
// matched GraphQL operation.
type Resolver func(ctx context.Context, req *request.Request, op *ParsedOperation) ([]response.Transformer, error)

// nameSelector matches operation names by exact string, pattern, or
// universally.
type nameSelector struct {
	exact   string
	pattern *regexp.Regexp
	any     bool
}

func newNameSelector(name any) nameSelector {
	switch v := name.(type) {
	case string:
		if v == AnyName {
			return nameSelector{any: true}
		}
		if v == "" {
			panic("graphql: empty operation name selector")
		}
		return nameSelector{exact: v}
	case *regexp.Regexp:
		if v == nil {
			panic("graphql: nil operation name pattern")
		}
		return nameSelector{pattern: v}
	default:
		panic(fmt.Sprintf("graphql: operation name selector must be a string or *regexp.Regexp, got %T", name))
	}
}

func (s nameSelector) matches(name string) bool {
	if s.any {
		return true
	}
	if name == "" {
		return false
	}
	if s.pattern != nil {
		return s.pattern.MatchString(name)
	}
	return s.exact == name
}

func (s nameSelector) String() string {
	switch {
	case s.any:
		return AnyName
	case s.pattern != nil:
		return s.pattern.String()
	default:
		return s.exact
	}
}

// Handler answers GraphQL operations matching its endpoint mask, kind,
// and name selector.
type Handler struct {
	opType   OperationType
	name     nameSelector
	endpoint *mask.Matcher
	resolver Resolver
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

// When adds an extra predicate evaluated after the selector matches,
// with the parameters extracted by the endpoint mask.
func When(pred func(*request.Request, map[string]string) bool) Option {
	return func(h *Handler) {
		h.when = pred
	}
}

func newHandler(opType OperationType, name any, endpoint *mask.Matcher, resolver Resolver, opts []Option) *Handler {
	if resolver == nil {
		panic("graphql: nil resolver")
	}
	h := &Handler{
		opType:   opType,
		name:     newNameSelector(name),
		endpoint: endpoint,
		resolver: resolver,
		usage:    handler.NewUsageState(false),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var anyEndpoint = mask.MustCompile(mask.Wildcard)

// Query declares a handler for a query operation. name is an exact
// operation name, a *regexp.Regexp, or AnyName.
func Query(name any, resolver Resolver, opts ...Option) *Handler {
	return newHandler(OperationQuery, name, anyEndpoint, resolver, opts)
}

// Mutation declares a handler for a mutation operation.
func Mutation(name any, resolver Resolver, opts ...Option) *Handler {
	return newHandler(OperationMutation, name, anyEndpoint, resolver, opts)
}

// Operation declares a kind-agnostic handler: any operation whose name
// matches the selector, whatever its kind.
func Operation(name any, resolver Resolver, opts ...Option) *Handler {
	return newHandler(OperationAll, name, anyEndpoint, resolver, opts)
}

// Endpoint scopes GraphQL handlers to one transport endpoint mask.
type Endpoint struct {
	matcher *mask.Matcher
}

// Link groups handler declarations under an endpoint mask, so only
// operations sent to that endpoint match.
func Link(endpoint string) *Endpoint {
	return &Endpoint{matcher: mask.MustCompile(endpoint)}
}

// Query declares an endpoint-scoped query handler.
func (e *Endpoint) Query(name any, resolver Resolver, opts ...Option) *Handler {
	return newHandler(OperationQuery, name, e.matcher, resolver, opts)
}

// Mutation declares an endpoint-scoped mutation handler.
func (e *Endpoint) Mutation(name any, resolver Resolver, opts ...Option) *Handler {
	return newHandler(OperationMutation, name, e.matcher, resolver, opts)
}

// Operation declares an endpoint-scoped kind-agnostic handler.
func (e *Endpoint) Operation(name any, resolver Resolver, opts ...Option) *Handler {
	return newHandler(OperationAll, name, e.matcher, resolver, opts)
}

// Protocol implements handler.Handler.
func (h *Handler) Protocol() handler.Protocol {
	return handler.ProtocolGraphQL
}

// Parse extracts the operation of the handler's expected kind and
// memoizes it together with the endpoint mask match.
func (h *Handler) Parse(req *request.Request) (*handler.ParseResult, bool) {
	op, ok := parseForKind(req, h.opType)
	if !ok {
		return nil, false
	}
	m := h.endpoint.Match(req.URL)
	return &handler.ParseResult{Matched: m.Matches, Params: m.Params, Operation: op}, true
}

// Test reports whether the endpoint, operation kind, and name selector
// all hold for the memoized operation.
func (h *Handler) Test(req *request.Request, parsed *handler.ParseResult) bool {
	if parsed == nil || !parsed.Matched {
		return false
	}
	op, ok := parsed.Operation.(*ParsedOperation)
	if !ok {
		return false
	}
	if h.opType != OperationAll && op.Type != h.opType {
		return false
	}
	if !h.name.matches(op.Name) {
		return false
	}
	if h.when != nil && !h.when(req, parsed.Params) {
		return false
	}
	return true
}

// Resolve attaches the endpoint path parameters to the request and
// invokes the user resolver with the parsed operation.
func (h *Handler) Resolve(ctx context.Context, req *request.Request, parsed *handler.ParseResult) ([]response.Transformer, error) {
	var op *ParsedOperation
	if parsed != nil {
		req.Params = parsed.Params
		op, _ = parsed.Operation.(*ParsedOperation)
	}
	return h.resolver(ctx, req, op)
}

// Describe implements handler.Handler.
func (h *Handler) Describe() string {
	return fmt.Sprintf("[graphql] %s %s (endpoint: %s)", h.opType, h.name, h.endpoint.Source())
}

// Usage implements handler.Handler.
func (h *Handler) Usage() *handler.UsageState {
	return h.usage
}

// Warning surfaces the endpoint mask's query-string diagnostic, or "".
func (h *Handler) Warning() string {
	return h.endpoint.Warning()
}
