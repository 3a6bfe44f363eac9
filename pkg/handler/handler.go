// Package handler defines the protocol-polymorphic request handler
// contract shared by the REST and GraphQL handler implementations, and
// the one-shot usage state guarding each handler's lifecycle.
package handler

import (
	"context"
	"errors"

	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
)

// Protocol discriminates handler variants.
type Protocol string

// Supported handler protocols.
const (
	ProtocolREST    Protocol = "rest"
	ProtocolGraphQL Protocol = "graphql"
)

// ErrPassthrough is returned by a resolver that matched a request but
// intentionally produces no mocked response. The request counts as
// handled and never surfaces as unhandled, but no descriptor is emitted
// and the caller falls through to the real network.
var ErrPassthrough = errors.New("handler: passthrough")

// Resolver produces the transformers composing the mocked response for a
// matched request. Returning (nil, ErrPassthrough) declines to mock;
// returning an empty transformer list yields the default 200 descriptor.
type Resolver func(ctx context.Context, req *request.Request) ([]response.Transformer, error)

// ParseResult memoizes the outcome of Parse so Test never recomputes the
// mask match. It is local to one resolution attempt.
type ParseResult struct {
	// Matched records whether the handler's mask matched the URL.
	Matched bool

	// Params holds named path parameters extracted by the mask.
	Params map[string]string

	// Operation carries protocol-specific parse output, e.g. the
	// *graphql.ParsedOperation for GraphQL handlers.
	Operation any
}

// Handler is one unit of request-handling intent. Implementations are
// dispatched by capability through this interface, never by protocol
// switches in the resolution loop.
//
// A resolution attempt is terminal after one pass:
// parse -> predicate false: rejected, or predicate true -> resolve.
type Handler interface {
	// Protocol reports the handler variant, for diagnostics.
	Protocol() Protocol

	// Parse extracts what the predicate and resolver need from the
	// request. Returning false short-circuits to rejected. Parse is
	// pure apart from memoizing into the returned ParseResult.
	Parse(req *request.Request) (*ParseResult, bool)

	// Test is the predicate deciding whether this handler answers the
	// request, given the memoized parse result.
	Test(req *request.Request, parsed *ParseResult) bool

	// Resolve invokes the user resolver. Called at most once per
	// request, only after Test returned true. Errors and panics are
	// contained by the caller, not by the handler.
	Resolve(ctx context.Context, req *request.Request, parsed *ParseResult) ([]response.Transformer, error)

	// Describe returns a stable one-line description (protocol,
	// method or operation, origin) for diagnostics. It is computable
	// without side effects at any point in the handler's lifetime.
	Describe() string

	// Usage exposes the handler's mutable usage flags.
	Usage() *UsageState
}
