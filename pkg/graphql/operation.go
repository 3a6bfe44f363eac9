// Package graphql parses GraphQL operations out of observed requests and
// declares handlers keyed by operation type and name.
//
// Operation text is accepted from three request shapes: a "query"
// query-string parameter on GET, a JSON body with a "query" field on
// POST, and a multipart upload body carrying "operations" and "map"
// fields with dot-path variable injection. Document parsing is delegated
// to github.com/vektah/gqlparser/v2.
package graphql

import (
	"encoding/json"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/mockwire/mockwire/pkg/request"
)

// OperationType is a GraphQL operation kind.
type OperationType string

// Operation kinds. OperationAll is a selector accepting every kind.
const (
	OperationQuery        OperationType = "query"
	OperationMutation     OperationType = "mutation"
	OperationSubscription OperationType = "subscription"
	OperationAll          OperationType = "all"
)

// ParsedOperation is the parsed form of one GraphQL request. Derived per
// request, never persisted.
type ParsedOperation struct {
	// Type is the operation kind.
	Type OperationType

	// Name is the operation name. Empty for anonymous operations.
	Name string

	// Query is the raw operation text.
	Query string

	// Variables holds the operation variables. Never nil.
	Variables map[string]any
}

// OperationName returns the operation name for diagnostics. The engine
// reads it through a minimal interface to stay protocol-agnostic.
func (o *ParsedOperation) OperationName() string {
	return o.Name
}

// ParseOperation extracts a GraphQL operation from a request, accepting
// any operation kind. The second return value is false when the request
// does not carry a recognizable operation; a malformed document or body
// is treated the same way, never as an error.
func ParseOperation(req *request.Request) (*ParsedOperation, bool) {
	return parseForKind(req, OperationAll)
}

// parseForKind extracts the operation, selecting the definition named by
// the request's operationName when one is given, else the first
// definition of the expected kind (or the first definition at all for
// OperationAll).
func parseForKind(req *request.Request, kind OperationType) (*ParsedOperation, bool) {
	query, vars, opName, ok := parsePayload(req)
	if !ok || query == "" {
		return nil, false
	}

	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil || len(doc.Operations) == 0 {
		return nil, false
	}

	var def *ast.OperationDefinition
	for _, op := range doc.Operations {
		if opName != "" && op.Name != opName {
			continue
		}
		if kind == OperationAll || OperationType(op.Operation) == kind {
			def = op
			break
		}
	}
	if def == nil {
		return nil, false
	}

	if vars == nil {
		vars = map[string]any{}
	}
	return &ParsedOperation{
		Type:      OperationType(def.Operation),
		Name:      def.Name,
		Query:     query,
		Variables: vars,
	}, true
}

// parsePayload pulls the raw operation text, variables, and optional
// operationName out of the request, by transport shape.
func parsePayload(req *request.Request) (query string, vars map[string]any, opName string, ok bool) {
	switch req.Method {
	case "GET":
		q := req.Query()
		query = q.Get("query")
		if query == "" {
			return "", nil, "", false
		}
		if raw := q.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &vars); err != nil {
				return "", nil, "", false
			}
		}
		return query, vars, q.Get("operationName"), true

	case "POST":
		if strings.HasPrefix(req.ContentType(), "multipart/") {
			return parseUploadPayload(req)
		}
		body, isJSON := req.JSON()
		if !isJSON {
			return "", nil, "", false
		}
		query, _ = body["query"].(string)
		if query == "" {
			return "", nil, "", false
		}
		if v, exists := body["variables"]; exists && v != nil {
			m, isMap := v.(map[string]any)
			if !isMap {
				return "", nil, "", false
			}
			vars = m
		}
		opName, _ = body["operationName"].(string)
		return query, vars, opName, true
	}

	return "", nil, "", false
}
