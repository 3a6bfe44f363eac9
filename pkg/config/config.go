// Package config loads declarative handler definitions from YAML files
// and compiles them into handler values ready for the engine.
//
// A handler file holds either a document with a top-level "handlers"
// sequence or a bare sequence of handler definitions. Definitions may
// carry an optional "when" expression, compiled with expr-lang, that
// gates matching beyond the method and mask.
package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mockwire/mockwire/pkg/graphql"
	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
	"github.com/mockwire/mockwire/pkg/rest"
)

// Document is the top-level shape of a handler file.
type Document struct {
	Handlers []HandlerConfig `yaml:"handlers"`
}

// UnmarshalYAML accepts both a mapping with a "handlers" key and a bare
// sequence of handler definitions.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&d.Handlers)
	}
	type documentAlias Document
	var alias documentAlias
	if err := node.Decode(&alias); err != nil {
		return err
	}
	*d = Document(alias)
	return nil
}

// HandlerConfig is one declarative handler definition.
type HandlerConfig struct {
	// Protocol is "rest" (default) or "graphql".
	Protocol string `yaml:"protocol,omitempty"`

	// Method is the HTTP method for REST handlers; "*" or empty
	// matches every method.
	Method string `yaml:"method,omitempty"`

	// Mask is the URL mask for REST handlers.
	Mask string `yaml:"mask,omitempty"`

	// Operation is the GraphQL operation kind: query, mutation,
	// subscription, or all (default).
	Operation string `yaml:"operation,omitempty"`

	// Name is the exact GraphQL operation name, or "*".
	Name string `yaml:"name,omitempty"`

	// NamePattern is a regular expression alternative to Name.
	NamePattern string `yaml:"namePattern,omitempty"`

	// Endpoint scopes a GraphQL handler to a transport endpoint mask.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Once declares a one-shot handler.
	Once bool `yaml:"once,omitempty"`

	// When is an expr predicate over the request, e.g.
	// `method == "GET" && params.id == "42"`.
	When string `yaml:"when,omitempty"`

	// Response describes the mocked response.
	Response ResponseConfig `yaml:"response"`
}

// ResponseConfig describes the transformers a declarative handler
// composes.
type ResponseConfig struct {
	// Status is the response status code; 0 keeps the default 200.
	Status int `yaml:"status,omitempty"`

	// Headers are set on the response, overwriting defaults.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Body is the response body: a string is sent as text, any other
	// YAML value is sent as JSON.
	Body any `yaml:"body,omitempty"`

	// Delay is the minimum wait before delivery, e.g. "150ms".
	Delay string `yaml:"delay,omitempty"`
}

// Load reads one handler file and compiles its definitions.
func Load(path string) ([]handler.Handler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(doc.Handlers) == 0 {
		return nil, fmt.Errorf("config: %s declares no handlers", path)
	}

	handlers := make([]handler.Handler, 0, len(doc.Handlers))
	for i := range doc.Handlers {
		h, err := doc.Handlers[i].Build()
		if err != nil {
			return nil, fmt.Errorf("config: %s handler %d: %w", path, i, err)
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

// LoadGlob loads every handler file matching a doublestar glob pattern
// (e.g. "testdata/**/*.yaml"), in lexical path order.
func LoadGlob(pattern string) ([]handler.Handler, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("config: glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("config: no handler files match %q", pattern)
	}
	sort.Strings(paths)

	var handlers []handler.Handler
	for _, p := range paths {
		hs, err := Load(p)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, hs...)
	}
	return handlers, nil
}

// Build compiles one definition into a handler. Invalid definitions fail
// here, at load time.
func (hc *HandlerConfig) Build() (handler.Handler, error) {
	resolver, err := hc.Response.resolver()
	if err != nil {
		return nil, err
	}

	pred, err := compileWhen(hc.When)
	if err != nil {
		return nil, err
	}

	switch hc.Protocol {
	case "", "rest":
		return hc.buildREST(resolver, pred)
	case "graphql":
		return hc.buildGraphQL(resolver, pred)
	default:
		return nil, fmt.Errorf("unknown protocol %q", hc.Protocol)
	}
}

func (hc *HandlerConfig) buildREST(resolver handler.Resolver, pred predicate) (handler.Handler, error) {
	if hc.Mask == "" {
		return nil, fmt.Errorf("rest handler requires a mask")
	}
	method := hc.Method
	if method == "" {
		method = rest.AnyMethod
	}

	opts := []rest.Option{}
	if hc.Once {
		opts = append(opts, rest.Once())
	}
	if pred != nil {
		opts = append(opts, rest.When(pred))
	}

	var h handler.Handler
	if err := capturePanic(func() {
		h = rest.New(method, hc.Mask, resolver, opts...)
	}); err != nil {
		return nil, err
	}
	return h, nil
}

func (hc *HandlerConfig) buildGraphQL(resolver handler.Resolver, pred predicate) (handler.Handler, error) {
	var name any
	switch {
	case hc.NamePattern != "":
		re, err := regexp.Compile(hc.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid namePattern: %w", err)
		}
		name = re
	case hc.Name != "":
		name = hc.Name
	default:
		name = graphql.AnyName
	}

	gqlResolver := func(ctx context.Context, req *request.Request, _ *graphql.ParsedOperation) ([]response.Transformer, error) {
		return resolver(ctx, req)
	}

	opts := []graphql.Option{}
	if hc.Once {
		opts = append(opts, graphql.Once())
	}
	if pred != nil {
		opts = append(opts, graphql.When(pred))
	}

	endpoint := hc.Endpoint
	if endpoint == "" {
		endpoint = "*"
	}
	link := graphql.Link(endpoint)

	var h handler.Handler
	err := capturePanic(func() {
		switch hc.Operation {
		case "query":
			h = link.Query(name, gqlResolver, opts...)
		case "mutation":
			h = link.Mutation(name, gqlResolver, opts...)
		case "", "all":
			h = link.Operation(name, gqlResolver, opts...)
		default:
			panic(fmt.Sprintf("config: unknown operation kind %q", hc.Operation))
		}
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// resolver compiles the static response description into a fixed
// transformer list.
func (rc *ResponseConfig) resolver() (handler.Resolver, error) {
	transformers, err := rc.transformers()
	if err != nil {
		return nil, err
	}
	return func(context.Context, *request.Request) ([]response.Transformer, error) {
		return transformers, nil
	}, nil
}

func capturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}
