package graphql

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
)

func noopResolver(context.Context, *request.Request, *ParsedOperation) ([]response.Transformer, error) {
	return nil, nil
}

func matchAttempt(t *testing.T, h *Handler, req *request.Request) bool {
	t.Helper()
	parsed, ok := h.Parse(req)
	if !ok {
		return false
	}
	return h.Test(req, parsed)
}

func TestMutationHandler_NameSelector(t *testing.T) {
	h := Mutation("Login", noopResolver)

	login := postRequest(t, map[string]any{"query": `mutation Login { login { token } }`})
	assert.True(t, matchAttempt(t, h, login))

	other := postRequest(t, map[string]any{"query": `mutation Logout { logout }`})
	assert.False(t, matchAttempt(t, h, other), "undeclared mutation must not match")

	query := postRequest(t, map[string]any{"query": `query Login { login { token } }`})
	assert.False(t, matchAttempt(t, h, query), "operation kind must match")
}

func TestQueryHandler_PatternSelector(t *testing.T) {
	h := Query(regexp.MustCompile(`^Get`), noopResolver)

	assert.True(t, matchAttempt(t, h, postRequest(t, map[string]any{"query": `query GetUser { user { id } }`})))
	assert.False(t, matchAttempt(t, h, postRequest(t, map[string]any{"query": `query ListUsers { users { id } }`})))
}

func TestOperationHandler_MatchesEverything(t *testing.T) {
	h := Operation(AnyName, noopResolver)

	for _, doc := range []string{
		`query GetUser { user { id } }`,
		`mutation Login { login { token } }`,
		`{ anonymous }`,
	} {
		assert.True(t, matchAttempt(t, h, postRequest(t, map[string]any{"query": doc})), doc)
	}
}

func TestOperationHandler_NamedAnyKind(t *testing.T) {
	h := Operation("Login", noopResolver)

	assert.True(t, matchAttempt(t, h, postRequest(t, map[string]any{"query": `mutation Login { login { token } }`})))
	assert.True(t, matchAttempt(t, h, postRequest(t, map[string]any{"query": `query Login { login { token } }`})))
	assert.False(t, matchAttempt(t, h, postRequest(t, map[string]any{"query": `mutation Logout { logout }`})))
}

func TestAnonymousOperation_OnlyUniversalSelector(t *testing.T) {
	anonymous := postRequest(t, map[string]any{"query": `{ user { id } }`})

	named := Query("GetUser", noopResolver)
	assert.False(t, matchAttempt(t, named, anonymous))

	pattern := Query(regexp.MustCompile(`.*`), noopResolver)
	assert.False(t, matchAttempt(t, pattern, anonymous), "patterns never match anonymous operations")

	universal := Query(AnyName, noopResolver)
	assert.True(t, matchAttempt(t, universal, anonymous))
}

func TestLink_ScopesToEndpoint(t *testing.T) {
	api := Link("https://api.example.com/graphql")
	h := api.Mutation("Login", noopResolver)

	onEndpoint := request.MustNew("POST", "https://api.example.com/graphql",
		request.WithJSONBody(map[string]any{"query": `mutation Login { login { token } }`}))
	assert.True(t, matchAttempt(t, h, onEndpoint))

	offEndpoint := request.MustNew("POST", "https://other.example.com/graphql",
		request.WithJSONBody(map[string]any{"query": `mutation Login { login { token } }`}))
	assert.False(t, matchAttempt(t, h, offEndpoint))
}

func TestHandler_ResolveReceivesOperation(t *testing.T) {
	var got *ParsedOperation
	h := Mutation("Login", func(_ context.Context, _ *request.Request, op *ParsedOperation) ([]response.Transformer, error) {
		got = op
		return nil, nil
	})

	req := postRequest(t, map[string]any{
		"query":     loginMutation,
		"variables": map[string]any{"username": "john"},
	})
	parsed, ok := h.Parse(req)
	require.True(t, ok)
	require.True(t, h.Test(req, parsed))

	_, err := h.Resolve(context.Background(), req, parsed)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Login", got.Name)
	assert.Equal(t, map[string]any{"username": "john"}, got.Variables)
}

func TestHandler_Describe(t *testing.T) {
	h := Mutation("Login", noopResolver)
	assert.Equal(t, "[graphql] mutation Login (endpoint: *)", h.Describe())
	assert.Equal(t, handler.ProtocolGraphQL, h.Protocol())
}

func TestDeclarationErrorsPanic(t *testing.T) {
	assert.Panics(t, func() { Query("GetUser", nil) }, "nil resolver")
	assert.Panics(t, func() { Query("", noopResolver) }, "empty name selector")
	assert.Panics(t, func() { Query(42, noopResolver) }, "unsupported selector type")
	assert.Panics(t, func() { Query((*regexp.Regexp)(nil), noopResolver) }, "nil pattern")
}

func TestOnceOption(t *testing.T) {
	h := Mutation("Login", noopResolver, Once())
	assert.True(t, h.Usage().OneShot())
}
