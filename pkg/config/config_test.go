package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
)

// resolve runs a built handler against a request and composes the
// response, mirroring what the engine does after selection.
func resolve(t *testing.T, h handler.Handler, req *request.Request) *response.Response {
	t.Helper()
	parsed, ok := h.Parse(req)
	require.True(t, ok)
	require.True(t, h.Test(req, parsed))

	transformers, err := h.Resolve(context.Background(), req, parsed)
	require.NoError(t, err)
	return response.Compose(transformers...)
}

func TestLoad_RestHandlers(t *testing.T) {
	handlers, err := Load("testdata/rest.yaml")
	require.NoError(t, err)
	require.Len(t, handlers, 2)

	resp := resolve(t, handlers[0], request.MustNew("GET", "https://example.com/users/42"))
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "config", resp.Header.Get("X-Source"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, "John", body["firstName"])
	assert.Equal(t, float64(32), body["age"])

	// The when expression gates on the extracted mask parameter.
	miss := request.MustNew("GET", "https://example.com/users/7")
	parsed, ok := handlers[0].Parse(miss)
	require.True(t, ok)
	assert.False(t, handlers[0].Test(miss, parsed))

	login := resolve(t, handlers[1], request.MustNew("POST", "https://example.com/login"))
	assert.Equal(t, 201, login.StatusCode)
	assert.Equal(t, "created", string(login.Body))
	assert.Equal(t, "150ms", login.Delay.String())
	assert.True(t, handlers[1].Usage().OneShot())
}

func TestLoad_BareSequence(t *testing.T) {
	handlers, err := Load("testdata/graphql.yaml")
	require.NoError(t, err)
	require.Len(t, handlers, 2)

	login := request.MustNew("POST", "https://example.com/graphql",
		request.WithJSONBody(map[string]any{"query": `mutation Login { login { token } }`}))
	resp := resolve(t, handlers[0], login)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, map[string]any{"token": "abc"}, body["data"])

	// The second handler is endpoint-scoped and pattern-selected.
	hit := request.MustNew("POST", "https://api.example.com/graphql",
		request.WithJSONBody(map[string]any{"query": `query GetUser { user { id } }`}))
	parsed, ok := handlers[1].Parse(hit)
	require.True(t, ok)
	assert.True(t, handlers[1].Test(hit, parsed))

	offEndpoint := request.MustNew("POST", "https://example.com/graphql",
		request.WithJSONBody(map[string]any{"query": `query GetUser { user { id } }`}))
	parsed, ok = handlers[1].Parse(offEndpoint)
	require.True(t, ok)
	assert.False(t, handlers[1].Test(offEndpoint, parsed))
}

func TestLoad_NamedHandlerWithoutKindMatchesAnyKind(t *testing.T) {
	handlers, err := Load(writeConfig(t, `
handlers:
  - protocol: graphql
    name: Login
    response:
      body: ok
`))
	require.NoError(t, err)
	require.Len(t, handlers, 1)

	for _, doc := range []string{
		`mutation Login { login { token } }`,
		`query Login { login { token } }`,
	} {
		req := request.MustNew("POST", "https://example.com/graphql",
			request.WithJSONBody(map[string]any{"query": doc}))
		parsed, ok := handlers[0].Parse(req)
		require.True(t, ok, doc)
		assert.True(t, handlers[0].Test(req, parsed), doc)
	}
}

func TestLoadGlob(t *testing.T) {
	handlers, err := LoadGlob("testdata/*.yaml")
	require.NoError(t, err)
	// graphql.yaml sorts before rest.yaml.
	require.Len(t, handlers, 4)
	assert.Equal(t, handler.ProtocolGraphQL, handlers[0].Protocol())
	assert.Equal(t, handler.ProtocolREST, handlers[2].Protocol())

	_, err = LoadGlob("testdata/*.toml")
	assert.Error(t, err, "no matching files is a load error")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handlers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", `{broken`},
		{"no handlers", `handlers: []`},
		{"rest without mask", `
handlers:
  - method: GET
    response:
      body: ok
`},
		{"unknown protocol", `
handlers:
  - protocol: soap
    mask: /x
    response:
      body: ok
`},
		{"invalid delay", `
handlers:
  - method: GET
    mask: /x
    response:
      delay: soon
`},
		{"invalid when expression", `
handlers:
  - method: GET
    mask: /x
    when: "params.id =="
    response:
      body: ok
`},
		{"invalid name pattern", `
handlers:
  - protocol: graphql
    namePattern: "["
    response:
      body: ok
`},
		{"unknown operation kind", `
handlers:
  - protocol: graphql
    operation: subscription2
    response:
      body: ok
`},
		{"invalid mask", `
handlers:
  - method: GET
    mask: ""
    response:
      body: ok
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCompileWhen(t *testing.T) {
	pred, err := compileWhen(`method == "GET" && query("active") == "true" && header("X-Auth") != ""`)
	require.NoError(t, err)

	hit := request.MustNew("GET", "https://example.com/users?active=true",
		request.WithHeader("X-Auth", "token"))
	assert.True(t, pred(hit, nil))

	miss := request.MustNew("GET", "https://example.com/users?active=true")
	assert.False(t, pred(miss, nil), "missing header fails the predicate")

	none, err := compileWhen("")
	require.NoError(t, err)
	assert.Nil(t, none)
}
