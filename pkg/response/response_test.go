package response

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_NoTransformers(t *testing.T) {
	r := Compose()

	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "OK", r.Status)
	assert.Nil(t, r.Body)
	assert.Zero(t, r.Delay)
	assert.Equal(t, MockedByValue, r.Header.Get(MockedByHeader))
}

func TestCompose_LeftToRight(t *testing.T) {
	r := Compose(
		Status(http.StatusCreated),
		Header("X-Test", "first"),
		Header("X-Test", "second"),
		Text("hello"),
	)

	assert.Equal(t, http.StatusCreated, r.StatusCode)
	assert.Equal(t, "Created", r.Status)
	assert.Equal(t, "second", r.Header.Get("X-Test"), "same-key header overwrites")
	assert.Equal(t, "hello", string(r.Body))
	assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
}

func TestCompose_Associative(t *testing.T) {
	a := Status(http.StatusAccepted)
	b := Header("X-Step", "b")
	c := JSON(map[string]any{"done": true})

	all := Compose(a, b, c)

	// Composing (a,b) then applying c over the intermediate result
	// must be identical to composing the three at once.
	partial := Compose(a, b)
	chained := c(partial.Clone())

	assert.Equal(t, all.StatusCode, chained.StatusCode)
	assert.Equal(t, all.Header, chained.Header)
	assert.Equal(t, all.Body, chained.Body)
}

func TestCompose_TransformersDoNotMutateInput(t *testing.T) {
	base := Compose(JSON(map[string]any{"a": 1}))
	bodyBefore := string(base.Body)

	_ = MergeJSON(map[string]any{"b": 2})(base.Clone())

	assert.Equal(t, bodyBefore, string(base.Body))
}

func TestJSON_ReplacesBody(t *testing.T) {
	r := Compose(
		JSON(map[string]any{"a": 1}),
		JSON(map[string]any{"b": 2}),
	)

	var got map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &got))
	assert.Equal(t, map[string]any{"b": float64(2)}, got, "non-merge JSON replaces outright")
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
}

func TestMergeJSON_DeepMerge(t *testing.T) {
	r := Compose(
		MergeJSON(map[string]any{"a": 1}),
		MergeJSON(map[string]any{"b": 2}),
	)

	var got map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &got))
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, got)
}

func TestMergeJSON_NestedObjectsMergeArraysOverwrite(t *testing.T) {
	r := Compose(
		JSON(map[string]any{
			"user": map[string]any{"name": "John", "age": 32},
			"tags": []any{"a", "b"},
		}),
		MergeJSON(map[string]any{
			"user": map[string]any{"age": 33},
			"tags": []any{"c"},
		}),
	)

	var got map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &got))

	user := got["user"].(map[string]any)
	assert.Equal(t, "John", user["name"], "untouched keys survive the merge")
	assert.Equal(t, float64(33), user["age"], "scalar overwritten")
	assert.Equal(t, []any{"c"}, got["tags"], "arrays overwrite, not append")
}

func TestDelay_LastWins(t *testing.T) {
	r := Compose(
		Delay(100*time.Millisecond),
		Delay(250*time.Millisecond),
	)
	assert.Equal(t, 250*time.Millisecond, r.Delay, "delays overwrite, not accumulate")
}

func TestCookie_SameNameOverwrites(t *testing.T) {
	r := Compose(
		Cookie(&http.Cookie{Name: "session", Value: "one"}),
		Cookie(&http.Cookie{Name: "session", Value: "two"}),
		Cookie(&http.Cookie{Name: "theme", Value: "dark"}),
	)

	require.Len(t, r.Cookies, 2)
	assert.Equal(t, "two", r.Cookies[0].Value)
	assert.Equal(t, "theme", r.Cookies[1].Name)
}

func TestDeleteHeader(t *testing.T) {
	r := Compose(DeleteHeader(MockedByHeader))
	assert.Empty(t, r.Header.Get(MockedByHeader))
}

func TestStatusText_Override(t *testing.T) {
	r := Compose(Status(http.StatusTeapot), StatusText("Custom"))
	assert.Equal(t, http.StatusTeapot, r.StatusCode)
	assert.Equal(t, "Custom", r.Status)
}

func TestClone_Independent(t *testing.T) {
	orig := Compose(Text("body"), Cookie(&http.Cookie{Name: "c", Value: "v"}))
	clone := orig.Clone()

	clone.Body[0] = 'X'
	clone.Header.Set("X-New", "1")
	clone.Cookies[0].Value = "changed"

	assert.Equal(t, "body", string(orig.Body))
	assert.Empty(t, orig.Header.Get("X-New"))
	assert.Equal(t, "v", orig.Cookies[0].Value)
}
