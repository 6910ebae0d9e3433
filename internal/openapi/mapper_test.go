package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/apiforge/internal/config"
	"github.com/forgekit/apiforge/internal/ir"
)

const sampleTOML = `
name = "petstore"

[[endpoints]]
path = "/user/list"
method = "GET"
summary = "List users"

  [endpoints.query.roles]
  type = "string"

  [endpoints.query.tags]
  type = "string"

[[endpoints]]
path = "/user/new"
method = "POST"
summary = "Create a user"
body = "newUser"

[[endpoints]]
path = "/user/{id}"
method = "DELETE"
summary = "Delete a user"

[schemas.newUser]
type = "object"
required = ["name", "roles", "account", "password"]

  [schemas.newUser.fields]
  name = "string"
  account = "string"

  [schemas.newUser.fields.password]
  type = "string"
  format = "password"

  [schemas.newUser.fields.roles]
  type = "array"

    [schemas.newUser.fields.roles.items]
    type = "string"

  [schemas.newUser.fields.tags]
  type = "array"

    [schemas.newUser.fields.tags.items]
    type = "string"
    format = "uuid"

[schemas.userList]
type = "array"

  [schemas.userList.items]
  type = "newUser"
`

func buildDoc(t *testing.T) (*Document, []byte) {
	t.Helper()
	f, err := config.Parse([]byte(sampleTOML))
	require.NoError(t, err)
	api, err := ir.Normalize(f)
	require.NoError(t, err)
	doc := Build(api)
	data, err := doc.Encode()
	require.NoError(t, err)
	return doc, data
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var tree map[string]any
	require.NoError(t, json.Unmarshal(data, &tree))
	return tree
}

func dig(t *testing.T, tree map[string]any, keys ...string) map[string]any {
	t.Helper()
	cur := tree
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		require.True(t, ok, "missing %q", k)
		cur = next
	}
	return cur
}

func TestBuild_ObjectSchemaScenario(t *testing.T) {
	t.Parallel()
	_, data := buildDoc(t)
	tree := decode(t, data)

	newUser := dig(t, tree, "components", "schemas", "newUser")
	assert.Equal(t, "object", newUser["type"])
	assert.Equal(t, []any{"name", "roles", "account", "password"}, newUser["required"])

	tags := dig(t, tree, "components", "schemas", "newUser", "properties", "tags")
	assert.Equal(t, map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "format": "uuid"},
	}, tags)
}

func TestBuild_QueryParameterScenario(t *testing.T) {
	t.Parallel()
	_, data := buildDoc(t)
	tree := decode(t, data)

	op := dig(t, tree, "paths", "/user/list", "get")
	params, ok := op["parameters"].([]any)
	require.True(t, ok)
	require.Len(t, params, 2)

	for i, want := range []string{"roles", "tags"} {
		p := params[i].(map[string]any)
		assert.Equal(t, want, p["name"])
		assert.Equal(t, "query", p["in"])
		assert.Equal(t, map[string]any{"type": "string"}, p["schema"])
	}
}

func TestBuild_RequestBodyRef(t *testing.T) {
	t.Parallel()
	_, data := buildDoc(t)
	tree := decode(t, data)

	body := dig(t, tree, "paths", "/user/new", "post", "requestBody", "content", "application/json", "schema")
	assert.Equal(t, "#/components/schemas/newUser", body["$ref"])
}

func TestBuild_PathParameterRequired(t *testing.T) {
	t.Parallel()
	_, data := buildDoc(t)
	tree := decode(t, data)

	op := dig(t, tree, "paths", "/user/{id}", "delete")
	params := op["parameters"].([]any)
	require.Len(t, params, 1)
	p := params[0].(map[string]any)
	assert.Equal(t, "id", p["name"])
	assert.Equal(t, "path", p["in"])
	assert.Equal(t, true, p["required"])
}

func TestBuild_DeclarationOrderPreserved(t *testing.T) {
	t.Parallel()
	_, data := buildDoc(t)

	list := bytes.Index(data, []byte(`"/user/list"`))
	create := bytes.Index(data, []byte(`"/user/new"`))
	del := bytes.Index(data, []byte(`"/user/{id}"`))
	require.True(t, list >= 0 && create >= 0 && del >= 0)
	assert.Less(t, list, create, "paths must follow endpoint declaration order")
	assert.Less(t, create, del)

	newUser := bytes.Index(data, []byte(`"newUser"`))
	userList := bytes.Index(data, []byte(`"userList"`))
	require.True(t, newUser >= 0 && userList >= 0)
	assert.Less(t, newUser, userList, "schemas must follow declaration order")
}

func TestBuild_OrderBeatsAlphabetical(t *testing.T) {
	t.Parallel()
	// Declaration order and alphabetical order disagree at every level here,
	// so alphabetically sorted output cannot pass by coincidence.
	src := `
name = "ordering"

[[endpoints]]
path = "/things"
method = "GET"
summary = "List things"

  [endpoints.query.zulu]
  type = "string"

  [endpoints.query.alpha]
  type = "string"

[schemas.zebra]
type = "object"

  [schemas.zebra.fields]
  z2 = "string"
  a1 = "string"

[schemas.alpha]
type = "object"

  [schemas.alpha.fields]
  only = "string"
`
	f, err := config.Parse([]byte(src))
	require.NoError(t, err)
	api, err := ir.Normalize(f)
	require.NoError(t, err)
	doc := Build(api)

	assert.Equal(t, []string{"zebra", "alpha"}, doc.Components.Schemas.Keys())
	zebra, ok := doc.Components.Schemas.Get("zebra")
	require.True(t, ok)
	assert.Equal(t, []string{"z2", "a1"}, zebra.(*Schema).Properties.Keys())

	data, err := doc.Encode()
	require.NoError(t, err)
	tree := decode(t, data)
	op := dig(t, tree, "paths", "/things", "get")
	params := op["parameters"].([]any)
	require.Len(t, params, 2)
	assert.Equal(t, "zulu", params[0].(map[string]any)["name"])
	assert.Equal(t, "alpha", params[1].(map[string]any)["name"])

	z2 := bytes.Index(data, []byte(`"z2"`))
	a1 := bytes.Index(data, []byte(`"a1"`))
	require.True(t, z2 >= 0 && a1 >= 0)
	assert.Less(t, z2, a1, "properties must follow field declaration order")
}

func TestBuild_ByteStable(t *testing.T) {
	t.Parallel()
	_, first := buildDoc(t)
	_, second := buildDoc(t)
	assert.Equal(t, first, second)
}

func TestSelfCheck_AcceptsGeneratedDocument(t *testing.T) {
	t.Parallel()
	_, data := buildDoc(t)
	require.NoError(t, SelfCheck(context.Background(), data))
}

func TestSelfCheck_RejectsGarbage(t *testing.T) {
	t.Parallel()
	err := SelfCheck(context.Background(), []byte(`{"openapi":"3.0.3"}`))
	assert.Error(t, err)
}

func TestOrderedMap_SetAndMarshal(t *testing.T) {
	t.Parallel()
	m := NewOrderedMap()
	m.Set("zebra", 1).Set("alpha", 2).Set("zebra", 3)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zebra":3,"alpha":2}`, string(out))
	assert.Equal(t, []string{"zebra", "alpha"}, m.Keys())
}
