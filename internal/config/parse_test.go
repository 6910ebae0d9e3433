package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleTOML = `
name = "petstore"

[[endpoints]]
path = "/user/{id}"
method = "GET"
summary = "Fetch one user"

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

[models.user]
status = [["active", "Active"], ["inactive", "Inactive"]]
visited_at = [["$span:24h", "within a day"], ["$span:7d", "within a week"]]
`

func TestParse_Sample(t *testing.T) {
	t.Parallel()
	f, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Name != "petstore" {
		t.Fatalf("name = %q", f.Name)
	}
	if len(f.Endpoints) != 3 {
		t.Fatalf("endpoints = %d", len(f.Endpoints))
	}
	if f.Endpoints[2].Body != "newUser" {
		t.Fatalf("body = %q", f.Endpoints[2].Body)
	}
	if got := f.Endpoints[1].QueryOrder; !reflect.DeepEqual(got, []string{"roles", "tags"}) {
		t.Fatalf("query order = %v", got)
	}
	if got := f.SchemaOrder; !reflect.DeepEqual(got, []string{"newUser", "userList"}) {
		t.Fatalf("schema order = %v", got)
	}
	wantFields := []string{"name", "account", "password", "roles", "tags"}
	if got := f.Schemas["newUser"].FieldOrder; !reflect.DeepEqual(got, wantFields) {
		t.Fatalf("field order = %v", got)
	}
	if got := f.Models["user"].FieldOrder; !reflect.DeepEqual(got, []string{"status", "visited_at"}) {
		t.Fatalf("model field order = %v", got)
	}
}

func TestParse_ShorthandAndTableFields(t *testing.T) {
	t.Parallel()
	f, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fields := f.Schemas["newUser"].Fields
	if fv := fields["name"]; fv.Shorthand != "string" || fv.Spec != nil {
		t.Fatalf("shorthand field: %+v", fv)
	}
	pw := fields["password"]
	if pw.Spec == nil || pw.Spec.Format != "password" {
		t.Fatalf("table field: %+v", pw)
	}
	tags := fields["tags"]
	if tags.Spec == nil || tags.Spec.Items == nil || tags.Spec.Items.Format != "uuid" {
		t.Fatalf("nested items: %+v", tags)
	}
}

func TestParse_OrderBeatsAlphabetical(t *testing.T) {
	t.Parallel()
	// Names chosen so declaration order and alphabetical order disagree at
	// every level; a sorted fallback anywhere would flip them.
	src := `
name = "x"

[[endpoints]]
path = "/things"
method = "GET"
summary = "s"

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
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := f.Endpoints[0].QueryOrder; !reflect.DeepEqual(got, []string{"zulu", "alpha"}) {
		t.Fatalf("query order = %v", got)
	}
	if got := f.SchemaOrder; !reflect.DeepEqual(got, []string{"zebra", "alpha"}) {
		t.Fatalf("schema order = %v", got)
	}
	if got := f.Schemas["zebra"].FieldOrder; !reflect.DeepEqual(got, []string{"z2", "a1"}) {
		t.Fatalf("field order = %v", got)
	}
}

func TestParse_TranslationPairs(t *testing.T) {
	t.Parallel()
	f, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rules := f.Models["user"].Fields["visited_at"]
	if len(rules) != 2 {
		t.Fatalf("rules = %d", len(rules))
	}
	if rules[0].Matcher != "$span:24h" || rules[0].Label != "within a day" {
		t.Fatalf("rule[0] = %+v", rules[0])
	}
}

func TestParse_SyntaxErrorHasLine(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("name = \"x\"\nmethod = = \"GET\"\n"))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if pe.Line != 2 {
		t.Fatalf("line = %d, want 2", pe.Line)
	}
}

func TestParse_UnknownKey(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("name = \"x\"\nbogus = true\n"))
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if pe.Key != "bogus" {
		t.Fatalf("key = %q", pe.Key)
	}
	if !strings.Contains(pe.Error(), "unknown key") {
		t.Fatalf("message = %q", pe.Error())
	}
}

func TestParse_BadTranslationArity(t *testing.T) {
	t.Parallel()
	src := `
name = "x"

[models.user]
status = [["active", "Active", "extra"]]
`
	_, err := Parse([]byte(src))
	if err == nil {
		t.Fatalf("expected error for 3-element pair")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if !strings.Contains(pe.Message, "pair") {
		t.Fatalf("message = %q", pe.Message)
	}
}

func TestParse_BadFieldValue(t *testing.T) {
	t.Parallel()
	src := `
name = "x"

[schemas.a]
type = "object"

  [schemas.a.fields]
  broken = 42
`
	_, err := Parse([]byte(src))
	if err == nil {
		t.Fatalf("expected error for integer field declaration")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestParse_DanglingReferenceIsAccepted(t *testing.T) {
	t.Parallel()
	// Purely syntactic: an unknown schema reference parses fine and is
	// rejected later by normalization.
	src := `
name = "x"

[[endpoints]]
path = "/a"
method = "POST"
summary = "s"
body = "missing"
`
	if _, err := Parse([]byte(src)); err != nil {
		t.Fatalf("parse: %v", err)
	}
}
