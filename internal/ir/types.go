package ir

import "github.com/forgekit/apiforge/internal/translate"

// Normalized intermediate representation. Produced once per run by Normalize
// and immutable afterwards; every downstream stage (OpenAPI mapper, renderer)
// operates on this canonical shape.

// Kind discriminates the canonical field-type tree.
type Kind int

const (
	KindPrimitive Kind = iota // string, integer, number, boolean, object
	KindArray
	KindReference // names a declared schema
)

// FieldType is the tagged-variant form every shorthand and nested declaration
// collapses into.
type FieldType struct {
	Kind        Kind
	Name        string // primitive name, or referenced schema name
	Format      string // passed through verbatim, unknown values included
	Items       *FieldType
	Enum        []any
	Example     any
	Description string
}

// API is the validated, normalized configuration.
type API struct {
	Name         string
	Endpoints    []Endpoint
	Schemas      []Schema // declaration order
	Translations *translate.Table

	schemaIndex map[string]int
}

// Schema looks up a schema by name.
func (a *API) Schema(name string) (*Schema, bool) {
	i, ok := a.schemaIndex[name]
	if !ok {
		return nil, false
	}
	return &a.Schemas[i], true
}

// Endpoint is a normalized operation: the method is canonical upper-case and
// path placeholders have been materialized into Params.
type Endpoint struct {
	Path    string
	Method  string
	Summary string
	Body    string // schema name, empty when no request body
	Params  []Param
}

// Param is a path or query parameter. Path params come first, in placeholder
// order, followed by query params in declaration order.
type Param struct {
	Name        string
	In          string // "path" or "query"
	Required    bool
	Type        FieldType
	Default     any
	Description string
}

// Schema is a normalized named type definition.
type Schema struct {
	Name     string
	Type     string // "object" or "array"
	Required []string
	Fields   []Field    // object schemas, declaration order
	Items    *FieldType // array schemas
}

// Field is one named property of an object schema.
type Field struct {
	Name string
	Type FieldType
}
