package ir

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/forgekit/apiforge/internal/config"
	"github.com/forgekit/apiforge/internal/translate"
)

var methods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
}

var primitives = map[string]bool{
	"string": true, "integer": true, "number": true, "boolean": true, "object": true,
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Normalize validates the raw IR and returns the canonical form. All problems
// are collected into one Issues batch; no partially normalized API is ever
// returned alongside an error.
func Normalize(f *config.File) (*API, error) {
	var iss Issues

	api := &API{
		Name:        strings.TrimSpace(f.Name),
		schemaIndex: make(map[string]int, len(f.Schemas)),
	}
	if api.Name == "" {
		iss.add(CodeUnknownField, "name", "project name is required")
	}

	for _, name := range orderedKeys(f.SchemaOrder, schemaKeys(f.Schemas)) {
		s := normalizeSchema(name, f.Schemas[name], f.Schemas, &iss)
		api.schemaIndex[name] = len(api.Schemas)
		api.Schemas = append(api.Schemas, s)
	}

	for i, ep := range f.Endpoints {
		api.Endpoints = append(api.Endpoints, normalizeEndpoint(i, ep, f.Schemas, &iss))
	}

	table, buildIssues := translate.Build(f.Models, f.ModelOrder)
	for _, bi := range buildIssues {
		iss.add(CodeBadSpan, fmt.Sprintf("models.%s.%s", bi.Model, bi.Field),
			"matcher %q: %v", bi.Matcher, bi.Err)
	}
	api.Translations = table

	if len(iss) > 0 {
		return nil, iss
	}
	return api, nil
}

func normalizeEndpoint(idx int, ep config.Endpoint, schemas map[string]*config.Schema, iss *Issues) Endpoint {
	at := fmt.Sprintf("endpoints[%d]", idx)
	out := Endpoint{
		Path:    strings.TrimSpace(ep.Path),
		Method:  strings.ToUpper(strings.TrimSpace(ep.Method)),
		Summary: ep.Summary,
		Body:    strings.TrimSpace(ep.Body),
	}
	if out.Path != "" {
		at = fmt.Sprintf("endpoints[%d] (%s %s)", idx, out.Method, out.Path)
	}

	if !methods[out.Method] {
		iss.add(CodeUnknownMethod, at, "unknown HTTP method %q", ep.Method)
	}
	if out.Path == "" || !strings.HasPrefix(out.Path, "/") {
		iss.add(CodeBadPath, at, "path must start with %q", "/")
	}
	if out.Body != "" {
		if _, ok := schemas[out.Body]; !ok {
			iss.add(CodeSchemaNotFound, at, "body references unknown schema %q", out.Body)
		}
	}

	// Placeholders must be well-formed: every brace belongs to a {name}.
	names := placeholderRe.FindAllStringSubmatch(out.Path, -1)
	if strings.Count(out.Path, "{") != len(names) || strings.Count(out.Path, "}") != len(names) {
		iss.add(CodeBadPath, at, "malformed path placeholder in %q", out.Path)
	}

	taken := map[string]bool{}
	for _, m := range names {
		name := m[1]
		if taken[name] {
			iss.add(CodeBadPath, at, "duplicate path placeholder %q", name)
			continue
		}
		taken[name] = true
		p := Param{Name: name, In: "path", Required: true, Type: FieldType{Kind: KindPrimitive, Name: "string"}}
		// An explicit query-table entry of the same name overrides the
		// implicit string type.
		if spec, ok := ep.Query[name]; ok {
			p = normalizeParam(name, "path", spec, at, iss)
			p.Required = true
		}
		out.Params = append(out.Params, p)
	}

	for _, name := range orderedKeys(ep.QueryOrder, paramKeys(ep.Query)) {
		if taken[name] {
			continue // consumed as a path parameter
		}
		out.Params = append(out.Params, normalizeParam(name, "query", ep.Query[name], at, iss))
	}
	return out
}

func normalizeParam(name, in string, spec *config.Parameter, at string, iss *Issues) Param {
	path := fmt.Sprintf("%s.query.%s", at, name)
	p := Param{Name: name, In: in, Description: spec.Description, Default: spec.Default}

	typ := strings.TrimSpace(spec.Type)
	switch {
	case typ == "array":
		// Parameters carry no item declaration; arrays default to strings.
		p.Type = FieldType{Kind: KindArray, Items: &FieldType{Kind: KindPrimitive, Name: "string"}}
	case primitives[typ]:
		p.Type = FieldType{Kind: KindPrimitive, Name: typ}
	default:
		iss.add(CodeBadType, path, "parameter type must be a primitive, got %q", spec.Type)
	}

	if spec.Enum != nil {
		if len(spec.Enum) == 0 {
			iss.add(CodeEmptyEnum, path, "enum must not be empty")
		}
		p.Type.Enum = spec.Enum
		if spec.Default != nil && !containsValue(spec.Enum, spec.Default) {
			iss.add(CodeEnumMismatch, path, "default %v is not one of the enum values", spec.Default)
		}
	}
	return p
}

func normalizeSchema(name string, s *config.Schema, schemas map[string]*config.Schema, iss *Issues) Schema {
	at := "schemas." + name
	out := Schema{Name: name, Type: strings.TrimSpace(s.Type), Required: s.Required}

	switch out.Type {
	case "object":
		fieldNames := orderedKeys(s.FieldOrder, fieldKeys(s.Fields))
		declared := map[string]bool{}
		for _, fname := range fieldNames {
			declared[fname] = true
			ft := normalizeFieldValue(s.Fields[fname], at+".fields."+fname, schemas, iss)
			rejectSelfReference(name, &ft, at+".fields."+fname, iss)
			out.Fields = append(out.Fields, Field{Name: fname, Type: ft})
		}
		for _, req := range s.Required {
			if !declared[req] {
				iss.add(CodeUnknownField, at+".required", "required field %q is not declared", req)
			}
		}
	case "array":
		if s.Items == nil {
			iss.add(CodeMissingItems, at, "array schema needs an items table")
			break
		}
		ft := fieldTypeFromSpec(s.Items, at+".items", schemas, iss)
		rejectSelfReference(name, &ft, at+".items", iss)
		out.Items = &ft
	default:
		iss.add(CodeBadType, at, "schema type must be %q or %q, got %q", "object", "array", s.Type)
	}
	return out
}

// normalizeFieldValue expands the shorthand form into the canonical tree.
func normalizeFieldValue(fv *config.FieldValue, path string, schemas map[string]*config.Schema, iss *Issues) FieldType {
	if fv == nil {
		iss.add(CodeBadType, path, "missing field declaration")
		return FieldType{}
	}
	if fv.Spec != nil {
		return fieldTypeFromSpec(fv.Spec, path, schemas, iss)
	}
	typ := strings.TrimSpace(fv.Shorthand)
	switch {
	case typ == "array":
		iss.add(CodeMissingItems, path, "array fields need the table form with an items entry")
		return FieldType{Kind: KindArray}
	case primitives[typ]:
		return FieldType{Kind: KindPrimitive, Name: typ}
	default:
		return reference(typ, path, schemas, iss)
	}
}

func fieldTypeFromSpec(spec *config.Field, path string, schemas map[string]*config.Schema, iss *Issues) FieldType {
	typ := strings.TrimSpace(spec.Type)
	var ft FieldType
	switch {
	case typ == "array":
		ft = FieldType{Kind: KindArray}
		if spec.Items == nil {
			iss.add(CodeMissingItems, path, "array fields need an items entry")
		} else {
			items := fieldTypeFromSpec(spec.Items, path+".items", schemas, iss)
			ft.Items = &items
		}
	case primitives[typ]:
		ft = FieldType{Kind: KindPrimitive, Name: typ}
	case typ == "":
		iss.add(CodeBadType, path, "field type is required")
	default:
		ft = reference(typ, path, schemas, iss)
	}

	ft.Format = spec.Format
	ft.Description = spec.Description
	ft.Example = spec.Example
	if spec.Enum != nil {
		if len(spec.Enum) == 0 {
			iss.add(CodeEmptyEnum, path, "enum must not be empty")
		}
		ft.Enum = spec.Enum
		if spec.Example != nil && !containsValue(spec.Enum, spec.Example) {
			iss.add(CodeEnumMismatch, path, "example %v is not one of the enum values", spec.Example)
		}
	}
	return ft
}

func reference(name, path string, schemas map[string]*config.Schema, iss *Issues) FieldType {
	if _, ok := schemas[name]; !ok {
		iss.add(CodeSchemaNotFound, path, "type %q is neither a primitive nor a declared schema", name)
	}
	return FieldType{Kind: KindReference, Name: name}
}

// rejectSelfReference refuses a schema that reaches itself through any chain
// of array wrapping inside its own definition. Cross-schema cycles are not
// chased here; they terminate in the output format's $ref indirection.
func rejectSelfReference(schema string, ft *FieldType, path string, iss *Issues) {
	for t := ft; t != nil; t = t.Items {
		if t.Kind == KindReference && t.Name == schema {
			iss.add(CodeSelfReference, path, "schema %q references itself", schema)
			return
		}
	}
}

func containsValue(enum []any, v any) bool {
	want := fmt.Sprint(v)
	for _, e := range enum {
		if fmt.Sprint(e) == want {
			return true
		}
	}
	return false
}

// orderedKeys prefers the declaration order recovered by the parser and
// appends any stragglers sorted, so iteration stays deterministic even when
// metadata is incomplete.
func orderedKeys(order, all []string) []string {
	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(all))
	for _, k := range order {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	var rest []string
	for _, k := range all {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func schemaKeys(m map[string]*config.Schema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func fieldKeys(m map[string]*config.FieldValue) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func paramKeys(m map[string]*config.Parameter) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
