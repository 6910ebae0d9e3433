// Package openapi transforms the normalized IR into an OpenAPI 3.0 document.
// The transform is pure: same IR in, same bytes out.
package openapi

import (
	"strings"

	"github.com/forgekit/apiforge/internal/ir"
)

const version = "3.0.3"

// Build maps the normalized IR into a Document. Path ordering follows
// endpoint declaration order; component schema ordering follows schema
// declaration order.
func Build(api *ir.API) *Document {
	doc := &Document{
		OpenAPI: version,
		Info:    Info{Title: api.Name, Version: "0.1.0"},
		Paths:   NewOrderedMap(),
	}

	for _, ep := range api.Endpoints {
		item := pathItem(doc.Paths, ep.Path)
		item.Set(strings.ToLower(ep.Method), operation(ep))
	}

	if len(api.Schemas) > 0 {
		schemas := NewOrderedMap()
		for _, s := range api.Schemas {
			schemas.Set(s.Name, componentSchema(s))
		}
		doc.Components = &Components{Schemas: schemas}
	}
	return doc
}

func pathItem(paths *OrderedMap, path string) *OrderedMap {
	if existing, ok := paths.Get(path); ok {
		return existing.(*OrderedMap)
	}
	item := NewOrderedMap()
	paths.Set(path, item)
	return item
}

func operation(ep ir.Endpoint) *Operation {
	op := &Operation{
		Summary:   ep.Summary,
		Responses: NewOrderedMap().Set("200", Response{Description: "OK"}),
	}
	for _, p := range ep.Params {
		op.Parameters = append(op.Parameters, &Parameter{
			Name:        p.Name,
			In:          p.In,
			Description: p.Description,
			Required:    p.Required,
			Schema:      typeSchema(p.Type, p.Default),
		})
	}
	if ep.Body != "" {
		op.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]Media{
				"application/json": {Schema: &Schema{Ref: componentRef(ep.Body)}},
			},
		}
	}
	return op
}

func componentSchema(s ir.Schema) *Schema {
	switch s.Type {
	case "array":
		return &Schema{Type: "array", Items: typeSchema(*s.Items, nil)}
	default:
		out := &Schema{Type: "object", Required: s.Required}
		if len(s.Fields) > 0 {
			props := NewOrderedMap()
			for _, f := range s.Fields {
				props.Set(f.Name, typeSchema(f.Type, nil))
			}
			out.Properties = props
		}
		return out
	}
}

// typeSchema maps the canonical field-type tree to a JSON-schema node.
// Unrecognized format values pass through verbatim: unknown formats are not
// errors.
func typeSchema(t ir.FieldType, def any) *Schema {
	out := &Schema{
		Description: t.Description,
		Enum:        t.Enum,
		Example:     t.Example,
		Default:     def,
	}
	switch t.Kind {
	case ir.KindReference:
		return &Schema{Ref: componentRef(t.Name)}
	case ir.KindArray:
		out.Type = "array"
		if t.Items != nil {
			out.Items = typeSchema(*t.Items, nil)
		}
	default:
		out.Type = t.Name
		out.Format = t.Format
	}
	return out
}

func componentRef(name string) string {
	return "#/components/schemas/" + name
}
