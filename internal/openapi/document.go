package openapi

import (
	"bytes"
	"encoding/json"
)

// Document is the generated OpenAPI tree. It is rebuilt from scratch on every
// run and must marshal byte-stably: paths, operations, and component schemas
// keep configuration declaration order, never alphabetical order. That rules
// out plain Go maps (and kin-openapi's models), which serialize sorted.
type Document struct {
	OpenAPI    string      `json:"openapi"`
	Info       Info        `json:"info"`
	Paths      *OrderedMap `json:"paths"`
	Components *Components `json:"components,omitempty"`
}

type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type Components struct {
	Schemas *OrderedMap `json:"schemas,omitempty"`
}

// Operation is one method entry of a path item.
type Operation struct {
	Summary     string       `json:"summary,omitempty"`
	Parameters  []*Parameter `json:"parameters,omitempty"`
	RequestBody *RequestBody `json:"requestBody,omitempty"`
	Responses   *OrderedMap  `json:"responses"`
}

type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Schema      *Schema `json:"schema"`
}

type RequestBody struct {
	Required bool             `json:"required,omitempty"`
	Content  map[string]Media `json:"content"`
}

type Media struct {
	Schema *Schema `json:"schema"`
}

type Response struct {
	Description string `json:"description"`
}

// Schema is a JSON-schema-like tree. Properties keep declaration order.
type Schema struct {
	Ref         string      `json:"$ref,omitempty"`
	Type        string      `json:"type,omitempty"`
	Format      string      `json:"format,omitempty"`
	Description string      `json:"description,omitempty"`
	Enum        []any       `json:"enum,omitempty"`
	Default     any         `json:"default,omitempty"`
	Example     any         `json:"example,omitempty"`
	Items       *Schema     `json:"items,omitempty"`
	Properties  *OrderedMap `json:"properties,omitempty"`
	Required    []string    `json:"required,omitempty"`
}

// OrderedMap is a JSON object that marshals its keys in insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: map[string]any{}}
}

// Set inserts or replaces a key. A replaced key keeps its original position.
func (m *OrderedMap) Set(key string, value any) *OrderedMap {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }

func (m *OrderedMap) Len() int { return len(m.keys) }

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the document as indented JSON with a trailing newline,
// suitable for writing to disk verbatim.
func (d *Document) Encode() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
