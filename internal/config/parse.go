package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ParseError reports malformed configuration text. It carries enough position
// information to locate the offending line without inspecting intermediate
// state.
type ParseError struct {
	Path    string // input file path, empty when parsing from memory
	Line    int    // 1-based, 0 when unknown
	Col     int    // 1-based, 0 when unknown
	Key     string // last TOML key seen before the failure, may be empty
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "config"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
		if e.Col > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Col)
		}
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key %q)", loc, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// rawFile mirrors File but keeps field declarations as undecoded primitives so
// the bare-string shorthand and the nested-table form can share one key.
type rawFile struct {
	Name      string                           `toml:"name"`
	Secret    string                           `toml:"secret"`
	Endpoints []rawEndpoint                    `toml:"endpoints"`
	Schemas   map[string]rawSchema             `toml:"schemas"`
	Models    map[string]map[string][][]string `toml:"models"`
}

type rawEndpoint struct {
	Path    string                `toml:"path"`
	Method  string                `toml:"method"`
	Summary string                `toml:"summary"`
	Body    string                `toml:"body"`
	Query   map[string]*Parameter `toml:"query"`
}

type rawSchema struct {
	Type     string                    `toml:"type"`
	Required []string                  `toml:"required"`
	Fields   map[string]toml.Primitive `toml:"fields"`
	Items    *Field                    `toml:"items"`
}

// ParseFile reads and parses a configuration file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, perr := Parse(data)
	if perr != nil {
		var pe *ParseError
		if errors.As(perr, &pe) {
			pe.Path = path
		}
		return nil, perr
	}
	return f, nil
}

// Parse deserializes configuration text into the raw IR. It accepts any value
// satisfying the grammar, including dangling schema references; semantic
// checks belong to ir.Normalize.
func Parse(data []byte) (*File, error) {
	var raw rawFile
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, wrapTOMLError(err, data)
	}

	out := &File{
		Name:    raw.Name,
		Secret:  raw.Secret,
		Schemas: make(map[string]*Schema, len(raw.Schemas)),
		Models:  make(map[string]*Model, len(raw.Models)),
	}

	ord := collectOrder(md)

	for i, re := range raw.Endpoints {
		ep := Endpoint{
			Path:    re.Path,
			Method:  re.Method,
			Summary: re.Summary,
			Body:    re.Body,
			Query:   re.Query,
		}
		if i < len(ord.queryOrder) {
			ep.QueryOrder = ord.queryOrder[i]
		}
		out.Endpoints = append(out.Endpoints, ep)
	}

	for name, rs := range raw.Schemas {
		s := &Schema{
			Type:       rs.Type,
			Required:   rs.Required,
			Items:      rs.Items,
			Fields:     make(map[string]*FieldValue, len(rs.Fields)),
			FieldOrder: ord.fieldOrder[name],
		}
		for fname, prim := range rs.Fields {
			fv, err := decodeFieldValue(md, prim)
			if err != nil {
				return nil, &ParseError{
					Key:     fmt.Sprintf("schemas.%s.fields.%s", name, fname),
					Message: err.Error(),
					Cause:   err,
				}
			}
			s.Fields[fname] = fv
		}
		out.Schemas[name] = s
	}
	out.SchemaOrder = ord.schemaOrder

	for name, fields := range raw.Models {
		m := &Model{
			Fields:     make(map[string][]Rule, len(fields)),
			FieldOrder: ord.modelFieldOrder[name],
		}
		for fname, pairs := range fields {
			rules := make([]Rule, 0, len(pairs))
			for i, pair := range pairs {
				if len(pair) != 2 {
					return nil, &ParseError{
						Key:     fmt.Sprintf("models.%s.%s", name, fname),
						Message: fmt.Sprintf("translation entry %d must be a [matcher, label] pair, got %d elements", i, len(pair)),
					}
				}
				rules = append(rules, Rule{Matcher: pair[0], Label: pair[1]})
			}
			m.Fields[fname] = rules
		}
		out.Models[name] = m
	}
	out.ModelOrder = ord.modelOrder

	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, &ParseError{
			Key:     undec[0].String(),
			Message: "unknown key",
		}
	}

	return out, nil
}

// decodeFieldValue resolves the shorthand-or-table split: a bare string is a
// primitive type name, a table is a full field spec.
func decodeFieldValue(md toml.MetaData, prim toml.Primitive) (*FieldValue, error) {
	var short string
	if err := md.PrimitiveDecode(prim, &short); err == nil {
		return &FieldValue{Shorthand: short}, nil
	}
	var spec Field
	if err := md.PrimitiveDecode(prim, &spec); err != nil {
		return nil, fmt.Errorf("expected a type name or a field table: %w", err)
	}
	return &FieldValue{Spec: &spec}, nil
}

// order captures declaration order recovered from the TOML metadata, which
// reports keys in the order they appear in the source.
type order struct {
	schemaOrder     []string
	fieldOrder      map[string][]string
	modelOrder      []string
	modelFieldOrder map[string][]string
	queryOrder      [][]string // indexed by endpoint position
}

func collectOrder(md toml.MetaData) order {
	ord := order{
		fieldOrder:      map[string][]string{},
		modelFieldOrder: map[string][]string{},
	}
	seen := map[string]bool{}
	appendOnce := func(dst []string, scope, name string) []string {
		k := scope + "\x00" + name
		if seen[k] {
			return dst
		}
		seen[k] = true
		return append(dst, name)
	}

	epIdx := -1
	for _, key := range md.Keys() {
		switch {
		case len(key) == 1 && key[0] == "endpoints":
			epIdx++
			ord.queryOrder = append(ord.queryOrder, nil)
		case len(key) == 3 && key[0] == "endpoints" && key[1] == "query" && epIdx >= 0:
			ord.queryOrder[epIdx] = appendOnce(ord.queryOrder[epIdx], fmt.Sprintf("ep%d.query", epIdx), key[2])
		case len(key) == 2 && key[0] == "schemas":
			ord.schemaOrder = appendOnce(ord.schemaOrder, "schemas", key[1])
		case len(key) == 4 && key[0] == "schemas" && key[2] == "fields":
			ord.fieldOrder[key[1]] = appendOnce(ord.fieldOrder[key[1]], "schemas."+key[1]+".fields", key[3])
		case len(key) == 2 && key[0] == "models":
			ord.modelOrder = appendOnce(ord.modelOrder, "models", key[1])
		case len(key) == 3 && key[0] == "models":
			ord.modelFieldOrder[key[1]] = appendOnce(ord.modelFieldOrder[key[1]], "models."+key[1], key[2])
		}
	}
	return ord
}

func wrapTOMLError(err error, data []byte) error {
	var pe toml.ParseError
	if errors.As(err, &pe) {
		return &ParseError{
			Line:    pe.Position.Line,
			Col:     columnAt(data, pe.Position.Start),
			Key:     pe.LastKey,
			Message: pe.Message,
			Cause:   err,
		}
	}
	return &ParseError{Message: err.Error(), Cause: err}
}

// columnAt converts a byte offset into a 1-based column on its line.
func columnAt(data []byte, offset int) int {
	if offset < 0 || offset > len(data) {
		return 0
	}
	col := 1
	for i := offset - 1; i >= 0; i-- {
		if data[i] == '\n' {
			break
		}
		col++
	}
	return col
}
