package config

// Raw intermediate representation of an apiforge.toml file. Parsing is purely
// syntactic: schema references, required-field closure, and enum membership
// are checked later by the ir package.

// File is the parsed configuration. The *Order slices record declaration
// order as it appeared in the source text; downstream stages must iterate
// through them instead of ranging over the maps.
type File struct {
	Name        string
	Secret      string // per-project instance secret, opaque to the generator
	Endpoints   []Endpoint
	Schemas     map[string]*Schema
	SchemaOrder []string
	Models      map[string]*Model
	ModelOrder  []string
}

// Endpoint is one [[endpoints]] table.
type Endpoint struct {
	Path       string
	Method     string
	Summary    string
	Body       string // schema reference, optional
	Query      map[string]*Parameter
	QueryOrder []string
}

// Parameter describes a query (or materialized path) parameter.
type Parameter struct {
	Type        string `toml:"type"`
	Enum        []any  `toml:"enum"`
	Default     any    `toml:"default"`
	Description string `toml:"description"`
}

// Schema is one named entry under [schemas].
type Schema struct {
	Type       string // "object" or "array"
	Required   []string
	Fields     map[string]*FieldValue
	FieldOrder []string
	Items      *Field // array schemas only
}

// FieldValue holds one field declaration, either the bare-string shorthand
// ("string") or a full nested table. Exactly one of the two is set.
type FieldValue struct {
	Shorthand string
	Spec      *Field
}

// Field is the full form of a field declaration. Items recurses, so
// array-of-array-of-X declarations nest naturally.
type Field struct {
	Type        string `toml:"type"`
	Format      string `toml:"format"`
	Items       *Field `toml:"items"`
	Example     any    `toml:"example"`
	Description string `toml:"description"`
	Enum        []any  `toml:"enum"`
}

// Model is one named entry under [models]: per-field ordered translation
// rules.
type Model struct {
	Fields     map[string][]Rule
	FieldOrder []string
}

// Rule is a single (matcher, label) translation pair. The matcher is either a
// literal value or a "$span:<duration>" pattern; it stays uninterpreted until
// normalization.
type Rule struct {
	Matcher string
	Label   string
}
