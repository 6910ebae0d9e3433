package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes. Exported consts so callers can branch without string literals.
const (
	CodeUnknownMethod  = "unknown_method"
	CodeSchemaNotFound = "schema_not_found"
	CodeUnknownField   = "unknown_field"
	CodeBadType        = "bad_type"
	CodeMissingItems   = "missing_items"
	CodeSelfReference  = "self_reference"
	CodeEmptyEnum      = "empty_enum"
	CodeEnumMismatch   = "enum_mismatch"
	CodeBadPath        = "bad_path"
	CodeBadSpan        = "bad_span"
)

// Issue is a single validation finding. Path locates the offending section in
// the configuration (for example "endpoints[2].query.roles").
type Issue struct {
	Code    string
	Path    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Path, i.Message, i.Code)
}

// Issues is a collected batch of validation findings implementing error.
// Validation never short-circuits: one run reports every problem.
type Issues []Issue

func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	lines := make([]string, 0, len(iss))
	for _, it := range iss {
		lines = append(lines, it.String())
	}
	return strings.Join(lines, "\n")
}

// AsIssues extracts Issues from an error chain.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func (iss *Issues) add(code, path, format string, args ...any) {
	*iss = append(*iss, Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}
