// Package translate maps the [models] translation tables into a lookup
// structure usable by presentation layers: per model and field, an ordered
// list of (matcher, label) pairs with first-match-wins semantics.
//
// The Table is an explicitly passed read-only context object. Callers obtain
// it once per run (via ir.Normalize) and thread it through; it is never
// global state.
package translate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forgekit/apiforge/internal/config"
)

// spanPrefix marks a matcher that matches on elapsed time rather than
// equality: "$span:24h" matches values younger than 24 hours.
const spanPrefix = "$span:"

// Matcher is either a literal value or a time-span pattern.
type Matcher struct {
	Literal string
	Span    time.Duration
	IsSpan  bool
}

func (m Matcher) String() string {
	if m.IsSpan {
		return spanPrefix + m.Span.String()
	}
	return m.Literal
}

// Rule is one (matcher, label) pair.
type Rule struct {
	Matcher Matcher
	Label   string
}

// ParseMatcher interprets a raw matcher string. Unparsable span durations are
// an error here so normalization can reject them; lookups never fail on a
// malformed duration.
func ParseMatcher(raw string) (Matcher, error) {
	if !strings.HasPrefix(raw, spanPrefix) {
		return Matcher{Literal: raw}, nil
	}
	d, err := ParseDuration(strings.TrimPrefix(raw, spanPrefix))
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{Span: d, IsSpan: true}, nil
}

// ParseDuration parses human-readable durations. On top of the stdlib units
// it accepts a day ("7d") or week ("2w") suffix on a plain number.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	unit := s[len(s)-1]
	if unit == 'd' || unit == 'w' {
		n, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err == nil {
			hours := n * 24
			if unit == 'w' {
				hours *= 7
			}
			return time.Duration(hours * float64(time.Hour)), nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Table holds every model's translation rules in declaration order.
type Table struct {
	modelOrder []string
	fieldOrder map[string][]string
	rules      map[string]map[string][]Rule
}

// BuildIssue reports one unparsable matcher found while building a Table.
type BuildIssue struct {
	Model   string
	Field   string
	Matcher string
	Err     error
}

// Build assembles a Table from the parsed [models] section. Issues are
// collected, not short-circuited.
func Build(models map[string]*config.Model, modelOrder []string) (*Table, []BuildIssue) {
	t := &Table{
		modelOrder: modelOrder,
		fieldOrder: make(map[string][]string, len(models)),
		rules:      make(map[string]map[string][]Rule, len(models)),
	}
	var issues []BuildIssue
	for _, name := range modelOrder {
		m := models[name]
		if m == nil {
			continue
		}
		t.fieldOrder[name] = m.FieldOrder
		byField := make(map[string][]Rule, len(m.Fields))
		for _, fname := range m.FieldOrder {
			rules := make([]Rule, 0, len(m.Fields[fname]))
			for _, r := range m.Fields[fname] {
				matcher, err := ParseMatcher(r.Matcher)
				if err != nil {
					issues = append(issues, BuildIssue{Model: name, Field: fname, Matcher: r.Matcher, Err: err})
					continue
				}
				rules = append(rules, Rule{Matcher: matcher, Label: r.Label})
			}
			byField[fname] = rules
		}
		t.rules[name] = byField
	}
	return t, issues
}

// Models returns the model names in declaration order.
func (t *Table) Models() []string { return t.modelOrder }

// Fields returns a model's translated field names in declaration order.
func (t *Table) Fields(model string) []string { return t.fieldOrder[model] }

// Rules returns the ordered rules for one field, or nil.
func (t *Table) Rules(model, field string) []Rule {
	if byField, ok := t.rules[model]; ok {
		return byField[field]
	}
	return nil
}

// Translate resolves a value to its human-facing label. Rules are scanned in
// declaration order and the first matcher of either kind wins; no default is
// synthesized when none match. Span matchers interpret the value as a
// timestamp and match when asOf minus the value is within the span.
func (t *Table) Translate(model, field string, value any, asOf time.Time) (string, bool) {
	for _, r := range t.Rules(model, field) {
		if r.Matcher.IsSpan {
			ts, ok := asTime(value)
			if !ok {
				continue
			}
			age := asOf.Sub(ts)
			if age >= 0 && age <= r.Matcher.Span {
				return r.Label, true
			}
			continue
		}
		if stringify(value) == r.Matcher.Literal {
			return r.Label, true
		}
	}
	return "", false
}

func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	case float64:
		return time.Unix(int64(v), 0), true
	default:
		return time.Time{}, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
