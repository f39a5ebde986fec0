// Package termanalyzer turns one lexer atom into a typed query leaf.
// Grounded on the teacher's parseFieldValue/castParam (internal/search),
// which already splits a "field:value" atom and special-cases numeric
// comparison fields; generalized here into the full per-FieldType
// normalization table the grammar requires, plus the range/ip/float
// handling the teacher's SQL-only backend never needed.
package termanalyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kodeq/searchql/internal/dateparse"
	"github.com/kodeq/searchql/internal/fieldmeta"
	"github.com/kodeq/searchql/internal/queryast"
)

// ValueErrorKind classifies why a value was rejected for its field's type.
type ValueErrorKind int

const (
	// InvalidBoolean reports a boolean field given a value other than
	// "true"/"false".
	InvalidBoolean ValueErrorKind = iota
	// InvalidNumber reports an integer/float field given unparsable text.
	InvalidNumber
	// InvalidDate reports a date field given a value neither grammar in
	// internal/dateparse accepts.
	InvalidDate
	// InvalidIP reports an ip field given neither an address nor a CIDR.
	InvalidIP
)

// ValueError reports a value that failed its field's type validation.
type ValueError struct {
	Kind  ValueErrorKind
	Field string
	Value string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("termanalyzer: field %q: value %q is not a valid %s", e.Field, e.Value, kindName(e.Kind))
}

func kindName(k ValueErrorKind) string {
	switch k {
	case InvalidBoolean:
		return "boolean"
	case InvalidNumber:
		return "number"
	case InvalidDate:
		return "date"
	case InvalidIP:
		return "ip address or CIDR"
	default:
		return "value"
	}
}

// fieldPattern splits a leading "field[.suffix]:" prefix off an atom.
// suffix, when present, is one of the range-comparison operators.
var fieldPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*?)(\.(gt|gte|lt|lte|eq))?:(.*)$`)

var cidrSplit = regexp.MustCompile(`/\d+$`)

// Options carries the per-Compile-call context the analyzer needs beyond
// the atom itself.
type Options struct {
	Meta         fieldmeta.FieldMeta
	DefaultField string
	// Now pins the instant relative date expressions resolve against; the
	// compiler sets this once per Compile call so it stays deterministic.
	Now time.Time
}

// Analyze converts one atom's raw text, boost, and fuzz into a query leaf
// (possibly wrapped as a nested query).
func Analyze(text string, boost, fuzz *float64, opts Options) (*queryast.Node, error) {
	field, suffix, value, wasQuoted := splitField(text, opts.DefaultField)

	// Alias resolution happens before type routing: an alias is just
	// another spelling of its canonical field, so the type that governs
	// normalization is always the canonical field's declared type.
	if canonical, ok := opts.Meta.AliasOf(field); ok {
		field = canonical
	}

	declaredType, known := opts.Meta.TypeOf(field)
	if !known {
		// Undeclared field: the colon (if any) was never a field
		// separator to begin with; fall back to the default field using
		// the ENTIRE original atom text, analyzed as the default field's
		// declared type (literal when the default field is undeclared).
		field = opts.DefaultField
		declaredType = fieldmeta.Literal
		if dt, ok := opts.Meta.TypeOf(field); ok {
			declaredType = dt
		}
		value = text
		suffix = ""
		wasQuoted = looksQuoted(text)
		if wasQuoted {
			value = unquote(text)
		}
	}

	outputField := field

	if tr, ok := opts.Meta.TransformOf(outputField); ok {
		frag, err := tr.Apply(value)
		if err != nil {
			return nil, err
		}
		node, ok := frag.(*queryast.Node)
		if !ok {
			return nil, fmt.Errorf("termanalyzer: field %q: transform returned an unusable fragment", outputField)
		}
		return wrapNested(node, outputField, opts.Meta), nil
	}

	var node *queryast.Node
	var err error
	switch declaredType {
	case fieldmeta.Literal:
		node = analyzeLiteral(outputField, value, wasQuoted, boost, fuzz, opts.Meta.NoDowncase(field))
	case fieldmeta.FullText:
		node = analyzeFullText(outputField, value, boost, opts.Meta.NoDowncase(field))
	case fieldmeta.Boolean:
		node, err = analyzeBoolean(outputField, value)
	case fieldmeta.Integer:
		node, err = analyzeInteger(outputField, value, suffix, fuzz, boost)
	case fieldmeta.Float:
		node, err = analyzeFloat(outputField, value, suffix, fuzz, boost)
	case fieldmeta.Date:
		node, err = analyzeDate(outputField, value, suffix, opts.Now)
	case fieldmeta.Ip:
		node, err = analyzeIP(outputField, value)
	default:
		node = analyzeLiteral(outputField, value, wasQuoted, boost, fuzz, false)
	}
	if err != nil {
		return nil, err
	}

	return wrapNested(node, outputField, opts.Meta), nil
}

func wrapNested(node *queryast.Node, field string, meta fieldmeta.FieldMeta) *queryast.Node {
	if path, ok := meta.NestedPathOf(field); ok {
		return queryast.Nested(path, node)
	}
	return node
}

// splitField separates an optional "field[.suffix]:" prefix from the
// atom's value, reporting whether the value portion (after the prefix,
// if any) was quoted.
func splitField(text, defaultField string) (field, suffix, value string, wasQuoted bool) {
	if m := fieldPattern.FindStringSubmatch(text); m != nil {
		field, suffix, value = m[1], m[3], m[4]
		wasQuoted = looksQuoted(value)
		if wasQuoted {
			value = unquote(value)
		}
		return field, suffix, value, wasQuoted
	}
	wasQuoted = looksQuoted(text)
	value = text
	if wasQuoted {
		value = unquote(text)
	}
	return defaultField, "", value, wasQuoted
}

func looksQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(s string) string {
	inner := s[1 : len(s)-1]
	return strings.ReplaceAll(inner, `\"`, `"`)
}

// hasWildcard reports whether raw contains an unescaped * or ?. The lexer
// preserves \x escapes verbatim, so raw may still contain backslashes at
// this point; \* and \? must not count as wildcard markers, only a bare
// * or ? does.
func hasWildcard(raw string) bool {
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
			continue
		}
		if runes[i] == '*' || runes[i] == '?' {
			return true
		}
	}
	return false
}

// stripEscapes removes the backslash from any \x escape, the
// normalization applied once a field's final string value has been
// classified (wildcard-or-not) and is ready to hand to the downstream
// engine.
func stripEscapes(raw string) string {
	var b strings.Builder
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			b.WriteRune(runes[i+1])
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

func analyzeLiteral(field, value string, wasQuoted bool, boost, fuzz *float64, noDowncase bool) *queryast.Node {
	if !wasQuoted && fuzz == nil && value == "*" {
		return queryast.MatchAll()
	}

	wildcard := !wasQuoted && hasWildcard(value)
	normalized := stripEscapes(value)
	if !noDowncase {
		normalized = strings.ToLower(normalized)
	}
	switch {
	case fuzz != nil:
		return queryast.Term(field, normalized, queryast.LeafFuzzy, boost, fuzz)
	case wildcard:
		return queryast.Term(field, normalized, queryast.LeafWildcard, boost, nil)
	default:
		return queryast.Term(field, normalized, queryast.LeafTerm, boost, nil)
	}
}

func analyzeFullText(field, value string, boost *float64, noDowncase bool) *queryast.Node {
	normalized := stripEscapes(value)
	if !noDowncase {
		normalized = strings.ToLower(normalized)
	}
	return queryast.MatchPhrase(field, normalized, boost)
}

func analyzeBoolean(field, value string) (*queryast.Node, error) {
	switch strings.ToLower(value) {
	case "true":
		return queryast.Term(field, true, queryast.LeafTerm, nil, nil), nil
	case "false":
		return queryast.Term(field, false, queryast.LeafTerm, nil, nil), nil
	default:
		return nil, &ValueError{Kind: InvalidBoolean, Field: field, Value: value}
	}
}

// suffixRangeBounds builds the range bounds a .gt/.gte/.lt/.lte/.eq suffix
// requests. "eq" has no direct RangeBound op of its own; it expands to a
// gte/lte pair pinned to the same value, an equality expressed as a
// zero-width range.
func suffixRangeBounds(suffix string, value any) []queryast.RangeBound {
	if suffix == "eq" {
		return []queryast.RangeBound{{Op: "gte", Value: value}, {Op: "lte", Value: value}}
	}
	return []queryast.RangeBound{{Op: suffix, Value: value}}
}

func analyzeInteger(field, value, suffix string, fuzz, boost *float64) (*queryast.Node, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, &ValueError{Kind: InvalidNumber, Field: field, Value: value}
	}
	if suffix != "" {
		return queryast.Range(field, suffixRangeBounds(suffix, n), boost), nil
	}
	if fuzz != nil {
		delta := int64(*fuzz)
		return queryast.Range(field, []queryast.RangeBound{
			{Op: "gte", Value: n - delta},
			{Op: "lte", Value: n + delta},
		}, boost), nil
	}
	return queryast.Term(field, n, queryast.LeafTerm, boost, nil), nil
}

func analyzeFloat(field, value, suffix string, fuzz, boost *float64) (*queryast.Node, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, &ValueError{Kind: InvalidNumber, Field: field, Value: value}
	}
	f, _ := d.Float64()
	if suffix != "" {
		return queryast.Range(field, suffixRangeBounds(suffix, f), boost), nil
	}
	if fuzz != nil {
		delta := decimal.NewFromFloat(*fuzz)
		lo, _ := d.Sub(delta).Float64()
		hi, _ := d.Add(delta).Float64()
		return queryast.Range(field, []queryast.RangeBound{
			{Op: "gte", Value: lo},
			{Op: "lte", Value: hi},
		}, boost), nil
	}
	return queryast.Term(field, f, queryast.LeafTerm, boost, nil), nil
}

func analyzeDate(field, value, suffix string, origin time.Time) (*queryast.Node, error) {
	r, err := dateparse.Parse(value, origin)
	if err != nil {
		return nil, &ValueError{Kind: InvalidDate, Field: field, Value: value}
	}
	startMillis := r.Start.UnixMilli()
	endMillis := r.End.UnixMilli()

	switch suffix {
	case "gt":
		return queryast.Range(field, []queryast.RangeBound{{Op: "gte", Value: endMillis}}, nil), nil
	case "gte":
		return queryast.Range(field, []queryast.RangeBound{{Op: "gte", Value: startMillis}}, nil), nil
	case "lt":
		return queryast.Range(field, []queryast.RangeBound{{Op: "lt", Value: startMillis}}, nil), nil
	case "lte":
		return queryast.Range(field, []queryast.RangeBound{{Op: "lt", Value: endMillis}}, nil), nil
	default: // "eq" or no suffix
		return queryast.Range(field, []queryast.RangeBound{
			{Op: "gte", Value: startMillis},
			{Op: "lt", Value: endMillis},
		}, nil), nil
	}
}

func analyzeIP(field, value string) (*queryast.Node, error) {
	if cidrSplit.MatchString(value) {
		if !validCIDR(value) {
			return nil, &ValueError{Kind: InvalidIP, Field: field, Value: value}
		}
		return queryast.Term(field, value, queryast.LeafTerm, nil, nil), nil
	}
	if !validAddr(value) {
		return nil, &ValueError{Kind: InvalidIP, Field: field, Value: value}
	}
	return queryast.Term(field, value, queryast.LeafTerm, nil, nil), nil
}
