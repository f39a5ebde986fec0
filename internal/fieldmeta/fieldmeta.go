// Package fieldmeta describes the externally supplied field-type table the
// term analyzer validates and normalizes query values against. Nothing in
// this package knows how to lex or parse a query string; it only describes
// the shape of the context a caller hands to the compiler.
package fieldmeta

// FieldType is the declared type of a field in the caller's schema.
type FieldType int

const (
	// Literal fields compare case-insensitively by default (downcased
	// unless the field is in the no-downcase set) and never go through
	// full-text analysis on the downstream engine.
	Literal FieldType = iota
	// FullText fields are analyzed into n-grams by the downstream engine;
	// equality matches become match_phrase leaves.
	FullText
	// Boolean fields accept only "true" or "false".
	Boolean
	// Integer fields hold signed whole numbers.
	Integer
	// Float fields hold signed decimal numbers.
	Float
	// Date fields accept ISO-8601-lenient literals or relative "N units
	// ago" expressions and always normalize to a range.
	Date
	// Ip fields accept a single address or a CIDR range.
	Ip
)

// String renders the field type the way it would appear in a schema file
// or an error message.
func (t FieldType) String() string {
	switch t {
	case Literal:
		return "literal"
	case FullText:
		return "full_text"
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Date:
		return "date"
	case Ip:
		return "ip"
	default:
		return "unknown"
	}
}

// ParseFieldType resolves the schema-file spelling of a field type,
// accepting a few common synonyms ("bool", "int", "double", ...). Matching
// is case-sensitive; DecodeTable lowercases type names before calling it.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "literal":
		return Literal, true
	case "full_text", "fulltext":
		return FullText, true
	case "boolean", "bool":
		return Boolean, true
	case "integer", "int":
		return Integer, true
	case "float", "double":
		return Float, true
	case "date", "datetime":
		return Date, true
	case "ip":
		return Ip, true
	default:
		return 0, false
	}
}

// Fragment marks a type as usable as the direct output of a field
// Transform. It has no methods a caller must implement deliberately: the
// compiler's own query-document node type satisfies it for free, so a
// Transform can simply return one of those nodes. The marker exists so
// this package never needs to import the compiler's AST package (which in
// turn depends on this package for the FieldMeta contract).
type Fragment interface {
	isFragment()
}

// Transform converts a field value into a final query fragment, bypassing
// the term analyzer's default leaf construction for that field entirely.
// Apply receives the value as written in the query, with the field prefix
// and surrounding quotes removed; it is not downcased, unescaped or
// type-checked first. Spec'd as a "callable field transform"; modeled as
// a single-method interface so callers without a convenient closure can
// still implement it on a concrete type.
type Transform interface {
	Apply(value string) (Fragment, error)
}

// TransformFunc adapts a plain function to the Transform interface, the
// same adapter idiom as http.HandlerFunc.
type TransformFunc func(value string) (Fragment, error)

// Apply calls f(value).
func (f TransformFunc) Apply(value string) (Fragment, error) { return f(value) }

// FieldMeta is the field-type table the term analyzer consults. The
// compiler borrows a FieldMeta for the lifetime of a single Compile call
// and never mutates it.
type FieldMeta interface {
	// TypeOf returns the declared type of field. The term analyzer always
	// resolves AliasOf first and calls TypeOf with the canonical name, so
	// an alias only needs a type declared under its canonical spelling.
	TypeOf(field string) (FieldType, bool)
	// AliasOf returns the canonical name for field, if it is an alias.
	AliasOf(field string) (string, bool)
	// TransformOf returns the registered Transform for field, if any.
	TransformOf(field string) (Transform, bool)
	// NoDowncase reports whether field is exempt from literal downcasing.
	NoDowncase(field string) bool
	// NestedPathOf returns the parent document path for field, if field is
	// declared as a nested sub-field.
	NestedPathOf(field string) (string, bool)
	// DefaultField returns the field an atom with no recognized field
	// prefix (or a colon that isn't a field separator) is matched against.
	DefaultField() string
}
