// Package searchql compiles an infix search query string into a nested
// query document for an Elasticsearch-style backend. Compilation runs in
// three stages — lexing (shunting-yard infix-to-postfix), term analysis
// (per-atom field/value typing), and parsing (postfix fold into a
// boolean tree) — each implemented in its own internal package; this
// file is the single public entry point wiring them together.
package searchql

import (
	"encoding/json"
	"time"

	"github.com/kodeq/searchql/internal/fieldmeta"
	"github.com/kodeq/searchql/internal/lexer"
	"github.com/kodeq/searchql/internal/parser"
	"github.com/kodeq/searchql/internal/queryast"
	"github.com/kodeq/searchql/internal/termanalyzer"
)

// Re-exported so callers never need to import an internal/ package
// themselves.
type (
	// FieldMeta describes a caller-supplied field-type table. See
	// internal/fieldmeta for the full contract.
	FieldMeta = fieldmeta.FieldMeta
	// FieldType is a declared field type.
	FieldType = fieldmeta.FieldType
	// Table is the builder-style FieldMeta implementation most callers
	// use directly.
	Table = fieldmeta.Table
	// Transform lets a field bypass default leaf construction.
	Transform = fieldmeta.Transform
	// TransformFunc adapts a plain function to Transform.
	TransformFunc = fieldmeta.TransformFunc
	// Fragment is the marker interface a Transform's return value must
	// satisfy; *queryast.Node (the type underlying QueryDoc) satisfies
	// it already.
	Fragment = fieldmeta.Fragment
)

// Field type constants, re-exported for convenience.
const (
	Literal  = fieldmeta.Literal
	FullText = fieldmeta.FullText
	Boolean  = fieldmeta.Boolean
	Integer  = fieldmeta.Integer
	Float    = fieldmeta.Float
	Date     = fieldmeta.Date
	Ip       = fieldmeta.Ip
)

// NewTable creates an empty field-metadata Table with the given default
// field.
func NewTable(defaultField string) *Table { return fieldmeta.New(defaultField) }

// DecodeTable reads a JSON field-metadata schema. See internal/fieldmeta
// for the expected shape.
var DecodeTable = fieldmeta.DecodeTable

// QueryDoc is the compiled query document. It marshals to JSON as exactly
// one of match_none, match_all, term, wildcard, fuzzy, match_phrase,
// range, nested, or bool.
type QueryDoc struct {
	node *queryast.Node
}

// MarshalJSON implements json.Marshaler by delegating to the underlying
// query tree.
func (q *QueryDoc) MarshalJSON() ([]byte, error) {
	if q == nil || q.node == nil {
		return json.Marshal(queryast.MatchNone())
	}
	return json.Marshal(q.node)
}

// RequiresQuery reports whether this document contains a leaf (wildcard,
// fuzzy, scored term, or match_phrase) that must run in the backend's
// scored query context rather than a pure filter context.
func (q *QueryDoc) RequiresQuery() bool {
	if q == nil {
		return false
	}
	return queryast.RequiresQuery(q.node)
}

// CompileResult is the output of a successful Compile call.
type CompileResult struct {
	// Query is the compiled query document.
	Query *QueryDoc
	// RequiresQuery mirrors Query.RequiresQuery() for callers who only
	// need the flag.
	RequiresQuery bool
}

// LexError, reported when the raw query string is structurally
// malformed (unmatched parenthesis, unterminated quote/escape).
type LexError = lexer.LexError

// ValueError, reported when an atom's value fails its field's type
// validation.
type ValueError = termanalyzer.ValueError

// ParseError, reported when the postfix token stream folds into more
// or fewer operands than its operators support.
type ParseError = queryast.ParseError

// Compile translates source into a query document using meta as the
// field-type table; meta.DefaultField() is the field unqualified atoms
// bind to. now pins the instant relative date expressions ("3 days ago")
// resolve against.
func Compile(source string, meta fieldmeta.FieldMeta, now time.Time) (*CompileResult, error) {
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}

	node, err := parser.Parse(tokens, parser.Options{
		Meta:         meta,
		DefaultField: meta.DefaultField(),
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	doc := &QueryDoc{node: node}
	return &CompileResult{Query: doc, RequiresQuery: doc.RequiresQuery()}, nil
}
