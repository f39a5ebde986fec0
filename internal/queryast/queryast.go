// Package queryast defines the nested query document the compiler
// produces and the Merge algorithm the parser folds postfix tokens with.
// Grounded on the teacher's internal/search.QueryNode (a tagged
// leaf/branch struct walked to build a bleve or ClickHouse query) but
// retargeted to emit the Elasticsearch-shaped JSON document this grammar
// specifies, with its own associativity-flattening and double-negation
// rules.
package queryast

import (
	"encoding/json"
	"fmt"

	"github.com/kodeq/searchql/internal/fieldmeta"
)

// Op is a boolean combinator.
type Op int

const (
	// OpAnd folds operands into bool.must.
	OpAnd Op = iota
	// OpOr folds operands into bool.should.
	OpOr
)

// LeafKind distinguishes the handful of leaf query shapes the grammar can
// produce.
type LeafKind int

const (
	// LeafMatchNone matches nothing; the result of compiling an empty or
	// whitespace-only query.
	LeafMatchNone LeafKind = iota
	// LeafMatchAll matches every document.
	LeafMatchAll
	// LeafTerm is an exact-value term leaf.
	LeafTerm
	// LeafWildcard is a term leaf containing unescaped * or ?.
	LeafWildcard
	// LeafFuzzy is a term leaf carrying a fuzziness modifier.
	LeafFuzzy
	// LeafMatchPhrase is a full-text equality leaf.
	LeafMatchPhrase
	// LeafRange is a bounded range leaf (numeric or date).
	LeafRange
)

// RangeBound is one side of a range leaf.
type RangeBound struct {
	Op    string // one of "gt", "gte", "lt", "lte"
	Value any
}

// Node is the tagged union the compiler builds: either a leaf query or a
// bool branch with must/should/must_not operand lists. It is never
// constructed with both a leaf kind and children populated.
type Node struct {
	// Leaf fields.
	Leaf       LeafKind
	Field      string
	Value      any
	Boost      *float64
	Fuzz       *float64
	Bounds     []RangeBound
	NestedPath string

	// Branch fields; populated only when IsBranch is true.
	IsBranch bool
	Must     []*Node
	Should   []*Node
	MustNot  []*Node
}

// isFragment satisfies fieldmeta.Fragment so a Transform can return a
// *Node directly without fieldmeta importing this package.
func (n *Node) isFragment() {}

var _ fieldmeta.Fragment = (*Node)(nil)

// MatchNone builds the leaf every empty query compiles to.
func MatchNone() *Node { return &Node{Leaf: LeafMatchNone} }

// MatchAll builds the leaf a bare wildcard-field query compiles to.
func MatchAll() *Node { return &Node{Leaf: LeafMatchAll} }

// Term builds an exact-value leaf, optionally a wildcard or fuzzy one.
func Term(field string, value any, kind LeafKind, boost, fuzz *float64) *Node {
	return &Node{Leaf: kind, Field: field, Value: value, Boost: boost, Fuzz: fuzz}
}

// MatchPhrase builds a full-text equality leaf.
func MatchPhrase(field, value string, boost *float64) *Node {
	return &Node{Leaf: LeafMatchPhrase, Field: field, Value: value, Boost: boost}
}

// Range builds a bounded range leaf.
func Range(field string, bounds []RangeBound, boost *float64) *Node {
	return &Node{Leaf: LeafRange, Field: field, Bounds: bounds, Boost: boost}
}

// Nested wraps inner in a nested query rooted at path.
func Nested(path string, inner *Node) *Node {
	clone := *inner
	clone.NestedPath = path
	return &clone
}

// ParseErrorKind distinguishes the two malformed-stream shapes the parser
// can detect.
type ParseErrorKind int

const (
	// MissingOperand reports an operator with too few operands on the
	// stack.
	MissingOperand ParseErrorKind = iota
	// MissingOperator reports leftover operands with no operator to
	// combine them.
	MissingOperator
)

// ParseError reports a malformed postfix stream.
type ParseError struct {
	Kind   ParseErrorKind
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s", e.Detail)
}

// Not applies a single prefix NOT to n by wrapping it in a must_not
// branch. Called once per NOT token in the postfix stream, so three
// consecutive NOT tokens against the same operand ("NOT NOT NOT x")
// produce three literal nestings — Not never collapses a double
// negation itself. Collapse is reserved for Merge, which rewrites an
// operand of the form must_not{must_not{x}} as it folds it.
func Not(n *Node) *Node {
	return &Node{IsBranch: true, MustNot: []*Node{n}}
}

// Merge combines a and b under op. Same-operator children are flattened
// into the parent's operand list rather than nested. Before an operand
// is added, one level of double negation is removed from it: an operand
// of the form must_not{must_not{x}} (e.g. "!(!x)" or "!!x" used as an
// AND/OR operand) becomes x. A chain of NOTs that is never an operand of
// AND/OR (a whole query such as "!!!x") does not pass through Merge and
// so is never collapsed.
func Merge(a, b *Node, op Op) *Node {
	result := &Node{IsBranch: true}

	appendOperand := func(n *Node) {
		n = collapseDoubleNegation(n)
		if n.IsBranch && !negatedBranch(n) && sameOp(n, op) {
			switch op {
			case OpAnd:
				result.Must = append(result.Must, n.Must...)
			case OpOr:
				result.Should = append(result.Should, n.Should...)
			}
			return
		}
		switch op {
		case OpAnd:
			result.Must = append(result.Must, n)
		case OpOr:
			result.Should = append(result.Should, n)
		}
	}

	appendOperand(a)
	appendOperand(b)

	return result
}

// collapseDoubleNegation rewrites must_not{must_not{x}} to x. It applies
// only to operands as they are folded into a Merge result, never to a
// standalone chain of prefix NOTs on a bare term.
func collapseDoubleNegation(n *Node) *Node {
	if negatedBranch(n) && negatedBranch(n.MustNot[0]) {
		return n.MustNot[0].MustNot[0]
	}
	return n
}

func sameOp(n *Node, op Op) bool {
	switch op {
	case OpAnd:
		return len(n.Must) > 0 && len(n.Should) == 0 && len(n.MustNot) == 0
	case OpOr:
		return len(n.Should) > 0 && len(n.Must) == 0 && len(n.MustNot) == 0
	}
	return false
}

func negatedBranch(n *Node) bool {
	return len(n.MustNot) > 0 && len(n.Must) == 0 && len(n.Should) == 0
}

// RequiresQuery reports whether n (recursively) contains any leaf that
// must be served by the downstream engine's scored query path rather than
// a pure filter context: wildcard, fuzzy, a scored term, or a
// match_phrase.
func RequiresQuery(n *Node) bool {
	if n == nil {
		return false
	}
	if !n.IsBranch {
		switch n.Leaf {
		case LeafWildcard, LeafFuzzy, LeafMatchPhrase:
			return true
		case LeafTerm:
			return n.Boost != nil
		}
		return false
	}
	for _, c := range n.Must {
		if RequiresQuery(c) {
			return true
		}
	}
	for _, c := range n.Should {
		if RequiresQuery(c) {
			return true
		}
	}
	for _, c := range n.MustNot {
		if RequiresQuery(c) {
			return true
		}
	}
	return false
}

// MarshalJSON renders n as the exact query document shape the grammar
// permits: match_none, match_all, term, wildcard, fuzzy, match_phrase,
// range, nested, or bool — never any other key.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.NestedPath != "" {
		inner := *n
		inner.NestedPath = ""
		body, err := json.Marshal(&inner)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"nested": map[string]any{
				"path":  n.NestedPath,
				"query": json.RawMessage(body),
			},
		})
	}

	if n.IsBranch {
		boolBody := map[string]any{}
		if len(n.Must) > 0 {
			boolBody["must"] = n.Must
		}
		if len(n.Should) > 0 {
			boolBody["should"] = n.Should
		}
		if len(n.MustNot) > 0 {
			boolBody["must_not"] = n.MustNot
		}
		return json.Marshal(map[string]any{"bool": boolBody})
	}

	switch n.Leaf {
	case LeafMatchNone:
		return json.Marshal(map[string]any{"match_none": map[string]any{}})
	case LeafMatchAll:
		return json.Marshal(map[string]any{"match_all": map[string]any{}})
	case LeafTerm, LeafWildcard, LeafFuzzy:
		return n.marshalTermLike()
	case LeafMatchPhrase:
		body := map[string]any{"query": n.Value}
		if n.Boost != nil {
			body["boost"] = *n.Boost
		}
		return json.Marshal(map[string]any{"match_phrase": map[string]any{n.Field: body}})
	case LeafRange:
		bounds := map[string]any{}
		for _, b := range n.Bounds {
			bounds[b.Op] = b.Value
		}
		if n.Boost != nil {
			bounds["boost"] = *n.Boost
		}
		return json.Marshal(map[string]any{"range": map[string]any{n.Field: bounds}})
	default:
		return nil, fmt.Errorf("queryast: unknown leaf kind %d", n.Leaf)
	}
}

func (n *Node) marshalTermLike() ([]byte, error) {
	key := "term"
	switch n.Leaf {
	case LeafWildcard:
		key = "wildcard"
	case LeafFuzzy:
		key = "fuzzy"
	}
	if key == "term" && n.Boost == nil && n.Fuzz == nil {
		return json.Marshal(map[string]any{"term": map[string]any{n.Field: n.Value}})
	}
	body := map[string]any{"value": n.Value}
	if n.Boost != nil {
		body["boost"] = *n.Boost
	}
	if n.Fuzz != nil {
		body["fuzziness"] = *n.Fuzz
	}
	return json.Marshal(map[string]any{key: map[string]any{n.Field: body}})
}
