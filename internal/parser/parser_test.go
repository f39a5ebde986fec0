package parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodeq/searchql/internal/fieldmeta"
	"github.com/kodeq/searchql/internal/lexer"
)

func mustLex(t *testing.T, source string) []lexer.Token {
	t.Helper()
	tokens, err := lexer.Lex(source)
	require.NoError(t, err)
	return tokens
}

func newOpts(table *fieldmeta.Table) Options {
	return Options{Meta: table, DefaultField: table.DefaultField(), Now: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)}
}

func TestParse_EmptyStreamIsMatchNone(t *testing.T) {
	node, err := Parse(nil, newOpts(fieldmeta.New("name")))
	require.NoError(t, err)
	b, _ := json.Marshal(node)
	assert.JSONEq(t, `{"match_none":{}}`, string(b))
}

func TestParse_SingleTerm(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	node, err := Parse(mustLex(t, "rarity"), newOpts(table))
	require.NoError(t, err)
	b, _ := json.Marshal(node)
	assert.JSONEq(t, `{"term":{"name":"rarity"}}`, string(b))
}

func TestParse_AndOfTwoTerms(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	node, err := Parse(mustLex(t, "rarity,applejack"), newOpts(table))
	require.NoError(t, err)
	b, _ := json.Marshal(node)
	assert.JSONEq(t, `{"bool":{"must":[{"term":{"name":"rarity"}},{"term":{"name":"applejack"}}]}}`, string(b))
}

func TestParse_NegationAndGrouping(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	node, err := Parse(mustLex(t, "!(pinkie || twilight) && rarity"), newOpts(table))
	require.NoError(t, err)
	b, _ := json.Marshal(node)
	assert.JSONEq(t,
		`{"bool":{"must":[{"bool":{"must_not":[{"bool":{"should":[{"term":{"name":"pinkie"}},{"term":{"name":"twilight"}}]}}]}},{"term":{"name":"rarity"}}]}}`,
		string(b))
}

func TestParse_TripleNegationPreservesNesting(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	node, err := Parse(mustLex(t, "!!!flutterbat"), newOpts(table))
	require.NoError(t, err)
	b, _ := json.Marshal(node)
	assert.JSONEq(t,
		`{"bool":{"must_not":[{"bool":{"must_not":[{"bool":{"must_not":[{"term":{"name":"flutterbat"}}]}}]}}]}}`,
		string(b))
}

func TestParse_MissingOperandIsAnError(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	_, err := Parse([]lexer.Token{{Kind: lexer.KindAnd}}, newOpts(table))
	require.Error(t, err)
}

func TestParse_LeftoverOperandIsAnError(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	tokens := []lexer.Token{{Kind: lexer.KindAtom, Text: "a"}, {Kind: lexer.KindAtom, Text: "b"}}
	_, err := Parse(tokens, newOpts(table))
	require.Error(t, err)
}
