package termanalyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodeq/searchql/internal/fieldmeta"
	"github.com/kodeq/searchql/internal/queryast"
)

func newOpts(table *fieldmeta.Table) Options {
	return Options{
		Meta:         table,
		DefaultField: table.DefaultField(),
		Now:          time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnalyze_LiteralDowncasesByDefault(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	n, err := Analyze("name:Rarity", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafTerm, n.Leaf)
	assert.Equal(t, "rarity", n.Value)
}

func TestAnalyze_LiteralRespectsNoDowncase(t *testing.T) {
	table := fieldmeta.New("id").WithType("id", fieldmeta.Literal).WithNoDowncase("id")
	n, err := Analyze("id:AB12", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "AB12", n.Value)
}

func TestAnalyze_WildcardDetection(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	n, err := Analyze("name:rari*", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafWildcard, n.Leaf)
}

func TestAnalyze_FullTextProducesMatchPhrase(t *testing.T) {
	table := fieldmeta.New("body").WithType("body", fieldmeta.FullText)
	n, err := Analyze("body:flies through walls", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafMatchPhrase, n.Leaf)
	assert.Equal(t, "flies through walls", n.Value)
}

func TestAnalyze_BooleanField(t *testing.T) {
	table := fieldmeta.New("f").WithType("active", fieldmeta.Boolean)
	n, err := Analyze("active:true", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, true, n.Value)

	_, err = Analyze("active:maybe", nil, nil, newOpts(table))
	require.Error(t, err)
	var verr *ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InvalidBoolean, verr.Kind)
}

func TestAnalyze_IntegerFuzzExpandsToRange(t *testing.T) {
	table := fieldmeta.New("f").WithType("score", fieldmeta.Integer)
	fuzz := 5.0
	n, err := Analyze("score:100", nil, &fuzz, newOpts(table))
	require.NoError(t, err)
	require.Equal(t, queryast.LeafRange, n.Leaf)
	require.Len(t, n.Bounds, 2)
	assert.Equal(t, int64(95), n.Bounds[0].Value)
	assert.Equal(t, int64(105), n.Bounds[1].Value)
}

func TestAnalyze_FloatUsesDecimalPrecision(t *testing.T) {
	table := fieldmeta.New("f").WithType("price", fieldmeta.Float)
	n, err := Analyze("price:19.99", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafTerm, n.Leaf)
	assert.InDelta(t, 19.99, n.Value.(float64), 1e-9)
}

func TestAnalyze_DateRangeSuffixes(t *testing.T) {
	table := fieldmeta.New("f").WithType("created_at", fieldmeta.Date)
	opts := newOpts(table)

	n, err := Analyze("created_at:2026-01-01", nil, nil, opts)
	require.NoError(t, err)
	require.Equal(t, queryast.LeafRange, n.Leaf)
	require.Len(t, n.Bounds, 2)
	assert.Equal(t, "gte", n.Bounds[0].Op)
	assert.Equal(t, "lt", n.Bounds[1].Op)

	n, err = Analyze("created_at.gt:2026-01-01", nil, nil, opts)
	require.NoError(t, err)
	require.Len(t, n.Bounds, 1)
	assert.Equal(t, "gte", n.Bounds[0].Op)
}

func TestAnalyze_DateRelativeExpression(t *testing.T) {
	table := fieldmeta.New("f").WithType("created_at", fieldmeta.Date)
	n, err := Analyze("created_at:3 days ago", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafRange, n.Leaf)
}

func TestAnalyze_InvalidDateIsAnError(t *testing.T) {
	table := fieldmeta.New("f").WithType("created_at", fieldmeta.Date)
	_, err := Analyze("created_at:not-a-date", nil, nil, newOpts(table))
	require.Error(t, err)
	var verr *ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InvalidDate, verr.Kind)
}

func TestAnalyze_IpAddressAndCIDR(t *testing.T) {
	table := fieldmeta.New("f").WithType("remote_addr", fieldmeta.Ip)
	n, err := Analyze("remote_addr:10.0.0.1", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", n.Value)

	n, err = Analyze("remote_addr:10.0.0.0/24", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/24", n.Value)

	_, err = Analyze("remote_addr:not-an-ip", nil, nil, newOpts(table))
	require.Error(t, err)
	var verr *ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InvalidIP, verr.Kind)
}

func TestAnalyze_UndeclaredFieldFallsBackToLiteralColon(t *testing.T) {
	table := fieldmeta.New("body").WithType("body", fieldmeta.FullText)
	n, err := Analyze("http://example.com", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafMatchPhrase, n.Leaf)
	assert.Equal(t, "body", n.Field)
	assert.Equal(t, "http://example.com", n.Value)
}

func TestAnalyze_AliasResolvesToCanonicalField(t *testing.T) {
	table := fieldmeta.New("f").WithType("name", fieldmeta.Literal).WithAlias("n", "name")
	n, err := Analyze("n:rarity", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "name", n.Field)
}

func TestAnalyze_TransformBypassesDefaultLeafConstruction(t *testing.T) {
	table := fieldmeta.New("f").WithType("tag", fieldmeta.Literal).
		WithTransform("tag", fieldmeta.TransformFunc(func(value string) (fieldmeta.Fragment, error) {
			return queryast.Term("tag.keyword", value, queryast.LeafTerm, nil, nil), nil
		}))
	n, err := Analyze("tag:Safe", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "tag.keyword", n.Field)
	assert.Equal(t, "Safe", n.Value)
}

func TestAnalyze_NestedFieldWrapsLeaf(t *testing.T) {
	table := fieldmeta.New("f").WithType("review.author", fieldmeta.Literal).WithNested("review.author", "review")
	n, err := Analyze("review.author:applejack", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "review", n.NestedPath)
}

func TestAnalyze_IntegerRangeSuffix(t *testing.T) {
	table := fieldmeta.New("f").WithType("score", fieldmeta.Integer)
	n, err := Analyze("score.gt:100", nil, nil, newOpts(table))
	require.NoError(t, err)
	require.Equal(t, queryast.LeafRange, n.Leaf)
	require.Len(t, n.Bounds, 1)
	assert.Equal(t, "gt", n.Bounds[0].Op)
	assert.Equal(t, int64(100), n.Bounds[0].Value)

	n, err = Analyze("score.eq:100", nil, nil, newOpts(table))
	require.NoError(t, err)
	require.Len(t, n.Bounds, 2)
	assert.Equal(t, "gte", n.Bounds[0].Op)
	assert.Equal(t, "lte", n.Bounds[1].Op)
	assert.Equal(t, int64(100), n.Bounds[0].Value)
	assert.Equal(t, int64(100), n.Bounds[1].Value)
}

func TestAnalyze_FloatRangeSuffix(t *testing.T) {
	table := fieldmeta.New("f").WithType("price", fieldmeta.Float)
	n, err := Analyze("price.lte:19.99", nil, nil, newOpts(table))
	require.NoError(t, err)
	require.Equal(t, queryast.LeafRange, n.Leaf)
	require.Len(t, n.Bounds, 1)
	assert.Equal(t, "lte", n.Bounds[0].Op)
	assert.InDelta(t, 19.99, n.Bounds[0].Value.(float64), 1e-9)
}

func TestAnalyze_BareWildcardIsMatchAll(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	n, err := Analyze("name:*", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafMatchAll, n.Leaf)
}

func TestAnalyze_EscapedWildcardStaysLiteral(t *testing.T) {
	table := fieldmeta.New("name").WithType("name", fieldmeta.Literal)
	n, err := Analyze(`name:art\*`, nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, queryast.LeafTerm, n.Leaf)
	assert.Equal(t, "art*", n.Value)
}

func TestAnalyze_FullTextDowncasesByDefault(t *testing.T) {
	table := fieldmeta.New("body").WithType("body", fieldmeta.FullText)
	n, err := Analyze("body:Flies Through Walls", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "flies through walls", n.Value)
}

func TestAnalyze_FullTextRespectsNoDowncase(t *testing.T) {
	table := fieldmeta.New("body").WithType("body", fieldmeta.FullText).WithNoDowncase("body")
	n, err := Analyze("body:Flies Through Walls", nil, nil, newOpts(table))
	require.NoError(t, err)
	assert.Equal(t, "Flies Through Walls", n.Value)
}
