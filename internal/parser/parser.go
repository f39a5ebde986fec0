// Package parser folds a lexer postfix token stream into a queryast.Node
// tree. Kept separate from internal/queryast because internal/termanalyzer
// imports queryast to build leaves, so queryast cannot import
// termanalyzer in turn: the fold that needs both lives here, importing
// internal/lexer, internal/termanalyzer, and internal/queryast.
package parser

import (
	"time"

	"github.com/kodeq/searchql/internal/fieldmeta"
	"github.com/kodeq/searchql/internal/lexer"
	"github.com/kodeq/searchql/internal/queryast"
	"github.com/kodeq/searchql/internal/termanalyzer"
)

// Options is forwarded to the term analyzer for every atom.
type Options struct {
	Meta         fieldmeta.FieldMeta
	DefaultField string
	Now          time.Time
}

// Parse folds tokens (as produced by lexer.Lex) into a single query tree.
// An empty token stream yields queryast.MatchNone().
func Parse(tokens []lexer.Token, opts Options) (*queryast.Node, error) {
	if len(tokens) == 0 {
		return queryast.MatchNone(), nil
	}

	taOpts := termanalyzer.Options{Meta: opts.Meta, DefaultField: opts.DefaultField, Now: opts.Now}

	var stack []*queryast.Node

	pop := func() (*queryast.Node, error) {
		if len(stack) == 0 {
			return nil, &queryast.ParseError{Kind: queryast.MissingOperand, Detail: "operator has no operand"}
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n, nil
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.KindAtom:
			leaf, err := termanalyzer.Analyze(tok.Text, tok.Boost, tok.Fuzz, taOpts)
			if err != nil {
				return nil, err
			}
			stack = append(stack, leaf)

		case lexer.KindNot:
			operand, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, queryast.Not(operand))

		case lexer.KindAnd, lexer.KindOr:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			op := queryast.OpAnd
			if tok.Kind == lexer.KindOr {
				op = queryast.OpOr
			}
			stack = append(stack, queryast.Merge(a, b, op))
		}
	}

	if len(stack) != 1 {
		return nil, &queryast.ParseError{Kind: queryast.MissingOperator, Detail: "leftover operands with no combining operator"}
	}
	return stack[0], nil
}
