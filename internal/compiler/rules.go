package compiler

import "github.com/lumenscript/lumen/internal/token"

// precedence orders binding strength from weakest to strongest, per
// spec.md §4.2's Pratt table.
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {(*Parser).grouping, (*Parser).call, precCall},
		token.RightParen:   {nil, nil, precNone},
		token.LeftBrace:    {nil, nil, precNone},
		token.RightBrace:   {nil, nil, precNone},
		token.Comma:        {nil, nil, precNone},
		token.Dot:          {nil, (*Parser).dot, precCall},
		token.Minus:        {(*Parser).unary, (*Parser).binary, precTerm},
		token.Plus:         {nil, (*Parser).binary, precTerm},
		token.Semicolon:    {nil, nil, precNone},
		token.Slash:        {nil, (*Parser).binary, precFactor},
		token.Star:         {nil, (*Parser).binary, precFactor},
		token.Bang:         {(*Parser).unary, nil, precNone},
		token.BangEqual:    {nil, (*Parser).binary, precEquality},
		token.Equal:        {nil, nil, precNone},
		token.EqualEqual:   {nil, (*Parser).binary, precEquality},
		token.Greater:      {nil, (*Parser).binary, precComparison},
		token.GreaterEqual: {nil, (*Parser).binary, precComparison},
		token.Less:         {nil, (*Parser).binary, precComparison},
		token.LessEqual:    {nil, (*Parser).binary, precComparison},
		token.Identifier:   {(*Parser).variable, nil, precNone},
		token.String:       {(*Parser).stringLit, nil, precNone},
		token.Number:       {(*Parser).number, nil, precNone},
		token.And:          {nil, (*Parser).and, precAnd},
		token.Class:        {nil, nil, precNone},
		token.Else:         {nil, nil, precNone},
		token.False:        {(*Parser).literal, nil, precNone},
		token.Fun:          {nil, nil, precNone},
		token.For:          {nil, nil, precNone},
		token.If:           {nil, nil, precNone},
		token.Nil:          {(*Parser).literal, nil, precNone},
		token.Or:           {nil, (*Parser).or, precOr},
		token.Print:        {nil, nil, precNone},
		token.Return:       {nil, nil, precNone},
		token.Super:        {(*Parser).super_, nil, precNone},
		token.This:         {(*Parser).this_, nil, precNone},
		token.True:         {(*Parser).literal, nil, precNone},
		token.Var:          {nil, nil, precNone},
		token.While:        {nil, nil, precNone},
		token.Error:        {nil, nil, precNone},
		token.EOF:          {nil, nil, precNone},
	}
}

func ruleFor(t token.Type) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{nil, nil, precNone}
}
