// Package lambda is a small expression language built on the engine.
//
// A program is a sequence of definitions and expressions separated by
// optional semicolons:
//
//	def fib = fn n ->
//	    if (n == 0) then 0 else (fib (n - 1) + fib (n - 2));
//	let x = 5, y = 4 in fib (x * y)
//
// Expressions are juxtaposed parts (literals, identifiers, operator runs,
// parenthesised expressions) with an optional where clause, let ... in, or
// fn params -> body. Each production commits once its leading keyword or
// token has matched, so a malformed let is reported where it breaks instead
// of falling through to the next alternative.
package lambda

import (
	"strconv"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/ir"
	"github.com/roach88/picoparse/internal/text"
)

// ReservedWords cannot be used as identifiers.
var ReservedWords = []string{"let", "in", "fn", "def", "where"}

// ReservedOperators cannot be used as operators on their own.
var ReservedOperators = []string{"=", "->"}

// OperatorChars are the runes operators are made of.
const OperatorChars = "+-*/!<>=@$%^&~|?"

// Grammar holds the compiled productions. A Grammar is immutable after New
// and may be shared between goroutines; each parse has its own State.
type Grammar struct {
	ws           engine.Parser[rune, []rune]
	reservedWord engine.Parser[rune, string]
}

// New creates the grammar. whitespace is the set of runes skipped between
// tokens; empty means text.DefaultWhitespace.
func New(whitespace string) *Grammar {
	if whitespace == "" {
		whitespace = text.DefaultWhitespace
	}
	ks, err := text.NewKeywordSet(ReservedWords...)
	if err != nil {
		// ReservedWords is a non-empty literal.
		panic(err)
	}
	return &Grammar{
		ws:           text.WhitespaceOf(whitespace),
		reservedWord: ks.Match(),
	}
}

// Program returns the top-level parser. It consumes the whole input.
func (g *Grammar) Program() engine.Parser[rune, ir.Value] {
	return g.program
}

// Expression returns a parser for a single expression without the trailing
// end-of-input check.
func (g *Grammar) Expression() engine.Parser[rune, ir.Value] {
	return g.expression
}

func (g *Grammar) lexeme(p engine.Parser[rune, string]) engine.Parser[rune, string] {
	return engine.Cue(g.ws, p)
}

func identStart(r rune) bool {
	return r == '_' || (text.IsIdentRune(r) && !isDigit(r))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func digits() engine.Parser[rune, string] {
	return text.AsString(engine.Many1(engine.SatisfiesDesc("digit", isDigit)))
}

// number is an integer or a decimal literal. Decimals are kept as text.
func (g *Grammar) number(s *engine.State[rune]) (ir.Value, error) {
	return engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		lead, err := engine.Cue(g.ws, digits())(s)
		if err != nil {
			return nil, err
		}
		s.Commit()

		dot, err := engine.Optional(engine.Map(engine.OneOf('.'), func(rune) bool { return true }), false)(s)
		if err != nil {
			return nil, err
		}
		if dot {
			trail, err := digits()(s)
			if err != nil {
				return nil, err
			}
			return FloatNode(lead + "." + trail), nil
		}

		n, err := strconv.ParseInt(lead, 10, 64)
		if err != nil {
			return nil, s.Failf("integer literal %s out of range", lead)
		}
		return IntNode(n), nil
	})(s)
}

func (g *Grammar) stringLiteral(s *engine.State[rune]) (ir.Value, error) {
	str, err := engine.Cue(g.ws, text.Quoted(`"'`))(s)
	if err != nil {
		return nil, err
	}
	return StringNode(str), nil
}

func (g *Grammar) value(s *engine.State[rune]) (ir.Value, error) {
	return engine.Desc("value", engine.Choice(g.number, g.stringLiteral))(s)
}

// reserved matches the reserved word name as a whole word.
func (g *Grammar) reserved(name string) engine.Parser[rune, string] {
	return engine.Desc(strconv.Quote(name), engine.Tri(engine.Follow(
		g.lexeme(text.Literal(name)),
		engine.NotFollowedBy(engine.Satisfies(text.IsIdentRune)),
	)))
}

func (g *Grammar) identifier(s *engine.State[rune]) (string, error) {
	return engine.Desc("identifier", engine.Tri(func(s *engine.State[rune]) (string, error) {
		if _, err := g.ws(s); err != nil {
			return "", err
		}
		if _, err := engine.NotFollowedBy(g.reservedWord)(s); err != nil {
			return "", err
		}
		first, err := engine.SatisfiesDesc("identifier", identStart)(s)
		if err != nil {
			return "", err
		}
		s.Commit()
		rest, err := engine.Many(engine.Satisfies(text.IsIdentRune))(s)
		if err != nil {
			return "", err
		}
		return string(first) + string(rest), nil
	}))(s)
}

func operatorChar() engine.Parser[rune, rune] {
	return engine.OneOf([]rune(OperatorChars)...)
}

func (g *Grammar) reservedOp(name string) engine.Parser[rune, string] {
	return engine.Desc(strconv.Quote(name), engine.Tri(engine.Follow(
		g.lexeme(text.Literal(name)),
		engine.NotFollowedBy(operatorChar()),
	)))
}

func (g *Grammar) operator(s *engine.State[rune]) (string, error) {
	reservedOps := make([]engine.Parser[rune, string], len(ReservedOperators))
	for i, op := range ReservedOperators {
		reservedOps[i] = g.reservedOp(op)
	}
	return engine.Desc("operator", engine.Tri(engine.Cue(
		engine.Cue(g.ws, engine.NotFollowedBy(engine.Choice(reservedOps...))),
		text.AsString(engine.Many1(operatorChar())),
	)))(s)
}

func (g *Grammar) special(name string) engine.Parser[rune, string] {
	return engine.Desc(strconv.Quote(name), g.lexeme(text.Literal(name)))
}

func (g *Grammar) expression(s *engine.State[rune]) (ir.Value, error) {
	return engine.Choice(g.evalExpression, g.letExpression, g.fnExpression)(s)
}

func (g *Grammar) expressionPart(s *engine.State[rune]) (ir.Value, error) {
	return engine.Choice(
		g.value,
		engine.Map(g.identifier, func(name string) ir.Value { return IdentNode(name) }),
		engine.Map(g.operator, func(name string) ir.Value { return OpNode(name) }),
		g.parenthetical,
	)(s)
}

func (g *Grammar) evalExpression(s *engine.State[rune]) (ir.Value, error) {
	parts, err := engine.Many1(g.expressionPart)(s)
	if err != nil {
		return nil, err
	}
	where, err := engine.Optional(g.whereExpression, nil)(s)
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 && where == nil {
		return parts[0], nil
	}
	return EvalNode(parts, where), nil
}

func (g *Grammar) binding(s *engine.State[rune]) (ir.Value, error) {
	name, err := g.identifier(s)
	if err != nil {
		return nil, err
	}
	if _, err := g.reservedOp("=")(s); err != nil {
		return nil, err
	}
	expr, err := g.expression(s)
	if err != nil {
		return nil, err
	}
	return BindNode(name, expr), nil
}

func (g *Grammar) bindings(s *engine.State[rune]) ([]ir.Value, error) {
	return engine.Sep1(g.binding, g.special(","))(s)
}

func (g *Grammar) letExpression(s *engine.State[rune]) (ir.Value, error) {
	return engine.Desc("let expression", engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		if _, err := g.reserved("let")(s); err != nil {
			return nil, err
		}
		s.Commit()
		binds, err := g.bindings(s)
		if err != nil {
			return nil, err
		}
		if _, err := g.reserved("in")(s); err != nil {
			return nil, err
		}
		body, err := g.expression(s)
		if err != nil {
			return nil, err
		}
		return LetNode(binds, body), nil
	}))(s)
}

func (g *Grammar) whereExpression(s *engine.State[rune]) ([]ir.Value, error) {
	return engine.Tri(func(s *engine.State[rune]) ([]ir.Value, error) {
		if _, err := g.reserved("where")(s); err != nil {
			return nil, err
		}
		s.Commit()
		return g.bindings(s)
	})(s)
}

func (g *Grammar) fnExpression(s *engine.State[rune]) (ir.Value, error) {
	return engine.Desc("fn expression", engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		if _, err := g.reserved("fn")(s); err != nil {
			return nil, err
		}
		s.Commit()
		params, err := engine.Many1(g.identifier)(s)
		if err != nil {
			return nil, err
		}
		if _, err := g.reservedOp("->")(s); err != nil {
			return nil, err
		}
		body, err := g.expression(s)
		if err != nil {
			return nil, err
		}
		return FnNode(params, body), nil
	}))(s)
}

func (g *Grammar) parenthetical(s *engine.State[rune]) (ir.Value, error) {
	return engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		if _, err := g.special("(")(s); err != nil {
			return nil, err
		}
		s.Commit()
		expr, err := g.expression(s)
		if err != nil {
			return nil, err
		}
		if _, err := g.special(")")(s); err != nil {
			return nil, err
		}
		return expr, nil
	})(s)
}

func (g *Grammar) definition(s *engine.State[rune]) (ir.Value, error) {
	return engine.Desc("definition", engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		if _, err := g.reserved("def")(s); err != nil {
			return nil, err
		}
		s.Commit()
		name, err := g.identifier(s)
		if err != nil {
			return nil, err
		}
		if _, err := g.reservedOp("=")(s); err != nil {
			return nil, err
		}
		expr, err := g.expression(s)
		if err != nil {
			return nil, err
		}
		return DefNode(name, expr), nil
	}))(s)
}

func (g *Grammar) programPart(s *engine.State[rune]) (ir.Value, error) {
	return engine.Follow(
		engine.Choice(g.definition, g.expression),
		engine.Optional(g.special(";"), ""),
	)(s)
}

func (g *Grammar) program(s *engine.State[rune]) (ir.Value, error) {
	body, err := engine.Many(g.programPart)(s)
	if err != nil {
		return nil, err
	}
	if _, err := engine.Cue(g.ws, engine.EOF[rune]())(s); err != nil {
		return nil, err
	}
	return ProgramNode(body), nil
}
