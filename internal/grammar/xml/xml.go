// Package xml is a small, incomplete XML parser built on the engine.
//
// It understands elements, attributes, self-closing tags, text content and
// entity references. There are no comments, processing instructions, CDATA
// sections or namespaces. Whitespace-only text between elements is dropped.
//
// An element commits once its name has been read, so an unmatched end tag or
// a malformed attribute is reported as a syntax error at the point of the
// mismatch.
package xml

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/ir"
	"github.com/roach88/picoparse/internal/text"
)

// Node kinds.
const (
	KindElement = "element"
	KindText    = "text"
)

// NamedEntities maps entity names to their replacement text.
var NamedEntities = map[string]string{
	"amp":  "&",
	"quot": `"`,
	"apos": "'",
	"lt":   "<",
	"gt":   ">",
}

const nameStop = " \t\r\n<>/=&;\"'"

// ElementNode builds an element node. attrs is a list of {name, value}
// objects in document order.
func ElementNode(name string, attrs []ir.Value, children []ir.Value) ir.Object {
	return ir.NewObject(
		ir.O("kind", ir.String(KindElement)),
		ir.O("name", ir.String(name)),
		ir.O("attributes", ir.NewArray(attrs...)),
		ir.O("children", ir.NewArray(children...)),
	)
}

// Attr builds an attribute entry.
func Attr(name, value string) ir.Object {
	return ir.NewObject(ir.O("name", ir.String(name)), ir.O("value", ir.String(value)))
}

// TextNode builds a text node.
func TextNode(s string) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindText)), ir.O("value", ir.String(s)))
}

// Grammar holds the productions. It is stateless and safe to share.
type Grammar struct {
	ws engine.Parser[rune, []rune]
}

// New creates the grammar. whitespace is the set of runes skipped around
// tags; empty means text.DefaultWhitespace.
func New(whitespace string) *Grammar {
	if whitespace == "" {
		whitespace = text.DefaultWhitespace
	}
	return &Grammar{ws: text.WhitespaceOf(whitespace)}
}

// Document parses a single root element surrounded by optional whitespace.
func (g *Grammar) Document() engine.Parser[rune, ir.Value] {
	return engine.Follow(engine.Follow(g.element, g.ws), engine.EOF[rune]())
}

// Element returns a parser for one element.
func (g *Grammar) Element() engine.Parser[rune, ir.Value] {
	return g.element
}

func name() engine.Parser[rune, string] {
	return engine.Desc("name", text.AsString(engine.Many1(engine.NotOneOf([]rune(nameStop)...))))
}

func (g *Grammar) element(s *engine.State[rune]) (ir.Value, error) {
	return engine.Desc("element", engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		if _, err := g.ws(s); err != nil {
			return nil, err
		}
		if _, err := engine.OneOf('<')(s); err != nil {
			return nil, err
		}
		tag, err := name()(s)
		if err != nil {
			return nil, err
		}
		s.Commit()

		attrs, err := engine.Many(g.attribute)(s)
		if err != nil {
			return nil, err
		}
		if _, err := g.ws(s); err != nil {
			return nil, err
		}

		selfClosing, err := engine.Optional(engine.Map(text.Literal("/>"), func(string) bool { return true }), false)(s)
		if err != nil {
			return nil, err
		}
		if selfClosing {
			return ElementNode(tag, attrs, nil), nil
		}

		if _, err := engine.Desc(`">" or "/>"`, engine.OneOf('>'))(s); err != nil {
			return nil, err
		}
		children, err := engine.Many(g.node)(s)
		if err != nil {
			return nil, err
		}
		if err := g.endTag(s, tag); err != nil {
			return nil, err
		}
		return ElementNode(tag, attrs, dropBlank(children)), nil
	}))(s)
}

func (g *Grammar) endTag(s *engine.State[rune], tag string) error {
	if _, err := g.ws(s); err != nil {
		return err
	}
	if _, err := engine.Desc("</"+tag+">", text.Literal("</"))(s); err != nil {
		return err
	}
	at := s.Offset()
	got, err := name()(s)
	if err != nil {
		return err
	}
	if got != tag {
		return &engine.Failure{
			Severity:    engine.Recoverable,
			Offset:      at,
			Description: "expected </" + tag + ">, got </" + got + ">",
		}
	}
	if _, err := g.ws(s); err != nil {
		return err
	}
	_, err = engine.OneOf('>')(s)
	return err
}

func (g *Grammar) node(s *engine.State[rune]) (ir.Value, error) {
	return engine.Choice(g.element, textContent)(s)
}

func textContent(s *engine.State[rune]) (ir.Value, error) {
	parts, err := engine.Many1(engine.Choice(entity, engine.Map(engine.NotOneOf('<', '&'), runeString)))(s)
	if err != nil {
		return nil, err
	}
	return TextNode(strings.Join(parts, "")), nil
}

func runeString(r rune) string {
	return string(r)
}

func dropBlank(nodes []ir.Value) []ir.Value {
	out := make([]ir.Value, 0, len(nodes))
	for _, n := range nodes {
		obj, _ := n.(ir.Object)
		if v, ok := obj["value"].(ir.String); ok && obj["kind"] == ir.String(KindText) && strings.TrimSpace(string(v)) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// entity parses &name; &#NN; or &#xHH;.
func entity(s *engine.State[rune]) (string, error) {
	return engine.Tri(func(s *engine.State[rune]) (string, error) {
		if _, err := engine.OneOf('&')(s); err != nil {
			return "", err
		}
		s.Commit()

		at := s.Offset()
		ref, err := text.AsString(engine.Many1(engine.NotOneOf(';', '<', '&', ' ')))(s)
		if err != nil {
			return "", err
		}
		if _, err := engine.OneOf(';')(s); err != nil {
			return "", err
		}

		if strings.HasPrefix(ref, "#") {
			num := ref[1:]
			base := 10
			if strings.HasPrefix(num, "x") || strings.HasPrefix(num, "X") {
				num, base = num[1:], 16
			}
			n, err := strconv.ParseInt(num, base, 32)
			if err != nil || !utf8.ValidRune(rune(n)) {
				return "", &engine.Failure{Offset: at, Description: "invalid character reference &" + ref + ";"}
			}
			return string(rune(n)), nil
		}

		if v, ok := NamedEntities[ref]; ok {
			return v, nil
		}
		return "", &engine.Failure{Offset: at, Description: "unknown entity &" + ref + ";"}
	})(s)
}

func (g *Grammar) attribute(s *engine.State[rune]) (ir.Value, error) {
	return engine.Tri(func(s *engine.State[rune]) (ir.Value, error) {
		if _, err := g.ws(s); err != nil {
			return nil, err
		}
		key, err := name()(s)
		if err != nil {
			return nil, err
		}
		s.Commit()

		if _, err := engine.Cue(g.ws, engine.Desc(`"="`, engine.OneOf('=')))(s); err != nil {
			return nil, err
		}
		q, err := engine.Cue(g.ws, engine.Desc("quote", engine.OneOf('"', '\'')))(s)
		if err != nil {
			return nil, err
		}
		parts, err := engine.Many(engine.Choice(entity, engine.Map(engine.NotOneOf(q, '<', '&'), runeString)))(s)
		if err != nil {
			return nil, err
		}
		if _, err := engine.OneOf(q)(s); err != nil {
			return nil, err
		}
		return Attr(key, strings.Join(parts, "")), nil
	})(s)
}
