package lambda

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/picoparse/internal/ir"
)

// Render prints a node back as lambda source. Parsing the output yields an
// equal node.
func Render(v ir.Value) (string, error) {
	var b strings.Builder
	if err := render(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func render(b *strings.Builder, v ir.Value) error {
	obj, ok := v.(ir.Object)
	if !ok {
		return fmt.Errorf("render: expected node object, got %T", v)
	}

	switch kind := kindOf(obj); kind {
	case KindInt:
		n, _ := obj["value"].(ir.Int)
		b.WriteString(strconv.FormatInt(int64(n), 10))
	case KindFloat:
		s, _ := obj["text"].(ir.String)
		b.WriteString(string(s))
	case KindString:
		s, _ := obj["value"].(ir.String)
		b.WriteString(quote(string(s)))
	case KindIdent, KindOp:
		s, _ := obj["name"].(ir.String)
		b.WriteString(string(s))
	case KindEval:
		parts, _ := obj["parts"].(ir.Array)
		for i, part := range parts {
			if i > 0 {
				b.WriteByte(' ')
			}
			if err := renderPart(b, part); err != nil {
				return err
			}
		}
		if where, ok := obj["where"].(ir.Array); ok && len(where) > 0 {
			b.WriteString(" where ")
			if err := renderList(b, where, ", "); err != nil {
				return err
			}
		}
	case KindBind, KindDef:
		name, _ := obj["name"].(ir.String)
		if kind == KindDef {
			b.WriteString("def ")
		}
		b.WriteString(string(name))
		b.WriteString(" = ")
		return render(b, obj["value"])
	case KindLet:
		binds, _ := obj["bindings"].(ir.Array)
		b.WriteString("let ")
		if err := renderList(b, binds, ", "); err != nil {
			return err
		}
		b.WriteString(" in ")
		return render(b, obj["body"])
	case KindFn:
		params, _ := obj["params"].(ir.Array)
		b.WriteString("fn")
		for _, p := range params {
			s, _ := p.(ir.String)
			b.WriteByte(' ')
			b.WriteString(string(s))
		}
		b.WriteString(" -> ")
		return render(b, obj["body"])
	case KindProgram:
		body, _ := obj["body"].(ir.Array)
		return renderList(b, body, ";\n")
	default:
		return fmt.Errorf("render: unknown node kind %q", kind)
	}
	return nil
}

// renderPart parenthesises parts that would otherwise swallow their
// neighbours.
func renderPart(b *strings.Builder, v ir.Value) error {
	switch kindOf(v) {
	case KindEval, KindLet, KindFn:
		b.WriteByte('(')
		if err := render(b, v); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	default:
		return render(b, v)
	}
}

func renderList(b *strings.Builder, items ir.Array, sep string) error {
	for i, item := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := render(b, item); err != nil {
			return err
		}
	}
	return nil
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
