package xml

import (
	"fmt"
	"strings"

	"github.com/roach88/picoparse/internal/ir"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
)

// Render prints a node as XML. Elements without children are written as
// self-closing tags.
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

	switch obj["kind"] {
	case ir.String(KindText):
		s, _ := obj["value"].(ir.String)
		b.WriteString(textEscaper.Replace(string(s)))
		return nil
	case ir.String(KindElement):
	default:
		return fmt.Errorf("render: unknown node kind %v", obj["kind"])
	}

	tag, _ := obj["name"].(ir.String)
	b.WriteByte('<')
	b.WriteString(string(tag))

	attrs, _ := obj["attributes"].(ir.Array)
	for _, a := range attrs {
		attr, _ := a.(ir.Object)
		k, _ := attr["name"].(ir.String)
		val, _ := attr["value"].(ir.String)
		fmt.Fprintf(b, ` %s="%s"`, k, attrEscaper.Replace(string(val)))
	}

	children, _ := obj["children"].(ir.Array)
	if len(children) == 0 {
		b.WriteString("/>")
		return nil
	}

	b.WriteByte('>')
	for _, c := range children {
		if err := render(b, c); err != nil {
			return err
		}
	}
	b.WriteString("</")
	b.WriteString(string(tag))
	b.WriteByte('>')
	return nil
}
