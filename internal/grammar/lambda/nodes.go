package lambda

import "github.com/roach88/picoparse/internal/ir"

// Node kinds. Every node is an ir.Object with a "kind" key.
const (
	KindInt     = "int"
	KindFloat   = "float"
	KindString  = "str"
	KindIdent   = "ident"
	KindOp      = "op"
	KindEval    = "eval"
	KindBind    = "bind"
	KindLet     = "let"
	KindFn      = "fn"
	KindDef     = "def"
	KindProgram = "prog"
)

// IntNode is an integer literal.
func IntNode(n int64) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindInt)), ir.O("value", ir.Int(n)))
}

// FloatNode is a decimal literal, kept as written.
func FloatNode(text string) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindFloat)), ir.O("text", ir.String(text)))
}

// StringNode is a string literal with escapes resolved.
func StringNode(s string) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindString)), ir.O("value", ir.String(s)))
}

// IdentNode is an identifier reference.
func IdentNode(name string) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindIdent)), ir.O("name", ir.String(name)))
}

// OpNode is an operator.
func OpNode(name string) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindOp)), ir.O("name", ir.String(name)))
}

// EvalNode is an application of two or more parts, optionally with where
// bindings. where may be nil.
func EvalNode(parts []ir.Value, where []ir.Value) ir.Object {
	obj := ir.NewObject(ir.O("kind", ir.String(KindEval)), ir.O("parts", ir.NewArray(parts...)))
	if len(where) > 0 {
		obj["where"] = ir.NewArray(where...)
	}
	return obj
}

// BindNode is a name = expression binding.
func BindNode(name string, value ir.Value) ir.Object {
	return ir.NewObject(
		ir.O("kind", ir.String(KindBind)),
		ir.O("name", ir.String(name)),
		ir.O("value", value),
	)
}

// LetNode is let bindings in body.
func LetNode(bindings []ir.Value, body ir.Value) ir.Object {
	return ir.NewObject(
		ir.O("kind", ir.String(KindLet)),
		ir.O("bindings", ir.NewArray(bindings...)),
		ir.O("body", body),
	)
}

// FnNode is fn params -> body.
func FnNode(params []string, body ir.Value) ir.Object {
	return ir.NewObject(
		ir.O("kind", ir.String(KindFn)),
		ir.O("params", ir.Strings(params...)),
		ir.O("body", body),
	)
}

// DefNode is def name = value.
func DefNode(name string, value ir.Value) ir.Object {
	return ir.NewObject(
		ir.O("kind", ir.String(KindDef)),
		ir.O("name", ir.String(name)),
		ir.O("value", value),
	)
}

// ProgramNode is a whole program.
func ProgramNode(body []ir.Value) ir.Object {
	return ir.NewObject(ir.O("kind", ir.String(KindProgram)), ir.O("body", ir.NewArray(body...)))
}

func kindOf(v ir.Value) string {
	obj, ok := v.(ir.Object)
	if !ok {
		return ""
	}
	k, _ := obj["kind"].(ir.String)
	return string(k)
}
