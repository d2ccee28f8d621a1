package modules

import (
	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
	"gopkg.in/yaml.v3"
)

// exprHeads are the keys that select an expression form, in lookup order.
var exprHeads = []string{
	"set", "var", "global", "int", "double", "bool", "result", "string",
	"call", "op", "tuple", "array", "fill", "index", "range",
	"if", "for", "while", "repeat", "return", "fail", "lambda", "block",
}

func (d *decoder) expr(n *yaml.Node) (ast.Expression, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.SequenceNode:
		return nil, d.errorf(diagnostics.ErrI001, n, "unexpected sequence; use {tuple: ...} or {array: ...}")
	}
	f, err := d.fields(n)
	if err != nil {
		return nil, err
	}
	head := ""
	for _, h := range exprHeads {
		if _, ok := f[h]; ok {
			head = h
			break
		}
	}
	ty, err := d.typ(f["type"])
	if err != nil {
		return nil, err
	}

	switch head {
	case "var":
		id := d.ident(f["var"])
		id.Ty = ty
		return id, nil
	case "global":
		g := f["global"]
		return &ast.GlobalReference{Token: d.tok(g, token.IDENT, g.Value), Name: g.Value, Ty: ty}, nil
	case "int", "bool":
		return d.scalar(f[head])
	case "double":
		v := f["double"]
		var x float64
		if err := v.Decode(&x); err != nil {
			return nil, d.errorf(diagnostics.ErrI001, v, "bad double %q", v.Value)
		}
		return &ast.DoubleLiteral{Token: d.tok(v, token.FLOAT, v.Value), Value: x}, nil
	case "result":
		r := f["result"]
		if r.Value != "One" && r.Value != "Zero" {
			return nil, d.errorf(diagnostics.ErrI001, r, "result literal must be One or Zero")
		}
		return d.scalar(r)
	case "string":
		s := f["string"]
		return &ast.StringLiteral{Token: d.tok(s, token.STRING, s.Value), Value: s.Value}, nil
	case "call":
		return d.call(n, f, ty)
	case "op":
		return d.operator(n, f, ty)
	case "tuple":
		elems, err := d.exprs(f["tuple"])
		if err != nil {
			return nil, err
		}
		return &ast.TupleLiteral{Token: d.tok(n, token.LPAREN, "("), Elements: elems, Ty: ty}, nil
	case "array":
		elems, err := d.exprs(f["array"])
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLiteral{Token: d.tok(n, token.LBRACKET, "["), Elements: elems, Ty: ty}, nil
	case "fill":
		return d.fill(n, f, ty)
	case "index":
		return d.index(n, f, ty)
	case "range":
		return d.rangeExpr(n, f)
	case "if":
		return d.ifExpr(n, f, ty)
	case "for":
		return d.forExpr(n, f)
	case "while":
		return d.whileExpr(n, f)
	case "repeat":
		return d.repeatExpr(n, f)
	case "set":
		return d.set(n, f)
	case "return":
		v, err := d.optExpr(f["return"])
		if err != nil {
			return nil, err
		}
		return &ast.ReturnExpression{Token: d.tok(n, token.RETURN, "return"), Value: v}, nil
	case "fail":
		msg, err := d.expr(f["fail"])
		if err != nil {
			return nil, err
		}
		return &ast.FailExpression{Token: d.tok(n, token.FAIL, "fail"), Message: msg}, nil
	case "lambda":
		return d.lambda(n, f, ty)
	case "block":
		b, err := d.block(f["block"])
		if err != nil {
			return nil, err
		}
		b.Ty = ty
		return b, nil
	}
	return nil, d.errorf(diagnostics.ErrI002, n, "unknown expression form")
}

func (d *decoder) call(n *yaml.Node, f map[string]*yaml.Node, ty typesystem.Type) (ast.Expression, error) {
	target := f["call"]
	var fn ast.Expression
	var err error
	if target.Kind == yaml.ScalarNode {
		fn = d.name(target)
	} else if fn, err = d.expr(target); err != nil {
		return nil, err
	}
	args, err := d.exprs(f["args"])
	if err != nil {
		return nil, err
	}
	return &ast.CallExpression{Token: d.tok(n, token.IDENT, target.Value), Function: fn, Arguments: args, Ty: ty}, nil
}

var infixOps = map[string]bool{
	ast.OpAdd: true, ast.OpSub: true, ast.OpMul: true, ast.OpDiv: true, ast.OpMod: true, ast.OpExp: true,
	ast.OpAndB: true, ast.OpOrB: true, ast.OpXorB: true, ast.OpShl: true, ast.OpShr: true,
	ast.OpEq: true, ast.OpNeq: true, ast.OpLt: true, ast.OpLte: true, ast.OpGt: true, ast.OpGte: true,
	ast.OpAndL: true, ast.OpOrL: true,
}

var prefixOps = map[string]bool{ast.OpNeg: true, ast.OpPos: true, ast.OpNotL: true, ast.OpNotB: true}

// operator decodes {op: +, left: a, right: b} and {op: not, operand: a}.
func (d *decoder) operator(n *yaml.Node, f map[string]*yaml.Node, ty typesystem.Type) (ast.Expression, error) {
	op := f["op"].Value
	tok := d.tok(f["op"], token.OPERATOR, op)
	if operand, ok := f["operand"]; ok {
		if !prefixOps[op] {
			return nil, d.errorf(diagnostics.ErrI002, f["op"], "unknown prefix operator %q", op)
		}
		right, err := d.expr(operand)
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpression{Token: tok, Operator: op, Right: right, Ty: ty}, nil
	}
	if !infixOps[op] {
		return nil, d.errorf(diagnostics.ErrI002, f["op"], "unknown operator %q", op)
	}
	if f["left"] == nil || f["right"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "operator %s needs left and right", op)
	}
	left, err := d.expr(f["left"])
	if err != nil {
		return nil, err
	}
	right, err := d.expr(f["right"])
	if err != nil {
		return nil, err
	}
	return &ast.InfixExpression{Token: tok, Left: left, Operator: op, Right: right, Ty: ty}, nil
}

func (d *decoder) fill(n *yaml.Node, f map[string]*yaml.Node, ty typesystem.Type) (ast.Expression, error) {
	if f["size"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "fill needs a size")
	}
	v, err := d.expr(f["fill"])
	if err != nil {
		return nil, err
	}
	size, err := d.expr(f["size"])
	if err != nil {
		return nil, err
	}
	return &ast.ArrayRepeat{Token: d.tok(n, token.LBRACKET, "["), Value: v, Size: size, Ty: ty}, nil
}

func (d *decoder) index(n *yaml.Node, f map[string]*yaml.Node, ty typesystem.Type) (ast.Expression, error) {
	if f["at"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "index needs at")
	}
	left, err := d.expr(f["index"])
	if err != nil {
		return nil, err
	}
	at, err := d.expr(f["at"])
	if err != nil {
		return nil, err
	}
	return &ast.IndexExpression{Token: d.tok(n, token.LBRACKET, "["), Left: left, Index: at, Ty: ty}, nil
}

// rangeExpr decodes {range: [start, end]} or {range: [start, step, end]}.
// A start or end written as _ is left open.
func (d *decoder) rangeExpr(n *yaml.Node, f map[string]*yaml.Node) (ast.Expression, error) {
	seq := f["range"]
	if seq.Kind != yaml.SequenceNode {
		return nil, d.errorf(diagnostics.ErrI001, seq, "range needs a sequence of bounds")
	}
	parts := make([]ast.Expression, len(seq.Content))
	for i, bn := range seq.Content {
		if bn.Kind == yaml.ScalarNode && bn.Value == "_" {
			continue
		}
		e, err := d.expr(bn)
		if err != nil {
			return nil, err
		}
		parts[i] = e
	}
	r := &ast.RangeExpression{Token: d.tok(n, token.RANGE, "..")}
	switch len(parts) {
	case 2:
		r.Start, r.End = parts[0], parts[1]
	case 3:
		if parts[1] == nil {
			return nil, d.errorf(diagnostics.ErrI001, seq.Content[1], "range step cannot be open")
		}
		r.Start, r.Step, r.End = parts[0], parts[1], parts[2]
	default:
		return nil, d.errorf(diagnostics.ErrI001, n, "range needs 2 or 3 bounds, got %d", len(parts))
	}
	return r, nil
}

// ifExpr decodes {if: c, then: [...], else: [...]}; else may also be
// another if for elif chains.
func (d *decoder) ifExpr(n *yaml.Node, f map[string]*yaml.Node, ty typesystem.Type) (ast.Expression, error) {
	if f["then"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "if needs then")
	}
	cond, err := d.expr(f["if"])
	if err != nil {
		return nil, err
	}
	then, err := d.block(f["then"])
	if err != nil {
		return nil, err
	}
	then.Ty = ty
	ie := &ast.IfExpression{Token: d.tok(n, token.IF, "if"), Condition: cond, Consequence: then, Ty: ty}
	if els, ok := f["else"]; ok {
		if els.Kind == yaml.SequenceNode {
			b, err := d.block(els)
			if err != nil {
				return nil, err
			}
			b.Ty = ty
			ie.Alternative = b
		} else if ie.Alternative, err = d.expr(els); err != nil {
			return nil, err
		}
	}
	return ie, nil
}

func (d *decoder) forExpr(n *yaml.Node, f map[string]*yaml.Node) (ast.Expression, error) {
	if f["in"] == nil || f["do"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "for needs in and do")
	}
	pat, err := d.pattern(f["for"])
	if err != nil {
		return nil, err
	}
	iterable, err := d.expr(f["in"])
	if err != nil {
		return nil, err
	}
	body, err := d.block(f["do"])
	if err != nil {
		return nil, err
	}
	return &ast.ForExpression{Token: d.tok(n, token.FOR, "for"), Pattern: pat, Iterable: iterable, Body: body}, nil
}

func (d *decoder) whileExpr(n *yaml.Node, f map[string]*yaml.Node) (ast.Expression, error) {
	if f["do"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "while needs do")
	}
	cond, err := d.expr(f["while"])
	if err != nil {
		return nil, err
	}
	body, err := d.block(f["do"])
	if err != nil {
		return nil, err
	}
	return &ast.WhileExpression{Token: d.tok(n, token.WHILE, "while"), Condition: cond, Body: body}, nil
}

func (d *decoder) repeatExpr(n *yaml.Node, f map[string]*yaml.Node) (ast.Expression, error) {
	if f["until"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "repeat needs until")
	}
	body, err := d.block(f["repeat"])
	if err != nil {
		return nil, err
	}
	cond, err := d.expr(f["until"])
	if err != nil {
		return nil, err
	}
	re := &ast.RepeatExpression{Token: d.tok(n, token.REPEAT, "repeat"), Body: body, Condition: cond}
	if fix, ok := f["fixup"]; ok {
		if re.Fixup, err = d.block(fix); err != nil {
			return nil, err
		}
	}
	return re, nil
}

// set decodes {set: x, value: v}, {set: x, op: +, value: v} and
// {set: a, index: i, value: v}.
func (d *decoder) set(n *yaml.Node, f map[string]*yaml.Node) (ast.Expression, error) {
	if f["value"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "set needs value")
	}
	name := d.ident(f["set"])
	v, err := d.expr(f["value"])
	if err != nil {
		return nil, err
	}
	tok := d.tok(n, token.SET, "set")
	if idx, ok := f["index"]; ok {
		i, err := d.expr(idx)
		if err != nil {
			return nil, err
		}
		return &ast.AssignIndexExpression{Token: tok, Name: name, Index: i, Value: v}, nil
	}
	op := ""
	if o, ok := f["op"]; ok {
		op = o.Value
		if !infixOps[op] {
			return nil, d.errorf(diagnostics.ErrI002, o, "unknown operator %q", op)
		}
	}
	return &ast.AssignExpression{Token: tok, Name: name, Operator: op, Value: v}, nil
}

// lambda decodes {lambda: [params], body: e, operation: bool}.
func (d *decoder) lambda(n *yaml.Node, f map[string]*yaml.Node, ty typesystem.Type) (ast.Expression, error) {
	if f["body"] == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "lambda needs body")
	}
	params, err := d.params(f["lambda"])
	if err != nil {
		return nil, err
	}
	var body ast.Expression
	if b := f["body"]; b.Kind == yaml.SequenceNode {
		body, err = d.block(b)
	} else {
		body, err = d.expr(b)
	}
	if err != nil {
		return nil, err
	}
	fl := &ast.FunctionLiteral{Token: d.tok(n, token.LAMBDA, "=>"), Parameters: params, Body: body, Ty: ty}
	if op, ok := f["operation"]; ok {
		if err := op.Decode(&fl.Operation); err != nil {
			return nil, d.errorf(diagnostics.ErrI001, op, "operation must be a boolean")
		}
	}
	return fl, nil
}
