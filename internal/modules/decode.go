package modules

import (
	"fmt"
	"strconv"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
	"gopkg.in/yaml.v3"
)

// decoder turns one YAML program document into typed tree nodes. Every
// node keeps the YAML position as its span.
type decoder struct {
	file    string
	pkg     string
	globals map[string]bool
}

func (d *decoder) tok(n *yaml.Node, typ token.TokenType, lexeme string) token.Token {
	return token.Token{Type: typ, Lexeme: lexeme, File: d.file, Line: n.Line, Column: n.Column}
}

func (d *decoder) errorf(code diagnostics.ErrorCode, n *yaml.Node, format string, args ...interface{}) error {
	return diagnostics.NewError(code, d.tok(n, token.ILLEGAL, n.Value), fmt.Sprintf(format, args...))
}

// fields indexes a mapping node by key.
func (d *decoder) fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(diagnostics.ErrI001, n, "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out, nil
}

func (d *decoder) str(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(diagnostics.ErrI001, n, "expected a scalar")
	}
	return n.Value, nil
}

func (d *decoder) typ(n *yaml.Node) (typesystem.Type, error) {
	if n == nil {
		return nil, nil
	}
	src, err := d.str(n)
	if err != nil {
		return nil, err
	}
	t, err := typesystem.ParseType(src)
	if err != nil {
		return nil, d.errorf(diagnostics.ErrI003, n, "%v", err)
	}
	return t, nil
}

var callableKinds = map[string]ast.CallableKind{
	"function":  ast.FunctionKind,
	"operation": ast.OperationKind,
}

var intrinsicKinds = map[string]ast.IntrinsicKind{
	"":            ast.NotIntrinsic,
	"regular":     ast.RegularIntrinsic,
	"measurement": ast.MeasurementIntrinsic,
	"reset":       ast.ResetIntrinsic,
}

func (d *decoder) callable(n *yaml.Node) (*ast.CallableDeclaration, error) {
	f, err := d.fields(n)
	if err != nil {
		return nil, err
	}
	nameNode, ok := f["name"]
	if !ok {
		return nil, d.errorf(diagnostics.ErrI001, n, "callable without name")
	}
	decl := &ast.CallableDeclaration{
		Token:   d.tok(nameNode, token.IDENT, nameNode.Value),
		Name:    nameNode.Value,
		Package: d.pkg,
		Kind:    ast.OperationKind,
	}
	if p, ok := f["package"]; ok {
		decl.Package = p.Value
	}
	if k, ok := f["kind"]; ok {
		kind, known := callableKinds[k.Value]
		if !known {
			return nil, d.errorf(diagnostics.ErrI001, k, "unknown callable kind %q", k.Value)
		}
		decl.Kind = kind
	}
	if k, ok := f["intrinsic"]; ok {
		kind, known := intrinsicKinds[k.Value]
		if !known {
			return nil, d.errorf(diagnostics.ErrI001, k, "unknown intrinsic kind %q", k.Value)
		}
		decl.Intrinsic = kind
	}
	if decl.ReturnType, err = d.typ(f["returns"]); err != nil {
		return nil, err
	}
	if decl.ReturnType == nil {
		decl.ReturnType = typesystem.Unit
	}
	if ps, ok := f["params"]; ok {
		if decl.Parameters, err = d.params(ps); err != nil {
			return nil, err
		}
	}

	body, hasBody := f["body"]
	switch {
	case hasBody && decl.Intrinsic != ast.NotIntrinsic:
		return nil, d.errorf(diagnostics.ErrI001, body, "intrinsic %s must not have a body", decl.Name)
	case hasBody:
		if decl.Body, err = d.block(body); err != nil {
			return nil, err
		}
		decl.Body.Ty = decl.ReturnType
	case decl.Intrinsic == ast.NotIntrinsic:
		decl.Intrinsic = ast.RegularIntrinsic
	}
	return decl, nil
}

// params decodes `[{name: q, type: Qubit}, ...]`.
func (d *decoder) params(n *yaml.Node) ([]*ast.Parameter, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(diagnostics.ErrI001, n, "params must be a sequence")
	}
	out := make([]*ast.Parameter, 0, len(n.Content))
	for _, pn := range n.Content {
		f, err := d.fields(pn)
		if err != nil {
			return nil, err
		}
		name, ok := f["name"]
		if !ok {
			return nil, d.errorf(diagnostics.ErrI001, pn, "parameter without name")
		}
		ty, err := d.typ(f["type"])
		if err != nil {
			return nil, err
		}
		out = append(out, &ast.Parameter{
			Token: d.tok(name, token.IDENT, name.Value),
			Name:  &ast.Identifier{Token: d.tok(name, token.IDENT, name.Value), Value: name.Value, Ty: ty},
			Type:  ty,
		})
	}
	return out, nil
}

func (d *decoder) block(n *yaml.Node) (*ast.BlockStatement, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(diagnostics.ErrI001, n, "block must be a sequence of statements")
	}
	b := &ast.BlockStatement{Token: d.tok(n, token.LBRACE, "{")}
	for _, sn := range n.Content {
		s, err := d.statement(sn)
		if err != nil {
			return nil, err
		}
		b.Statements = append(b.Statements, s)
	}
	return b, nil
}

func (d *decoder) statement(n *yaml.Node) (ast.Statement, error) {
	if n.Kind == yaml.MappingNode {
		f, err := d.fields(n)
		if err != nil {
			return nil, err
		}
		switch {
		case f["let"] != nil:
			return d.let(n, f["let"], f["value"], false)
		case f["mutable"] != nil:
			return d.let(n, f["mutable"], f["value"], true)
		case f["use"] != nil:
			us := &ast.UseStatement{Token: d.tok(n, token.USE, "use"), Name: d.ident(f["use"])}
			if size, ok := f["size"]; ok {
				if us.Count, err = d.expr(size); err != nil {
					return nil, err
				}
			}
			return us, nil
		case f["tail"] != nil:
			e, err := d.expr(f["tail"])
			if err != nil {
				return nil, err
			}
			return &ast.ExpressionStatement{Token: e.GetToken(), Expression: e}, nil
		case f["expr"] != nil:
			n = f["expr"]
		}
	}
	e, err := d.expr(n)
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Token: e.GetToken(), Expression: e, Semicolon: true}, nil
}

func (d *decoder) let(n, pat, value *yaml.Node, mutable bool) (ast.Statement, error) {
	if value == nil {
		return nil, d.errorf(diagnostics.ErrI001, n, "binding without value")
	}
	p, err := d.pattern(pat)
	if err != nil {
		return nil, err
	}
	v, err := d.expr(value)
	if err != nil {
		return nil, err
	}
	typ, lexeme := token.LET, "let"
	if mutable {
		typ, lexeme = token.MUTABLE, "mutable"
	}
	return &ast.LetStatement{Token: d.tok(n, typ, lexeme), Pattern: p, Mutable: mutable, Value: v}, nil
}

// pattern decodes `x`, `_` or a sequence of patterns for a tuple.
func (d *decoder) pattern(n *yaml.Node) (ast.Pattern, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "_" {
			return &ast.WildcardPattern{Token: d.tok(n, token.IDENT, "_")}, nil
		}
		return &ast.IdentifierPattern{Token: d.tok(n, token.IDENT, n.Value), Value: n.Value}, nil
	case yaml.SequenceNode:
		tp := &ast.TuplePattern{Token: d.tok(n, token.LPAREN, "(")}
		for _, el := range n.Content {
			p, err := d.pattern(el)
			if err != nil {
				return nil, err
			}
			tp.Elements = append(tp.Elements, p)
		}
		return tp, nil
	}
	return nil, d.errorf(diagnostics.ErrI001, n, "invalid pattern")
}

func (d *decoder) ident(n *yaml.Node) *ast.Identifier {
	return &ast.Identifier{Token: d.tok(n, token.IDENT, n.Value), Value: n.Value}
}

// name resolves a bare name to a callable reference when the program
// declares a callable by that name, to a local otherwise.
func (d *decoder) name(n *yaml.Node) ast.Expression {
	if d.globals[n.Value] {
		return &ast.GlobalReference{Token: d.tok(n, token.IDENT, n.Value), Name: n.Value}
	}
	return d.ident(n)
}

func (d *decoder) exprs(n *yaml.Node) ([]ast.Expression, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(diagnostics.ErrI001, n, "expected a sequence of expressions")
	}
	out := make([]ast.Expression, 0, len(n.Content))
	for _, en := range n.Content {
		e, err := d.expr(en)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) optExpr(n *yaml.Node) (ast.Expression, error) {
	if n == nil || n.Tag == "!!null" {
		return nil, nil
	}
	return d.expr(n)
}

// scalar decodes the shorthand forms: numbers, booleans, One/Zero, () and
// names.
func (d *decoder) scalar(n *yaml.Node) (ast.Expression, error) {
	switch n.Tag {
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, d.errorf(diagnostics.ErrI001, n, "bad integer %q", n.Value)
		}
		return &ast.IntegerLiteral{Token: d.tok(n, token.INT, n.Value), Value: v}, nil
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, d.errorf(diagnostics.ErrI001, n, "bad double %q", n.Value)
		}
		return &ast.DoubleLiteral{Token: d.tok(n, token.FLOAT, n.Value), Value: v}, nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return nil, d.errorf(diagnostics.ErrI001, n, "bad boolean %q", n.Value)
		}
		typ := token.FALSE
		if v {
			typ = token.TRUE
		}
		return &ast.BooleanLiteral{Token: d.tok(n, typ, n.Value), Value: v}, nil
	}
	switch n.Value {
	case "One":
		return &ast.ResultLiteral{Token: d.tok(n, token.ONE, n.Value), One: true}, nil
	case "Zero":
		return &ast.ResultLiteral{Token: d.tok(n, token.ZERO, n.Value)}, nil
	case "()":
		return &ast.UnitLiteral{Token: d.tok(n, token.LPAREN, "()")}, nil
	}
	return d.name(n), nil
}
