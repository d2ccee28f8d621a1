package partialeval

import (
	"testing"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
)

// Small constructors for typed trees. Every node sits on its own line of
// main.qs so error spans are easy to check.

var line int

func tk(lexeme string) token.Token {
	line++
	return token.Token{Type: token.IDENT, Lexeme: lexeme, File: "main.qs", Line: line, Column: 1}
}

func ident(name string) *ast.Identifier { return &ast.Identifier{Token: tk(name), Value: name} }

func global(name string) *ast.GlobalReference {
	return &ast.GlobalReference{Token: tk(name), Name: name}
}

func intLit(v int64) *ast.IntegerLiteral     { return &ast.IntegerLiteral{Token: tk("int"), Value: v} }
func doubleLit(v float64) *ast.DoubleLiteral { return &ast.DoubleLiteral{Token: tk("double"), Value: v} }
func boolLit(v bool) *ast.BooleanLiteral     { return &ast.BooleanLiteral{Token: tk("bool"), Value: v} }
func one() *ast.ResultLiteral                { return &ast.ResultLiteral{Token: tk("One"), One: true} }
func zero() *ast.ResultLiteral               { return &ast.ResultLiteral{Token: tk("Zero")} }

func call(fn string, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Token: tk(fn), Function: global(fn), Arguments: args}
}

func infix(l ast.Expression, op string, r ast.Expression) *ast.InfixExpression {
	return &ast.InfixExpression{Token: tk(op), Left: l, Operator: op, Right: r}
}

func index(arr ast.Expression, i ast.Expression) *ast.IndexExpression {
	return &ast.IndexExpression{Token: tk("["), Left: arr, Index: i}
}

func rng(start, end int64) *ast.RangeExpression {
	return &ast.RangeExpression{Token: tk(".."), Start: intLit(start), End: intLit(end)}
}

func array(elems ...ast.Expression) *ast.ArrayLiteral {
	return &ast.ArrayLiteral{Token: tk("["), Elements: elems}
}

func tuple(elems ...ast.Expression) *ast.TupleLiteral {
	return &ast.TupleLiteral{Token: tk("("), Elements: elems}
}

func let(name string, v ast.Expression) *ast.LetStatement {
	return &ast.LetStatement{Token: tk("let"), Pattern: &ast.IdentifierPattern{Token: tk(name), Value: name}, Value: v}
}

func mutable(name string, v ast.Expression) *ast.LetStatement {
	ls := let(name, v)
	ls.Mutable = true
	return ls
}

func use(name string) *ast.UseStatement {
	return &ast.UseStatement{Token: tk("use"), Name: ident(name)}
}

func useArray(name string, n int64) *ast.UseStatement {
	return &ast.UseStatement{Token: tk("use"), Name: ident(name), Count: intLit(n)}
}

func stmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Token: e.GetToken(), Expression: e, Semicolon: true}
}

func tail(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Token: e.GetToken(), Expression: e}
}

func block(stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Token: tk("{"), Statements: stmts}
}

func set(name string, v ast.Expression) *ast.AssignExpression {
	return &ast.AssignExpression{Token: tk("set"), Name: ident(name), Value: v}
}

func setOp(name, op string, v ast.Expression) *ast.AssignExpression {
	a := set(name, v)
	a.Operator = op
	return a
}

func ifElse(cond ast.Expression, then *ast.BlockStatement, els ast.Expression) *ast.IfExpression {
	return &ast.IfExpression{Token: tk("if"), Condition: cond, Consequence: then, Alternative: els}
}

func forIn(name string, iterable ast.Expression, body *ast.BlockStatement) *ast.ForExpression {
	var pat ast.Pattern = &ast.IdentifierPattern{Token: tk(name), Value: name}
	if name == "_" {
		pat = &ast.WildcardPattern{Token: tk("_")}
	}
	return &ast.ForExpression{Token: tk("for"), Pattern: pat, Iterable: iterable, Body: body}
}

func param(name string, ty typesystem.Type) *ast.Parameter {
	return &ast.Parameter{Token: tk(name), Name: ident(name), Type: ty}
}

func operation(name string, ret typesystem.Type, params []*ast.Parameter, stmts ...ast.Statement) *ast.CallableDeclaration {
	return &ast.CallableDeclaration{
		Token:      tk(name),
		Name:       name,
		Kind:       ast.OperationKind,
		Parameters: params,
		ReturnType: ret,
		Body:       block(stmts...),
	}
}

func function(name string, ret typesystem.Type, params []*ast.Parameter, stmts ...ast.Statement) *ast.CallableDeclaration {
	c := operation(name, ret, params, stmts...)
	c.Kind = ast.FunctionKind
	return c
}

func intrinsic(name string, kind ast.IntrinsicKind, ret typesystem.Type, params ...*ast.Parameter) *ast.CallableDeclaration {
	return &ast.CallableDeclaration{
		Token:      tk(name),
		Name:       name,
		Package:    "Std.Intrinsic",
		Kind:       ast.OperationKind,
		Intrinsic:  kind,
		Parameters: params,
		ReturnType: ret,
	}
}

// intrinsicFunction declares a body-less function such as a math builtin.
func intrinsicFunction(name string, ret typesystem.Type, params ...*ast.Parameter) *ast.CallableDeclaration {
	c := intrinsic(name, ast.RegularIntrinsic, ret, params...)
	c.Kind = ast.FunctionKind
	return c
}

// gates are the intrinsics most tests need.
func gates() []*ast.CallableDeclaration {
	return []*ast.CallableDeclaration{
		intrinsic("H", ast.RegularIntrinsic, typesystem.Unit, param("q", typesystem.Qubit)),
		intrinsic("X", ast.RegularIntrinsic, typesystem.Unit, param("q", typesystem.Qubit)),
		intrinsic("Z", ast.RegularIntrinsic, typesystem.Unit, param("q", typesystem.Qubit)),
		intrinsic("CNOT", ast.RegularIntrinsic, typesystem.Unit, param("c", typesystem.Qubit), param("t", typesystem.Qubit)),
		intrinsic("M", ast.MeasurementIntrinsic, typesystem.Result, param("q", typesystem.Qubit)),
		intrinsic("MResetZ", ast.MeasurementIntrinsic, typesystem.Result, param("q", typesystem.Qubit)),
		intrinsic("Reset", ast.ResetIntrinsic, typesystem.Unit, param("q", typesystem.Qubit)),
	}
}

func program(decls ...*ast.CallableDeclaration) *ast.Program {
	return &ast.Program{File: "main.qs", Callables: append(gates(), decls...)}
}

// measuredOne is `M(q) == One`, the usual source of a dynamic Bool.
func measuredOne(q string) ast.Expression {
	return infix(call("M", ident(q)), ast.OpEq, one())
}

func lower(t *testing.T, p *ast.Program) *rir.Program {
	t.Helper()
	out, err := Lower(p, DefaultOptions())
	if err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	return out
}

func lowerErr(t *testing.T, p *ast.Program, opts Options) *Error {
	t.Helper()
	_, err := Lower(p, opts)
	if err == nil {
		t.Fatalf("expected lowering to fail")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return pe
}

func calleeName(p *rir.Program, inst rir.Instruction) string {
	c, ok := inst.(*rir.Call)
	if !ok {
		return ""
	}
	return p.GetCallable(c.Callee).Name
}

// callsTo counts Call instructions targeting name across all blocks.
func callsTo(p *rir.Program, name string) int {
	n := 0
	for _, b := range p.Blocks {
		for _, inst := range b.Instructions {
			if calleeName(p, inst) == name {
				n++
			}
		}
	}
	return n
}

func countInstructions[T rir.Instruction](p *rir.Program) int {
	n := 0
	for _, b := range p.Blocks {
		for _, inst := range b.Instructions {
			if _, ok := inst.(T); ok {
				n++
			}
		}
	}
	return n
}

// terminator returns the last instruction of b, or nil when b is open.
func terminator(b *rir.Block) rir.Instruction {
	term, _ := b.Terminator()
	return term
}
