package partialeval

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/typesystem"
)

func whileLoop(cond ast.Expression, body ...ast.Statement) *ast.WhileExpression {
	return &ast.WhileExpression{Token: tk("while"), Condition: cond, Body: block(body...)}
}

func repeatUntil(body *ast.BlockStatement, cond ast.Expression, fixup *ast.BlockStatement) *ast.RepeatExpression {
	return &ast.RepeatExpression{Token: tk("repeat"), Body: body, Condition: cond, Fixup: fixup}
}

// slice builds start..step..end; pass nil for an open bound or a unit step.
func slice(start, step, end ast.Expression) *ast.RangeExpression {
	return &ast.RangeExpression{Token: tk(".."), Start: start, Step: step, End: end}
}

func updateAt(name string, at, v ast.Expression) *ast.AssignIndexExpression {
	return &ast.AssignIndexExpression{Token: tk("w/="), Name: ident(name), Index: at, Value: v}
}

func ints(vals ...int64) *ast.ArrayLiteral {
	elems := make([]ast.Expression, len(vals))
	for i, v := range vals {
		elems[i] = intLit(v)
	}
	return array(elems...)
}

func ones(outcomes []bool) int {
	n := 0
	for _, o := range outcomes {
		if o {
			n++
		}
	}
	return n
}

func TestConcreteLoopsComplete(t *testing.T) {
	tests := []struct {
		name  string
		body  []ast.Statement
		want  []string
		fixup int
	}{
		{
			name: "while",
			body: []ast.Statement{
				mutable("i", intLit(0)),
				stmt(whileLoop(infix(ident("i"), ast.OpLt, intLit(3)), stmt(setOp("i", ast.OpAdd, intLit(1))))),
				tail(ident("i")),
			},
			want: []string{"int 3"},
		},
		{
			name: "while never entered",
			body: []ast.Statement{
				mutable("i", intLit(5)),
				stmt(whileLoop(infix(ident("i"), ast.OpLt, intLit(3)), stmt(setOp("i", ast.OpAdd, intLit(1))))),
				tail(ident("i")),
			},
			want: []string{"int 5"},
		},
		{
			name: "repeat with fixup",
			body: []ast.Statement{
				use("q"),
				mutable("n", intLit(0)),
				stmt(repeatUntil(
					block(stmt(setOp("n", ast.OpAdd, intLit(2)))),
					infix(ident("n"), ast.OpGte, intLit(6)),
					block(stmt(call("H", ident("q")))),
				)),
				tail(ident("n")),
			},
			want:  []string{"int 6"},
			fixup: 2,
		},
		{
			name: "repeat without fixup runs once",
			body: []ast.Statement{
				mutable("n", intLit(0)),
				stmt(repeatUntil(block(stmt(setOp("n", ast.OpAdd, intLit(1)))), boolLit(true), nil)),
				tail(ident("n")),
			},
			want: []string{"int 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := lower(t, program(operation("Main", typesystem.Int, nil, tt.body...)))
			if len(p.Blocks) != 1 {
				t.Fatalf("expected one block, got %d:\n%s", len(p.Blocks), p)
			}
			if got, _ := run(t, p, nil); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("output = %v, want %v", got, tt.want)
			}
			if got := callsTo(p, "__quantum__qis__h__body"); got != tt.fixup {
				t.Errorf("fixup ran %d times, want %d", got, tt.fixup)
			}
		})
	}
}

func TestConcreteLoopMeasuresEachIteration(t *testing.T) {
	p := lower(t, program(operation("Main", typesystem.Int, nil,
		use("q"),
		mutable("i", intLit(0)),
		mutable("c", intLit(0)),
		stmt(whileLoop(infix(ident("i"), ast.OpLt, intLit(3)),
			stmt(ifElse(measuredOne("q"), block(stmt(setOp("c", ast.OpAdd, intLit(1)))), nil)),
			stmt(setOp("i", ast.OpAdd, intLit(1))),
		)),
		tail(ident("c")),
	)))
	if p.NumResults != 3 {
		t.Fatalf("expected 3 results, got %d", p.NumResults)
	}
	for _, o := range outcomesOf(p) {
		got, _ := run(t, p, o)
		if want := []string{fmt.Sprintf("int %d", ones(o))}; !reflect.DeepEqual(got, want) {
			t.Errorf("outcomes %v: output = %v, want %v", o, got, want)
		}
	}
}

func TestResultIndicesAcrossBranches(t *testing.T) {
	p := lower(t, program(operation("Main", typesystem.Result, nil,
		use("a"), use("b"), use("c"),
		stmt(ifElse(measuredOne("a"),
			block(let("r1", call("M", ident("b")))),
			block(let("r2", call("M", ident("b"))), let("r3", call("M", ident("c")))),
		)),
		tail(call("M", ident("c"))),
	)))
	if p.NumResults != 5 {
		t.Fatalf("expected 5 results, got %d", p.NumResults)
	}

	// every id is used by exactly one measurement call
	seen := map[uint32]int{}
	for _, b := range p.Blocks {
		for _, inst := range b.Instructions {
			c, ok := inst.(*rir.Call)
			if !ok || p.GetCallable(c.Callee).CallType != rir.Measurement {
				continue
			}
			seen[c.Args[len(c.Args)-1].(rir.Literal).Index]++
		}
	}
	for id := uint32(0); id < p.NumResults; id++ {
		if seen[id] != 1 {
			t.Errorf("result %d used by %d measurements", id, seen[id])
		}
	}

	paths := map[bool][]uint32{true: {0, 1, 4}, false: {0, 2, 3, 4}}
	for _, o := range outcomesOf(p) {
		_, measured := run(t, p, o)
		if want := paths[o[0]]; !reflect.DeepEqual(measured, want) {
			t.Errorf("outcomes %v: measured %v, want %v", o, measured, want)
		}
	}
}

func TestCompoundLogicalAssign(t *testing.T) {
	tests := []struct {
		name    string
		init    bool
		op      string
		results uint32
		want    func(o []bool) string
	}{
		{"true and= dynamic", true, ast.OpAndL, 1, func(o []bool) string { return fmt.Sprint("bool ", o[0]) }},
		{"false and= skips", false, ast.OpAndL, 0, func([]bool) string { return "bool false" }},
		{"true or= skips", true, ast.OpOrL, 0, func([]bool) string { return "bool true" }},
		{"false or= dynamic", false, ast.OpOrL, 1, func(o []bool) string { return fmt.Sprint("bool ", o[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := lower(t, program(operation("Main", typesystem.Bool, nil,
				use("q"),
				mutable("b", boolLit(tt.init)),
				stmt(setOp("b", tt.op, measuredOne("q"))),
				tail(ident("b")),
			)))
			if p.NumResults != tt.results {
				t.Fatalf("expected %d results, got %d:\n%s", tt.results, p.NumResults, p)
			}
			for _, o := range outcomesOf(p) {
				got, _ := run(t, p, o)
				if want := []string{tt.want(o)}; !reflect.DeepEqual(got, want) {
					t.Errorf("outcomes %v: output = %v, want %v", o, got, want)
				}
			}
		})
	}
}

func TestDynamicExponentUnrolls(t *testing.T) {
	tests := []struct {
		exp  int64
		muls int
		want map[bool]string // keyed by the measured outcome
	}{
		{0, 0, map[bool]string{true: "int 1", false: "int 1"}},
		{1, 0, map[bool]string{true: "int 1", false: "int 2"}},
		{3, 2, map[bool]string{true: "int 1", false: "int 8"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint("x^", tt.exp), func(t *testing.T) {
			p := lower(t, program(operation("Main", typesystem.Int, nil,
				use("q"),
				let("x", dynamicInt("q")),
				tail(infix(ident("x"), ast.OpExp, intLit(tt.exp))),
			)))
			muls := 0
			for _, b := range p.Blocks {
				for _, inst := range b.Instructions {
					if bin, ok := inst.(*rir.Binary); ok && bin.Op == rir.Mul {
						muls++
					}
				}
			}
			if muls != tt.muls {
				t.Errorf("expected %d Mul, got %d:\n%s", tt.muls, muls, p)
			}
			for _, o := range outcomesOf(p) {
				got, _ := run(t, p, o)
				if want := []string{tt.want[o[0]]}; !reflect.DeepEqual(got, want) {
					t.Errorf("outcomes %v: output = %v, want %v", o, got, want)
				}
			}
		})
	}
}

func TestSliceUpdatesAndReads(t *testing.T) {
	arrayOut := func(vals ...int64) []string {
		out := []string{fmt.Sprint("array ", len(vals))}
		for _, v := range vals {
			out = append(out, fmt.Sprint("int ", v))
		}
		return out
	}
	tests := []struct {
		name string
		body []ast.Statement
		want []string
	}{
		{
			name: "explicit range",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(1), nil, intLit(2)), ints(9, 8))), tail(ident("arr"))},
			want: arrayOut(1, 9, 8, 4),
		},
		{
			name: "open start",
			body: []ast.Statement{stmt(updateAt("arr", slice(nil, nil, intLit(1)), ints(7, 6))), tail(ident("arr"))},
			want: arrayOut(7, 6, 3, 4),
		},
		{
			name: "open end",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(2), nil, nil), ints(5, 6))), tail(ident("arr"))},
			want: arrayOut(1, 2, 5, 6),
		},
		{
			name: "two step",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(0), intLit(2), intLit(3)), ints(0, 0))), tail(ident("arr"))},
			want: arrayOut(0, 2, 0, 4),
		},
		{
			name: "open two step",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(1), intLit(2), nil), ints(0, 0))), tail(ident("arr"))},
			want: arrayOut(1, 0, 3, 0),
		},
		{
			name: "reversed read",
			body: []ast.Statement{tail(index(ident("arr"), slice(nil, intLit(-1), nil)))},
			want: arrayOut(4, 3, 2, 1),
		},
		{
			name: "whole array read",
			body: []ast.Statement{tail(index(ident("arr"), slice(nil, nil, nil)))},
			want: arrayOut(1, 2, 3, 4),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := append([]ast.Statement{mutable("arr", ints(1, 2, 3, 4))}, tt.body...)
			p := lower(t, program(operation("Main", typesystem.TArray{Elem: typesystem.Int}, nil, body...)))
			if got, _ := run(t, p, nil); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSliceErrors(t *testing.T) {
	arrTy := typesystem.TArray{Elem: typesystem.Int}
	tests := []struct {
		name string
		body []ast.Statement
		want ErrorKind
	}{
		{
			name: "update count mismatch",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(0), nil, intLit(2)), ints(1))), tail(ident("arr"))},
			want: EvaluationFailed,
		},
		{
			name: "update out of range",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(2), nil, intLit(5)), ints(1, 1, 1, 1))), tail(ident("arr"))},
			want: EvaluationFailed,
		},
		{
			name: "update with zero step",
			body: []ast.Statement{stmt(updateAt("arr", slice(intLit(0), intLit(0), intLit(2)), ints(1))), tail(ident("arr"))},
			want: EvaluationFailed,
		},
		{
			name: "read with zero step",
			body: []ast.Statement{tail(index(ident("arr"), slice(intLit(0), intLit(0), intLit(2))))},
			want: EvaluationFailed,
		},
		{
			name: "loop over open range",
			body: []ast.Statement{stmt(forIn("i", slice(intLit(0), nil, nil), block())), tail(ident("arr"))},
			want: EvaluationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := append([]ast.Statement{mutable("arr", ints(1, 2, 3, 4))}, tt.body...)
			err := lowerErr(t, program(operation("Main", arrTy, nil, body...)), DefaultOptions())
			if err.Kind != tt.want {
				t.Errorf("kind = %s, want %s (%v)", err.Kind, tt.want, err)
			}
		})
	}
}
