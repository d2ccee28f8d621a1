package partialeval

import (
	"testing"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/typesystem"
)

func TestMeasureAndReturn(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Result, nil,
			use("q"),
			let("r", call("MResetZ", ident("q"))),
			tail(ident("r")),
		),
	))

	if len(p.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(p.Blocks))
	}
	insts := p.Blocks[0].Instructions
	if len(insts) != 3 {
		t.Fatalf("expected 3 instructions, got %d:\n%s", len(insts), p)
	}

	measure, ok := insts[0].(*rir.Call)
	if !ok {
		t.Fatalf("first instruction is %T", insts[0])
	}
	mc := p.GetCallable(measure.Callee)
	if mc.CallType != rir.Measurement || mc.Name != "__quantum__qis__mresetz__body" {
		t.Errorf("unexpected measurement callable %s (%s)", mc.Name, mc.CallType)
	}
	if got := measure.String(); got != "Call id(1), args( Qubit(0), Result(0), )" {
		t.Errorf("measurement = %q", got)
	}

	record, ok := insts[1].(*rir.Call)
	if !ok {
		t.Fatalf("second instruction is %T", insts[1])
	}
	rc := p.GetCallable(record.Callee)
	if rc.CallType != rir.OutputRecording || rc.Name != "__quantum__rt__result_record_output" {
		t.Errorf("unexpected recording callable %s (%s)", rc.Name, rc.CallType)
	}
	if record.Args[0] != rir.Operand(rir.ResultLit(0)) {
		t.Errorf("recorded %s, want Result(0)", record.Args[0])
	}
	if _, ok := insts[2].(*rir.Return); !ok {
		t.Errorf("last instruction is %T, want Return", insts[2])
	}
	if n := countInstructions[*rir.Store](p); n != 0 {
		t.Errorf("expected no Store, got %d", n)
	}

	entry := p.GetCallable(p.Entry)
	if p.Entry != 0 || entry.Name != EntryCallableName || entry.Body == nil || *entry.Body != 0 {
		t.Errorf("entry callable = %s", entry)
	}
	if p.NumQubits != 1 || p.NumResults != 1 {
		t.Errorf("qubits=%d results=%d", p.NumQubits, p.NumResults)
	}
}

func TestDynamicIfElseBlocks(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Unit, nil,
			use("q"),
			stmt(ifElse(measuredOne("q"),
				block(stmt(call("X", ident("q")))),
				block(stmt(call("Z", ident("q")))),
			)),
		),
	))

	if len(p.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d:\n%s", len(p.Blocks), p)
	}
	br, ok := terminator(p.Blocks[0]).(*rir.Branch)
	if !ok {
		t.Fatalf("entry block ends in %T", terminator(p.Blocks[0]))
	}
	for _, arm := range []rir.BlockID{br.True, br.False} {
		j, ok := terminator(p.GetBlock(arm)).(*rir.Jump)
		if !ok {
			t.Fatalf("arm %d ends in %T", arm, terminator(p.GetBlock(arm)))
		}
		if j.Target != 1 {
			t.Errorf("arm %d jumps to %d, want the continuation 1", arm, j.Target)
		}
	}
	if calleeName(p, p.GetBlock(br.True).Instructions[0]) != "__quantum__qis__x__body" {
		t.Errorf("then arm does not apply X:\n%s", p.GetBlock(br.True))
	}
	if calleeName(p, p.GetBlock(br.False).Instructions[0]) != "__quantum__qis__z__body" {
		t.Errorf("else arm does not apply Z:\n%s", p.GetBlock(br.False))
	}
	if _, ok := terminator(p.Blocks[1]).(*rir.Return); !ok {
		t.Errorf("continuation ends in %T", terminator(p.Blocks[1]))
	}
	if err := rir.Validate(p); err != nil {
		t.Fatalf("invalid program: %v", err)
	}
}

func TestIfWithoutElseBranchesToContinuation(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Unit, nil,
			use("q"),
			stmt(ifElse(measuredOne("q"), block(stmt(call("X", ident("q")))), nil)),
		),
	))
	if len(p.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(p.Blocks))
	}
	br := terminator(p.Blocks[0]).(*rir.Branch)
	if br.True != 2 || br.False != 1 {
		t.Errorf("branch = %s", br)
	}
}

func TestConcreteIfEmitsOnlyTakenBranch(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Unit, nil,
			use("q"),
			stmt(ifElse(infix(intLit(2), ast.OpGt, intLit(1)),
				block(stmt(call("X", ident("q")))),
				block(stmt(call("Z", ident("q")))),
			)),
		),
	))
	if len(p.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(p.Blocks))
	}
	if callsTo(p, "__quantum__qis__x__body") != 1 {
		t.Errorf("taken branch missing")
	}
	if _, ok := p.LookupCallable("__quantum__qis__z__body"); ok {
		t.Errorf("untaken branch registered Z")
	}
}

func TestShortCircuitSkipsMeasurement(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Bool, nil,
			use("q"),
			let("b", infix(boolLit(false), ast.OpAndL, measuredOne("q"))),
			tail(ident("b")),
		),
	))
	if len(p.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(p.Blocks))
	}
	if p.NumResults != 0 || callsTo(p, "__quantum__qis__m__body") != 0 {
		t.Fatalf("right operand was evaluated:\n%s", p)
	}
	st := p.Blocks[0].Instructions[0].(*rir.Store)
	if st.Operand != rir.Operand(rir.BoolLit(false)) {
		t.Errorf("recorded %s, want Bool(false)", st.Operand)
	}
	if calleeName(p, p.Blocks[0].Instructions[1]) != "__quantum__rt__bool_record_output" {
		t.Errorf("missing bool recording:\n%s", p)
	}
}

func TestDynamicShortCircuitBranches(t *testing.T) {
	for _, op := range []string{ast.OpAndL, ast.OpOrL} {
		t.Run(op, func(t *testing.T) {
			p := lower(t, program(
				operation("Main", typesystem.Bool, nil,
					use("a"),
					use("b"),
					tail(infix(measuredOne("a"), op, measuredOne("b"))),
				),
			))
			if len(p.Blocks) != 3 {
				t.Fatalf("expected 3 blocks, got %d:\n%s", len(p.Blocks), p)
			}
			// The second measurement only happens on the path that needs it.
			if callsTo(p, "__quantum__qis__m__body") != 2 {
				t.Fatalf("expected two measurements")
			}
			rhs := p.GetBlock(2)
			if calleeName(p, rhs.Instructions[0]) != "__quantum__qis__m__body" {
				t.Errorf("right operand block starts with %s", rhs.Instructions[0])
			}
			br := terminator(p.Blocks[0]).(*rir.Branch)
			wantTrue, wantFalse := rir.BlockID(2), rir.BlockID(1)
			if op == ast.OpOrL {
				wantTrue, wantFalse = 1, 2
			}
			if br.True != wantTrue || br.False != wantFalse {
				t.Errorf("branch = %s", br)
			}
		})
	}
}

func TestForLoopUnrolls(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Unit, nil,
			useArray("qs", 3),
			stmt(forIn("i", rng(0, 2), block(
				stmt(call("H", index(ident("qs"), ident("i")))),
				stmt(call("H", index(ident("qs"), ident("i")))),
			))),
		),
	))
	if len(p.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(p.Blocks))
	}
	if n := callsTo(p, "__quantum__qis__h__body"); n != 6 {
		t.Fatalf("expected 6 H calls, got %d", n)
	}
	for i, inst := range p.Blocks[0].Instructions[:6] {
		want := rir.QubitLit(uint32(i / 2))
		if got := inst.(*rir.Call).Args[0]; got != rir.Operand(want) {
			t.Errorf("call %d targets %s, want %s", i, got, want)
		}
	}
	if n := countInstructions[*rir.Binary](p) + countInstructions[*rir.Icmp](p); n != 0 {
		t.Errorf("loop bookkeeping leaked into the output: %d instructions", n)
	}
}

func TestResultIndicesIncrease(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.TArray{Elem: typesystem.Result}, nil,
			use("q"),
			mutable("rs", array(zero(), zero(), zero())),
			stmt(forIn("i", rng(0, 2), block(
				stmt(&ast.AssignIndexExpression{Token: tk("set"), Name: ident("rs"), Index: ident("i"), Value: call("M", ident("q"))}),
			))),
			tail(ident("rs")),
		),
	))
	if p.NumResults != 3 {
		t.Fatalf("expected 3 results, got %d", p.NumResults)
	}
	var measured, recorded []rir.Operand
	for _, inst := range p.Blocks[0].Instructions {
		switch calleeName(p, inst) {
		case "__quantum__qis__m__body":
			measured = append(measured, inst.(*rir.Call).Args[1])
		case "__quantum__rt__result_record_output":
			recorded = append(recorded, inst.(*rir.Call).Args[0])
		}
	}
	for i := 0; i < 3; i++ {
		want := rir.Operand(rir.ResultLit(uint32(i)))
		if measured[i] != want || recorded[i] != want {
			t.Errorf("position %d: measured %s recorded %s, want %s", i, measured[i], recorded[i], want)
		}
	}
	arr := p.Blocks[0].Instructions[3].(*rir.Call)
	if calleeName(p, arr) != "__quantum__rt__array_record_output" || arr.Args[0] != rir.Operand(rir.IntegerLit(3)) {
		t.Errorf("array header = %s", arr)
	}
}

func TestMutableMergeStoresOnEachPath(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Int, nil,
			use("q"),
			mutable("x", intLit(0)),
			stmt(ifElse(measuredOne("q"),
				block(stmt(set("x", intLit(1)))),
				block(stmt(set("x", intLit(2)))),
			)),
			tail(ident("x")),
		),
	))
	if len(p.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d:\n%s", len(p.Blocks), p)
	}

	init := p.Blocks[0].Instructions[0].(*rir.Store)
	slot := init.Var
	if init.Operand != rir.Operand(rir.IntegerLit(0)) {
		t.Fatalf("slot initialized with %s", init.Operand)
	}
	br := terminator(p.Blocks[0]).(*rir.Branch)
	for arm, want := range map[rir.BlockID]int64{br.True: 1, br.False: 2} {
		st, ok := p.GetBlock(arm).Instructions[0].(*rir.Store)
		if !ok || st.Var != slot || st.Operand != rir.Operand(rir.IntegerLit(want)) {
			t.Errorf("block %d does not store %d into the slot:\n%s", arm, want, p.GetBlock(arm))
		}
	}

	cont := p.GetBlock(1).Instructions
	read, ok := cont[0].(*rir.Store)
	if !ok || read.Operand != rir.Operand(slot) {
		t.Fatalf("continuation does not read the slot:\n%s", p.GetBlock(1))
	}
	rec := cont[1].(*rir.Call)
	if calleeName(p, rec) != "__quantum__rt__int_record_output" || rec.Args[0] != rir.Operand(read.Var) {
		t.Errorf("recorded %s", rec)
	}
}

func TestMutableChangedInOneArm(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.Int, nil,
			use("q"),
			mutable("x", intLit(5)),
			stmt(ifElse(measuredOne("q"), block(stmt(setOp("x", ast.OpAdd, intLit(1)))), nil)),
			tail(ident("x")),
		),
	))
	if n := countInstructions[*rir.Binary](p); n != 0 {
		t.Errorf("x + 1 on a known x should fold, found %d Binary", n)
	}
	then := p.GetBlock(2)
	st := then.Instructions[0].(*rir.Store)
	if st.Operand != rir.Operand(rir.IntegerLit(6)) {
		t.Errorf("then arm stores %s", st.Operand)
	}
}

func TestClassicalFunctionVanishes(t *testing.T) {
	fib := function("Fib", typesystem.Int, []*ast.Parameter{param("n", typesystem.Int)},
		mutable("a", intLit(0)),
		mutable("b", intLit(1)),
		stmt(forIn("_", rng(1, 0), block())),
		stmt(forIn("_", &ast.RangeExpression{Token: tk(".."), Start: intLit(1), End: ident("n")}, block(
			let("t", infix(ident("a"), ast.OpAdd, ident("b"))),
			stmt(set("a", ident("b"))),
			stmt(set("b", ident("t"))),
		))),
		tail(ident("a")),
	)
	p := lower(t, program(fib,
		operation("Main", typesystem.Int, nil, tail(call("Fib", intLit(10)))),
	))

	if len(p.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(p.Blocks))
	}
	insts := p.Blocks[0].Instructions
	if len(insts) != 3 {
		t.Fatalf("expected Store, record, Return; got:\n%s", p.Blocks[0])
	}
	if st := insts[0].(*rir.Store); st.Operand != rir.Operand(rir.IntegerLit(55)) {
		t.Errorf("Fib(10) = %s", st.Operand)
	}
	if countInstructions[*rir.Binary](p) != 0 {
		t.Errorf("classical arithmetic was residualized")
	}
}

func TestDynamicArithmetic(t *testing.T) {
	choose := ifElse(measuredOne("q"), block(tail(intLit(1))), block(tail(intLit(0))))
	choose.Ty = typesystem.Int
	p := lower(t, program(
		operation("Main", typesystem.Int, nil,
			use("q"),
			let("x", choose),
			tail(infix(ident("x"), ast.OpMul, intLit(4))),
		),
	))
	cont := p.GetBlock(1).Instructions
	mul, ok := cont[0].(*rir.Binary)
	if !ok || mul.Op != rir.Mul || mul.Rhs != rir.Operand(rir.IntegerLit(4)) {
		t.Fatalf("expected Mul x, 4 in continuation:\n%s", p.GetBlock(1))
	}
	if rec := cont[1].(*rir.Call); rec.Args[0] != rir.Operand(mul.Var) {
		t.Errorf("recorded %s, want %s", rec.Args[0], mul.Var)
	}
}

func TestResultComparisons(t *testing.T) {
	tests := []struct {
		name  string
		cmp   ast.Expression
		icmps int
	}{
		{"eq one", infix(ident("r"), ast.OpEq, one()), 0},
		{"ne zero", infix(ident("r"), ast.OpNeq, zero()), 0},
		{"eq zero", infix(ident("r"), ast.OpEq, zero()), 1},
		{"literal first", infix(one(), ast.OpEq, ident("r")), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := lower(t, program(
				operation("Main", typesystem.Bool, nil,
					use("q"),
					let("r", call("M", ident("q"))),
					tail(tt.cmp),
				),
			))
			if n := countInstructions[*rir.Icmp](p); n != tt.icmps {
				t.Errorf("expected %d Icmp, got %d:\n%s", tt.icmps, n, p)
			}
			if callsTo(p, ReadResultName) != 1 {
				t.Errorf("expected one readout")
			}
		})
	}
}

func TestReadoutCachedPerBlock(t *testing.T) {
	p := lower(t, program(
		operation("Main", typesystem.TTuple{Elements: []typesystem.Type{typesystem.Bool, typesystem.Bool}}, nil,
			use("q"),
			let("r", call("M", ident("q"))),
			tail(tuple(infix(ident("r"), ast.OpEq, one()), infix(ident("r"), ast.OpEq, zero()))),
		),
	))
	if n := callsTo(p, ReadResultName); n != 1 {
		t.Errorf("expected one readout, got %d", n)
	}
	if callsTo(p, "__quantum__rt__tuple_record_output") != 1 || callsTo(p, "__quantum__rt__bool_record_output") != 2 {
		t.Errorf("unexpected recording:\n%s", p)
	}
}

func TestLambdaInlined(t *testing.T) {
	double := &ast.FunctionLiteral{
		Token:      tk("=>"),
		Parameters: []*ast.Parameter{param("x", typesystem.Int)},
		Body:       infix(ident("x"), ast.OpMul, intLit(2)),
	}
	p := lower(t, program(
		operation("Main", typesystem.Int, nil,
			let("f", double),
			tail(&ast.CallExpression{Token: tk("f"), Function: ident("f"), Arguments: []ast.Expression{intLit(21)}}),
		),
	))
	if st := p.Blocks[0].Instructions[0].(*rir.Store); st.Operand != rir.Operand(rir.IntegerLit(42)) {
		t.Errorf("f(21) = %s", st.Operand)
	}
}

func TestBuiltins(t *testing.T) {
	p := lower(t, program(
		intrinsicFunction("Length", typesystem.Int, param("a", typesystem.TArray{Elem: typesystem.Qubit})),
		intrinsicFunction("Sqrt", typesystem.Double, param("d", typesystem.Double)),
		operation("Main", typesystem.Double, nil,
			useArray("qs", 4),
			tail(call("Sqrt", infix(doubleLit(4), ast.OpMul, &ast.CallExpression{
				Token:     tk("IntAsDouble"),
				Function:  global("IntAsDouble"),
				Arguments: []ast.Expression{call("Length", ident("qs"))},
			}))),
		),
		intrinsicFunction("IntAsDouble", typesystem.Double, param("i", typesystem.Int)),
	))
	if st := p.Blocks[0].Instructions[0].(*rir.Store); st.Operand != rir.Operand(rir.DoubleLit(4)) {
		t.Errorf("Sqrt(4.0 * 4) = %s", st.Operand)
	}
}

func TestLoweringIsDeterministic(t *testing.T) {
	build := func() *ast.Program {
		return program(
			operation("Main", typesystem.Int, nil,
				use("q"),
				mutable("x", intLit(0)),
				mutable("y", intLit(0)),
				stmt(ifElse(measuredOne("q"),
					block(stmt(set("y", intLit(3))), stmt(set("x", intLit(1)))),
					block(stmt(set("x", intLit(2))), stmt(set("y", intLit(4)))),
				)),
				tail(infix(ident("x"), ast.OpAdd, ident("y"))),
			),
		)
	}
	first := lower(t, build()).String()
	for i := 0; i < 5; i++ {
		if got := lower(t, build()).String(); got != first {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestEntryFromProgram(t *testing.T) {
	prog := program(operation("Run", typesystem.Unit, nil, use("q"), stmt(call("Reset", ident("q")))))
	prog.Entry = "Run"
	p := lower(t, prog)
	c := p.GetCallable(1)
	if c.CallType != rir.Reset || c.Name != "__quantum__qis__reset__body" {
		t.Errorf("callable 1 = %s", c)
	}
}

func TestExplicitEntryOverridesProgram(t *testing.T) {
	prog := program(
		operation("Run", typesystem.Unit, nil, use("q"), stmt(call("Reset", ident("q")))),
		operation("Main", typesystem.Unit, nil, use("q"), stmt(call("H", ident("q")))),
	)
	prog.Entry = "Run"

	opts := DefaultOptions()
	opts.Entry = DefaultEntry
	p, err := Lower(prog, opts)
	if err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if callsTo(p, "__quantum__qis__h__body") != 1 || callsTo(p, "__quantum__qis__reset__body") != 0 {
		t.Errorf("explicit entry Main was not lowered:\n%s", p)
	}

	// without an explicit entry the program's own entry wins, then Main
	if p = lower(t, prog); callsTo(p, "__quantum__qis__reset__body") != 1 {
		t.Errorf("declared entry Run was not lowered:\n%s", p)
	}
	prog.Entry = ""
	if p = lower(t, prog); callsTo(p, "__quantum__qis__h__body") != 1 {
		t.Errorf("fallback entry Main was not lowered:\n%s", p)
	}
}

func TestRuntimeIntrinsicNamesKept(t *testing.T) {
	p := lower(t, program(
		intrinsic("__quantum__qis__rz__body", ast.RegularIntrinsic, typesystem.Unit,
			param("theta", typesystem.Double), param("q", typesystem.Qubit)),
		operation("Main", typesystem.Unit, nil,
			use("q"),
			stmt(call("__quantum__qis__rz__body", doubleLit(0.5), ident("q"))),
		),
	))
	id, ok := p.LookupCallable("__quantum__qis__rz__body")
	if !ok {
		t.Fatalf("rz not registered")
	}
	in := p.GetCallable(id).InputType
	if len(in) != 2 || in[0] != rir.TyDouble || in[1] != rir.TyQubit {
		t.Errorf("input type = %v", in)
	}
}
