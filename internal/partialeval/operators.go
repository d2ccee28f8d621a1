package partialeval

import (
	"math"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/token"
)

func (e *Evaluator) unaryOp(op string, v Value, tok token.Token) (Value, error) {
	if d, ok := v.(*Dynamic); ok {
		return e.residualUnary(op, d, tok)
	}
	switch v := v.(type) {
	case *Integer:
		switch op {
		case ast.OpNeg:
			return &Integer{Value: -v.Value}, nil
		case ast.OpPos:
			return v, nil
		case ast.OpNotB:
			return &Integer{Value: ^v.Value}, nil
		}
	case *Double:
		switch op {
		case ast.OpNeg:
			return &Double{Value: -v.Value}, nil
		case ast.OpPos:
			return v, nil
		}
	case *Boolean:
		if op == ast.OpNotL {
			return &Boolean{Value: !v.Value}, nil
		}
	}
	return nil, newError(Unexpected, tok, "operator %s not defined for %s", op, v.Inspect())
}

func (e *Evaluator) residualUnary(op string, d *Dynamic, tok token.Token) (Value, error) {
	switch {
	case op == ast.OpPos:
		return d, nil
	case op == ast.OpNeg && d.Var.Ty == rir.TyInteger:
		return e.emitBinary(rir.Mul, d.Var, rir.IntegerLit(-1), rir.TyInteger), nil
	case op == ast.OpNeg && d.Var.Ty == rir.TyDouble:
		return e.emitBinary(rir.Fmul, d.Var, rir.DoubleLit(-1), rir.TyDouble), nil
	case op == ast.OpNotL && d.Var.Ty == rir.TyBoolean:
		return e.emitUnary(rir.LogicalNot, d.Var), nil
	case op == ast.OpNotB && d.Var.Ty == rir.TyInteger:
		return e.emitUnary(rir.BitwiseNot, d.Var), nil
	}
	return nil, newError(Unexpected, tok, "operator %s not defined for %s", op, d.Var)
}

func (e *Evaluator) emitBinary(op rir.BinaryOp, lhs, rhs rir.Operand, ty rir.Ty) *Dynamic {
	v := e.alloc.Variable(ty)
	e.emit(&rir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Var: v})
	return &Dynamic{Var: v}
}

func (e *Evaluator) emitUnary(op rir.UnaryOp, operand rir.Operand) *Dynamic {
	v := e.alloc.Variable(operand.Type())
	e.emit(&rir.Unary{Op: op, Operand: operand, Var: v})
	return &Dynamic{Var: v}
}

func (e *Evaluator) emitIcmp(cond rir.ConditionCode, lhs, rhs rir.Operand) *Dynamic {
	v := e.alloc.Variable(rir.TyBoolean)
	e.emit(&rir.Icmp{Cond: cond, Lhs: lhs, Rhs: rhs, Var: v})
	return &Dynamic{Var: v}
}

func (e *Evaluator) emitFcmp(cond rir.FcmpConditionCode, lhs, rhs rir.Operand) *Dynamic {
	v := e.alloc.Variable(rir.TyBoolean)
	e.emit(&rir.Fcmp{Cond: cond, Lhs: lhs, Rhs: rhs, Var: v})
	return &Dynamic{Var: v}
}

// binaryOp folds when both sides are concrete and residualizes otherwise.
// Result handles always go through readout.
func (e *Evaluator) binaryOp(op string, l, r Value, tok token.Token) (Value, error) {
	lr, lIsResult := l.(*Result)
	rr, rIsResult := r.(*Result)
	if lIsResult && rIsResult {
		if !lr.Handle && !rr.Handle {
			return foldEquality(op, lr.One == rr.One, tok)
		}
		return e.compareResults(op, lr, rr, tok)
	}

	la, lIsArray := l.(*Array)
	ra, rIsArray := r.(*Array)
	if lIsArray && rIsArray && op == ast.OpAdd {
		elems := make([]Value, 0, len(la.Elements)+len(ra.Elements))
		elems = append(elems, la.Elements...)
		elems = append(elems, ra.Elements...)
		return &Array{Elements: elems}, nil
	}

	if isDynamic(l) || isDynamic(r) {
		return e.residualBinary(op, l, r, tok)
	}
	return foldBinary(op, l, r, tok)
}

func foldEquality(op string, equal bool, tok token.Token) (Value, error) {
	switch op {
	case ast.OpEq:
		return &Boolean{Value: equal}, nil
	case ast.OpNeq:
		return &Boolean{Value: !equal}, nil
	}
	return nil, newError(Unexpected, tok, "operator %s is not defined for this type", op)
}

func foldBinary(op string, l, r Value, tok token.Token) (Value, error) {
	switch x := l.(type) {
	case *Integer:
		if y, ok := r.(*Integer); ok {
			return foldInt(op, x.Value, y.Value, tok)
		}
	case *Double:
		if y, ok := r.(*Double); ok {
			return foldDouble(op, x.Value, y.Value, tok)
		}
	case *Boolean:
		if y, ok := r.(*Boolean); ok {
			return foldEquality(op, x.Value == y.Value, tok)
		}
	case *String:
		if y, ok := r.(*String); ok {
			if op == ast.OpAdd {
				return &String{Value: x.Value + y.Value}, nil
			}
			return foldEquality(op, x.Value == y.Value, tok)
		}
	case *Qubit:
		if y, ok := r.(*Qubit); ok {
			return foldEquality(op, x.ID == y.ID, tok)
		}
	case *Array, *Tuple:
		if containsDynamic(l) || containsDynamic(r) {
			return nil, newError(UnexpectedDynamicValue, tok, "cannot compare containers with dynamic contents")
		}
		return foldEquality(op, valuesEqual(l, r), tok)
	}
	return nil, newError(Unexpected, tok, "operator %s not defined for %s and %s", op, l.Inspect(), r.Inspect())
}

func foldInt(op string, a, b int64, tok token.Token) (Value, error) {
	switch op {
	case ast.OpAdd:
		return &Integer{Value: a + b}, nil
	case ast.OpSub:
		return &Integer{Value: a - b}, nil
	case ast.OpMul:
		return &Integer{Value: a * b}, nil
	case ast.OpDiv:
		if b == 0 {
			return nil, newError(DivZero, tok, "division by zero")
		}
		return &Integer{Value: a / b}, nil
	case ast.OpMod:
		if b == 0 {
			return nil, newError(DivZero, tok, "modulo by zero")
		}
		return &Integer{Value: a % b}, nil
	case ast.OpExp:
		if b < 0 {
			return nil, newError(EvaluationFailed, tok, "negative exponent %d", b)
		}
		return &Integer{Value: ipow(a, b)}, nil
	case ast.OpAndB:
		return &Integer{Value: a & b}, nil
	case ast.OpOrB:
		return &Integer{Value: a | b}, nil
	case ast.OpXorB:
		return &Integer{Value: a ^ b}, nil
	case ast.OpShl:
		if b < 0 {
			return &Integer{Value: a >> uint64(-b)}, nil
		}
		return &Integer{Value: a << uint64(b)}, nil
	case ast.OpShr:
		if b < 0 {
			return &Integer{Value: a << uint64(-b)}, nil
		}
		return &Integer{Value: a >> uint64(b)}, nil
	case ast.OpEq:
		return &Boolean{Value: a == b}, nil
	case ast.OpNeq:
		return &Boolean{Value: a != b}, nil
	case ast.OpLt:
		return &Boolean{Value: a < b}, nil
	case ast.OpLte:
		return &Boolean{Value: a <= b}, nil
	case ast.OpGt:
		return &Boolean{Value: a > b}, nil
	case ast.OpGte:
		return &Boolean{Value: a >= b}, nil
	}
	return nil, newError(Unexpected, tok, "operator %s not defined for Int", op)
}

func ipow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func foldDouble(op string, a, b float64, tok token.Token) (Value, error) {
	switch op {
	case ast.OpAdd:
		return &Double{Value: a + b}, nil
	case ast.OpSub:
		return &Double{Value: a - b}, nil
	case ast.OpMul:
		return &Double{Value: a * b}, nil
	case ast.OpDiv:
		return &Double{Value: a / b}, nil
	case ast.OpMod:
		return &Double{Value: math.Mod(a, b)}, nil
	case ast.OpExp:
		return &Double{Value: math.Pow(a, b)}, nil
	case ast.OpEq:
		return &Boolean{Value: a == b}, nil
	case ast.OpNeq:
		return &Boolean{Value: a != b}, nil
	case ast.OpLt:
		return &Boolean{Value: a < b}, nil
	case ast.OpLte:
		return &Boolean{Value: a <= b}, nil
	case ast.OpGt:
		return &Boolean{Value: a > b}, nil
	case ast.OpGte:
		return &Boolean{Value: a >= b}, nil
	}
	return nil, newError(Unexpected, tok, "operator %s not defined for Double", op)
}

var intBinaryOps = map[string]rir.BinaryOp{
	ast.OpAdd:  rir.Add,
	ast.OpSub:  rir.Sub,
	ast.OpMul:  rir.Mul,
	ast.OpDiv:  rir.Sdiv,
	ast.OpMod:  rir.Srem,
	ast.OpAndB: rir.BitwiseAnd,
	ast.OpOrB:  rir.BitwiseOr,
	ast.OpXorB: rir.BitwiseXor,
	ast.OpShl:  rir.Shl,
	ast.OpShr:  rir.Ashr,
}

var doubleBinaryOps = map[string]rir.BinaryOp{
	ast.OpAdd: rir.Fadd,
	ast.OpSub: rir.Fsub,
	ast.OpMul: rir.Fmul,
	ast.OpDiv: rir.Fdiv,
}

var icmpCodes = map[string]rir.ConditionCode{
	ast.OpEq:  rir.Eq,
	ast.OpNeq: rir.Ne,
	ast.OpLt:  rir.Slt,
	ast.OpLte: rir.Sle,
	ast.OpGt:  rir.Sgt,
	ast.OpGte: rir.Sge,
}

var fcmpCodes = map[string]rir.FcmpConditionCode{
	ast.OpEq:  rir.Oeq,
	ast.OpNeq: rir.One,
	ast.OpLt:  rir.Olt,
	ast.OpLte: rir.Ole,
	ast.OpGt:  rir.Ogt,
	ast.OpGte: rir.Oge,
}

func (e *Evaluator) residualBinary(op string, l, r Value, tok token.Token) (Value, error) {
	lhs, lok := operandOf(l)
	rhs, rok := operandOf(r)
	if !lok || !rok {
		return nil, newError(UnexpectedDynamicValue, tok, "operator %s cannot combine %s with a dynamic value", op, pick(lok, r, l).Inspect())
	}
	if lhs.Type() != rhs.Type() {
		return nil, newError(Unexpected, tok, "operand types differ: %s and %s", lhs.Type(), rhs.Type())
	}

	switch lhs.Type() {
	case rir.TyInteger:
		if op == ast.OpExp {
			return e.residualExp(l, r, tok)
		}
		if (op == ast.OpDiv || op == ast.OpMod) && isZeroLiteral(r) {
			return nil, newError(DivZero, tok, "division by zero")
		}
		if code, ok := icmpCodes[op]; ok {
			return e.emitIcmp(code, lhs, rhs), nil
		}
		if bop, ok := intBinaryOps[op]; ok {
			return e.emitBinary(bop, lhs, rhs, rir.TyInteger), nil
		}
	case rir.TyDouble:
		if code, ok := fcmpCodes[op]; ok {
			return e.emitFcmp(code, lhs, rhs), nil
		}
		if bop, ok := doubleBinaryOps[op]; ok {
			return e.emitBinary(bop, lhs, rhs, rir.TyDouble), nil
		}
	case rir.TyBoolean:
		switch op {
		case ast.OpEq:
			return e.emitIcmp(rir.Eq, lhs, rhs), nil
		case ast.OpNeq:
			return e.emitIcmp(rir.Ne, lhs, rhs), nil
		}
	}
	return nil, newError(Unimplemented, tok, "operator %s on dynamic %s values", op, lhs.Type())
}

func pick(lok bool, r, l Value) Value {
	if lok {
		return r
	}
	return l
}

func isZeroLiteral(v Value) bool {
	i, ok := v.(*Integer)
	return ok && i.Value == 0
}

// residualExp unrolls base^n for a concrete n into a chain of multiplies.
func (e *Evaluator) residualExp(base, exp Value, tok token.Token) (Value, error) {
	n, ok := exp.(*Integer)
	if !ok {
		return nil, newError(UnexpectedDynamicValue, tok, "exponent must be known at compile time")
	}
	if n.Value < 0 {
		return nil, newError(EvaluationFailed, tok, "negative exponent %d", n.Value)
	}
	if n.Value == 0 {
		return &Integer{Value: 1}, nil
	}
	operand, _ := operandOf(base)
	acc := operand
	for i := int64(1); i < n.Value; i++ {
		acc = e.emitBinary(rir.Mul, acc, operand, rir.TyInteger).Var
	}
	if v, ok := acc.(rir.Variable); ok {
		return &Dynamic{Var: v}, nil
	}
	return base, nil
}

// compareResults lowers == and != where at least one side is a measurement
// handle. Each handle is read once per block.
func (e *Evaluator) compareResults(op string, l, r *Result, tok token.Token) (Value, error) {
	var cond rir.ConditionCode
	switch op {
	case ast.OpEq:
		cond = rir.Eq
	case ast.OpNeq:
		cond = rir.Ne
	default:
		return nil, newError(Unexpected, tok, "operator %s not defined for Result", op)
	}

	if !l.Handle {
		l, r = r, l
	}
	lhs := e.readResult(l.ID)
	if r.Handle {
		return e.emitIcmp(cond, lhs, e.readResult(r.ID)), nil
	}
	// r == One and r != Zero are the readout itself.
	if (cond == rir.Eq) == r.One {
		return e.store(lhs), nil
	}
	return e.emitIcmp(cond, lhs, rir.BoolLit(r.One)), nil
}

func (e *Evaluator) readResult(id uint32) rir.Variable {
	key := readKey{block: e.current, result: id}
	if v, ok := e.readouts[key]; ok {
		return v
	}
	callee := e.registry.ReadResult()
	v := e.alloc.Variable(rir.TyBoolean)
	e.emit(&rir.Call{Callee: callee, Args: []rir.Operand{rir.ResultLit(id)}, Var: &v})
	e.readouts[key] = v
	return v
}
