package partialeval

import (
	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/token"
)

func (e *Evaluator) evalExpr(expr ast.Expression, env *Environment) (Value, error) {
	switch node := expr.(type) {
	case *ast.IntegerLiteral:
		return &Integer{Value: node.Value}, nil
	case *ast.DoubleLiteral:
		return &Double{Value: node.Value}, nil
	case *ast.BooleanLiteral:
		return &Boolean{Value: node.Value}, nil
	case *ast.ResultLiteral:
		return &Result{One: node.One}, nil
	case *ast.StringLiteral:
		return &String{Value: node.Value}, nil
	case *ast.UnitLiteral:
		return &Unit{}, nil
	case *ast.Identifier:
		b, ok := env.Get(node.Value)
		if !ok {
			return nil, newError(Unexpected, node.GetToken(), "unbound name %s", node.Value)
		}
		return e.readBinding(b), nil
	case *ast.GlobalReference:
		decl, ok := e.source.Lookup(node.Name)
		if !ok {
			return nil, newError(Unexpected, node.GetToken(), "unknown callable %s", node.Name)
		}
		return &Callable{Decl: decl}, nil
	case *ast.FunctionLiteral:
		return &Callable{Lambda: node, Captured: env.Clone()}, nil
	case *ast.TupleLiteral:
		elems, err := e.evalAll(node.Elements, env)
		if err != nil {
			return nil, err
		}
		return &Tuple{Elements: elems}, nil
	case *ast.ArrayLiteral:
		elems, err := e.evalAll(node.Elements, env)
		if err != nil {
			return nil, err
		}
		return &Array{Elements: elems}, nil
	case *ast.ArrayRepeat:
		return e.evalArrayRepeat(node, env)
	case *ast.IndexExpression:
		return e.evalIndex(node, env)
	case *ast.RangeExpression:
		return e.evalRange(node, env)
	case *ast.PrefixExpression:
		right, err := e.evalExpr(node.Right, env)
		if err != nil {
			return nil, err
		}
		return e.unaryOp(node.Operator, right, node.GetToken())
	case *ast.InfixExpression:
		if node.Operator == ast.OpAndL || node.Operator == ast.OpOrL {
			left, err := e.evalExpr(node.Left, env)
			if err != nil {
				return nil, err
			}
			return e.shortCircuit(node.Operator, left, node.Right, env, node.GetToken())
		}
		left, err := e.evalExpr(node.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := e.evalExpr(node.Right, env)
		if err != nil {
			return nil, err
		}
		return e.binaryOp(node.Operator, left, right, node.GetToken())
	case *ast.CallExpression:
		return e.evalCall(node, env)
	case *ast.BlockStatement:
		return e.evalBlock(node, env)
	case *ast.IfExpression:
		return e.evalIf(node, env)
	case *ast.ForExpression:
		return e.evalFor(node, env)
	case *ast.WhileExpression:
		return e.evalWhile(node, env)
	case *ast.RepeatExpression:
		return e.evalRepeat(node, env)
	case *ast.AssignExpression:
		return e.evalAssign(node, env)
	case *ast.AssignIndexExpression:
		return e.evalAssignIndex(node, env)
	case *ast.ReturnExpression:
		return e.evalReturn(node, env)
	case *ast.FailExpression:
		msg, err := e.evalExpr(node.Message, env)
		if err != nil {
			return nil, err
		}
		return nil, newError(EvaluationFailed, node.GetToken(), "program failed: %s", msg.Inspect())
	}
	return nil, newError(Unexpected, expr.GetToken(), "unsupported expression %T", expr)
}

func (e *Evaluator) evalAll(exprs []ast.Expression, env *Environment) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, ex := range exprs {
		v, err := e.evalExpr(ex, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Evaluator) evalArrayRepeat(node *ast.ArrayRepeat, env *Environment) (Value, error) {
	v, err := e.evalExpr(node.Value, env)
	if err != nil {
		return nil, err
	}
	size, err := e.evalExpr(node.Size, env)
	if err != nil {
		return nil, err
	}
	n, ok := size.(*Integer)
	if !ok {
		return nil, newError(UnexpectedDynamicValue, node.Size.GetToken(), "array size must be known at compile time, got %s", size.Inspect())
	}
	if n.Value < 0 {
		return nil, newError(EvaluationFailed, node.Size.GetToken(), "array size %d is negative", n.Value)
	}
	elems := make([]Value, n.Value)
	for i := range elems {
		elems[i] = v
	}
	return &Array{Elements: elems}, nil
}

func (e *Evaluator) evalIndex(node *ast.IndexExpression, env *Environment) (Value, error) {
	left, err := e.evalExpr(node.Left, env)
	if err != nil {
		return nil, err
	}
	idx, err := e.evalExpr(node.Index, env)
	if err != nil {
		return nil, err
	}
	arr, ok := left.(*Array)
	if !ok {
		return nil, newError(Unexpected, node.Left.GetToken(), "cannot index %s", left.Inspect())
	}
	switch idx := idx.(type) {
	case *Integer:
		if idx.Value < 0 || idx.Value >= int64(len(arr.Elements)) {
			return nil, newError(EvaluationFailed, node.Index.GetToken(), "index %d out of range for array of length %d", idx.Value, len(arr.Elements))
		}
		return arr.Elements[idx.Value], nil
	case *Range:
		positions, err := sliceIndices(idx, len(arr.Elements), node.Index.GetToken())
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(positions))
		for k, i := range positions {
			out[k] = arr.Elements[i]
		}
		return &Array{Elements: out}, nil
	case *Dynamic:
		return nil, newError(UnexpectedDynamicValue, node.Index.GetToken(), "array index must be known at compile time")
	}
	return nil, newError(Unexpected, node.Index.GetToken(), "invalid index %s", idx.Inspect())
}

// sliceIndices lists the positions a slice selects, failing when the step
// is zero or any position falls outside the array.
func sliceIndices(r *Range, length int, tok token.Token) ([]int64, error) {
	if r.Step == 0 {
		return nil, newError(EvaluationFailed, tok, "range step must not be zero")
	}
	resolved := r.Resolve(int64(length))
	var out []int64
	inRange := true
	resolved.Each(func(i int64) bool {
		if i < 0 || i >= int64(length) {
			inRange = false
			return false
		}
		out = append(out, i)
		return true
	})
	if !inRange {
		return nil, newError(EvaluationFailed, tok, "slice %s out of range for array of length %d", r.Inspect(), length)
	}
	return out, nil
}

func (e *Evaluator) evalRange(node *ast.RangeExpression, env *Environment) (Value, error) {
	bound := func(ex ast.Expression, dflt int64) (int64, error) {
		if ex == nil {
			return dflt, nil
		}
		v, err := e.evalExpr(ex, env)
		if err != nil {
			return 0, err
		}
		i, ok := v.(*Integer)
		if !ok {
			return 0, newError(UnexpectedDynamicValue, ex.GetToken(), "range bound must be known at compile time, got %s", v.Inspect())
		}
		return i.Value, nil
	}
	start, err := bound(node.Start, 0)
	if err != nil {
		return nil, err
	}
	step, err := bound(node.Step, 1)
	if err != nil {
		return nil, err
	}
	end, err := bound(node.End, 0)
	if err != nil {
		return nil, err
	}
	return &Range{Start: start, Step: step, End: end, OpenStart: node.Start == nil, OpenEnd: node.End == nil}, nil
}

func (e *Evaluator) evalAssign(node *ast.AssignExpression, env *Environment) (Value, error) {
	b, ok := env.Get(node.Name.Value)
	if !ok {
		return nil, newError(Unexpected, node.Name.GetToken(), "unbound name %s", node.Name.Value)
	}
	if !b.Mutable {
		return nil, newError(Unexpected, node.Name.GetToken(), "cannot assign to immutable binding %s", node.Name.Value)
	}

	var v Value
	var err error
	switch node.Operator {
	case "":
		v, err = e.evalExpr(node.Value, env)
	case ast.OpAndL, ast.OpOrL:
		v, err = e.shortCircuit(node.Operator, e.readBinding(b), node.Value, env, node.GetToken())
	default:
		current := e.readBinding(b)
		var rhs Value
		rhs, err = e.evalExpr(node.Value, env)
		if err == nil {
			v, err = e.binaryOp(node.Operator, current, rhs, node.GetToken())
		}
	}
	if err != nil {
		return nil, err
	}
	return &Unit{}, e.assign(b, v, node.GetToken())
}

func (e *Evaluator) evalAssignIndex(node *ast.AssignIndexExpression, env *Environment) (Value, error) {
	b, ok := env.Get(node.Name.Value)
	if !ok {
		return nil, newError(Unexpected, node.Name.GetToken(), "unbound name %s", node.Name.Value)
	}
	if !b.Mutable {
		return nil, newError(Unexpected, node.Name.GetToken(), "cannot update immutable binding %s", node.Name.Value)
	}
	arr, ok := b.Value.(*Array)
	if !ok {
		return nil, newError(Unexpected, node.Name.GetToken(), "%s is not an array", node.Name.Value)
	}
	idx, err := e.evalExpr(node.Index, env)
	if err != nil {
		return nil, err
	}
	v, err := e.evalExpr(node.Value, env)
	if err != nil {
		return nil, err
	}
	elems := make([]Value, len(arr.Elements))
	copy(elems, arr.Elements)
	switch i := idx.(type) {
	case *Integer:
		if i.Value < 0 || i.Value >= int64(len(arr.Elements)) {
			return nil, newError(EvaluationFailed, node.Index.GetToken(), "index %d out of range for array of length %d", i.Value, len(arr.Elements))
		}
		elems[i.Value] = v
	case *Range:
		positions, err := sliceIndices(i, len(arr.Elements), node.Index.GetToken())
		if err != nil {
			return nil, err
		}
		src, ok := v.(*Array)
		if !ok {
			return nil, newError(Unexpected, node.Value.GetToken(), "slice update needs an array, got %s", v.Inspect())
		}
		if len(src.Elements) != len(positions) {
			return nil, newError(EvaluationFailed, node.Value.GetToken(), "slice %s selects %d elements but %d were given", i.Inspect(), len(positions), len(src.Elements))
		}
		for k, pos := range positions {
			elems[pos] = src.Elements[k]
		}
	case *Dynamic:
		return nil, newError(UnexpectedDynamicValue, node.Index.GetToken(), "array index must be known at compile time")
	default:
		return nil, newError(Unexpected, node.Index.GetToken(), "invalid index %s", idx.Inspect())
	}
	return &Unit{}, e.assign(b, &Array{Elements: elems}, node.GetToken())
}

func (e *Evaluator) evalReturn(node *ast.ReturnExpression, env *Environment) (Value, error) {
	var v Value = &Unit{}
	if node.Value != nil {
		var err error
		v, err = e.evalExpr(node.Value, env)
		if err != nil {
			return nil, err
		}
	}
	f := e.frame()
	if f.dynamicDepth > 0 {
		return nil, newError(Unimplemented, node.GetToken(), "early return inside a branch on a dynamic condition")
	}
	f.returned = true
	f.retVal = v
	return &Unit{}, nil
}
