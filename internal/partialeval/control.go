package partialeval

import (
	"sort"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
	"go.uber.org/zap"
)

// arm is one explored side of a dynamic branch.
type arm struct {
	entry rir.BlockID
	env   *Environment
}

// evalArm evaluates fn in a fresh block against a copy of env, stores its
// value into result (if any), reconciles mutable slots and jumps to cont.
func (e *Evaluator) evalArm(env *Environment, result *rir.Variable, cont rir.BlockID, tok token.Token, fn func(*Environment) (Value, error)) (*arm, error) {
	a := &arm{entry: e.newBlock(), env: env.Clone()}
	e.current = a.entry
	f := e.frame()
	f.dynamicDepth++
	v, err := fn(a.env)
	f.dynamicDepth--
	if err != nil {
		return nil, err
	}
	if result != nil {
		operand, ok := operandOf(v)
		if !ok || operand.Type() != result.Ty {
			return nil, newError(Unimplemented, tok, "value %s of a branch on a dynamic condition cannot be held in a variable", v.Inspect())
		}
		e.emit(&rir.Store{Operand: operand, Var: *result})
	}
	e.reconcile(env, a.env)
	e.emit(&rir.Jump{Target: cont})
	return a, nil
}

// reconcile writes every mutable slot the arm changed whose latest Store is
// not already in the arm's final block, so the join reads the right value.
func (e *Evaluator) reconcile(pre, post *Environment) {
	preScopes, postScopes := pre.scopes(), post.scopes()
	for i, scope := range postScopes {
		names := make([]string, 0, len(scope.store))
		for name := range scope.store {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b := scope.store[name]
			before, ok := preScopes[i].store[name]
			if !ok || b.Slot == nil || b.storedIn == e.current {
				continue
			}
			if valuesEqual(before.Value, b.Value) && before.storedIn == b.storedIn {
				continue
			}
			if d, ok := b.Value.(*Dynamic); ok && d.Var == *b.Slot {
				continue
			}
			operand, _ := operandOf(b.Value)
			e.emit(&rir.Store{Operand: operand, Var: *b.Slot})
			b.storedIn = e.current
		}
	}
}

// join folds the arm environments back into pre. A binding that ends the
// same on both paths keeps that value; a mutable scalar that differs
// becomes a read of its slot.
func (e *Evaluator) join(pre *Environment, arms []*Environment, tok token.Token) error {
	preScopes := pre.scopes()
	armScopes := make([][]*Environment, len(arms))
	for i, a := range arms {
		armScopes[i] = a.scopes()
	}
	for i, scope := range preScopes {
		for name, b := range scope.store {
			first := armScopes[0][i].store[name]
			same := true
			for _, as := range armScopes[1:] {
				if !valuesEqual(first.Value, as[i].store[name].Value) {
					same = false
					break
				}
			}
			switch {
			case same:
				b.Value = first.Value
			case b.Slot != nil:
				b.Value = &Dynamic{Var: *b.Slot}
			default:
				return newError(UnexpectedDynamicValue, tok, "%s is assigned different values of a type that cannot be held in a variable on paths of a dynamic branch", name)
			}
			storedIn := b.storedIn
			for _, as := range armScopes {
				if as[i].store[name].storedIn != storedIn {
					storedIn = noBlock
				}
			}
			b.storedIn = storedIn
		}
	}
	return nil
}

// branch ends the origin block with a Branch on cond.
func (e *Evaluator) branch(origin rir.BlockID, cond rir.Variable, ifTrue, ifFalse rir.BlockID) {
	e.emitIn(origin, &rir.Branch{Cond: cond, True: ifTrue, False: ifFalse})
	e.log.Debug("dynamic branch",
		zap.Uint32("from", uint32(origin)),
		zap.Uint32("true", uint32(ifTrue)),
		zap.Uint32("false", uint32(ifFalse)))
}

func (e *Evaluator) evalIf(node *ast.IfExpression, env *Environment) (Value, error) {
	cond, err := e.evalExpr(node.Condition, env)
	if err != nil {
		return nil, err
	}
	switch c := cond.(type) {
	case *Boolean:
		if c.Value {
			return e.evalBlock(node.Consequence, env)
		}
		if node.Alternative != nil {
			return e.evalExpr(node.Alternative, env)
		}
		return &Unit{}, nil
	case *Dynamic:
		return e.evalDynamicIf(node, c.Var, env)
	}
	return nil, newError(Unexpected, node.Condition.GetToken(), "condition is not a Bool: %s", cond.Inspect())
}

func (e *Evaluator) evalDynamicIf(node *ast.IfExpression, cond rir.Variable, env *Environment) (Value, error) {
	if e.classical() {
		return nil, newError(Unexpected, node.GetToken(), "dynamic condition in a classical function")
	}
	origin := e.current
	cont := e.newBlock()

	var result *rir.Variable
	if ty := declaredType(node.Type()); !typesystem.IsUnit(ty) {
		rty, ok := scalarTy(ty)
		if !ok || rty == rir.TyQubit || rty == rir.TyResult {
			return nil, newError(Unimplemented, node.GetToken(), "if expression of type %s on a dynamic condition", ty)
		}
		v := e.alloc.Variable(rty)
		result = &v
	}

	thenArm, err := e.evalArm(env, result, cont, node.GetToken(), func(armEnv *Environment) (Value, error) {
		return e.evalBlock(node.Consequence, armEnv)
	})
	if err != nil {
		return nil, err
	}
	arms := []*Environment{thenArm.env}

	falseTarget := cont
	if node.Alternative != nil {
		elseArm, err := e.evalArm(env, result, cont, node.GetToken(), func(armEnv *Environment) (Value, error) {
			return e.evalExpr(node.Alternative, armEnv)
		})
		if err != nil {
			return nil, err
		}
		falseTarget = elseArm.entry
		arms = append(arms, elseArm.env)
	} else {
		if result != nil {
			return nil, newError(Unexpected, node.GetToken(), "if expression with a value needs an else branch")
		}
		arms = append(arms, env.Clone())
	}

	e.branch(origin, cond, thenArm.entry, falseTarget)
	if err := e.join(env, arms, node.GetToken()); err != nil {
		return nil, err
	}
	e.current = cont
	if result != nil {
		return &Dynamic{Var: *result}, nil
	}
	return &Unit{}, nil
}

// shortCircuit lowers and/or. A concrete left side decides statically
// whether the right side is evaluated at all; a dynamic one branches so the
// right side only runs on the path that needs it.
func (e *Evaluator) shortCircuit(op string, left Value, rightExpr ast.Expression, env *Environment, tok token.Token) (Value, error) {
	isOr := op == ast.OpOrL
	switch l := left.(type) {
	case *Boolean:
		if l.Value == isOr {
			return l, nil
		}
		return e.evalExpr(rightExpr, env)
	case *Dynamic:
		if e.classical() {
			return nil, newError(Unexpected, tok, "dynamic operand in a classical function")
		}
		result := e.alloc.Variable(rir.TyBoolean)
		e.emit(&rir.Store{Operand: rir.BoolLit(isOr), Var: result})
		origin := e.current
		cont := e.newBlock()
		rhs, err := e.evalArm(env, &result, cont, tok, func(armEnv *Environment) (Value, error) {
			return e.evalExpr(rightExpr, armEnv)
		})
		if err != nil {
			return nil, err
		}
		if isOr {
			e.branch(origin, l.Var, cont, rhs.entry)
		} else {
			e.branch(origin, l.Var, rhs.entry, cont)
		}
		if err := e.join(env, []*Environment{rhs.env, env.Clone()}, tok); err != nil {
			return nil, err
		}
		e.current = cont
		return &Dynamic{Var: result}, nil
	}
	return nil, newError(Unexpected, tok, "operand of %s is not a Bool: %s", op, left.Inspect())
}

func (e *Evaluator) evalFor(node *ast.ForExpression, env *Environment) (Value, error) {
	iterable, err := e.evalExpr(node.Iterable, env)
	if err != nil {
		return nil, err
	}

	var items func(yield func(Value) bool)
	switch it := iterable.(type) {
	case *Range:
		if it.Step == 0 {
			return nil, newError(EvaluationFailed, node.Iterable.GetToken(), "range step must not be zero")
		}
		if it.Open() {
			return nil, newError(EvaluationFailed, node.Iterable.GetToken(), "cannot iterate over open range %s", it.Inspect())
		}
		items = func(yield func(Value) bool) {
			it.Each(func(i int64) bool { return yield(&Integer{Value: i}) })
		}
	case *Array:
		items = func(yield func(Value) bool) {
			for _, el := range it.Elements {
				if !yield(el) {
					return
				}
			}
		}
	case *Dynamic:
		return nil, newError(UnexpectedDynamicValue, node.Iterable.GetToken(), "loop bounds must be known at compile time")
	default:
		return nil, newError(Unexpected, node.Iterable.GetToken(), "cannot iterate over %s", iterable.Inspect())
	}

	var loopErr error
	iterations := 0
	items(func(item Value) bool {
		iterations++
		if iterations > e.opts.MaxLoopIterations {
			loopErr = newError(LimitExceeded, node.GetToken(), "loop exceeded %d iterations", e.opts.MaxLoopIterations)
			return false
		}
		scope := NewEnclosedEnvironment(env)
		if loopErr = e.bindPattern(node.Pattern, item, false, scope); loopErr != nil {
			return false
		}
		if _, loopErr = e.evalBlock(node.Body, scope); loopErr != nil {
			return false
		}
		return !e.frame().returned
	})
	if loopErr != nil {
		return nil, loopErr
	}
	return &Unit{}, nil
}

// loopCondition requires a concrete Bool; a measurement-dependent loop
// condition cannot be represented without back edges.
func (e *Evaluator) loopCondition(expr ast.Expression, env *Environment) (bool, error) {
	v, err := e.evalExpr(expr, env)
	if err != nil {
		return false, err
	}
	switch c := v.(type) {
	case *Boolean:
		return c.Value, nil
	case *Dynamic:
		return false, newError(DynamicLoopCondition, expr.GetToken(), "loop condition depends on a value only known at run time")
	}
	return false, newError(Unexpected, expr.GetToken(), "loop condition is not a Bool: %s", v.Inspect())
}

func (e *Evaluator) evalWhile(node *ast.WhileExpression, env *Environment) (Value, error) {
	for iterations := 0; ; iterations++ {
		if iterations >= e.opts.MaxLoopIterations {
			return nil, newError(LimitExceeded, node.GetToken(), "loop exceeded %d iterations", e.opts.MaxLoopIterations)
		}
		ok, err := e.loopCondition(node.Condition, env)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Unit{}, nil
		}
		if _, err := e.evalBlock(node.Body, env); err != nil {
			return nil, err
		}
		if e.frame().returned {
			return &Unit{}, nil
		}
	}
}

func (e *Evaluator) evalRepeat(node *ast.RepeatExpression, env *Environment) (Value, error) {
	for iterations := 0; ; iterations++ {
		if iterations >= e.opts.MaxLoopIterations {
			return nil, newError(LimitExceeded, node.GetToken(), "loop exceeded %d iterations", e.opts.MaxLoopIterations)
		}
		scope := NewEnclosedEnvironment(env)
		if _, err := e.evalStatements(node.Body.Statements, scope); err != nil {
			return nil, err
		}
		if e.frame().returned {
			return &Unit{}, nil
		}
		done, err := e.loopCondition(node.Condition, scope)
		if err != nil {
			return nil, err
		}
		if done {
			return &Unit{}, nil
		}
		if node.Fixup != nil {
			if _, err := e.evalStatements(node.Fixup.Statements, scope); err != nil {
				return nil, err
			}
			if e.frame().returned {
				return &Unit{}, nil
			}
		}
	}
}
