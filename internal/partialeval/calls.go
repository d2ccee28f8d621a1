package partialeval

import (
	"errors"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/token"
)

func (e *Evaluator) evalCall(node *ast.CallExpression, env *Environment) (Value, error) {
	callee, err := e.evalExpr(node.Function, env)
	if err != nil {
		return nil, err
	}
	args, err := e.evalAll(node.Arguments, env)
	if err != nil {
		return nil, err
	}
	c, ok := callee.(*Callable)
	if !ok {
		if isDynamic(callee) {
			return nil, newError(UnexpectedDynamicValue, node.Function.GetToken(), "callee must be known at compile time")
		}
		return nil, newError(Unexpected, node.Function.GetToken(), "%s is not callable", callee.Inspect())
	}
	if c.Lambda != nil {
		return e.invokeLambda(c, args, node.GetToken())
	}
	if c.Decl.IsIntrinsic() {
		return e.callIntrinsic(c.Decl, args, node.GetToken())
	}
	return e.invoke(c.Decl, args, node.GetToken())
}

// pushFrame enters a callable activation, enforcing the depth limit.
func (e *Evaluator) pushFrame(f *frame, site token.Token) error {
	if len(e.frames) >= e.opts.MaxCallDepth {
		return newError(LimitExceeded, site, "call depth exceeded %d", e.opts.MaxCallDepth)
	}
	e.frames = append(e.frames, f)
	return nil
}

func (e *Evaluator) popFrame() *frame {
	f := e.frame()
	e.frames = e.frames[:len(e.frames)-1]
	return f
}

func (e *Evaluator) callerPackage() string {
	if len(e.frames) == 0 {
		return ""
	}
	return e.frame().pkg
}

// invoke inlines a callable with a body. A function whose arguments are all
// concrete is interpreted classically and leaves no instructions behind.
func (e *Evaluator) invoke(decl *ast.CallableDeclaration, args []Value, site token.Token) (Value, error) {
	if len(args) != len(decl.Parameters) {
		return nil, newError(Unexpected, site, "%s expects %d arguments, got %d", decl.Name, len(decl.Parameters), len(args))
	}
	classical := e.classical()
	if !classical && decl.Kind == ast.FunctionKind && len(e.frames) > 0 {
		classical = true
		for _, a := range args {
			if containsDynamic(a) {
				classical = false
				break
			}
		}
	}

	callerPkg := e.callerPackage()
	f := &frame{decl: decl, pkg: decl.Package, classical: classical}
	if err := e.pushFrame(f, site); err != nil {
		return nil, err
	}
	env := NewEnvironment()
	for i, p := range decl.Parameters {
		env.Set(p.Name.Value, &Binding{Value: args[i], storedIn: noBlock})
	}
	v, err := e.evalBlock(decl.Body, env)
	e.popFrame()
	if err != nil {
		if len(e.frames) > 0 && decl.Package != callerPkg {
			var pe *Error
			if errors.As(err, &pe) {
				pe.rebase(site)
			}
		}
		return nil, err
	}
	if f.returned {
		return f.retVal, nil
	}
	return v, nil
}

// invokeLambda evaluates a lambda body in its captured scope. Each call gets
// its own frame, attributed to the caller's package, so early returns stay
// local to the body.
func (e *Evaluator) invokeLambda(c *Callable, args []Value, site token.Token) (Value, error) {
	lambda := c.Lambda
	if len(args) != len(lambda.Parameters) {
		return nil, newError(Unexpected, site, "lambda expects %d arguments, got %d", len(lambda.Parameters), len(args))
	}
	classical := e.classical()
	if !classical && !lambda.Operation {
		classical = true
		for _, a := range args {
			if containsDynamic(a) {
				classical = false
				break
			}
		}
	}
	f := &frame{pkg: e.callerPackage(), classical: classical}
	if err := e.pushFrame(f, site); err != nil {
		return nil, err
	}
	env := NewEnclosedEnvironment(c.Captured)
	for i, p := range lambda.Parameters {
		env.Set(p.Name.Value, &Binding{Value: args[i], storedIn: noBlock})
	}
	v, err := e.evalExpr(lambda.Body, env)
	e.popFrame()
	if err != nil {
		return nil, err
	}
	if f.returned {
		return f.retVal, nil
	}
	return v, nil
}

// callIntrinsic handles callables defined outside the program: classical
// builtins are computed now, quantum operations always become calls.
func (e *Evaluator) callIntrinsic(decl *ast.CallableDeclaration, args []Value, site token.Token) (Value, error) {
	if decl.Kind == ast.FunctionKind {
		if fn, ok := builtins[decl.Name]; ok {
			return fn(args, site)
		}
		for _, a := range args {
			if containsDynamic(a) {
				return e.residualCall(decl, args, site)
			}
		}
		return nil, newError(UnsupportedSimulationIntrinsic, site, "intrinsic function %s cannot be evaluated at compile time", decl.Name)
	}
	return e.residualCall(decl, args, site)
}

// residualCall emits a Call to an intrinsic. Measurements receive a fresh
// result index and yield its handle.
func (e *Evaluator) residualCall(decl *ast.CallableDeclaration, args []Value, site token.Token) (Value, error) {
	if e.classical() {
		return nil, newError(Unexpected, site, "%s cannot be called from a classical function", decl.Name)
	}
	var operands []rir.Operand
	for _, a := range args {
		ops, err := flattenOperands(a, site)
		if err != nil {
			return nil, err
		}
		operands = append(operands, ops...)
	}
	id, err := e.registry.Intrinsic(decl)
	if err != nil {
		return nil, newError(Unimplemented, site, "%v", err)
	}

	switch decl.Intrinsic {
	case ast.MeasurementIntrinsic:
		res := e.alloc.Result()
		operands = append(operands, rir.ResultLit(res))
		e.emit(&rir.Call{Callee: id, Args: operands})
		return &Result{Handle: true, ID: res}, nil
	case ast.ResetIntrinsic:
		e.emit(&rir.Call{Callee: id, Args: operands})
		return &Unit{}, nil
	}

	out := e.program.GetCallable(id).OutputType
	if out == nil {
		e.emit(&rir.Call{Callee: id, Args: operands})
		return &Unit{}, nil
	}
	v := e.alloc.Variable(*out)
	e.emit(&rir.Call{Callee: id, Args: operands, Var: &v})
	return &Dynamic{Var: v}, nil
}

func flattenOperands(v Value, site token.Token) ([]rir.Operand, error) {
	if t, ok := v.(*Tuple); ok {
		var out []rir.Operand
		for _, el := range t.Elements {
			ops, err := flattenOperands(el, site)
			if err != nil {
				return nil, err
			}
			out = append(out, ops...)
		}
		return out, nil
	}
	if _, ok := v.(*Unit); ok {
		return nil, nil
	}
	op, ok := operandOf(v)
	if !ok {
		return nil, newError(Unimplemented, site, "%s cannot be passed to an intrinsic", v.Inspect())
	}
	return []rir.Operand{op}, nil
}
