// Package partialeval lowers a typed program into RIR by evaluating every
// classical computation during lowering and residualizing only what
// depends on measurement outcomes.
package partialeval

import (
	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
	"go.uber.org/zap"
)

const (
	DefaultEntry             = "Main"
	DefaultMaxLoopIterations = 1 << 20
	DefaultMaxCallDepth      = 512
)

type Options struct {
	// Entry names the callable to lower. Empty uses the program's declared
	// entry, falling back to DefaultEntry.
	Entry             string
	Capabilities      rir.Capabilities
	MaxLoopIterations int
	MaxCallDepth      int
	Logger            *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Capabilities:      rir.ForwardBranching | rir.IntegerComputations | rir.FloatingPointComputations,
		MaxLoopIterations: DefaultMaxLoopIterations,
		MaxCallDepth:      DefaultMaxCallDepth,
	}
}

// frame is one callable activation.
type frame struct {
	decl *ast.CallableDeclaration
	pkg  string
	// classical frames interpret a pure function over concrete arguments
	// and never emit instructions.
	classical bool
	// dynamicDepth counts enclosing arms of dynamic branches.
	dynamicDepth int
	returned     bool
	retVal       Value
}

type readKey struct {
	block  rir.BlockID
	result uint32
}

// Evaluator owns one lowering. It is not safe for concurrent use and must
// not be reused.
type Evaluator struct {
	source   *ast.Program
	program  *rir.Program
	alloc    *Allocator
	registry *Registry
	current  rir.BlockID
	frames   []*frame
	readouts map[readKey]rir.Variable
	opts     Options
	log      *zap.Logger
}

func New(source *ast.Program, opts Options) *Evaluator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxLoopIterations <= 0 {
		opts.MaxLoopIterations = DefaultMaxLoopIterations
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	program := rir.NewProgram()
	alloc := &Allocator{}
	return &Evaluator{
		source:   source,
		program:  program,
		alloc:    alloc,
		registry: NewRegistry(program, alloc, opts.Logger),
		readouts: make(map[readKey]rir.Variable),
		opts:     opts,
		log:      opts.Logger,
	}
}

// Lower runs the whole lowering with the given options.
func Lower(source *ast.Program, opts Options) (*rir.Program, error) {
	return New(source, opts).Lower()
}

// Lower evaluates the entry point and records its value as program output.
// On error the partially built program is discarded.
func (e *Evaluator) Lower() (*rir.Program, error) {
	name := e.opts.Entry
	if name == "" {
		name = e.source.Entry
	}
	if name == "" {
		name = DefaultEntry
	}
	decl, ok := e.source.Lookup(name)
	if !ok {
		return nil, newError(Unexpected, token.Token{}, "entry point %s not found", name)
	}
	if decl.IsIntrinsic() {
		return nil, newError(Unexpected, decl.GetToken(), "entry point %s has no body", name)
	}
	if len(decl.Parameters) > 0 {
		return nil, newError(Unexpected, decl.GetToken(), "entry point %s must not take parameters", name)
	}

	entryBlock := e.newBlock()
	e.program.Entry = e.registry.Entry(entryBlock)
	e.current = entryBlock

	result, err := e.invoke(decl, nil, decl.GetToken())
	if err != nil {
		return nil, err
	}
	if err := e.recordOutput(result, decl.ReturnType, decl.GetToken()); err != nil {
		return nil, err
	}
	e.emit(&rir.Return{})

	e.program.NumQubits = e.alloc.Qubits()
	e.program.NumResults = e.alloc.Results()
	e.program.Config.Capabilities = e.opts.Capabilities
	if err := rir.Validate(e.program); err != nil {
		return nil, newError(Unexpected, decl.GetToken(), "lowered program is malformed: %v", err)
	}
	e.log.Debug("lowering finished",
		zap.Int("blocks", len(e.program.Blocks)),
		zap.Int("callables", len(e.program.Callables)),
		zap.Uint32("qubits", e.program.NumQubits),
		zap.Uint32("results", e.program.NumResults))
	return e.program, nil
}

func (e *Evaluator) newBlock() rir.BlockID {
	id := e.alloc.Block()
	e.program.Blocks = append(e.program.Blocks, &rir.Block{})
	e.log.Debug("new block", zap.Uint32("block", uint32(id)))
	return id
}

func (e *Evaluator) emit(inst rir.Instruction) {
	e.program.Blocks[e.current].Append(inst)
}

func (e *Evaluator) emitIn(block rir.BlockID, inst rir.Instruction) {
	e.program.Blocks[block].Append(inst)
}

func (e *Evaluator) frame() *frame {
	return e.frames[len(e.frames)-1]
}

func (e *Evaluator) classical() bool {
	return len(e.frames) > 0 && e.frame().classical
}

// store emits var = Store operand and returns the new dynamic value.
func (e *Evaluator) store(operand rir.Operand) *Dynamic {
	v := e.alloc.Variable(operand.Type())
	e.emit(&rir.Store{Operand: operand, Var: v})
	return &Dynamic{Var: v}
}

// evalBlock evaluates b in a fresh scope.
func (e *Evaluator) evalBlock(b *ast.BlockStatement, env *Environment) (Value, error) {
	return e.evalStatements(b.Statements, NewEnclosedEnvironment(env))
}

// evalStatements evaluates stmts directly in scope. The value is that of a
// trailing expression statement without semicolon.
func (e *Evaluator) evalStatements(stmts []ast.Statement, scope *Environment) (Value, error) {
	var last Value = &Unit{}
	for i, stmt := range stmts {
		v, err := e.evalStatement(stmt, scope)
		if err != nil {
			return nil, err
		}
		if e.frame().returned {
			return &Unit{}, nil
		}
		last = &Unit{}
		if es, ok := stmt.(*ast.ExpressionStatement); ok && !es.Semicolon && i == len(stmts)-1 {
			last = v
		}
	}
	return last, nil
}

func (e *Evaluator) evalStatement(stmt ast.Statement, env *Environment) (Value, error) {
	switch stmt := stmt.(type) {
	case *ast.ExpressionStatement:
		return e.evalExpr(stmt.Expression, env)
	case *ast.LetStatement:
		v, err := e.evalExpr(stmt.Value, env)
		if err != nil {
			return nil, err
		}
		return &Unit{}, e.bindPattern(stmt.Pattern, v, stmt.Mutable, env)
	case *ast.UseStatement:
		return &Unit{}, e.evalUse(stmt, env)
	case *ast.BlockStatement:
		return e.evalBlock(stmt, env)
	}
	return nil, newError(Unexpected, stmt.GetToken(), "unsupported statement %T", stmt)
}

// evalUse allocates qubits. Release at scope exit emits nothing.
func (e *Evaluator) evalUse(stmt *ast.UseStatement, env *Environment) error {
	if stmt.Count == nil {
		env.Set(stmt.Name.Value, &Binding{Value: &Qubit{ID: e.alloc.Qubit()}})
		return nil
	}
	n, err := e.evalExpr(stmt.Count, env)
	if err != nil {
		return err
	}
	count, ok := n.(*Integer)
	if !ok {
		return newError(UnexpectedDynamicValue, stmt.Count.GetToken(), "qubit array size must be known at compile time, got %s", n.Inspect())
	}
	if count.Value < 0 {
		return newError(EvaluationFailed, stmt.Count.GetToken(), "cannot allocate %d qubits", count.Value)
	}
	qs := make([]Value, count.Value)
	for i := range qs {
		qs[i] = &Qubit{ID: e.alloc.Qubit()}
	}
	env.Set(stmt.Name.Value, &Binding{Value: &Array{Elements: qs}})
	return nil
}

// bindPattern declares the names of pat. Mutable scalars get a slot and an
// initializing Store unless the frame is classical.
func (e *Evaluator) bindPattern(pat ast.Pattern, v Value, mutable bool, env *Environment) error {
	switch pat := pat.(type) {
	case *ast.WildcardPattern:
		return nil
	case *ast.IdentifierPattern:
		b := &Binding{Value: v, Mutable: mutable, storedIn: noBlock}
		if mutable && !e.classical() {
			if ty, ok := slotType(v); ok {
				slot := e.alloc.Variable(ty)
				operand, _ := operandOf(v)
				e.emit(&rir.Store{Operand: operand, Var: slot})
				b.Slot = &slot
				b.storedIn = e.current
				if isDynamic(v) {
					b.Value = &Dynamic{Var: slot}
				}
			}
		}
		env.Set(pat.Value, b)
		return nil
	case *ast.TuplePattern:
		tup, ok := v.(*Tuple)
		if !ok || len(tup.Elements) != len(pat.Elements) {
			return newError(Unexpected, pat.GetToken(), "cannot destructure %s into %d elements", v.Inspect(), len(pat.Elements))
		}
		for i, el := range pat.Elements {
			if err := e.bindPattern(el, tup.Elements[i], mutable, env); err != nil {
				return err
			}
		}
		return nil
	}
	return newError(Unexpected, pat.GetToken(), "unsupported pattern %T", pat)
}

// readBinding substitutes immutable values directly. A mutable binding
// whose value is dynamic is copied out of its slot at the point of use.
func (e *Evaluator) readBinding(b *Binding) Value {
	if d, ok := b.Value.(*Dynamic); ok && b.Slot != nil && !e.classical() {
		return e.store(d.Var)
	}
	return b.Value
}

// assign updates a mutable binding, storing into its slot when it has one.
func (e *Evaluator) assign(b *Binding, v Value, tok token.Token) error {
	if b.Slot == nil || e.classical() {
		b.Value = v
		return nil
	}
	operand, ok := operandOf(v)
	if !ok || operand.Type() != b.Slot.Ty {
		return newError(Unexpected, tok, "cannot store %s into %s", v.Inspect(), b.Slot)
	}
	e.emit(&rir.Store{Operand: operand, Var: *b.Slot})
	b.storedIn = e.current
	if isDynamic(v) {
		b.Value = &Dynamic{Var: *b.Slot}
	} else {
		b.Value = v
	}
	return nil
}

func declaredType(t typesystem.Type) typesystem.Type {
	if t == nil {
		return typesystem.Unit
	}
	return t
}
