package partialeval

import "github.com/funvibe/qirlower/internal/rir"

// noBlock marks a slot whose latest value was written on more than one path.
const noBlock = ^rir.BlockID(0)

// Binding is one local name. A mutable scalar binding owns Slot for its
// whole lifetime; every assignment stores into it.
type Binding struct {
	Value   Value
	Mutable bool
	Slot    *rir.Variable
	// storedIn is the block holding the latest Store into Slot.
	storedIn rir.BlockID
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*Binding)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Environment is one lexical scope; outer links to the enclosing scope.
type Environment struct {
	store map[string]*Binding
	outer *Environment
}

func (e *Environment) Get(name string) (*Binding, bool) {
	b, ok := e.store[name]
	if !ok && e.outer != nil {
		return e.outer.Get(name)
	}
	return b, ok
}

// Set declares name in this scope, shadowing any outer binding.
func (e *Environment) Set(name string, b *Binding) *Binding {
	e.store[name] = b
	return b
}

// Clone deep-copies the whole scope chain so a branch can mutate bindings
// without affecting its sibling.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	c := &Environment{store: make(map[string]*Binding, len(e.store)), outer: e.outer.Clone()}
	for k, b := range e.store {
		cp := *b
		c.store[k] = &cp
	}
	return c
}

// scopes returns the chain from innermost to outermost.
func (e *Environment) scopes() []*Environment {
	var out []*Environment
	for s := e; s != nil; s = s.outer {
		out = append(out, s)
	}
	return out
}
