package partialeval

import "github.com/funvibe/qirlower/internal/rir"

// Allocator issues the ids of one lowering. Every namespace is monotonic
// and ids are never reused.
type Allocator struct {
	nextBlock    rir.BlockID
	nextCallable rir.CallableID
	nextVariable rir.VariableID
	nextQubit    uint32
	nextResult   uint32
}

func (a *Allocator) Block() rir.BlockID {
	id := a.nextBlock
	a.nextBlock++
	return id
}

func (a *Allocator) Callable() rir.CallableID {
	id := a.nextCallable
	a.nextCallable++
	return id
}

func (a *Allocator) Variable(ty rir.Ty) rir.Variable {
	id := a.nextVariable
	a.nextVariable++
	return rir.Variable{ID: id, Ty: ty}
}

func (a *Allocator) Qubit() uint32 {
	id := a.nextQubit
	a.nextQubit++
	return id
}

func (a *Allocator) Result() uint32 {
	id := a.nextResult
	a.nextResult++
	return id
}

func (a *Allocator) Qubits() uint32  { return a.nextQubit }
func (a *Allocator) Results() uint32 { return a.nextResult }
