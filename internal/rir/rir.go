// Package rir is the block-structured instruction graph produced by
// partial evaluation and consumed by code generation backends.
package rir

import "fmt"

type BlockID uint32

type CallableID uint32

// CallableType classifies how a backend must treat a call.
type CallableType int

const (
	Regular CallableType = iota
	Measurement
	Reset
	Readout
	OutputRecording
)

var callableTypeNames = [...]string{
	Regular:         "Regular",
	Measurement:     "Measurement",
	Reset:           "Reset",
	Readout:         "Readout",
	OutputRecording: "OutputRecording",
}

func (c CallableType) String() string { return callableTypeNames[c] }

func ParseCallableType(s string) (CallableType, bool) {
	for i, n := range callableTypeNames {
		if n == s {
			return CallableType(i), true
		}
	}
	return 0, false
}

// Callable is a user callable with a body or an externally defined intrinsic.
type Callable struct {
	Name       string
	InputType  []Ty
	OutputType *Ty
	Body       *BlockID
	CallType   CallableType
}

// Block is a straight-line instruction sequence ending in one terminator.
type Block struct {
	Instructions []Instruction
}

func (b *Block) Append(inst Instruction) {
	b.Instructions = append(b.Instructions, inst)
}

// Terminator returns the final instruction when it transfers control.
func (b *Block) Terminator() (Instruction, bool) {
	if len(b.Instructions) == 0 {
		return nil, false
	}
	last := b.Instructions[len(b.Instructions)-1]
	return last, IsTerminator(last)
}

// Capabilities is the set of instruction forms a target profile admits.
type Capabilities uint8

const (
	ForwardBranching Capabilities = 1 << iota
	IntegerComputations
	FloatingPointComputations
)

var capabilityNames = []struct {
	c    Capabilities
	name string
}{
	{ForwardBranching, "ForwardBranching"},
	{IntegerComputations, "IntegerComputations"},
	{FloatingPointComputations, "FloatingPointComputations"},
}

func (c Capabilities) Has(other Capabilities) bool { return c&other == other }

func (c Capabilities) Names() []string {
	var out []string
	for _, cn := range capabilityNames {
		if c.Has(cn.c) {
			out = append(out, cn.name)
		}
	}
	return out
}

type Config struct {
	Capabilities Capabilities
}

// Program is the lowered form of one entry point. Callables and Blocks are
// dense: the element at index i has id i.
type Program struct {
	Entry      CallableID
	Callables  []*Callable
	Blocks     []*Block
	Config     Config
	NumQubits  uint32
	NumResults uint32
	Tags       []string
}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) GetCallable(id CallableID) *Callable {
	if int(id) >= len(p.Callables) {
		panic(fmt.Sprintf("rir: callable %d not found", id))
	}
	return p.Callables[id]
}

func (p *Program) GetBlock(id BlockID) *Block {
	if int(id) >= len(p.Blocks) {
		panic(fmt.Sprintf("rir: block %d not found", id))
	}
	return p.Blocks[id]
}

// LookupCallable finds a callable by emitted name.
func (p *Program) LookupCallable(name string) (CallableID, bool) {
	for i, c := range p.Callables {
		if c.Name == name {
			return CallableID(i), true
		}
	}
	return 0, false
}

// EntryBlock returns the body of the entry callable.
func (p *Program) EntryBlock() (BlockID, bool) {
	if int(p.Entry) >= len(p.Callables) {
		return 0, false
	}
	body := p.Callables[p.Entry].Body
	if body == nil {
		return 0, false
	}
	return *body, true
}
