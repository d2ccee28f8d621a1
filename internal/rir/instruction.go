package rir

import (
	"fmt"
	"strings"
)

// Instruction is the closed set of RIR instructions.
type Instruction interface {
	String() string
	instruction()
}

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Sdiv
	Srem
	Shl
	Ashr
	Fadd
	Fsub
	Fmul
	Fdiv
	LogicalAnd
	LogicalOr
	BitwiseAnd
	BitwiseOr
	BitwiseXor
)

var binaryOpNames = [...]string{
	Add: "Add", Sub: "Sub", Mul: "Mul", Sdiv: "Sdiv", Srem: "Srem", Shl: "Shl", Ashr: "Ashr",
	Fadd: "Fadd", Fsub: "Fsub", Fmul: "Fmul", Fdiv: "Fdiv",
	LogicalAnd: "LogicalAnd", LogicalOr: "LogicalOr",
	BitwiseAnd: "BitwiseAnd", BitwiseOr: "BitwiseOr", BitwiseXor: "BitwiseXor",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

type UnaryOp int

const (
	LogicalNot UnaryOp = iota
	BitwiseNot
)

func (op UnaryOp) String() string {
	if op == BitwiseNot {
		return "BitwiseNot"
	}
	return "LogicalNot"
}

// ConditionCode selects an integer/boolean comparison.
type ConditionCode int

const (
	Eq ConditionCode = iota
	Ne
	Slt
	Sle
	Sgt
	Sge
)

var conditionCodeNames = [...]string{Eq: "Eq", Ne: "Ne", Slt: "Slt", Sle: "Sle", Sgt: "Sgt", Sge: "Sge"}

func (c ConditionCode) String() string { return conditionCodeNames[c] }

// FcmpConditionCode selects an ordered floating-point comparison.
type FcmpConditionCode int

const (
	Oeq FcmpConditionCode = iota
	One
	Olt
	Ole
	Ogt
	Oge
)

var fcmpNames = [...]string{Oeq: "Oeq", One: "One", Olt: "Olt", Ole: "Ole", Ogt: "Ogt", Oge: "Oge"}

func (c FcmpConditionCode) String() string { return fcmpNames[c] }

// Store copies Operand into Var.
type Store struct {
	Operand Operand
	Var     Variable
}

func (s *Store) instruction() {}
func (s *Store) String() string {
	return fmt.Sprintf("%s = Store %s", s.Var, s.Operand)
}

// Call invokes Callee. Var is nil for callables without output.
type Call struct {
	Callee CallableID
	Args   []Operand
	Var    *Variable
}

func (c *Call) instruction() {}
func (c *Call) String() string {
	var sb strings.Builder
	if c.Var != nil {
		sb.WriteString(c.Var.String())
		sb.WriteString(" = ")
	}
	fmt.Fprintf(&sb, "Call id(%d), args( ", c.Callee)
	for _, a := range c.Args {
		sb.WriteString(a.String())
		sb.WriteString(", ")
	}
	sb.WriteString(")")
	return sb.String()
}

type Jump struct {
	Target BlockID
}

func (j *Jump) instruction()   {}
func (j *Jump) String() string { return fmt.Sprintf("Jump(%d)", j.Target) }

type Branch struct {
	Cond  Variable
	True  BlockID
	False BlockID
}

func (b *Branch) instruction() {}
func (b *Branch) String() string {
	return fmt.Sprintf("Branch %s, %d, %d", b.Cond, b.True, b.False)
}

type Binary struct {
	Op  BinaryOp
	Lhs Operand
	Rhs Operand
	Var Variable
}

func (b *Binary) instruction() {}
func (b *Binary) String() string {
	return fmt.Sprintf("%s = %s %s, %s", b.Var, b.Op, b.Lhs, b.Rhs)
}

type Icmp struct {
	Cond ConditionCode
	Lhs  Operand
	Rhs  Operand
	Var  Variable
}

func (i *Icmp) instruction() {}
func (i *Icmp) String() string {
	return fmt.Sprintf("%s = Icmp %s, %s, %s", i.Var, i.Cond, i.Lhs, i.Rhs)
}

type Fcmp struct {
	Cond FcmpConditionCode
	Lhs  Operand
	Rhs  Operand
	Var  Variable
}

func (f *Fcmp) instruction() {}
func (f *Fcmp) String() string {
	return fmt.Sprintf("%s = Fcmp %s, %s, %s", f.Var, f.Cond, f.Lhs, f.Rhs)
}

type Unary struct {
	Op      UnaryOp
	Operand Operand
	Var     Variable
}

func (u *Unary) instruction() {}
func (u *Unary) String() string {
	return fmt.Sprintf("%s = %s %s", u.Var, u.Op, u.Operand)
}

type PhiArg struct {
	Operand Operand
	Block   BlockID
}

type Phi struct {
	Args []PhiArg
	Var  Variable
}

func (p *Phi) instruction() {}
func (p *Phi) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s = Phi ( ", p.Var)
	for _, a := range p.Args {
		fmt.Fprintf(&sb, "[%s, %d], ", a.Operand, a.Block)
	}
	sb.WriteString(")")
	return sb.String()
}

type Return struct{}

func (r *Return) instruction()   {}
func (r *Return) String() string { return "Return" }

// IsTerminator reports whether inst ends a block.
func IsTerminator(inst Instruction) bool {
	switch inst.(type) {
	case *Jump, *Branch, *Return:
		return true
	}
	return false
}

// Successors lists the blocks a terminator can transfer control to.
func Successors(inst Instruction) []BlockID {
	switch t := inst.(type) {
	case *Jump:
		return []BlockID{t.Target}
	case *Branch:
		return []BlockID{t.True, t.False}
	}
	return nil
}

// Dest returns the variable written by inst, if any.
func Dest(inst Instruction) (Variable, bool) {
	switch t := inst.(type) {
	case *Store:
		return t.Var, true
	case *Call:
		if t.Var != nil {
			return *t.Var, true
		}
	case *Binary:
		return t.Var, true
	case *Icmp:
		return t.Var, true
	case *Fcmp:
		return t.Var, true
	case *Unary:
		return t.Var, true
	case *Phi:
		return t.Var, true
	}
	return Variable{}, false
}
