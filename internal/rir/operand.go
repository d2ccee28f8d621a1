package rir

import (
	"fmt"
	"strconv"
)

// Ty is the type of a Variable or Literal.
type Ty int

const (
	TyQubit Ty = iota
	TyResult
	TyBoolean
	TyInteger
	TyDouble
	TyPointer
)

var tyNames = [...]string{
	TyQubit:   "Qubit",
	TyResult:  "Result",
	TyBoolean: "Boolean",
	TyInteger: "Integer",
	TyDouble:  "Double",
	TyPointer: "Pointer",
}

func (t Ty) String() string {
	if int(t) < len(tyNames) {
		return tyNames[t]
	}
	return fmt.Sprintf("Ty(%d)", int(t))
}

// ParseTy is the inverse of Ty.String.
func ParseTy(s string) (Ty, bool) {
	for i, n := range tyNames {
		if n == s {
			return Ty(i), true
		}
	}
	return 0, false
}

// Operand is either a Literal or a Variable.
type Operand interface {
	String() string
	Type() Ty
	operand()
}

type VariableID uint32

// Variable is a typed slot. Ids are never reused within a Program.
type Variable struct {
	ID VariableID
	Ty Ty
}

func (v Variable) operand()   {}
func (v Variable) Type() Ty { return v.Ty }
func (v Variable) String() string {
	return fmt.Sprintf("Variable(%d, %s)", v.ID, v.Ty)
}

type LiteralKind int

const (
	LitQubit LiteralKind = iota
	LitResult
	LitBool
	LitInteger
	LitDouble
	LitPointer
)

// Literal is a constant operand. Index holds qubit and result ids.
type Literal struct {
	Kind    LiteralKind
	Index   uint32
	Bool    bool
	Integer int64
	Double  float64
}

func QubitLit(id uint32) Literal   { return Literal{Kind: LitQubit, Index: id} }
func ResultLit(id uint32) Literal  { return Literal{Kind: LitResult, Index: id} }
func BoolLit(b bool) Literal       { return Literal{Kind: LitBool, Bool: b} }
func IntegerLit(i int64) Literal   { return Literal{Kind: LitInteger, Integer: i} }
func DoubleLit(d float64) Literal  { return Literal{Kind: LitDouble, Double: d} }
func PointerLit() Literal          { return Literal{Kind: LitPointer} }

func (l Literal) operand() {}

func (l Literal) Type() Ty {
	switch l.Kind {
	case LitQubit:
		return TyQubit
	case LitResult:
		return TyResult
	case LitBool:
		return TyBoolean
	case LitInteger:
		return TyInteger
	case LitDouble:
		return TyDouble
	}
	return TyPointer
}

func (l Literal) String() string {
	switch l.Kind {
	case LitQubit:
		return fmt.Sprintf("Qubit(%d)", l.Index)
	case LitResult:
		return fmt.Sprintf("Result(%d)", l.Index)
	case LitBool:
		return fmt.Sprintf("Bool(%t)", l.Bool)
	case LitInteger:
		return fmt.Sprintf("Integer(%d)", l.Integer)
	case LitDouble:
		return "Double(" + formatDouble(l.Double) + ")"
	}
	return "Pointer"
}

// formatDouble always keeps a decimal point so doubles never read as ints.
func formatDouble(d float64) string {
	s := strconv.FormatFloat(d, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'n' || c == 'I' {
			return s
		}
	}
	return s + ".0"
}
