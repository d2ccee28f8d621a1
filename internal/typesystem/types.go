package typesystem

import "strings"

// Type is the interface for all types of the typed input program.
type Type interface {
	String() string
	typeNode()
}

// TCon is a primitive type constructor (Int, Bool, Qubit, ...).
type TCon struct {
	Name string
}

func (t TCon) typeNode()      {}
func (t TCon) String() string { return t.Name }

const (
	UnitName   = "Unit"
	BoolName   = "Bool"
	IntName    = "Int"
	DoubleName = "Double"
	StringName = "String"
	QubitName  = "Qubit"
	ResultName = "Result"
	RangeName  = "Range"
)

var (
	Unit   = TCon{Name: UnitName}
	Bool   = TCon{Name: BoolName}
	Int    = TCon{Name: IntName}
	Double = TCon{Name: DoubleName}
	String = TCon{Name: StringName}
	Qubit  = TCon{Name: QubitName}
	Result = TCon{Name: ResultName}
	Range  = TCon{Name: RangeName}
)

var primitives = map[string]TCon{
	UnitName:   Unit,
	BoolName:   Bool,
	IntName:    Int,
	DoubleName: Double,
	StringName: String,
	QubitName:  Qubit,
	ResultName: Result,
	RangeName:  Range,
}

// TArray is Elem[].
type TArray struct {
	Elem Type
}

func (t TArray) typeNode()      {}
func (t TArray) String() string { return t.Elem.String() + "[]" }

// TTuple is (A, B, ...). The empty tuple is written as Unit instead.
type TTuple struct {
	Elements []Type
}

func (t TTuple) typeNode() {}
func (t TTuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, el := range t.Elements {
		parts[i] = el.String()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TFunc is the type of a callable value. Operation marks quantum callables.
type TFunc struct {
	Params     []Type
	ReturnType Type
	Operation  bool
}

func (t TFunc) typeNode() {}
func (t TFunc) String() string {
	arrow := " -> "
	if t.Operation {
		arrow = " => "
	}
	var in string
	switch len(t.Params) {
	case 0:
		in = UnitName
	case 1:
		in = t.Params[0].String()
	default:
		in = TTuple{Elements: t.Params}.String()
	}
	ret := Type(Unit)
	if t.ReturnType != nil {
		ret = t.ReturnType
	}
	return "(" + in + arrow + ret.String() + ")"
}

func IsUnit(t Type) bool {
	if t == nil {
		return true
	}
	if c, ok := t.(TCon); ok {
		return c.Name == UnitName
	}
	if tt, ok := t.(TTuple); ok {
		return len(tt.Elements) == 0
	}
	return false
}

// IsPrimitive reports whether t names the primitive constructor called name.
func IsPrimitive(t Type, name string) bool {
	c, ok := t.(TCon)
	return ok && c.Name == name
}

// Equal compares two types structurally.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return IsUnit(a) && IsUnit(b)
	}
	switch x := a.(type) {
	case TCon:
		y, ok := b.(TCon)
		return ok && x.Name == y.Name
	case TArray:
		y, ok := b.(TArray)
		return ok && Equal(x.Elem, y.Elem)
	case TTuple:
		y, ok := b.(TTuple)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case TFunc:
		y, ok := b.(TFunc)
		if !ok || x.Operation != y.Operation || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return Equal(x.ReturnType, y.ReturnType)
	}
	return false
}
