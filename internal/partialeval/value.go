package partialeval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
)

type ValueType string

const (
	UNIT_VALUE     = "UNIT"
	BOOL_VALUE     = "BOOL"
	INT_VALUE      = "INT"
	DOUBLE_VALUE   = "DOUBLE"
	STRING_VALUE   = "STRING"
	QUBIT_VALUE    = "QUBIT"
	RESULT_VALUE   = "RESULT"
	RANGE_VALUE    = "RANGE"
	ARRAY_VALUE    = "ARRAY"
	TUPLE_VALUE    = "TUPLE"
	CALLABLE_VALUE = "CALLABLE"
	DYNAMIC_VALUE  = "DYNAMIC"
)

// Value is either concrete (known during lowering) or *Dynamic (held in a
// variable until the program runs). Arrays and tuples are structural, so
// they may be concrete containers of dynamic elements.
type Value interface {
	Type() ValueType
	Inspect() string
}

type Unit struct{}

func (u *Unit) Type() ValueType { return UNIT_VALUE }
func (u *Unit) Inspect() string { return "()" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ValueType { return BOOL_VALUE }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

type Integer struct {
	Value int64
}

func (i *Integer) Type() ValueType { return INT_VALUE }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }

type Double struct {
	Value float64
}

func (d *Double) Type() ValueType { return DOUBLE_VALUE }
func (d *Double) Inspect() string { return strconv.FormatFloat(d.Value, 'g', -1, 64) }

type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_VALUE }
func (s *String) Inspect() string { return s.Value }

// Qubit is an opaque handle; its id is the index used in Qubit literals.
type Qubit struct {
	ID uint32
}

func (q *Qubit) Type() ValueType { return QUBIT_VALUE }
func (q *Qubit) Inspect() string { return fmt.Sprintf("Qubit(%d)", q.ID) }

// Result is either a source literal (Zero/One) or the handle of a
// measurement whose outcome is only known at run time.
type Result struct {
	Handle bool
	ID     uint32
	One    bool
}

func (r *Result) Type() ValueType { return RESULT_VALUE }
func (r *Result) Inspect() string {
	if r.Handle {
		return fmt.Sprintf("Result(%d)", r.ID)
	}
	if r.One {
		return "One"
	}
	return "Zero"
}

// Range is start..step..end, inclusive of end. Open bounds are resolved
// against an array length when the range is used as a slice.
type Range struct {
	Start     int64
	Step      int64
	End       int64
	OpenStart bool
	OpenEnd   bool
}

func (r *Range) Type() ValueType { return RANGE_VALUE }

func (r *Range) Inspect() string {
	start, end := strconv.FormatInt(r.Start, 10), strconv.FormatInt(r.End, 10)
	if r.OpenStart {
		start = ""
	}
	if r.OpenEnd {
		end = ""
	}
	return fmt.Sprintf("%s..%d..%s", start, r.Step, end)
}

// Open reports whether either bound is missing.
func (r *Range) Open() bool { return r.OpenStart || r.OpenEnd }

// Resolve fills open bounds for an array of the given length: a positive
// step runs from 0 to length-1, a negative one from length-1 down to 0.
func (r *Range) Resolve(length int64) *Range {
	out := *r
	out.OpenStart, out.OpenEnd = false, false
	if r.OpenStart {
		if r.Step < 0 {
			out.Start = length - 1
		} else {
			out.Start = 0
		}
	}
	if r.OpenEnd {
		if r.Step < 0 {
			out.End = 0
		} else {
			out.End = length - 1
		}
	}
	return &out
}

// Each calls fn for every element of the range in order until fn returns false.
func (r *Range) Each(fn func(int64) bool) {
	if r.Step > 0 {
		for i := r.Start; i <= r.End; i += r.Step {
			if !fn(i) {
				return
			}
		}
	} else if r.Step < 0 {
		for i := r.Start; i >= r.End; i += r.Step {
			if !fn(i) {
				return
			}
		}
	}
}

type Array struct {
	Elements []Value
}

func (a *Array) Type() ValueType { return ARRAY_VALUE }
func (a *Array) Inspect() string { return "[" + inspectAll(a.Elements) + "]" }

type Tuple struct {
	Elements []Value
}

func (t *Tuple) Type() ValueType { return TUPLE_VALUE }
func (t *Tuple) Inspect() string { return "(" + inspectAll(t.Elements) + ")" }

// Callable references a global declaration or a lambda with its captures.
type Callable struct {
	Decl     *ast.CallableDeclaration
	Lambda   *ast.FunctionLiteral
	Captured *Environment
}

func (c *Callable) Type() ValueType { return CALLABLE_VALUE }
func (c *Callable) Inspect() string {
	if c.Decl != nil {
		return c.Decl.Name
	}
	return "<lambda>"
}

// Dynamic is a value only known at run time, held in Var.
type Dynamic struct {
	Var rir.Variable
}

func (d *Dynamic) Type() ValueType { return DYNAMIC_VALUE }
func (d *Dynamic) Inspect() string { return d.Var.String() }

func inspectAll(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.Inspect()
	}
	return strings.Join(parts, ", ")
}

func isDynamic(v Value) bool {
	_, ok := v.(*Dynamic)
	return ok
}

// containsDynamic reports whether any part of v is dynamic. Result handles
// count: their content is not known until run time.
func containsDynamic(v Value) bool {
	switch v := v.(type) {
	case *Dynamic:
		return true
	case *Result:
		return v.Handle
	case *Array:
		for _, el := range v.Elements {
			if containsDynamic(el) {
				return true
			}
		}
	case *Tuple:
		for _, el := range v.Elements {
			if containsDynamic(el) {
				return true
			}
		}
	}
	return false
}

// operandOf converts a scalar value into an instruction operand.
func operandOf(v Value) (rir.Operand, bool) {
	switch v := v.(type) {
	case *Boolean:
		return rir.BoolLit(v.Value), true
	case *Integer:
		return rir.IntegerLit(v.Value), true
	case *Double:
		return rir.DoubleLit(v.Value), true
	case *Qubit:
		return rir.QubitLit(v.ID), true
	case *Result:
		if v.Handle {
			return rir.ResultLit(v.ID), true
		}
	case *Dynamic:
		return v.Var, true
	}
	return nil, false
}

// slotType returns the variable type able to hold v, for values that can
// live in a mutable slot.
func slotType(v Value) (rir.Ty, bool) {
	switch v := v.(type) {
	case *Boolean:
		return rir.TyBoolean, true
	case *Integer:
		return rir.TyInteger, true
	case *Double:
		return rir.TyDouble, true
	case *Dynamic:
		switch v.Var.Ty {
		case rir.TyBoolean, rir.TyInteger, rir.TyDouble:
			return v.Var.Ty, true
		}
	}
	return 0, false
}

// valuesEqual is structural equality used when joining branch states.
// Dynamic values are equal only when they name the same variable.
func valuesEqual(a, b Value) bool {
	switch x := a.(type) {
	case *Unit:
		_, ok := b.(*Unit)
		return ok
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && x.Value == y.Value
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.Value == y.Value
	case *Double:
		y, ok := b.(*Double)
		return ok && x.Value == y.Value
	case *String:
		y, ok := b.(*String)
		return ok && x.Value == y.Value
	case *Qubit:
		y, ok := b.(*Qubit)
		return ok && x.ID == y.ID
	case *Result:
		y, ok := b.(*Result)
		return ok && *x == *y
	case *Range:
		y, ok := b.(*Range)
		return ok && *x == *y
	case *Array:
		y, ok := b.(*Array)
		return ok && elementsEqual(x.Elements, y.Elements)
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && elementsEqual(x.Elements, y.Elements)
	case *Callable:
		y, ok := b.(*Callable)
		return ok && x.Decl == y.Decl && x.Lambda == y.Lambda && x.Captured == y.Captured
	case *Dynamic:
		y, ok := b.(*Dynamic)
		return ok && x.Var == y.Var
	}
	return false
}

func elementsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
