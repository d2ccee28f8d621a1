package partialeval

import (
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
)

// recordOutput emits the recording calls for the entry point's value,
// following the declared return type.
func (e *Evaluator) recordOutput(v Value, ty typesystem.Type, tok token.Token) error {
	ty = declaredType(ty)
	switch t := ty.(type) {
	case typesystem.TTuple:
		tup, ok := v.(*Tuple)
		if !ok || len(tup.Elements) != len(t.Elements) {
			return newError(Unexpected, tok, "entry point returned %s for %s", v.Inspect(), ty)
		}
		e.emitRecord(RecordTuple, rir.IntegerLit(int64(len(tup.Elements))))
		for i, el := range tup.Elements {
			if err := e.recordOutput(el, t.Elements[i], tok); err != nil {
				return err
			}
		}
		return nil
	case typesystem.TArray:
		arr, ok := v.(*Array)
		if !ok {
			return newError(Unexpected, tok, "entry point returned %s for %s", v.Inspect(), ty)
		}
		e.emitRecord(RecordArray, rir.IntegerLit(int64(len(arr.Elements))))
		for _, el := range arr.Elements {
			if err := e.recordOutput(el, t.Elem, tok); err != nil {
				return err
			}
		}
		return nil
	}
	if typesystem.IsUnit(ty) {
		return nil
	}
	return e.recordScalar(v, tok)
}

func (e *Evaluator) recordScalar(v Value, tok token.Token) error {
	switch v := v.(type) {
	case *Result:
		if !v.Handle {
			return newError(OutputResultLiteral, tok, "cannot record the literal %s as output", v.Inspect())
		}
		e.emitRecord(RecordResult, rir.ResultLit(v.ID))
		return nil
	case *Dynamic:
		kind, ok := recordKinds[v.Var.Ty]
		if !ok {
			return newError(Unimplemented, tok, "cannot record a %s value", v.Var.Ty)
		}
		e.emitRecord(kind, v.Var)
		return nil
	case *Boolean, *Integer, *Double:
		operand, _ := operandOf(v)
		d := e.store(operand)
		e.emitRecord(recordKinds[d.Var.Ty], d.Var)
		return nil
	}
	return newError(Unimplemented, tok, "cannot record %s as output", v.Inspect())
}

var recordKinds = map[rir.Ty]RecordKind{
	rir.TyBoolean: RecordBool,
	rir.TyInteger: RecordInt,
	rir.TyDouble:  RecordDouble,
}

func (e *Evaluator) emitRecord(kind RecordKind, value rir.Operand) {
	id := e.registry.Record(kind)
	e.emit(&rir.Call{Callee: id, Args: []rir.Operand{value, rir.PointerLit()}})
}
