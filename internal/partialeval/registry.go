package partialeval

import (
	"fmt"
	"strings"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/funvibe/qirlower/internal/typesystem"
	"go.uber.org/zap"
)

const (
	EntryCallableName    = "main"
	ReadResultName       = "__quantum__qis__read_result__body"
	intrinsicPrefix      = "__quantum__"
	qisPrefix            = "__quantum__qis__"
	qisSuffix            = "__body"
	recordOutputTemplate = "__quantum__rt__%s_record_output"
)

// RecordKind names the output recording callables.
type RecordKind string

const (
	RecordResult RecordKind = "result"
	RecordBool   RecordKind = "bool"
	RecordInt    RecordKind = "int"
	RecordDouble RecordKind = "double"
	RecordTuple  RecordKind = "tuple"
	RecordArray  RecordKind = "array"
)

// Registry assigns callable ids on first reference and records each
// callable's signature in the program being built.
type Registry struct {
	program *rir.Program
	alloc   *Allocator
	byName  map[string]rir.CallableID
	log     *zap.Logger
}

func NewRegistry(program *rir.Program, alloc *Allocator, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{program: program, alloc: alloc, byName: make(map[string]rir.CallableID), log: log}
}

// GetOrInsert returns the id of the callable named c.Name, registering c
// when the name is new.
func (r *Registry) GetOrInsert(c *rir.Callable) rir.CallableID {
	if id, ok := r.byName[c.Name]; ok {
		return id
	}
	id := r.alloc.Callable()
	if int(id) != len(r.program.Callables) {
		panic(fmt.Sprintf("partialeval: callable id %d out of step with program (%d callables)", id, len(r.program.Callables)))
	}
	r.program.Callables = append(r.program.Callables, c)
	r.byName[c.Name] = id
	r.log.Debug("registered callable",
		zap.Uint32("id", uint32(id)),
		zap.String("name", c.Name),
		zap.String("call_type", c.CallType.String()))
	return id
}

func (r *Registry) Len() int { return len(r.byName) }

// Entry registers the entry callable with its body block.
func (r *Registry) Entry(body rir.BlockID) rir.CallableID {
	return r.GetOrInsert(&rir.Callable{Name: EntryCallableName, Body: &body, CallType: rir.Regular})
}

func (r *Registry) ReadResult() rir.CallableID {
	out := rir.TyBoolean
	return r.GetOrInsert(&rir.Callable{
		Name:       ReadResultName,
		InputType:  []rir.Ty{rir.TyResult},
		OutputType: &out,
		CallType:   rir.Readout,
	})
}

func (r *Registry) Record(kind RecordKind) rir.CallableID {
	var first rir.Ty
	switch kind {
	case RecordResult:
		first = rir.TyResult
	case RecordBool:
		first = rir.TyBoolean
	case RecordDouble:
		first = rir.TyDouble
	default:
		first = rir.TyInteger
	}
	return r.GetOrInsert(&rir.Callable{
		Name:      fmt.Sprintf(recordOutputTemplate, kind),
		InputType: []rir.Ty{first, rir.TyPointer},
		CallType:  rir.OutputRecording,
	})
}

// Intrinsic registers a body-less operation or function under its emitted
// name. Measurements take a trailing Result argument and return nothing.
func (r *Registry) Intrinsic(decl *ast.CallableDeclaration) (rir.CallableID, error) {
	c := &rir.Callable{Name: IntrinsicName(decl.Name)}
	for _, p := range decl.Parameters {
		tys, err := flattenTy(p.Type)
		if err != nil {
			return 0, fmt.Errorf("parameter %s of %s: %w", p.Name.Value, decl.Name, err)
		}
		c.InputType = append(c.InputType, tys...)
	}

	switch decl.Intrinsic {
	case ast.MeasurementIntrinsic:
		c.CallType = rir.Measurement
		c.InputType = append(c.InputType, rir.TyResult)
	case ast.ResetIntrinsic:
		c.CallType = rir.Reset
	default:
		c.CallType = rir.Regular
		if !typesystem.IsUnit(decl.ReturnType) {
			ty, ok := scalarTy(decl.ReturnType)
			if !ok {
				return 0, fmt.Errorf("%s returns %s, which has no variable form", decl.Name, decl.ReturnType)
			}
			c.OutputType = &ty
		}
	}
	return r.GetOrInsert(c), nil
}

// IntrinsicName maps a source intrinsic to its emitted symbol. Names that
// already carry the runtime prefix are used verbatim.
func IntrinsicName(name string) string {
	if strings.HasPrefix(name, intrinsicPrefix) {
		return name
	}
	return qisPrefix + strings.ToLower(name) + qisSuffix
}

func scalarTy(t typesystem.Type) (rir.Ty, bool) {
	c, ok := t.(typesystem.TCon)
	if !ok {
		return 0, false
	}
	switch c.Name {
	case typesystem.BoolName:
		return rir.TyBoolean, true
	case typesystem.IntName:
		return rir.TyInteger, true
	case typesystem.DoubleName:
		return rir.TyDouble, true
	case typesystem.QubitName:
		return rir.TyQubit, true
	case typesystem.ResultName:
		return rir.TyResult, true
	}
	return 0, false
}

// flattenTy lays tuple parameters out as consecutive arguments.
func flattenTy(t typesystem.Type) ([]rir.Ty, error) {
	if tt, ok := t.(typesystem.TTuple); ok {
		var out []rir.Ty
		for _, el := range tt.Elements {
			tys, err := flattenTy(el)
			if err != nil {
				return nil, err
			}
			out = append(out, tys...)
		}
		return out, nil
	}
	ty, ok := scalarTy(t)
	if !ok {
		return nil, fmt.Errorf("type %s cannot be passed to an intrinsic", t)
	}
	return []rir.Ty{ty}, nil
}
