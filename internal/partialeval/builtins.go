package partialeval

import (
	"math"

	"github.com/funvibe/qirlower/internal/token"
)

type builtinFunction func(args []Value, site token.Token) (Value, error)

// builtins are the intrinsic functions computed during lowering. Except for
// Length, they need concrete arguments.
var builtins = map[string]builtinFunction{
	"Length":      builtinLength,
	"IntAsDouble": builtinIntAsDouble,
	"Truncate":    builtinTruncate,
	"Sqrt":        builtinSqrt,
	"AbsI":        builtinAbsI,
	"AbsD":        builtinAbsD,
}

func builtinLength(args []Value, site token.Token) (Value, error) {
	if len(args) != 1 {
		return nil, newError(Unexpected, site, "Length expects 1 argument, got %d", len(args))
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, newError(Unexpected, site, "Length expects an array, got %s", args[0].Inspect())
	}
	return &Integer{Value: int64(len(arr.Elements))}, nil
}

func builtinIntAsDouble(args []Value, site token.Token) (Value, error) {
	n, err := intArg("IntAsDouble", args, site)
	if err != nil {
		return nil, err
	}
	return &Double{Value: float64(n)}, nil
}

func builtinTruncate(args []Value, site token.Token) (Value, error) {
	d, err := doubleArg("Truncate", args, site)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return nil, newError(EvaluationFailed, site, "cannot truncate %v", d)
	}
	return &Integer{Value: int64(d)}, nil
}

func builtinSqrt(args []Value, site token.Token) (Value, error) {
	d, err := doubleArg("Sqrt", args, site)
	if err != nil {
		return nil, err
	}
	return &Double{Value: math.Sqrt(d)}, nil
}

func builtinAbsI(args []Value, site token.Token) (Value, error) {
	n, err := intArg("AbsI", args, site)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = -n
	}
	return &Integer{Value: n}, nil
}

func builtinAbsD(args []Value, site token.Token) (Value, error) {
	d, err := doubleArg("AbsD", args, site)
	if err != nil {
		return nil, err
	}
	return &Double{Value: math.Abs(d)}, nil
}

func intArg(name string, args []Value, site token.Token) (int64, error) {
	if len(args) != 1 {
		return 0, newError(Unexpected, site, "%s expects 1 argument, got %d", name, len(args))
	}
	switch v := args[0].(type) {
	case *Integer:
		return v.Value, nil
	case *Dynamic:
		return 0, newError(UnexpectedDynamicValue, site, "%s needs a value known at compile time", name)
	}
	return 0, newError(Unexpected, site, "%s expects an Int, got %s", name, args[0].Inspect())
}

func doubleArg(name string, args []Value, site token.Token) (float64, error) {
	if len(args) != 1 {
		return 0, newError(Unexpected, site, "%s expects 1 argument, got %d", name, len(args))
	}
	switch v := args[0].(type) {
	case *Double:
		return v.Value, nil
	case *Dynamic:
		return 0, newError(UnexpectedDynamicValue, site, "%s needs a value known at compile time", name)
	}
	return 0, newError(Unexpected, site, "%s expects a Double, got %s", name, args[0].Inspect())
}
