package partialeval

import (
	"errors"
	"fmt"

	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/token"
)

type ErrorKind int

const (
	// UnexpectedDynamicValue: a context needed a concrete value.
	UnexpectedDynamicValue ErrorKind = iota
	// DynamicLoopCondition: a while/repeat condition depends on a measurement.
	DynamicLoopCondition
	EvaluationFailed
	DivZero
	OutputResultLiteral
	Unexpected
	Unimplemented
	UnsupportedSimulationIntrinsic
	LimitExceeded
)

var errorKindNames = [...]string{
	UnexpectedDynamicValue:         "UnexpectedDynamicValue",
	DynamicLoopCondition:           "DynamicLoopCondition",
	EvaluationFailed:               "EvaluationFailed",
	DivZero:                        "DivZero",
	OutputResultLiteral:            "OutputResultLiteral",
	Unexpected:                     "Unexpected",
	Unimplemented:                  "Unimplemented",
	UnsupportedSimulationIntrinsic: "UnsupportedSimulationIntrinsic",
	LimitExceeded:                  "LimitExceeded",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

var errorCodes = map[ErrorKind]diagnostics.ErrorCode{
	UnexpectedDynamicValue:         diagnostics.ErrL001,
	DynamicLoopCondition:           diagnostics.ErrL002,
	EvaluationFailed:               diagnostics.ErrL003,
	DivZero:                        diagnostics.ErrL004,
	OutputResultLiteral:            diagnostics.ErrL005,
	Unimplemented:                  diagnostics.ErrL006,
	UnsupportedSimulationIntrinsic: diagnostics.ErrL007,
	LimitExceeded:                  diagnostics.ErrL008,
	Unexpected:                     diagnostics.ErrL009,
}

// Error aborts a lowering. Token is the span reported to the user; Inner
// keeps the original span when the error was raised in code inlined from
// another package.
type Error struct {
	Kind    ErrorKind
	Message string
	Token   token.Token
	Inner   *token.Token
}

func newError(kind ErrorKind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Token: tok}
}

func (e *Error) Error() string {
	if e.Token.Line > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Token, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// rebase moves the error to site unless it was already moved.
func (e *Error) rebase(site token.Token) {
	if e.Inner != nil || site.IsZero() {
		return
	}
	inner := e.Token
	e.Inner = &inner
	e.Token = inner.Rebase(site)
}

// Diagnostic converts the error for reporting through the pipeline.
func (e *Error) Diagnostic() *diagnostics.DiagnosticError {
	d := diagnostics.NewError(errorCodes[e.Kind], e.Token, e.Message)
	d.Inner = e.Inner
	return d
}

// KindOf extracts the lowering error kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
