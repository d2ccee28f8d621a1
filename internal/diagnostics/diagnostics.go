package diagnostics

import (
	"fmt"

	"github.com/funvibe/qirlower/internal/token"
)

type ErrorCode string

const (
	// Input loading
	ErrI001 ErrorCode = "I001" // malformed program document
	ErrI002 ErrorCode = "I002" // unknown node kind
	ErrI003 ErrorCode = "I003" // bad type annotation
	ErrI004 ErrorCode = "I004" // missing entry point

	// Configuration
	ErrC001 ErrorCode = "C001"

	// Lowering
	ErrL001 ErrorCode = "L001" // unexpected dynamic value
	ErrL002 ErrorCode = "L002" // dynamic loop condition
	ErrL003 ErrorCode = "L003" // evaluation failed
	ErrL004 ErrorCode = "L004" // division by zero
	ErrL005 ErrorCode = "L005" // result literal in output
	ErrL006 ErrorCode = "L006" // unimplemented
	ErrL007 ErrorCode = "L007" // unsupported simulation intrinsic
	ErrL008 ErrorCode = "L008" // limit exceeded
	ErrL009 ErrorCode = "L009" // internal invariant broken

	// Emission
	ErrE001 ErrorCode = "E001"
)

var descriptions = map[ErrorCode]string{
	ErrI001: "malformed program",
	ErrI002: "unknown node",
	ErrI003: "invalid type",
	ErrI004: "entry point not found",
	ErrC001: "invalid configuration",
	ErrL001: "unexpected dynamic value",
	ErrL002: "loop condition is not known at compile time",
	ErrL003: "evaluation failed",
	ErrL004: "division by zero",
	ErrL005: "result literal cannot be recorded as output",
	ErrL006: "not supported",
	ErrL007: "intrinsic cannot be evaluated at compile time",
	ErrL008: "evaluation limit exceeded",
	ErrL009: "internal error",
	ErrE001: "emission failed",
}

// DiagnosticError is a located, coded error reported to the user.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	File    string
	Message string
	// Inner is the original span when Token was rebased to a call site.
	Inner *token.Token
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, File: tok.File, Message: msg}
}

func (e *DiagnosticError) Error() string {
	prefix := "error"
	if desc, ok := descriptions[e.Code]; ok {
		prefix = desc
	}
	loc := ""
	if e.Token.Line > 0 {
		loc = fmt.Sprintf("%s: ", e.Token.String())
	}
	msg := fmt.Sprintf("%s[%s] %s: %s", loc, e.Code, prefix, e.Message)
	if e.Inner != nil {
		msg += fmt.Sprintf(" (inlined from %s)", e.Inner.String())
	}
	return msg
}
