package ast

import (
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
)

// Node is the base interface for all nodes of the typed program tree.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression. Every expression
// carries the type the front end inferred for it.
type Expression interface {
	Node
	expressionNode()
	Type() typesystem.Type
}

type CallableKind int

const (
	FunctionKind CallableKind = iota
	OperationKind
)

func (k CallableKind) String() string {
	if k == OperationKind {
		return "operation"
	}
	return "function"
}

// IntrinsicKind classifies a body-less callable.
type IntrinsicKind int

const (
	NotIntrinsic IntrinsicKind = iota
	RegularIntrinsic
	MeasurementIntrinsic
	ResetIntrinsic
)

// Program is the root of a resolved, typed program.
type Program struct {
	File      string
	Callables []*CallableDeclaration
	Entry     string

	index map[string]*CallableDeclaration
}

// Lookup finds a callable declaration by name.
func (p *Program) Lookup(name string) (*CallableDeclaration, bool) {
	if p.index == nil || len(p.index) != len(p.Callables) {
		p.index = make(map[string]*CallableDeclaration, len(p.Callables))
		for _, c := range p.Callables {
			p.index[c.Name] = c
		}
	}
	c, ok := p.index[name]
	return c, ok
}

// CallableDeclaration is a function or operation. A nil Body marks an
// intrinsic defined outside the program.
type CallableDeclaration struct {
	Token      token.Token
	Name       string
	Package    string
	Kind       CallableKind
	Intrinsic  IntrinsicKind
	Parameters []*Parameter
	ReturnType typesystem.Type
	Body       *BlockStatement
}

func (cd *CallableDeclaration) statementNode()       {}
func (cd *CallableDeclaration) TokenLiteral() string { return cd.Token.Lexeme }
func (cd *CallableDeclaration) GetToken() token.Token {
	if cd == nil {
		return token.Token{}
	}
	return cd.Token
}

func (cd *CallableDeclaration) IsIntrinsic() bool { return cd.Body == nil }

// Signature returns the callable's type.
func (cd *CallableDeclaration) Signature() typesystem.TFunc {
	params := make([]typesystem.Type, len(cd.Parameters))
	for i, p := range cd.Parameters {
		params[i] = p.Type
	}
	return typesystem.TFunc{Params: params, ReturnType: cd.ReturnType, Operation: cd.Kind == OperationKind}
}

type Parameter struct {
	Token token.Token
	Name  *Identifier
	Type  typesystem.Type
}

func (p *Parameter) GetToken() token.Token {
	if p == nil {
		return token.Token{}
	}
	return p.Token
}

// BlockStatement is a braced sequence of statements. Its value is the
// value of the final expression statement when that statement has no
// trailing semicolon, Unit otherwise.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
	Ty         typesystem.Type
}

func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) expressionNode()       {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) Type() typesystem.Type { return orUnit(bs.Ty) }
func (bs *BlockStatement) GetToken() token.Token {
	if bs == nil {
		return token.Token{}
	}
	return bs.Token
}

// LetStatement binds a pattern: let x = v; mutable x = v;
type LetStatement struct {
	Token   token.Token
	Pattern Pattern
	Mutable bool
	Value   Expression
}

func (ls *LetStatement) statementNode()       {}
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Lexeme }
func (ls *LetStatement) GetToken() token.Token {
	if ls == nil {
		return token.Token{}
	}
	return ls.Token
}

// UseStatement allocates qubits for the rest of the enclosing block.
// use q = Qubit(); use qs = Qubit[n];
type UseStatement struct {
	Token token.Token
	Name  *Identifier
	Count Expression // nil for a single qubit
}

func (us *UseStatement) statementNode()       {}
func (us *UseStatement) TokenLiteral() string { return us.Token.Lexeme }
func (us *UseStatement) GetToken() token.Token {
	if us == nil {
		return token.Token{}
	}
	return us.Token
}

type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
	Semicolon  bool
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token {
	if es == nil {
		return token.Token{}
	}
	return es.Token
}

// Pattern is the left side of a let binding or a lambda parameter.
type Pattern interface {
	Node
	patternNode()
}

type IdentifierPattern struct {
	Token token.Token
	Value string
}

func (ip *IdentifierPattern) patternNode()         {}
func (ip *IdentifierPattern) TokenLiteral() string { return ip.Token.Lexeme }
func (ip *IdentifierPattern) GetToken() token.Token {
	if ip == nil {
		return token.Token{}
	}
	return ip.Token
}

type TuplePattern struct {
	Token    token.Token
	Elements []Pattern
}

func (tp *TuplePattern) patternNode()         {}
func (tp *TuplePattern) TokenLiteral() string { return tp.Token.Lexeme }
func (tp *TuplePattern) GetToken() token.Token {
	if tp == nil {
		return token.Token{}
	}
	return tp.Token
}

// WildcardPattern is _.
type WildcardPattern struct {
	Token token.Token
}

func (wp *WildcardPattern) patternNode()         {}
func (wp *WildcardPattern) TokenLiteral() string { return "_" }
func (wp *WildcardPattern) GetToken() token.Token {
	if wp == nil {
		return token.Token{}
	}
	return wp.Token
}

func orUnit(t typesystem.Type) typesystem.Type {
	if t == nil {
		return typesystem.Unit
	}
	return t
}
