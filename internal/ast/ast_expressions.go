package ast

import (
	"github.com/funvibe/qirlower/internal/token"
	"github.com/funvibe/qirlower/internal/typesystem"
)

// Operators of InfixExpression and PrefixExpression.
const (
	OpAdd  = "+"
	OpSub  = "-"
	OpMul  = "*"
	OpDiv  = "/"
	OpMod  = "%"
	OpExp  = "^"
	OpAndB = "&&&"
	OpOrB  = "|||"
	OpXorB = "^^^"
	OpShl  = "<<<"
	OpShr  = ">>>"
	OpEq   = "=="
	OpNeq  = "!="
	OpLt   = "<"
	OpLte  = "<="
	OpGt   = ">"
	OpGte  = ">="
	OpAndL = "and"
	OpOrL  = "or"
	OpNotL = "not"
	OpNotB = "~~~"
	OpNeg  = "-"
	OpPos  = "+"
)

type Identifier struct {
	Token token.Token
	Value string
	Ty    typesystem.Type
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) Type() typesystem.Type { return orUnit(i.Ty) }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}

// GlobalReference names a top-level callable.
type GlobalReference struct {
	Token token.Token
	Name  string
	Ty    typesystem.Type
}

func (g *GlobalReference) expressionNode()       {}
func (g *GlobalReference) TokenLiteral() string  { return g.Token.Lexeme }
func (g *GlobalReference) Type() typesystem.Type { return orUnit(g.Ty) }
func (g *GlobalReference) GetToken() token.Token {
	if g == nil {
		return token.Token{}
	}
	return g.Token
}

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) Type() typesystem.Type { return typesystem.Int }
func (il *IntegerLiteral) GetToken() token.Token {
	if il == nil {
		return token.Token{}
	}
	return il.Token
}

type DoubleLiteral struct {
	Token token.Token
	Value float64
}

func (dl *DoubleLiteral) expressionNode()       {}
func (dl *DoubleLiteral) TokenLiteral() string  { return dl.Token.Lexeme }
func (dl *DoubleLiteral) Type() typesystem.Type { return typesystem.Double }
func (dl *DoubleLiteral) GetToken() token.Token {
	if dl == nil {
		return token.Token{}
	}
	return dl.Token
}

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()       {}
func (b *BooleanLiteral) TokenLiteral() string  { return b.Token.Lexeme }
func (b *BooleanLiteral) Type() typesystem.Type { return typesystem.Bool }
func (b *BooleanLiteral) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// ResultLiteral is Zero or One.
type ResultLiteral struct {
	Token token.Token
	One   bool
}

func (rl *ResultLiteral) expressionNode()       {}
func (rl *ResultLiteral) TokenLiteral() string  { return rl.Token.Lexeme }
func (rl *ResultLiteral) Type() typesystem.Type { return typesystem.Result }
func (rl *ResultLiteral) GetToken() token.Token {
	if rl == nil {
		return token.Token{}
	}
	return rl.Token
}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) Type() typesystem.Type { return typesystem.String }
func (sl *StringLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

// UnitLiteral is ().
type UnitLiteral struct {
	Token token.Token
}

func (ul *UnitLiteral) expressionNode()       {}
func (ul *UnitLiteral) TokenLiteral() string  { return "()" }
func (ul *UnitLiteral) Type() typesystem.Type { return typesystem.Unit }
func (ul *UnitLiteral) GetToken() token.Token {
	if ul == nil {
		return token.Token{}
	}
	return ul.Token
}

type TupleLiteral struct {
	Token    token.Token
	Elements []Expression
	Ty       typesystem.Type
}

func (tl *TupleLiteral) expressionNode()      {}
func (tl *TupleLiteral) TokenLiteral() string { return tl.Token.Lexeme }
func (tl *TupleLiteral) Type() typesystem.Type {
	if tl.Ty != nil {
		return tl.Ty
	}
	elems := make([]typesystem.Type, len(tl.Elements))
	for i, el := range tl.Elements {
		elems[i] = el.Type()
	}
	return typesystem.TTuple{Elements: elems}
}
func (tl *TupleLiteral) GetToken() token.Token {
	if tl == nil {
		return token.Token{}
	}
	return tl.Token
}

type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
	Ty       typesystem.Type
}

func (al *ArrayLiteral) expressionNode()       {}
func (al *ArrayLiteral) TokenLiteral() string  { return al.Token.Lexeme }
func (al *ArrayLiteral) Type() typesystem.Type { return orUnit(al.Ty) }
func (al *ArrayLiteral) GetToken() token.Token {
	if al == nil {
		return token.Token{}
	}
	return al.Token
}

// ArrayRepeat is [value, size = n].
type ArrayRepeat struct {
	Token token.Token
	Value Expression
	Size  Expression
	Ty    typesystem.Type
}

func (ar *ArrayRepeat) expressionNode()       {}
func (ar *ArrayRepeat) TokenLiteral() string  { return ar.Token.Lexeme }
func (ar *ArrayRepeat) Type() typesystem.Type { return orUnit(ar.Ty) }
func (ar *ArrayRepeat) GetToken() token.Token {
	if ar == nil {
		return token.Token{}
	}
	return ar.Token
}

type IndexExpression struct {
	Token token.Token
	Left  Expression
	Index Expression
	Ty    typesystem.Type
}

func (ie *IndexExpression) expressionNode()       {}
func (ie *IndexExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IndexExpression) Type() typesystem.Type { return orUnit(ie.Ty) }
func (ie *IndexExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// RangeExpression is start..end or start..step..end, inclusive of end.
// RangeExpression is start..step..end. A nil Start or End leaves that bound
// open; open ranges only make sense as array slices.
type RangeExpression struct {
	Token token.Token
	Start Expression
	Step  Expression // nil means 1
	End   Expression
}

func (re *RangeExpression) expressionNode()       {}
func (re *RangeExpression) TokenLiteral() string  { return re.Token.Lexeme }
func (re *RangeExpression) Type() typesystem.Type { return typesystem.Range }
func (re *RangeExpression) GetToken() token.Token {
	if re == nil {
		return token.Token{}
	}
	return re.Token
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
	Ty       typesystem.Type
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PrefixExpression) Type() typesystem.Type {
	if pe.Ty != nil {
		return pe.Ty
	}
	return pe.Right.Type()
}
func (pe *PrefixExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
	Ty       typesystem.Type
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *InfixExpression) Type() typesystem.Type {
	if ie.Ty != nil {
		return ie.Ty
	}
	switch ie.Operator {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpAndL, OpOrL:
		return typesystem.Bool
	}
	return ie.Left.Type()
}
func (ie *InfixExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

type CallExpression struct {
	Token     token.Token
	Function  Expression
	Arguments []Expression
	Ty        typesystem.Type
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) Type() typesystem.Type { return orUnit(ce.Ty) }
func (ce *CallExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// IfExpression covers if/elif/else. Alternative is nil, a *BlockStatement,
// or another *IfExpression for elif.
type IfExpression struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Expression
	Ty          typesystem.Type
}

func (ie *IfExpression) expressionNode()       {}
func (ie *IfExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IfExpression) Type() typesystem.Type { return orUnit(ie.Ty) }
func (ie *IfExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// ForExpression iterates over a range or an array.
type ForExpression struct {
	Token    token.Token
	Pattern  Pattern
	Iterable Expression
	Body     *BlockStatement
}

func (fe *ForExpression) expressionNode()       {}
func (fe *ForExpression) TokenLiteral() string  { return fe.Token.Lexeme }
func (fe *ForExpression) Type() typesystem.Type { return typesystem.Unit }
func (fe *ForExpression) GetToken() token.Token {
	if fe == nil {
		return token.Token{}
	}
	return fe.Token
}

type WhileExpression struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (we *WhileExpression) expressionNode()       {}
func (we *WhileExpression) TokenLiteral() string  { return we.Token.Lexeme }
func (we *WhileExpression) Type() typesystem.Type { return typesystem.Unit }
func (we *WhileExpression) GetToken() token.Token {
	if we == nil {
		return token.Token{}
	}
	return we.Token
}

// RepeatExpression is repeat { Body } until Condition fixup { Fixup }.
// The condition is evaluated in the scope of the body.
type RepeatExpression struct {
	Token     token.Token
	Body      *BlockStatement
	Condition Expression
	Fixup     *BlockStatement
}

func (re *RepeatExpression) expressionNode()       {}
func (re *RepeatExpression) TokenLiteral() string  { return re.Token.Lexeme }
func (re *RepeatExpression) Type() typesystem.Type { return typesystem.Unit }
func (re *RepeatExpression) GetToken() token.Token {
	if re == nil {
		return token.Token{}
	}
	return re.Token
}

// AssignExpression is set x = v, or set x op= v when Operator is non-empty.
type AssignExpression struct {
	Token    token.Token
	Name     *Identifier
	Operator string
	Value    Expression
}

func (ae *AssignExpression) expressionNode()       {}
func (ae *AssignExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AssignExpression) Type() typesystem.Type { return typesystem.Unit }
func (ae *AssignExpression) GetToken() token.Token {
	if ae == nil {
		return token.Token{}
	}
	return ae.Token
}

// AssignIndexExpression is set a w/= i <- v.
type AssignIndexExpression struct {
	Token token.Token
	Name  *Identifier
	Index Expression
	Value Expression
}

func (ai *AssignIndexExpression) expressionNode()       {}
func (ai *AssignIndexExpression) TokenLiteral() string  { return ai.Token.Lexeme }
func (ai *AssignIndexExpression) Type() typesystem.Type { return typesystem.Unit }
func (ai *AssignIndexExpression) GetToken() token.Token {
	if ai == nil {
		return token.Token{}
	}
	return ai.Token
}

type ReturnExpression struct {
	Token token.Token
	Value Expression
}

func (re *ReturnExpression) expressionNode()       {}
func (re *ReturnExpression) TokenLiteral() string  { return re.Token.Lexeme }
func (re *ReturnExpression) Type() typesystem.Type { return typesystem.Unit }
func (re *ReturnExpression) GetToken() token.Token {
	if re == nil {
		return token.Token{}
	}
	return re.Token
}

type FailExpression struct {
	Token   token.Token
	Message Expression
}

func (fe *FailExpression) expressionNode()       {}
func (fe *FailExpression) TokenLiteral() string  { return fe.Token.Lexeme }
func (fe *FailExpression) Type() typesystem.Type { return typesystem.Unit }
func (fe *FailExpression) GetToken() token.Token {
	if fe == nil {
		return token.Token{}
	}
	return fe.Token
}

// FunctionLiteral is a lambda: (x, y) -> x + y or q => H(q).
type FunctionLiteral struct {
	Token      token.Token
	Parameters []*Parameter
	Body       Expression
	Operation  bool
	Ty         typesystem.Type
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FunctionLiteral) Type() typesystem.Type {
	if fl.Ty != nil {
		return fl.Ty
	}
	params := make([]typesystem.Type, len(fl.Parameters))
	for i, p := range fl.Parameters {
		params[i] = p.Type
	}
	return typesystem.TFunc{Params: params, ReturnType: fl.Body.Type(), Operation: fl.Operation}
}
func (fl *FunctionLiteral) GetToken() token.Token {
	if fl == nil {
		return token.Token{}
	}
	return fl.Token
}
