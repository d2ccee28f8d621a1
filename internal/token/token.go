package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	IDENT  TokenType = "IDENT"
	INT    TokenType = "INT"
	FLOAT  TokenType = "FLOAT"
	STRING TokenType = "STRING"

	// Keywords of the typed input tree
	OPERATION TokenType = "operation"
	FUNCTION  TokenType = "function"
	LET       TokenType = "let"
	MUTABLE   TokenType = "mutable"
	SET       TokenType = "set"
	USE       TokenType = "use"
	IF        TokenType = "if"
	ELSE      TokenType = "else"
	FOR       TokenType = "for"
	WHILE     TokenType = "while"
	REPEAT    TokenType = "repeat"
	UNTIL     TokenType = "until"
	RETURN    TokenType = "return"
	FAIL      TokenType = "fail"
	TRUE      TokenType = "true"
	FALSE     TokenType = "false"
	ZERO      TokenType = "Zero"
	ONE       TokenType = "One"

	OPERATOR TokenType = "OPERATOR"
	LBRACKET TokenType = "["
	LPAREN   TokenType = "("
	LBRACE   TokenType = "{"
	RANGE    TokenType = ".."
	LAMBDA   TokenType = "=>"
)

// Token is the span attached to every input node and diagnostic.
type Token struct {
	Type   TokenType
	Lexeme string
	File   string
	Line   int
	Column int
}

// IsZero reports whether the token carries no position.
func (t Token) IsZero() bool {
	return t.Line == 0 && t.Column == 0 && t.File == ""
}

// Rebase returns the call-site span to report for an error raised inside
// code inlined from another file. The original lexeme is kept so messages
// still name the failing construct.
func (t Token) Rebase(site Token) Token {
	if site.IsZero() {
		return t
	}
	return Token{Type: t.Type, Lexeme: t.Lexeme, File: site.File, Line: site.Line, Column: site.Column}
}

func (t Token) String() string {
	if t.File != "" {
		return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
	}
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}
