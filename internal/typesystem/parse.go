package typesystem

import (
	"fmt"
	"strings"
)

// ParseType reads the textual form produced by String:
//
//	Int  Qubit[]  (Int, Bool)  (Qubit => Result)  (Int[] -> Int)
func ParseType(src string) (Type, error) {
	p := &typeParser{src: strings.TrimSpace(src)}
	t, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", src, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: unexpected %q at %d", src, p.src[p.pos:], p.pos)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek(s string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *typeParser) eat(s string) bool {
	if p.peek(s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *typeParser) parse() (Type, error) {
	var t Type
	var err error
	if p.eat("(") {
		t, err = p.parseParen()
	} else {
		t, err = p.parseName()
	}
	if err != nil {
		return nil, err
	}
	for p.eat("[]") {
		t = TArray{Elem: t}
	}
	return t, nil
}

func (p *typeParser) parseName() (Type, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			break
		}
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return nil, fmt.Errorf("expected type name at %d", start)
	}
	if c, ok := primitives[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown type %s", name)
}

// parseParen handles tuples and callable types after the opening paren.
func (p *typeParser) parseParen() (Type, error) {
	var elems []Type
	trailingComma := false
	if !p.peek(")") {
		for {
			el, err := p.parse()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if p.eat(",") {
				trailingComma = true
				if p.peek(")") {
					break
				}
				trailingComma = false
				continue
			}
			break
		}
	}

	if p.peek("->") || p.peek("=>") {
		op := p.eat("=>")
		if !op {
			p.eat("->")
		}
		ret, err := p.parse()
		if err != nil {
			return nil, err
		}
		if !p.eat(")") {
			return nil, fmt.Errorf("expected ) at %d", p.pos)
		}
		return TFunc{Params: flattenParams(elems, trailingComma), ReturnType: ret, Operation: op}, nil
	}

	if !p.eat(")") {
		return nil, fmt.Errorf("expected ) at %d", p.pos)
	}
	if len(elems) == 0 {
		return Unit, nil
	}
	if len(elems) == 1 && !trailingComma {
		return elems[0], nil
	}
	return TTuple{Elements: elems}, nil
}

// flattenParams turns ((A, B) -> C) into a two-parameter callable.
func flattenParams(elems []Type, trailingComma bool) []Type {
	if len(elems) == 1 && !trailingComma {
		if tt, ok := elems[0].(TTuple); ok {
			return tt.Elements
		}
		if IsUnit(elems[0]) {
			return nil
		}
	}
	return elems
}
