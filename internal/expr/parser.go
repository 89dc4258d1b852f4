package expr

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed query. It is the only error kind Parse
// returns; callers surface it as an "invalid query" failure.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokOp
	tokValue
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse parses a query string into an Expression. On any syntax violation it
// returns a *SyntaxError and no partial tree.
func Parse(input string) (Expression, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
	return e, nil
}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(input) && input[i+1] == '=' {
				op += "="
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		case c == '=':
			tokens = append(tokens, token{kind: tokOp, text: "=", pos: i})
			i++
		case c == '!':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, &SyntaxError{Pos: i, Msg: "unknown operator \"!\""}
			}
			tokens = append(tokens, token{kind: tokOp, text: "!=", pos: i})
			i += 2
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(input) && input[j] != quote {
				j++
			}
			if j >= len(input) {
				return nil, &SyntaxError{Pos: i, Msg: "unterminated string literal"}
			}
			tokens = append(tokens, token{kind: tokValue, text: input[i+1 : j], pos: i})
			i = j + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(input) && isIdentPart(input[j]) {
				j++
			}
			word := input[i:j]
			kind := tokIdent
			switch strings.ToLower(word) {
			case "and":
				kind = tokAnd
			case "or":
				kind = tokOr
			case "not":
				kind = tokNot
			}
			tokens = append(tokens, token{kind: kind, text: word, pos: i})
			i = j
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", string(c))}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, text: "", pos: len(input)})
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// parser is a recursive-descent parser with the standard precedence: "not"
// binds tightest, then "and", then "or".
type parser struct {
	tokens []token
	next   int
}

func (p *parser) peek() token {
	return p.tokens[p.next]
}

func (p *parser) advance() token {
	tok := p.tokens[p.next]
	if tok.kind != tokEOF {
		p.next++
	}
	return tok
}

func (p *parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Left: left, Op: "or", Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Left: left, Op: "and", Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	if p.peek().kind == tokNot {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Negation{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	tok := p.peek()
	switch tok.kind {
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: "expected \")\""}
		}
		return inner, nil
	case tokIdent:
		return p.parseComparison()
	case tokEOF:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of query"}
	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
}

func (p *parser) parseComparison() (Expression, error) {
	variable := p.advance()
	op := p.advance()
	if op.kind != tokOp {
		return nil, &SyntaxError{Pos: op.pos, Msg: fmt.Sprintf("expected comparison operator, got %q", op.text)}
	}
	value := p.advance()
	if value.kind != tokValue {
		return nil, &SyntaxError{Pos: value.pos, Msg: fmt.Sprintf("expected quoted value, got %q", value.text)}
	}
	return &Comparison{Variable: variable.text, Operator: op.text, Value: value.text}, nil
}
