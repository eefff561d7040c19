package parser

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-hd/internal/ast"
	"github.com/xirelogy/go-hd/internal/lexer"
	"github.com/xirelogy/go-hd/internal/token"
)

// ErrSyntax classifies every grammar failure reported by the parser.
var ErrSyntax = errors.New("syntax error")

// Error is a grammar failure at a source line.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrSyntax
}

// Parser is a Pratt parser over the lexer's token stream.
// It stops at the first lexical or syntax error.
type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	err       error
	depth     int
}

// maxDepth bounds nesting of parentheses and unary operators.
const maxDepth = 1024

// New returns a parser positioned at the first token of l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Read two tokens, so curToken and peekToken are set
	p.nextToken()
	p.nextToken()
	return p
}

// Parse is a convenience over New and ParseProgram.
func Parse(src []byte) (*ast.Program, error) {
	return New(lexer.New(src)).ParseProgram()
}

// ParseProgram parses a single expression followed by end of input.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	if p.err != nil {
		return nil, p.err
	}
	prog := &ast.Program{}
	prog.Expr = p.parseExpression(lowest)
	if p.err != nil {
		return nil, p.err
	}
	if !p.expectPeek(token.EOF) {
		p.errorf(p.peekToken.Line, "unexpected %s after expression", describe(p.peekToken))
		return nil, p.err
	}
	p.nextToken()
	prog.EndLine = p.curToken.Line
	return prog, nil
}

func (p *Parser) nextToken() {
	if p.err != nil {
		return
	}
	p.curToken = p.peekToken
	tok, err := p.l.NextToken()
	if err != nil {
		p.err = err
		return
	}
	p.peekToken = tok
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		p.errorf(p.curToken.Line, "expression nested too deeply")
		return nil
	}

	var left ast.Expression

	switch p.curToken.Type {
	case token.Num:
		left = &ast.NumberLiteral{Value: p.curToken.Num, Literal: p.curToken.Literal, LineNo: p.curToken.Line}
	case token.LParen:
		p.nextToken()
		left = p.parseExpression(lowest)
		if left == nil {
			return nil
		}
		if !p.expectPeek(token.RParen) {
			p.errorf(p.peekToken.Line, "expected ')' but found %s", describe(p.peekToken))
			return nil
		}
		p.nextToken()
	case token.Minus:
		left = p.parsePrefixExpression()
	case token.EOF:
		p.errorf(p.curToken.Line, "expected expression")
		return nil
	default:
		p.errorf(p.curToken.Line, "unsupported %s", describe(p.curToken))
		return nil
	}

	if left == nil || p.err != nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		p.nextToken()
		left = p.parseInfixExpression(left)
		if left == nil || p.err != nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.UnaryExpr{
		Operator: p.curToken.Type,
		LineNo:   p.curToken.Line,
	}
	p.nextToken()
	expr.Right = p.parseExpression(prefixPrecedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.BinaryExpr{
		Left:     left,
		Operator: p.curToken.Type,
		LineNo:   p.curToken.Line,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) expectPeek(t token.Type) bool {
	return p.err == nil && p.peekToken.Type == t
}

func (p *Parser) peekPrecedence() int {
	if p.err != nil {
		return lowest
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) errorf(line int, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.Identifier, token.Num, token.Str:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	if token.IsKeyword(tok.Type) {
		return fmt.Sprintf("keyword %q", tok.Literal)
	}
	return string(tok.Type)
}

const (
	lowest = iota + 1
	sumPrecedence
	productPrecedence
	prefixPrecedence
)

var precedences = map[token.Type]int{
	token.Plus:     sumPrecedence,
	token.Minus:    sumPrecedence,
	token.Asterisk: productPrecedence,
	token.Slash:    productPrecedence,
}
