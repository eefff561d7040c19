package ast

import (
	"strconv"

	"github.com/xirelogy/go-hd/internal/token"
)

// Node represents any AST node.
type Node interface {
	// Line is the source line of the token that starts the node.
	Line() int
	String() string
}

// Expression produces a value.
type Expression interface {
	Node
	exprNode()
}

// Program is the root node: a single expression.
type Program struct {
	Expr Expression
	// EndLine is the line of the EOF token.
	EndLine int
}

func (p *Program) Line() int {
	if p.Expr == nil {
		return p.EndLine
	}
	return p.Expr.Line()
}

func (p *Program) String() string {
	if p.Expr == nil {
		return ""
	}
	return p.Expr.String()
}

type NumberLiteral struct {
	Value   float64
	Literal string
	LineNo  int
}

func (n *NumberLiteral) Line() int { return n.LineNo }
func (n *NumberLiteral) String() string {
	if n.Literal != "" {
		return n.Literal
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}
func (n *NumberLiteral) exprNode() {}

type UnaryExpr struct {
	Operator token.Type
	Right    Expression
	LineNo   int
}

func (u *UnaryExpr) Line() int      { return u.LineNo }
func (u *UnaryExpr) String() string { return "(" + symbol(u.Operator) + u.Right.String() + ")" }
func (u *UnaryExpr) exprNode()      {}

type BinaryExpr struct {
	Left     Expression
	Operator token.Type
	Right    Expression
	// LineNo is the line of the operator token.
	LineNo int
}

func (b *BinaryExpr) Line() int { return b.LineNo }
func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + symbol(b.Operator) + " " + b.Right.String() + ")"
}
func (b *BinaryExpr) exprNode() {}

func symbol(t token.Type) string {
	switch t {
	case token.Plus:
		return "+"
	case token.Minus:
		return "-"
	case token.Asterisk:
		return "*"
	case token.Slash:
		return "/"
	default:
		return string(t)
	}
}
