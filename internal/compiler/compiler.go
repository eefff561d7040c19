package compiler

import (
	"errors"
	"fmt"
	"math"

	"github.com/xirelogy/go-hd/internal/ast"
	"github.com/xirelogy/go-hd/internal/bytecode"
	"github.com/xirelogy/go-hd/internal/token"
	"github.com/xirelogy/go-hd/internal/value"
)

var (
	ErrNilProgram  = errors.New("nil program")
	ErrUnsupported = errors.New("unsupported expression")
)

// Error is a code generation failure at a source line.
type Error struct {
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compile lowers a parsed program into a chunk that leaves the program's
// value on the stack and ends with OP_RETURN.
func Compile(prog *ast.Program) (*Chunk, error) {
	if prog == nil || prog.Expr == nil {
		return nil, &Error{Err: ErrNilProgram}
	}
	c := &compiler{
		chunk:     bytecode.NewChunk(),
		constants: make(map[uint64]int),
	}

	if err := c.compileExpr(prog.Expr); err != nil {
		return nil, err
	}

	c.setLine(prog.EndLine)
	c.emitByte(OP_RETURN)
	return c.chunk, nil
}

type compiler struct {
	chunk *Chunk
	line  int
	// constants maps a float's bit pattern to its pool index
	constants map[uint64]int
}

func (c *compiler) setLine(line int) {
	c.line = line
}

func (c *compiler) emitByte(op bytecode.OpCode) {
	c.chunk.WriteOp(op, c.line)
}

func (c *compiler) compileExpr(expr ast.Expression) error {
	c.setLine(expr.Line())
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return c.emitConst(e.Value)
	case *ast.UnaryExpr:
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.setLine(e.LineNo)
		switch e.Operator {
		case token.Minus:
			c.emitByte(OP_NEG)
		default:
			return c.unsupported(e.LineNo, "unary operator %s", e.Operator)
		}
	case *ast.BinaryExpr:
		return c.compileBinary(e)
	default:
		return c.unsupported(expr.Line(), "expression type %T", expr)
	}
	return nil
}

// compileBinary walks the left spine iteratively, so an operator chain of
// any length costs one level of recursion.
func (c *compiler) compileBinary(e *ast.BinaryExpr) error {
	spine := []*ast.BinaryExpr{e}
	left := e.Left
	for {
		b, ok := left.(*ast.BinaryExpr)
		if !ok {
			break
		}
		spine = append(spine, b)
		left = b.Left
	}
	if err := c.compileExpr(left); err != nil {
		return err
	}
	for i := len(spine) - 1; i >= 0; i-- {
		b := spine[i]
		if err := c.compileExpr(b.Right); err != nil {
			return err
		}
		c.setLine(b.LineNo)
		switch b.Operator {
		case token.Plus:
			c.emitByte(OP_ADD)
		case token.Minus:
			c.emitByte(OP_SUB)
		case token.Asterisk:
			c.emitByte(OP_MUL)
		case token.Slash:
			c.emitByte(OP_DIV)
		default:
			return c.unsupported(b.LineNo, "binary operator %s", b.Operator)
		}
	}
	return nil
}

// emitConst reuses the pool slot of a bit-identical number, so 0 and -0
// stay distinct and NaN payloads are preserved.
func (c *compiler) emitConst(n float64) error {
	bits := math.Float64bits(n)
	idx, ok := c.constants[bits]
	if !ok {
		var err error
		idx, err = c.chunk.AddConstant(value.Number(n))
		if err != nil {
			return &Error{Line: c.line, Err: err}
		}
		c.constants[bits] = idx
	}
	c.chunk.WriteConstantRef(idx, c.line)
	return nil
}

func (c *compiler) unsupported(line int, format string, args ...any) error {
	return &Error{Line: line, Err: fmt.Errorf("%w: "+format, append([]any{ErrUnsupported}, args...)...)}
}
