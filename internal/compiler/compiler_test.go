package compiler

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirelogy/go-hd/internal/ast"
	"github.com/xirelogy/go-hd/internal/bytecode"
	"github.com/xirelogy/go-hd/internal/parser"
	"github.com/xirelogy/go-hd/internal/token"
	"github.com/xirelogy/go-hd/internal/value"
)

func compileSource(t *testing.T, src string) *Chunk {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	chunk, err := Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return chunk
}

func expectCode(t *testing.T, chunk *Chunk, expected []byte) {
	t.Helper()
	if len(chunk.Code) != len(expected) {
		t.Fatalf("expected code length %d, got %d", len(expected), len(chunk.Code))
	}
	for i, b := range expected {
		if chunk.Code[i] != b {
			t.Fatalf("byte %d expected %02x got %02x", i, b, chunk.Code[i])
		}
	}
}

func TestCompileNumber(t *testing.T) {
	chunk := compileSource(t, "1.2")
	expectCode(t, chunk, []byte{
		byte(OP_CONST), 0x00,
		byte(OP_RETURN),
	})
	require.Len(t, chunk.Constants, 1)
	assert.Equal(t, value.Number(1.2), chunk.Constants[0])
}

func TestCompileNegate(t *testing.T) {
	chunk := compileSource(t, "-1.2")
	expectCode(t, chunk, []byte{
		byte(OP_CONST), 0x00,
		byte(OP_NEG),
		byte(OP_RETURN),
	})
}

func TestCompilePrecedence(t *testing.T) {
	chunk := compileSource(t, "2 + 3 * 4 - 5 / 6")
	expectCode(t, chunk, []byte{
		byte(OP_CONST), 0x00,
		byte(OP_CONST), 0x01,
		byte(OP_CONST), 0x02,
		byte(OP_MUL),
		byte(OP_ADD),
		byte(OP_CONST), 0x03,
		byte(OP_CONST), 0x04,
		byte(OP_DIV),
		byte(OP_SUB),
		byte(OP_RETURN),
	})
	require.NoError(t, chunk.Validate())
}

func TestCompileGrouping(t *testing.T) {
	chunk := compileSource(t, "(2 + 3) * 4")
	expectCode(t, chunk, []byte{
		byte(OP_CONST), 0x00,
		byte(OP_CONST), 0x01,
		byte(OP_ADD),
		byte(OP_CONST), 0x02,
		byte(OP_MUL),
		byte(OP_RETURN),
	})
}

func TestCompileDeduplicatesConstants(t *testing.T) {
	chunk := compileSource(t, "1 + 1 * 1")
	require.Len(t, chunk.Constants, 1)
	expectCode(t, chunk, []byte{
		byte(OP_CONST), 0x00,
		byte(OP_CONST), 0x00,
		byte(OP_CONST), 0x00,
		byte(OP_MUL),
		byte(OP_ADD),
		byte(OP_RETURN),
	})
}

func TestCompileKeepsSignedZerosApart(t *testing.T) {
	prog := &ast.Program{
		Expr: &ast.BinaryExpr{
			Left:     &ast.NumberLiteral{Value: 0, LineNo: 1},
			Operator: token.Plus,
			Right:    &ast.NumberLiteral{Value: math.Copysign(0, -1), LineNo: 1},
			LineNo:   1,
		},
		EndLine: 1,
	}
	chunk, err := Compile(prog)
	require.NoError(t, err)
	require.Len(t, chunk.Constants, 2)
	assert.False(t, math.Signbit(chunk.Constants[0].Num))
	assert.True(t, math.Signbit(chunk.Constants[1].Num))
}

func TestCompileLines(t *testing.T) {
	chunk := compileSource(t, "1\n+\n2\n")
	assert.Equal(t, []int{1, 1, 3, 3, 2, 4}, chunk.Lines)
}

func TestCompileWideConstants(t *testing.T) {
	terms := make([]string, 300)
	for i := range terms {
		terms[i] = strconv.Itoa(i)
	}
	chunk := compileSource(t, strings.Join(terms, " + "))
	require.Len(t, chunk.Constants, 300)
	require.NoError(t, chunk.Validate())

	var long int
	for _, ins := range bytecode.Decode(chunk) {
		if ins.Op == byte(OP_CONST_LONG) {
			long++
			assert.GreaterOrEqual(t, ins.Operand, 256)
		}
	}
	assert.Equal(t, 300-256, long)
}

func TestCompileTooManyConstants(t *testing.T) {
	var expr ast.Expression = &ast.NumberLiteral{Value: 0, LineNo: 1}
	for i := 1; i <= bytecode.MaxConstants; i++ {
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: token.Plus,
			Right:    &ast.NumberLiteral{Value: float64(i), LineNo: 7},
			LineNo:   1,
		}
	}
	_, err := Compile(&ast.Program{Expr: expr, EndLine: 7})
	require.ErrorIs(t, err, bytecode.ErrTooManyConstants)
	var compErr *Error
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, 7, compErr.Line)
}

func TestCompileRejectsUnknownOperator(t *testing.T) {
	prog := &ast.Program{
		Expr: &ast.BinaryExpr{
			Left:     &ast.NumberLiteral{Value: 1, LineNo: 1},
			Operator: token.Less,
			Right:    &ast.NumberLiteral{Value: 2, LineNo: 1},
			LineNo:   3,
		},
	}
	_, err := Compile(prog)
	require.ErrorIs(t, err, ErrUnsupported)
	var compErr *Error
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, 3, compErr.Line)
}

func TestCompileNilProgram(t *testing.T) {
	_, err := Compile(nil)
	require.ErrorIs(t, err, ErrNilProgram)
	_, err = Compile(&ast.Program{})
	require.ErrorIs(t, err, ErrNilProgram)
}

func TestCompileLeftAssociativeChain(t *testing.T) {
	chunk := compileSource(t, "10 - 2 - 3")
	expectCode(t, chunk, []byte{
		byte(OP_CONST), 0x00,
		byte(OP_CONST), 0x01,
		byte(OP_SUB),
		byte(OP_CONST), 0x02,
		byte(OP_SUB),
		byte(OP_RETURN),
	})
}

func TestCompileLongChain(t *testing.T) {
	const n = 200000
	var expr ast.Expression = &ast.NumberLiteral{Value: 1, LineNo: 1}
	for i := 0; i < n; i++ {
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: token.Minus,
			Right:    &ast.NumberLiteral{Value: 2, LineNo: 1},
			LineNo:   1,
		}
	}
	chunk, err := Compile(&ast.Program{Expr: expr, EndLine: 1})
	require.NoError(t, err)
	require.Len(t, chunk.Constants, 2)
	assert.Equal(t, 2+3*n+1, chunk.Len())
	assert.Equal(t, byte(OP_SUB), chunk.Code[chunk.Len()-2])
	require.NoError(t, chunk.Validate())
}
