package bytecode

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-hd/internal/value"
)

// MaxConstants is the constant pool capacity addressable by OP_CONST_LONG.
const MaxConstants = 1 << 16

// maxShortConstant is the last index OP_CONST can address.
const maxShortConstant = 0xFF

var (
	ErrTooManyConstants  = errors.New("too many constants in one chunk")
	ErrLineTableMismatch = errors.New("line table length differs from code length")
	ErrTruncatedOperand  = errors.New("truncated operand")
	ErrConstantIndex     = errors.New("constant index out of range")
)

// Chunk is a compiled bytecode sequence with its line table and constant pool.
// Lines[i] is the source line that produced Code[i].
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// ChunkError locates the first invariant violation found by Validate.
type ChunkError struct {
	Offset int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("offset %04d: %v", e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// NewChunk returns an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Lines:     make([]int, 0, 64),
		Constants: make([]value.Value, 0, 8),
	}
}

// Write appends a code byte together with its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index.
// The caller emits the index as the operand of a constant instruction.
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	if len(c.Constants) >= MaxConstants {
		return 0, fmt.Errorf("%w (limit %d)", ErrTooManyConstants, MaxConstants)
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// WriteConstant adds v to the pool and emits the narrowest instruction that loads it.
func (c *Chunk) WriteConstant(v value.Value, line int) (int, error) {
	idx, err := c.AddConstant(v)
	if err != nil {
		return 0, err
	}
	c.WriteConstantRef(idx, line)
	return idx, nil
}

// WriteConstantRef emits a load of an existing pool index.
// An index outside the pool is a caller bug and panics.
func (c *Chunk) WriteConstantRef(idx int, line int) {
	if idx < 0 || idx >= len(c.Constants) {
		panic(fmt.Sprintf("bytecode: constant index %d out of range [0,%d)", idx, len(c.Constants)))
	}
	if idx <= maxShortConstant {
		c.WriteOp(OP_CONST, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOp(OP_CONST_LONG, line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx), line)
}

// Len is the number of code bytes.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// CodeAt returns the code byte at offset i. Out of range is a caller bug.
func (c *Chunk) CodeAt(i int) byte {
	if i < 0 || i >= len(c.Code) {
		panic(fmt.Sprintf("bytecode: code offset %d out of range [0,%d)", i, len(c.Code)))
	}
	return c.Code[i]
}

// ConstantAt returns the constant at index i. Out of range is a caller bug.
func (c *Chunk) ConstantAt(i int) value.Value {
	if i < 0 || i >= len(c.Constants) {
		panic(fmt.Sprintf("bytecode: constant index %d out of range [0,%d)", i, len(c.Constants)))
	}
	return c.Constants[i]
}

// LineAt returns the source line for a code offset, or 0 when unknown.
func (c *Chunk) LineAt(i int) int {
	if i < 0 || i >= len(c.Lines) {
		return 0
	}
	return c.Lines[i]
}

// Validate walks the chunk by opcode width and reports the first broken invariant.
func (c *Chunk) Validate() error {
	if len(c.Lines) != len(c.Code) {
		return &ChunkError{Offset: 0, Err: fmt.Errorf("%w: %d lines, %d bytes", ErrLineTableMismatch, len(c.Lines), len(c.Code))}
	}
	for off := 0; off < len(c.Code); {
		op, err := DecodeOp(c.Code[off])
		if err != nil {
			return &ChunkError{Offset: off, Err: err}
		}
		if off+op.Width() > len(c.Code) {
			return &ChunkError{Offset: off, Err: fmt.Errorf("%w for %s", ErrTruncatedOperand, op)}
		}
		switch op {
		case OP_CONST, OP_CONST_LONG:
			idx := constOperand(c.Code, off, op)
			if idx >= len(c.Constants) {
				return &ChunkError{Offset: off, Err: fmt.Errorf("%w: %d >= %d", ErrConstantIndex, idx, len(c.Constants))}
			}
		}
		off += op.Width()
	}
	return nil
}

// constOperand reads the pool index of a constant instruction at off.
// The caller has checked that the operand bytes are present.
func constOperand(code []byte, off int, op OpCode) int {
	if op == OP_CONST_LONG {
		return int(code[off+1])<<8 | int(code[off+2])
	}
	return int(code[off+1])
}
