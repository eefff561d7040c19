package bytecode

import (
	"errors"
	"fmt"
)

// OpCode enumerates bytecode operations.
// Discriminants are part of the chunk format and must stay stable.
type OpCode byte

const (
	OP_CONST OpCode = iota
	OP_NEG
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_RETURN
	OP_CONST_LONG
)

// ErrUnknownOpcode reports a byte that is not an OpCode discriminant.
var ErrUnknownOpcode = errors.New("unknown opcode")

type opInfo struct {
	name     string
	operands int
}

var opTable = [...]opInfo{
	OP_CONST:      {"OP_CONST", 1},
	OP_NEG:        {"OP_NEG", 0},
	OP_ADD:        {"OP_ADD", 0},
	OP_SUB:        {"OP_SUB", 0},
	OP_MUL:        {"OP_MUL", 0},
	OP_DIV:        {"OP_DIV", 0},
	OP_RETURN:     {"OP_RETURN", 0},
	OP_CONST_LONG: {"OP_CONST_LONG", 2},
}

// DecodeOp converts a raw code byte into an OpCode.
func DecodeOp(b byte) (OpCode, error) {
	if int(b) >= len(opTable) {
		return 0, fmt.Errorf("%w 0x%02X", ErrUnknownOpcode, b)
	}
	return OpCode(b), nil
}

// OperandWidth is the number of operand bytes following the opcode byte.
func (op OpCode) OperandWidth() int {
	if int(op) >= len(opTable) {
		return 0
	}
	return opTable[op].operands
}

// Width is the total encoded size of the instruction.
func (op OpCode) Width() int {
	return 1 + op.OperandWidth()
}

func (op OpCode) String() string {
	if int(op) >= len(opTable) {
		return fmt.Sprintf("OP_0x%02X", byte(op))
	}
	return opTable[op].name
}
