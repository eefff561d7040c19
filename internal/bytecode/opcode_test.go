package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOpStableDiscriminants(t *testing.T) {
	want := map[byte]OpCode{
		0: OP_CONST,
		1: OP_NEG,
		2: OP_ADD,
		3: OP_SUB,
		4: OP_MUL,
		5: OP_DIV,
		6: OP_RETURN,
		7: OP_CONST_LONG,
	}
	for b, op := range want {
		got, err := DecodeOp(b)
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
}

func TestDecodeOpRejectsUnknownBytes(t *testing.T) {
	for b := 8; b < 256; b++ {
		_, err := DecodeOp(byte(b))
		assert.ErrorIs(t, err, ErrUnknownOpcode)
	}
}

func TestOpWidths(t *testing.T) {
	assert.Equal(t, 2, OP_CONST.Width())
	assert.Equal(t, 3, OP_CONST_LONG.Width())
	for _, op := range []OpCode{OP_NEG, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_RETURN} {
		assert.Equal(t, 1, op.Width(), op.String())
		assert.Equal(t, 0, op.OperandWidth(), op.String())
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "OP_CONST", OP_CONST.String())
	assert.Equal(t, "OP_DIV", OP_DIV.String())
	assert.Equal(t, "OP_0x99", OpCode(0x99).String())
}
