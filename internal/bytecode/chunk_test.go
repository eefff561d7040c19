package bytecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirelogy/go-hd/internal/value"
)

func TestChunkWriteKeepsLinesAligned(t *testing.T) {
	c := NewChunk()
	c.Write(byte(OP_CONST), 1)
	c.Write(0, 1)
	c.WriteOp(OP_RETURN, 7)

	assert.Equal(t, []byte{byte(OP_CONST), 0, byte(OP_RETURN)}, c.Code)
	assert.Equal(t, []int{1, 1, 7}, c.Lines)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 7, c.LineAt(2))
	assert.Equal(t, 0, c.LineAt(3))
}

func TestAddConstantAppends(t *testing.T) {
	c := NewChunk()
	i, err := c.AddConstant(value.Number(1))
	require.NoError(t, err)
	j, err := c.AddConstant(value.Number(1))
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, 1, j)
	assert.Len(t, c.Constants, 2)
}

func TestAddConstantLimit(t *testing.T) {
	c := &Chunk{Constants: make([]value.Value, MaxConstants)}
	_, err := c.AddConstant(value.Number(0))
	assert.ErrorIs(t, err, ErrTooManyConstants)
	assert.Len(t, c.Constants, MaxConstants)
}

func TestWriteConstantPicksWidth(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 256; i++ {
		_, err := c.AddConstant(value.Number(float64(i)))
		require.NoError(t, err)
	}
	c.WriteConstantRef(255, 1)
	idx, err := c.WriteConstant(value.Number(-1), 2)
	require.NoError(t, err)
	assert.Equal(t, 256, idx)

	assert.Equal(t, []byte{
		byte(OP_CONST), 0xFF,
		byte(OP_CONST_LONG), 0x01, 0x00,
	}, c.Code)
	assert.Equal(t, []int{1, 1, 2, 2, 2}, c.Lines)
	require.NoError(t, c.Validate())
}

func TestAccessorsPanicOutOfRange(t *testing.T) {
	c := buildChunk(t)
	assert.Equal(t, byte(OP_CONST), c.CodeAt(0))
	assert.Equal(t, value.Number(1.2), c.ConstantAt(0))
	assert.Panics(t, func() { c.CodeAt(c.Len()) })
	assert.Panics(t, func() { c.CodeAt(-1) })
	assert.Panics(t, func() { c.ConstantAt(1) })
}

func TestWriteConstantRefPanicsOutOfRange(t *testing.T) {
	c := NewChunk()
	_, err := c.AddConstant(value.Number(42))
	require.NoError(t, err)

	assert.Panics(t, func() { c.WriteConstantRef(MaxConstants, 1) })
	assert.Panics(t, func() { c.WriteConstantRef(1, 1) })
	assert.Panics(t, func() { c.WriteConstantRef(-1, 1) })
	assert.Empty(t, c.Code)
	assert.Empty(t, c.Lines)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		chunk  *Chunk
		want   error
		offset int
	}{
		{
			name:  "valid",
			chunk: &Chunk{Code: []byte{0, 0, 6}, Lines: []int{1, 1, 1}, Constants: []value.Value{value.Number(1)}},
		},
		{
			name:  "line mismatch",
			chunk: &Chunk{Code: []byte{6}, Lines: nil},
			want:  ErrLineTableMismatch,
		},
		{
			name:   "unknown opcode",
			chunk:  &Chunk{Code: []byte{6, 0x42}, Lines: []int{1, 1}},
			want:   ErrUnknownOpcode,
			offset: 1,
		},
		{
			name:   "truncated",
			chunk:  &Chunk{Code: []byte{6, 0}, Lines: []int{1, 1}, Constants: []value.Value{value.Number(1)}},
			want:   ErrTruncatedOperand,
			offset: 1,
		},
		{
			name:   "constant index",
			chunk:  &Chunk{Code: []byte{0, 1, 6}, Lines: []int{1, 1, 1}, Constants: []value.Value{value.Number(1)}},
			want:   ErrConstantIndex,
			offset: 0,
		},
		{
			name:   "wide constant index",
			chunk:  &Chunk{Code: []byte{7, 0, 1}, Lines: []int{1, 1, 1}, Constants: []value.Value{value.Number(1)}},
			want:   ErrConstantIndex,
			offset: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
			var ce *ChunkError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.offset, ce.Offset)
		})
	}
}
