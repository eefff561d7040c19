package vm

import (
	"fmt"
	"io"

	"github.com/xirelogy/go-hd/internal/bytecode"
)

// Disassemble emits assembly-style bytecode output for the loaded chunk.
func (vm *VM) Disassemble(w io.Writer) error {
	if vm == nil {
		return fmt.Errorf("nil VM")
	}
	if w == nil {
		return fmt.Errorf("nil writer")
	}
	if vm.chunk == nil {
		return ErrNilChunk
	}
	return bytecode.NewDisassembler(w).DisassembleChunk("chunk", vm.chunk)
}
