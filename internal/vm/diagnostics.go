package vm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xirelogy/go-hd/internal/bytecode"
)

var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrConstantIndex    = errors.New("constant index out of range")
	ErrTruncatedOperand = errors.New("truncated operand")
	ErrMissingReturn    = errors.New("missing return")
	ErrNilChunk         = errors.New("nil chunk")
)

// TraceInfo describes a single instruction dispatch for debugging/tracing.
type TraceInfo struct {
	Op    bytecode.OpCode
	IP    int
	Line  int
	Depth int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// RuntimeError carries source position and the failing instruction.
type RuntimeError struct {
	Message string
	// Op is the raw byte at IP, which may not be a valid opcode.
	Op   byte
	IP   int
	Line int
	// Cause is one of the Err* sentinels.
	Cause error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v: %s", e.Line, e.Cause, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Cause, e.Message)
}

// Unwrap exposes the sentinel cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// OpName is the mnemonic of the failing instruction.
func (e *RuntimeError) OpName() string {
	return bytecode.OpCode(e.Op).String()
}

func (vm *VM) fail(ip int, op byte, cause error, format string, args ...any) error {
	vm.state = Failed
	line := 0
	if vm.chunk != nil {
		line = vm.chunk.LineAt(ip)
	}
	err := &RuntimeError{
		Message: fmt.Sprintf(format, args...),
		Op:      op,
		IP:      ip,
		Line:    line,
		Cause:   cause,
	}
	vm.logger.Debug("runtime error",
		zap.Int("ip", ip),
		zap.Int("line", line),
		zap.Int("depth", len(vm.stack)),
		zap.Error(err))
	return err
}

func (vm *VM) trace(ip int, op bytecode.OpCode) {
	if vm.traceHook == nil {
		return
	}
	vm.traceHook(TraceInfo{
		Op:    op,
		IP:    ip,
		Line:  vm.chunk.LineAt(ip),
		Depth: len(vm.stack),
	})
}
