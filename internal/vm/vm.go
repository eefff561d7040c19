package vm

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xirelogy/go-hd/internal/bytecode"
	"github.com/xirelogy/go-hd/internal/value"
)

// State tracks where a VM is in its run.
type State int

const (
	Ready State = iota
	Running
	Halted
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// VM is a stack-based bytecode interpreter for a single chunk.
// A VM is not safe for concurrent use; build one per goroutine.
type VM struct {
	chunk *bytecode.Chunk
	// instruction pointer: offset of the next byte to read
	ip    int
	stack []value.Value
	state State

	maxStack  int
	traceHook TraceHook
	logger    *zap.Logger
}

const DefaultMaxStack = 1024

type Opt func(*VM) *VM

func LoggerOpt(l *zap.Logger) Opt {
	return func(vm *VM) *VM {
		if l != nil {
			vm.logger = l
		}
		return vm
	}
}

// MaxStackOpt caps the operand stack depth. Non-positive values keep the default.
func MaxStackOpt(n int) Opt {
	return func(vm *VM) *VM {
		if n > 0 {
			vm.maxStack = n
		}
		return vm
	}
}

// TraceOpt registers a callback invoked before each instruction executes.
func TraceOpt(h TraceHook) Opt {
	return func(vm *VM) *VM {
		vm.traceHook = h
		return vm
	}
}

// New constructs a VM over chunk. The chunk is borrowed and must not be
// modified while the VM runs.
func New(chunk *bytecode.Chunk, opts ...Opt) *VM {
	vm := &VM{
		chunk:    chunk,
		maxStack: DefaultMaxStack,
		logger:   zap.L(),
	}

	for _, opt := range opts {
		vm = opt(vm)
	}

	vm.logger = vm.logger.Named("vm")
	vm.stack = make([]value.Value, 0, min(vm.maxStack, 256))

	return vm
}

// Run executes the chunk from offset 0 on an empty stack until OP_RETURN
// or the first failure. Failures are *RuntimeError values.
func (vm *VM) Run() error {
	vm.ip = 0
	vm.stack = vm.stack[:0]
	vm.state = Running

	if vm.chunk == nil {
		return vm.fail(0, 0, ErrNilChunk, "no chunk to run")
	}
	code := vm.chunk.Code

	for {
		if vm.ip >= len(code) {
			return vm.fail(vm.ip, 0, ErrMissingReturn, "reached end of code without OP_RETURN")
		}
		start := vm.ip
		b := vm.readByte()
		op, err := bytecode.DecodeOp(b)
		if err != nil {
			return vm.fail(start, b, ErrInvalidOpcode, "unknown opcode 0x%02X", b)
		}
		if start+op.Width() > len(code) {
			return vm.fail(start, b, ErrTruncatedOperand, "%s needs %d operand bytes, %d left",
				op, op.OperandWidth(), len(code)-vm.ip)
		}

		vm.trace(start, op)
		if ce := vm.logger.Check(zapcore.DebugLevel, "dispatch"); ce != nil {
			ce.Write(
				zap.Int("ip", start),
				zap.Stringer("op", op),
				zap.Int("depth", len(vm.stack)))
		}

		switch op {
		case bytecode.OP_CONST, bytecode.OP_CONST_LONG:
			var idx int
			if op == bytecode.OP_CONST {
				idx = int(vm.readByte())
			} else {
				idx = vm.readU16()
			}
			if idx >= len(vm.chunk.Constants) {
				return vm.fail(start, b, ErrConstantIndex, "constant %d not in pool of %d", idx, len(vm.chunk.Constants))
			}
			if err := vm.push(start, b, vm.chunk.Constants[idx]); err != nil {
				return err
			}
		case bytecode.OP_NEG:
			if err := vm.require(start, b, 1); err != nil {
				return err
			}
			top := len(vm.stack) - 1
			n, ok := vm.stack[top].AsNumber()
			if !ok {
				return vm.fail(start, b, ErrTypeMismatch, "operand must be a number, got %s", vm.stack[top].Kind)
			}
			vm.stack[top] = value.Number(-n)
		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV:
			if err := vm.binaryOp(start, op); err != nil {
				return err
			}
		case bytecode.OP_RETURN:
			vm.state = Halted
			vm.logger.Debug("halt",
				zap.Int("ip", start),
				zap.Int("depth", len(vm.stack)))
			return nil
		}
	}
}

// binaryOp pops the right operand, then the left, and pushes left op right.
// On a type mismatch the operands stay on the stack.
func (vm *VM) binaryOp(start int, op bytecode.OpCode) error {
	if err := vm.require(start, byte(op), 2); err != nil {
		return err
	}
	n := len(vm.stack)
	a, aok := vm.stack[n-2].AsNumber()
	b, bok := vm.stack[n-1].AsNumber()
	if !aok || !bok {
		return vm.fail(start, byte(op), ErrTypeMismatch, "operands must be numbers, got %s and %s",
			vm.stack[n-2].Kind, vm.stack[n-1].Kind)
	}

	var res float64
	switch op {
	case bytecode.OP_ADD:
		res = a + b
	case bytecode.OP_SUB:
		res = a - b
	case bytecode.OP_MUL:
		res = a * b
	case bytecode.OP_DIV:
		res = a / b
	}
	vm.stack = vm.stack[:n-2]
	vm.stack = append(vm.stack, value.Number(res))
	return nil
}

func (vm *VM) require(start int, op byte, n int) error {
	if len(vm.stack) < n {
		return vm.fail(start, op, ErrStackUnderflow, "%s needs %d operands, stack has %d",
			bytecode.OpCode(op), n, len(vm.stack))
	}
	return nil
}

func (vm *VM) push(start int, op byte, v value.Value) error {
	if len(vm.stack) >= vm.maxStack {
		return vm.fail(start, op, ErrStackOverflow, "stack depth limit %d reached", vm.maxStack)
	}
	vm.stack = append(vm.stack, v)
	return nil
}

// readByte and readU16 are the only places that advance ip.
func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readU16() int {
	hi := vm.chunk.Code[vm.ip]
	lo := vm.chunk.Code[vm.ip+1]
	vm.ip += 2
	return int(hi)<<8 | int(lo)
}
