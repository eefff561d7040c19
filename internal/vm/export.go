package vm

import "github.com/xirelogy/go-hd/internal/value"

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []value.Value {
	out := make([]value.Value, len(vm.stack))
	copy(out, vm.stack)
	return out
}

// Peek inspects the top of the stack without popping.
func (vm *VM) Peek() (value.Value, bool) {
	if len(vm.stack) == 0 {
		return value.Nil(), false
	}
	return vm.stack[len(vm.stack)-1], true
}

// Result reports the value left on top of the stack by a successful run.
func (vm *VM) Result() (value.Value, bool) {
	if vm.state != Halted {
		return value.Nil(), false
	}
	return vm.Peek()
}

// IP is the offset of the next byte to read.
func (vm *VM) IP() int {
	return vm.ip
}

// State reports the VM's run state.
func (vm *VM) State() State {
	return vm.state
}
