package compiler

import "github.com/xirelogy/go-hd/internal/bytecode"

const (
	OP_CONST      = bytecode.OP_CONST
	OP_NEG        = bytecode.OP_NEG
	OP_ADD        = bytecode.OP_ADD
	OP_SUB        = bytecode.OP_SUB
	OP_MUL        = bytecode.OP_MUL
	OP_DIV        = bytecode.OP_DIV
	OP_RETURN     = bytecode.OP_RETURN
	OP_CONST_LONG = bytecode.OP_CONST_LONG
)
