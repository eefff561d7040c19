package compiler

import "github.com/xirelogy/go-hd/internal/bytecode"

type Chunk = bytecode.Chunk
