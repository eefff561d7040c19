package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-hd/internal/value"
)

// UnknownInstruction is the mnemonic reported for bytes that are not opcodes.
const UnknownInstruction = "unknown instruction"

// Instruction is one decoded step of a chunk.
type Instruction struct {
	Offset int
	Line   int
	Op     byte
	Name   string
	// Width is the number of code bytes this step consumed.
	Width int
	// Operand is the decoded constant index, or -1.
	Operand     int
	Constant    value.Value
	HasConstant bool
	Known       bool
	Truncated   bool
}

// DecodeInstruction decodes the instruction starting at offset.
// It never fails: unknown bytes and truncated operands still advance the cursor.
func DecodeInstruction(chunk *Chunk, offset int) Instruction {
	b := chunk.CodeAt(offset)
	inst := Instruction{
		Offset:  offset,
		Line:    chunk.LineAt(offset),
		Op:      b,
		Width:   1,
		Operand: -1,
	}
	op, err := DecodeOp(b)
	if err != nil {
		inst.Name = UnknownInstruction
		return inst
	}
	inst.Known = true
	inst.Name = op.String()
	remaining := len(chunk.Code) - offset
	if op.Width() > remaining {
		inst.Truncated = true
		inst.Width = remaining
		return inst
	}
	inst.Width = op.Width()
	switch op {
	case OP_CONST, OP_CONST_LONG:
		idx := constOperand(chunk.Code, offset, op)
		inst.Operand = idx
		if idx < len(chunk.Constants) {
			inst.Constant = chunk.Constants[idx]
			inst.HasConstant = true
		}
	}
	return inst
}

// Decode visits the whole chunk once, front to back.
// The widths of the returned instructions sum to len(chunk.Code).
func Decode(chunk *Chunk) []Instruction {
	if chunk == nil {
		return nil
	}
	out := make([]Instruction, 0, len(chunk.Code))
	for off := 0; off < len(chunk.Code); {
		inst := DecodeInstruction(chunk, off)
		out = append(out, inst)
		off += inst.Width
	}
	return out
}

func (inst Instruction) String() string {
	lineStr := "-"
	if inst.Line > 0 {
		lineStr = strconv.Itoa(inst.Line)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d %4s %-16s", inst.Offset, lineStr, inst.Name)
	if detail := inst.detail(); detail != "" {
		sb.WriteString(" ")
		sb.WriteString(detail)
	}
	return sb.String()
}

func (inst Instruction) detail() string {
	switch {
	case !inst.Known:
		return fmt.Sprintf("; byte=0x%02X", inst.Op)
	case inst.Truncated:
		return "; truncated operand"
	case inst.Operand >= 0:
		return fmt.Sprintf("%d ; const[%d]=%s", inst.Operand, inst.Operand, formatConstRef(inst))
	default:
		return ""
	}
}

func formatConstRef(inst Instruction) string {
	if !inst.HasConstant {
		return "<invalid>"
	}
	return inst.Constant.String()
}

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w       io.Writer
	printed bool
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// DisassembleChunk emits a header and one line per instruction.
func (d *Disassembler) DisassembleChunk(name string, chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("nil chunk")
	}
	d.startSection()
	if name == "" {
		name = "<chunk>"
	}
	if _, err := fmt.Fprintf(d.w, "== %s ==\n", name); err != nil {
		return err
	}
	for _, inst := range Decode(chunk) {
		if _, err := fmt.Fprintln(d.w, inst.String()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Disassembler) startSection() {
	if d.printed {
		fmt.Fprintln(d.w)
	}
	d.printed = true
}
