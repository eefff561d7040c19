package value

import (
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindNil is the zero Value. No opcode produces it.
	KindNil Kind = iota
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Value is the runtime datum carried by the operand stack and the constant pool.
// It is copied by value; new variants add a Kind and a payload field.
type Value struct {
	Kind Kind
	Num  float64
}

// Nil returns the nil value.
func Nil() Value { return Value{Kind: KindNil} }

// Number wraps n as a numeric value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// AsNumber returns the numeric payload when the kind matches.
func (v Value) AsNumber() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return "<unknown>"
	}
}

// Identical reports whether a and b share a kind and a bit-identical payload.
// Unlike ==, it separates -0 from 0 and matches NaN with itself.
func Identical(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return math.Float64bits(a.Num) == math.Float64bits(b.Num)
	default:
		return true
	}
}
