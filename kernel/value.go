package kernel

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the scalar type a kernel returns.
type Kind uint8

// Result kinds.
const (
	KindUint32 Kind = iota + 1
	KindInt32
	KindUint64
	KindFloat32
	KindFloat64
)

var kindNames = map[Kind]string{
	KindUint32:  "uint32",
	KindInt32:   "int32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// MarshalText implements encoding.TextMarshaler. The zero Kind, carried by
// an absent result, encodes as the empty string.
func (k Kind) MarshalText() ([]byte, error) {
	if k == 0 {
		return []byte{}, nil
	}

	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown kind %d", k)
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = 0

		return nil
	}

	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind

			return nil
		}
	}

	return fmt.Errorf("unknown kind %q", text)
}

// Value is a kernel result carried as its raw bit pattern, so results can
// cross a process boundary and be compared without any rounding.
type Value struct {
	Kind Kind   `json:"kind"`
	Bits uint64 `json:"bits"`
}

// Uint32Value wraps a uint32 result.
func Uint32Value(v uint32) Value { return Value{Kind: KindUint32, Bits: uint64(v)} }

// Int32Value wraps an int32 result.
func Int32Value(v int32) Value { return Value{Kind: KindInt32, Bits: uint64(uint32(v))} }

// Uint64Value wraps a uint64 result.
func Uint64Value(v uint64) Value { return Value{Kind: KindUint64, Bits: v} }

// Float32Value wraps a float32 result.
func Float32Value(v float32) Value {
	return Value{Kind: KindFloat32, Bits: uint64(math.Float32bits(v))}
}

// Float64Value wraps a float64 result.
func Float64Value(v float64) Value {
	return Value{Kind: KindFloat64, Bits: math.Float64bits(v)}
}

// Float64 returns the numeric value widened to float64.
func (v Value) Float64() float64 {
	switch v.Kind {
	case KindUint32:
		return float64(uint32(v.Bits))
	case KindInt32:
		return float64(int32(uint32(v.Bits)))
	case KindUint64:
		return float64(v.Bits)
	case KindFloat32:
		return float64(math.Float32frombits(uint32(v.Bits)))
	case KindFloat64:
		return math.Float64frombits(v.Bits)
	default:
		return math.NaN()
	}
}

// Equal reports whether both values have the same kind and bit pattern.
func (v Value) Equal(o Value) bool {
	return v.Kind == o.Kind && v.Bits == o.Bits
}

func (v Value) String() string {
	switch v.Kind {
	case KindUint32:
		return strconv.FormatUint(uint64(uint32(v.Bits)), 10)
	case KindInt32:
		return strconv.FormatInt(int64(int32(uint32(v.Bits))), 10)
	case KindUint64:
		return fmt.Sprintf("%#016x", v.Bits)
	case KindFloat32:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	default:
		return "<invalid>"
	}
}
