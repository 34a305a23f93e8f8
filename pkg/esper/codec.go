package esper

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// DecodeElements unpacks n elements of type t from the front of b (§4.4).
// The returned value's concrete type depends on t:
//
//	TypeNull            -> nil
//	TypeASCII           -> string (trailing NULs stripped)
//	TypeBool            -> []bool
//	TypeUint8..Uint64    -> []uint8 / []uint16 / []uint32 / []uint64
//	TypeInt8..Int64      -> []int8 / []int16 / []int32 / []int64
//	TypeFloat32/Float64  -> []float32 / []float64
func DecodeElements(t VariableType, n uint32, b []byte) (any, error) {
	sz := t.TypeSize()
	need := uint64(sz) * uint64(n)
	if uint64(len(b)) < need {
		return nil, fmt.Errorf("esper: codec: need %d bytes for %d elements of %s, have %d", need, n, t, len(b))
	}
	b = b[:need]

	switch t {
	case TypeNull, TypeUnknown:
		return nil, nil
	case TypeASCII:
		return trimASCII(b), nil
	case TypeBool:
		out := make([]bool, n)
		for i := range out {
			out[i] = b[i] != 0
		}
		return out, nil
	case TypeUint8:
		out := make([]uint8, n)
		copy(out, b)
		return out, nil
	case TypeInt8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(b[i])
		}
		return out, nil
	case TypeUint16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		return out, nil
	case TypeInt16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
		}
		return out, nil
	case TypeUint32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(b[i*4:])
		}
		return out, nil
	case TypeInt32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
		}
		return out, nil
	case TypeUint64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(b[i*8:])
		}
		return out, nil
	case TypeInt64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
		}
		return out, nil
	case TypeFloat32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
		return out, nil
	case TypeFloat64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("esper: codec: unknown variable type %d", t)
	}
}

// trimASCII decodes b as an ASCII byte string, truncated at the first NUL.
// For a field holding a string followed by NUL padding this is the same as
// stripping the trailing NULs; any bytes after an embedded NUL are dropped
// too.
func trimASCII(b []byte) string {
	if i := indexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// EncodeElements packs data as wire bytes for type t, without padding
// (framing pads payloads, not the codec; §4.4). Accepted shapes: string for
// ascii; []bool or []Variant for bool; []int64 or []Variant for every
// integer type; []float64 or []Variant for float32/float64. The typed slices
// DecodeElements returns for integer and float32 types (e.g. []uint16) are
// not accepted.
func EncodeElements(t VariableType, numElements uint32, data any) ([]byte, error) {
	switch t {
	case TypeNull, TypeUnknown:
		return nil, nil
	case TypeASCII:
		s, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("esper: codec: ascii requires a string, got %T", data)
		}
		out := make([]byte, numElements)
		copy(out, s)
		return out, nil
	case TypeBool:
		vs, err := toBoolSlice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs))
		for i, v := range vs {
			if v {
				out[i] = 1
			}
		}
		return out, nil
	case TypeUint8, TypeInt8:
		vs, err := toInt64Slice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs))
		for i, v := range vs {
			out[i] = byte(v)
		}
		return out, nil
	case TypeUint16, TypeInt16:
		vs, err := toInt64Slice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs)*2)
		for i, v := range vs {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out, nil
	case TypeUint32, TypeInt32:
		vs, err := toInt64Slice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs)*4)
		for i, v := range vs {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
		return out, nil
	case TypeUint64, TypeInt64:
		vs, err := toInt64Slice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs)*8)
		for i, v := range vs {
			binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
		}
		return out, nil
	case TypeFloat32:
		vs, err := toFloat64Slice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs)*4)
		for i, v := range vs {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
		}
		return out, nil
	case TypeFloat64:
		vs, err := toFloat64Slice(data)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vs)*8)
		for i, v := range vs {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("esper: codec: unknown variable type %d", t)
	}
}

func toBoolSlice(data any) ([]bool, error) {
	switch v := data.(type) {
	case []bool:
		return v, nil
	case []Variant:
		out := make([]bool, len(v))
		for i, e := range v {
			if e.Kind != VariantBool {
				return nil, fmt.Errorf("esper: codec: expected bool element, got %v", e.Kind)
			}
			out[i] = e.Bool
		}
		return out, nil
	default:
		return nil, fmt.Errorf("esper: codec: expected []bool, got %T", data)
	}
}

func toInt64Slice(data any) ([]int64, error) {
	switch v := data.(type) {
	case []int64:
		return v, nil
	case []Variant:
		out := make([]int64, len(v))
		for i, e := range v {
			switch e.Kind {
			case VariantInt:
				out[i] = e.IntVal
			case VariantUint:
				out[i] = int64(e.UintVal)
			default:
				return nil, fmt.Errorf("esper: codec: expected integer element, got %v", e.Kind)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("esper: codec: expected []int64 or []Variant, got %T", data)
	}
}

func toFloat64Slice(data any) ([]float64, error) {
	switch v := data.(type) {
	case []float64:
		return v, nil
	case []Variant:
		out := make([]float64, len(v))
		for i, e := range v {
			switch e.Kind {
			case VariantFloat:
				out[i] = e.Float
			case VariantInt:
				out[i] = float64(e.IntVal)
			case VariantUint:
				out[i] = float64(e.UintVal)
			default:
				return nil, fmt.Errorf("esper: codec: expected float element, got %v", e.Kind)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("esper: codec: expected []float64 or []Variant, got %T", data)
	}
}

// VariantKind tags the dynamic type of a value arriving at the write_var
// boundary, before type selection narrows it to a concrete wire type
// (Design Notes §9).
type VariantKind int

const (
	VariantNull VariantKind = iota
	VariantBool
	VariantASCII
	VariantInt
	VariantUint
	VariantFloat
	VariantList
)

func (k VariantKind) String() string {
	switch k {
	case VariantNull:
		return "null"
	case VariantBool:
		return "bool"
	case VariantASCII:
		return "ascii"
	case VariantInt:
		return "int"
	case VariantUint:
		return "uint"
	case VariantFloat:
		return "float"
	case VariantList:
		return "list"
	default:
		return "invalid"
	}
}

// Variant is a dynamically-typed value received at the write_var boundary.
// cmd/esper-tool (both the write command and the console) builds Variants
// from whitespace-separated words parsed according to the target type; it
// does not decode JSON literals.
type Variant struct {
	Kind    VariantKind
	Bool    bool
	ASCII   string
	IntVal  int64
	UintVal uint64
	Float   float64
	List    []Variant
}

func NullVariant() Variant          { return Variant{Kind: VariantNull} }
func BoolVariant(v bool) Variant     { return Variant{Kind: VariantBool, Bool: v} }
func ASCIIVariant(v string) Variant  { return Variant{Kind: VariantASCII, ASCII: v} }
func IntVariant(v int64) Variant     { return Variant{Kind: VariantInt, IntVal: v} }
func UintVariant(v uint64) Variant   { return Variant{Kind: VariantUint, UintVal: v} }
func FloatVariant(v float64) Variant { return Variant{Kind: VariantFloat, Float: v} }

// float32MaxMagnitude is the spec's (§4.4) envelope test: values whose
// magnitude exceeds this must be carried as float64.
const float32MaxMagnitude = 3.4e38

// SelectTypes implements the writable-type auto-selection algorithm of §4.4,
// returning candidate wire types with the narrowest first. A nil result
// means the caller must pick a type explicitly (empty input, mixed-kind
// input, or list-kind values).
func SelectTypes(values []Variant) []VariableType {
	if len(values) == 0 {
		return nil
	}

	kind := values[0].Kind
	for _, v := range values[1:] {
		if v.Kind != kind {
			return nil
		}
	}

	switch kind {
	case VariantNull:
		return []VariableType{TypeNull}
	case VariantBool:
		return []VariableType{TypeBool}
	case VariantASCII:
		return []VariableType{TypeASCII}
	case VariantFloat:
		for _, v := range values {
			if math.Abs(v.Float) > float32MaxMagnitude {
				return []VariableType{TypeFloat64}
			}
		}
		return []VariableType{TypeFloat32, TypeFloat64}
	case VariantInt, VariantUint:
		return selectIntegerTypes(values)
	default:
		return nil
	}
}

func selectIntegerTypes(values []Variant) []VariableType {
	min, max := big.NewInt(0), big.NewInt(0)
	anyNegative := false
	for i, v := range values {
		var bi *big.Int
		if v.Kind == VariantInt {
			bi = big.NewInt(v.IntVal)
			if v.IntVal < 0 {
				anyNegative = true
			}
		} else {
			bi = new(big.Int).SetUint64(v.UintVal)
		}
		if i == 0 {
			min.Set(bi)
			max.Set(bi)
			continue
		}
		if bi.Cmp(min) < 0 {
			min.Set(bi)
		}
		if bi.Cmp(max) > 0 {
			max.Set(bi)
		}
	}

	if anyNegative {
		switch {
		case max.Cmp(big.NewInt(math.MaxInt32)) > 0 || min.Cmp(big.NewInt(math.MinInt32)) < 0:
			return []VariableType{TypeInt64, TypeFloat32, TypeFloat64}
		case max.Cmp(big.NewInt(math.MaxInt16)) > 0 || min.Cmp(big.NewInt(math.MinInt16)) < 0:
			return []VariableType{TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
		case max.Cmp(big.NewInt(math.MaxInt8)) > 0 || min.Cmp(big.NewInt(math.MinInt8)) < 0:
			return []VariableType{TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
		default:
			return []VariableType{TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
		}
	}

	maxU32 := new(big.Int).SetUint64(math.MaxUint32)
	maxU16 := big.NewInt(math.MaxUint16)
	maxI64 := new(big.Int).SetInt64(math.MaxInt64)
	maxI32 := big.NewInt(math.MaxInt32)
	maxI16 := big.NewInt(math.MaxInt16)
	maxI8 := big.NewInt(math.MaxInt8)
	maxU8 := big.NewInt(math.MaxUint8)

	switch {
	case max.Cmp(maxI64) > 0:
		return []VariableType{TypeUint64, TypeFloat32, TypeFloat64}
	case max.Cmp(maxU32) > 0:
		return []VariableType{TypeUint64, TypeInt64, TypeFloat32, TypeFloat64}
	case max.Cmp(maxI32) > 0:
		return []VariableType{TypeUint32, TypeUint64, TypeInt64, TypeFloat32, TypeFloat64}
	case max.Cmp(maxU16) > 0:
		return []VariableType{TypeUint32, TypeUint64, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
	case max.Cmp(maxI16) > 0:
		return []VariableType{TypeUint16, TypeUint32, TypeUint64, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
	case max.Cmp(maxU8) > 0:
		return []VariableType{TypeUint16, TypeUint32, TypeUint64, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
	case max.Cmp(maxI8) > 0:
		return []VariableType{TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
	default:
		return []VariableType{TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64}
	}
}
