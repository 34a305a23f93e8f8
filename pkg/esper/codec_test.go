package esper

import (
	"math"
	"reflect"
	"testing"
)

func TestEncodeDecodeElementsRoundTrip(t *testing.T) {
	boolIn := []bool{true, false, true}
	encoded, err := EncodeElements(TypeBool, uint32(len(boolIn)), boolIn)
	if err != nil {
		t.Fatalf("encode bool: %v", err)
	}
	decoded, err := DecodeElements(TypeBool, uint32(len(boolIn)), encoded)
	if err != nil {
		t.Fatalf("decode bool: %v", err)
	}
	if !reflect.DeepEqual(decoded, boolIn) {
		t.Errorf("bool round trip = %v, want %v", decoded, boolIn)
	}

	intTypes := []VariableType{TypeInt8, TypeInt16, TypeInt32, TypeInt64}
	for _, typ := range intTypes {
		in := []int64{-1, 0, 1, 42}
		enc, err := EncodeElements(typ, uint32(len(in)), in)
		if err != nil {
			t.Fatalf("%s: encode: %v", typ, err)
		}
		dec, err := DecodeElements(typ, uint32(len(in)), enc)
		if err != nil {
			t.Fatalf("%s: decode: %v", typ, err)
		}
		gotLen := reflect.ValueOf(dec).Len()
		if gotLen != len(in) {
			t.Fatalf("%s: decoded length = %d, want %d", typ, gotLen, len(in))
		}
		for i, want := range in {
			got := reflect.ValueOf(dec).Index(i).Int()
			if got != want {
				t.Errorf("%s[%d] = %d, want %d", typ, i, got, want)
			}
		}
	}

	uintTypes := []VariableType{TypeUint8, TypeUint16, TypeUint32, TypeUint64}
	for _, typ := range uintTypes {
		in := []int64{0, 1, 42, 255}
		enc, err := EncodeElements(typ, uint32(len(in)), in)
		if err != nil {
			t.Fatalf("%s: encode: %v", typ, err)
		}
		dec, err := DecodeElements(typ, uint32(len(in)), enc)
		if err != nil {
			t.Fatalf("%s: decode: %v", typ, err)
		}
		gotLen := reflect.ValueOf(dec).Len()
		if gotLen != len(in) {
			t.Fatalf("%s: decoded length = %d, want %d", typ, gotLen, len(in))
		}
	}

	floatIn := []float64{1.5, -2.25, 0}
	for _, typ := range []VariableType{TypeFloat32, TypeFloat64} {
		enc, err := EncodeElements(typ, uint32(len(floatIn)), floatIn)
		if err != nil {
			t.Fatalf("%s: encode: %v", typ, err)
		}
		dec, err := DecodeElements(typ, uint32(len(floatIn)), enc)
		if err != nil {
			t.Fatalf("%s: decode: %v", typ, err)
		}
		for i, want := range floatIn {
			got := reflect.ValueOf(dec).Index(i).Float()
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("%s[%d] = %v, want %v", typ, i, got, want)
			}
		}
	}

	asciiIn := "hello"
	enc, err := EncodeElements(TypeASCII, 8, asciiIn)
	if err != nil {
		t.Fatalf("ascii encode: %v", err)
	}
	if len(enc) != 8 {
		t.Fatalf("ascii encoded length = %d, want 8", len(enc))
	}
	dec, err := DecodeElements(TypeASCII, 8, enc)
	if err != nil {
		t.Fatalf("ascii decode: %v", err)
	}
	if dec != asciiIn {
		t.Errorf("ascii round trip = %q, want %q", dec, asciiIn)
	}
}

func TestDecodeElementsShortBuffer(t *testing.T) {
	if _, err := DecodeElements(TypeUint32, 4, make([]byte, 8)); err == nil {
		t.Fatal("expected error for short buffer, got nil")
	}
}

func TestSelectTypesScenarios(t *testing.T) {
	cases := []struct {
		name   string
		values []Variant
		want   []VariableType
	}{
		{
			name:   "mixed signed values scenario",
			values: []Variant{IntVariant(-1), IntVariant(2), IntVariant(300)},
			want:   []VariableType{TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64},
		},
		{
			name:   "small non-negative uints",
			values: []Variant{UintVariant(0), UintVariant(1), UintVariant(200)},
			want:   []VariableType{TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64},
		},
		{
			name:   "bools",
			values: []Variant{BoolVariant(true), BoolVariant(false)},
			want:   []VariableType{TypeBool},
		},
		{
			name:   "mixed kind is unresolved",
			values: []Variant{IntVariant(1), BoolVariant(true)},
			want:   nil,
		},
		{
			name:   "empty is unresolved",
			values: nil,
			want:   nil,
		},
		{
			name:   "huge float forces float64",
			values: []Variant{FloatVariant(1e40)},
			want:   []VariableType{TypeFloat64},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SelectTypes(c.values)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("SelectTypes(%v) = %v, want %v", c.values, got, c.want)
			}
		})
	}
}

func FuzzDecodeElementsUint32(f *testing.F) {
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	f.Fuzz(func(t *testing.T, b []byte) {
		n := uint32(len(b) / 4)
		out, err := DecodeElements(TypeUint32, n, b)
		if err != nil {
			return
		}
		vs, ok := out.([]uint32)
		if !ok {
			t.Fatalf("unexpected decode type %T", out)
		}
		if uint32(len(vs)) != n {
			t.Fatalf("decoded %d elements, want %d", len(vs), n)
		}
	})
}
