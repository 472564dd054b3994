package sfs

import "fmt"

// Tag identifies the wire type of a Value. The numeric values are part of
// the protocol and must not change.
type Tag byte

const (
	TagNull        Tag = 0
	TagBool        Tag = 1
	TagByte        Tag = 2
	TagShort       Tag = 3
	TagInt         Tag = 4
	TagLong        Tag = 5
	TagFloat       Tag = 6
	TagDouble      Tag = 7
	TagString      Tag = 8
	TagBoolArray   Tag = 9
	TagByteArray   Tag = 10
	TagShortArray  Tag = 11
	TagIntArray    Tag = 12
	TagLongArray   Tag = 13
	TagFloatArray  Tag = 14
	TagDoubleArray Tag = 15
	TagStringArray Tag = 16
	TagArray       Tag = 17
	TagObject      Tag = 18
	TagClass       Tag = 19
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagByte:
		return "byte"
	case TagShort:
		return "short"
	case TagInt:
		return "int"
	case TagLong:
		return "long"
	case TagFloat:
		return "float"
	case TagDouble:
		return "double"
	case TagString:
		return "string"
	case TagBoolArray:
		return "bool-array"
	case TagByteArray:
		return "byte-array"
	case TagShortArray:
		return "short-array"
	case TagIntArray:
		return "int-array"
	case TagLongArray:
		return "long-array"
	case TagFloatArray:
		return "float-array"
	case TagDoubleArray:
		return "double-array"
	case TagStringArray:
		return "string-array"
	case TagArray:
		return "array"
	case TagObject, TagClass:
		return "object"
	default:
		return fmt.Sprintf("tag(%d)", byte(t))
	}
}

// Value is a closed tagged union of every type the wire format can carry.
// The tag is fixed at construction; encoding never inspects runtime types.
type Value struct {
	tag Tag

	b    bool
	n    int64
	f    float64
	s    string
	ab   []bool
	raw  []byte
	a16  []int16
	a32  []int32
	a64  []int64
	af32 []float32
	af64 []float64
	as   []string
	arr  []Value
	obj  *Payload
}

func Null() Value                    { return Value{tag: TagNull} }
func Bool(v bool) Value              { return Value{tag: TagBool, b: v} }
func Byte(v byte) Value              { return Value{tag: TagByte, n: int64(v)} }
func Short(v int16) Value            { return Value{tag: TagShort, n: int64(v)} }
func Int(v int32) Value              { return Value{tag: TagInt, n: int64(v)} }
func Long(v int64) Value             { return Value{tag: TagLong, n: v} }
func Float(v float32) Value          { return Value{tag: TagFloat, f: float64(v)} }
func Double(v float64) Value         { return Value{tag: TagDouble, f: v} }
func String(v string) Value          { return Value{tag: TagString, s: v} }
func BoolArray(v []bool) Value       { return Value{tag: TagBoolArray, ab: v} }
func ByteArray(v []byte) Value       { return Value{tag: TagByteArray, raw: v} }
func ShortArray(v []int16) Value     { return Value{tag: TagShortArray, a16: v} }
func IntArray(v []int32) Value       { return Value{tag: TagIntArray, a32: v} }
func LongArray(v []int64) Value      { return Value{tag: TagLongArray, a64: v} }
func FloatArray(v []float32) Value   { return Value{tag: TagFloatArray, af32: v} }
func DoubleArray(v []float64) Value  { return Value{tag: TagDoubleArray, af64: v} }
func StringArray(v []string) Value   { return Value{tag: TagStringArray, as: v} }
func Array(items ...Value) Value     { return Value{tag: TagArray, arr: items} }
func ArrayOf(items []Value) Value    { return Value{tag: TagArray, arr: items} }
func Object(p *Payload) Value        { return Value{tag: TagObject, obj: p} }

func (v Value) Tag() Tag { return v.tag }

func (v Value) IsNull() bool { return v.tag == TagNull }

func (v Value) AsBool() (bool, bool)     { return v.b, v.tag == TagBool }
func (v Value) AsByte() (byte, bool)     { return byte(v.n), v.tag == TagByte }
func (v Value) AsShort() (int16, bool)   { return int16(v.n), v.tag == TagShort }
func (v Value) AsLong() (int64, bool)    { return v.n, v.tag == TagLong }
func (v Value) AsFloat() (float32, bool) { return float32(v.f), v.tag == TagFloat }
func (v Value) AsDouble() (float64, bool) {
	return v.f, v.tag == TagDouble
}
func (v Value) AsString() (string, bool)      { return v.s, v.tag == TagString }
func (v Value) AsBoolArray() ([]bool, bool)   { return v.ab, v.tag == TagBoolArray }
func (v Value) AsByteArray() ([]byte, bool)   { return v.raw, v.tag == TagByteArray }
func (v Value) AsShortArray() ([]int16, bool) { return v.a16, v.tag == TagShortArray }
func (v Value) AsIntArray() ([]int32, bool)   { return v.a32, v.tag == TagIntArray }
func (v Value) AsLongArray() ([]int64, bool)  { return v.a64, v.tag == TagLongArray }
func (v Value) AsFloatArray() ([]float32, bool) {
	return v.af32, v.tag == TagFloatArray
}
func (v Value) AsDoubleArray() ([]float64, bool) {
	return v.af64, v.tag == TagDoubleArray
}
func (v Value) AsStringArray() ([]string, bool) { return v.as, v.tag == TagStringArray }
func (v Value) AsArray() ([]Value, bool)        { return v.arr, v.tag == TagArray }

// AsInt widens byte, short and int values; the client encodes small numbers
// with the narrowest tag that fits.
func (v Value) AsInt() (int32, bool) {
	switch v.tag {
	case TagByte, TagShort, TagInt:
		return int32(v.n), true
	}
	return 0, false
}

func (v Value) AsObject() (*Payload, bool) {
	if v.tag == TagObject || v.tag == TagClass {
		return v.obj, true
	}
	return nil, false
}

// Number constructs a Value with the narrowest integer tag that can hold v,
// matching how the reference client encodes JSON numbers.
func Number(v int64) Value {
	switch {
	case v >= 0 && v <= 127:
		return Byte(byte(v))
	case v >= -32768 && v <= 32767:
		return Short(int16(v))
	case v >= -2147483648 && v <= 2147483647:
		return Int(int32(v))
	default:
		return Long(v)
	}
}
