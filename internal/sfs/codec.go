package sfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Binary object format: a leading magic byte (the object tag, 18), then the
// object body. Object bodies are an int16 entry count followed by
// length-prefixed UTF-8 keys, a type tag byte and the encoded value. All
// integers are big-endian.

const objectMagic = byte(TagObject)

const maxShort = 0x7fff

// Marshal encodes a payload to its framed binary form, magic included.
func Marshal(p *Payload) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(objectMagic)
	if err := encodeObject(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a framed binary object, magic included.
func Unmarshal(data []byte) (*Payload, error) {
	r := bytes.NewReader(data)
	magic, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != objectMagic {
		return nil, fmt.Errorf("invalid magic number %d", magic)
	}
	p, err := decodeObject(r)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func encodeObject(buf *bytes.Buffer, p *Payload) error {
	if p.Len() > maxShort {
		return fmt.Errorf("too many values in object, max is %d", maxShort)
	}
	writeInt16(buf, int16(p.Len()))
	for i, key := range p.keys {
		if len(key) > maxShort {
			return fmt.Errorf("key %q too long, max length is %d", key, maxShort)
		}
		writeInt16(buf, int16(len(key)))
		buf.WriteString(key)
		if err := encodeValue(buf, p.values[i]); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	tag := v.tag
	// A nested object carrying the reference client's class markers keeps
	// the class tag on the wire.
	if tag == TagObject && v.obj != nil && v.obj.Has("$C") && v.obj.Has("$F") {
		tag = TagClass
	}
	buf.WriteByte(byte(tag))

	switch v.tag {
	case TagNull:
	case TagBool:
		writeBool(buf, v.b)
	case TagByte:
		buf.WriteByte(byte(v.n))
	case TagShort:
		writeInt16(buf, int16(v.n))
	case TagInt:
		writeInt32(buf, int32(v.n))
	case TagLong:
		writeInt64(buf, v.n)
	case TagFloat:
		writeInt32(buf, int32(math.Float32bits(float32(v.f))))
	case TagDouble:
		writeInt64(buf, int64(math.Float64bits(v.f)))
	case TagString:
		if err := writeString(buf, v.s); err != nil {
			return err
		}
	case TagBoolArray:
		if err := writeCount(buf, len(v.ab)); err != nil {
			return err
		}
		for _, b := range v.ab {
			writeBool(buf, b)
		}
	case TagByteArray:
		writeInt32(buf, int32(len(v.raw)))
		buf.Write(v.raw)
	case TagShortArray:
		if err := writeCount(buf, len(v.a16)); err != nil {
			return err
		}
		for _, n := range v.a16 {
			writeInt16(buf, n)
		}
	case TagIntArray:
		if err := writeCount(buf, len(v.a32)); err != nil {
			return err
		}
		for _, n := range v.a32 {
			writeInt32(buf, n)
		}
	case TagLongArray:
		if err := writeCount(buf, len(v.a64)); err != nil {
			return err
		}
		for _, n := range v.a64 {
			writeInt64(buf, n)
		}
	case TagFloatArray:
		if err := writeCount(buf, len(v.af32)); err != nil {
			return err
		}
		for _, f := range v.af32 {
			writeInt32(buf, int32(math.Float32bits(f)))
		}
	case TagDoubleArray:
		if err := writeCount(buf, len(v.af64)); err != nil {
			return err
		}
		for _, f := range v.af64 {
			writeInt64(buf, int64(math.Float64bits(f)))
		}
	case TagStringArray:
		if err := writeCount(buf, len(v.as)); err != nil {
			return err
		}
		for _, s := range v.as {
			if err := writeString(buf, s); err != nil {
				return err
			}
		}
	case TagArray:
		if err := writeCount(buf, len(v.arr)); err != nil {
			return err
		}
		for _, item := range v.arr {
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
	case TagObject, TagClass:
		obj := v.obj
		if obj == nil {
			obj = NewPayload()
		}
		if err := encodeObject(buf, obj); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported value tag %d", v.tag)
	}
	return nil
}

func decodeObject(r *bytes.Reader) (*Payload, error) {
	count, err := readInt16(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid object length %d", count)
	}
	p := NewPayload()
	for i := int16(0); i < count; i++ {
		key, err := readString(r)
		if err != nil {
			return nil, err
		}
		tag, err := r.ReadByte()
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		v, err := decodeValue(Tag(tag), r)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		p.Set(key, v)
	}
	return p, nil
}

func decodeValue(tag Tag, r *bytes.Reader) (Value, error) {
	switch tag {
	case TagNull:
		return Null(), nil
	case TagBool:
		b, err := r.ReadByte()
		if err != nil {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Bool(b == 1), nil
	case TagByte:
		b, err := r.ReadByte()
		if err != nil {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Byte(b), nil
	case TagShort:
		n, err := readInt16(r)
		if err != nil {
			return Value{}, err
		}
		return Short(n), nil
	case TagInt:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case TagLong:
		n, err := readInt64(r)
		if err != nil {
			return Value{}, err
		}
		return Long(n), nil
	case TagFloat:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		return Float(math.Float32frombits(uint32(n))), nil
	case TagDouble:
		n, err := readInt64(r)
		if err != nil {
			return Value{}, err
		}
		return Double(math.Float64frombits(uint64(n))), nil
	case TagString:
		s, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case TagBoolArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]bool, n)
		for i := range out {
			b, err := r.ReadByte()
			if err != nil {
				return Value{}, io.ErrUnexpectedEOF
			}
			out[i] = b == 1
		}
		return BoolArray(out), nil
	case TagByteArray:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		if n < 0 || int(n) > r.Len() {
			return Value{}, fmt.Errorf("invalid byte array length %d", n)
		}
		out := make([]byte, n)
		if _, err := io.ReadFull(r, out); err != nil {
			return Value{}, io.ErrUnexpectedEOF
		}
		return ByteArray(out), nil
	case TagShortArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]int16, n)
		for i := range out {
			if out[i], err = readInt16(r); err != nil {
				return Value{}, err
			}
		}
		return ShortArray(out), nil
	case TagIntArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]int32, n)
		for i := range out {
			if out[i], err = readInt32(r); err != nil {
				return Value{}, err
			}
		}
		return IntArray(out), nil
	case TagLongArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]int64, n)
		for i := range out {
			if out[i], err = readInt64(r); err != nil {
				return Value{}, err
			}
		}
		return LongArray(out), nil
	case TagFloatArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]float32, n)
		for i := range out {
			bits, err := readInt32(r)
			if err != nil {
				return Value{}, err
			}
			out[i] = math.Float32frombits(uint32(bits))
		}
		return FloatArray(out), nil
	case TagDoubleArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]float64, n)
		for i := range out {
			bits, err := readInt64(r)
			if err != nil {
				return Value{}, err
			}
			out[i] = math.Float64frombits(uint64(bits))
		}
		return DoubleArray(out), nil
	case TagStringArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]string, n)
		for i := range out {
			if out[i], err = readString(r); err != nil {
				return Value{}, err
			}
		}
		return StringArray(out), nil
	case TagArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, n)
		for i := range out {
			t, err := r.ReadByte()
			if err != nil {
				return Value{}, io.ErrUnexpectedEOF
			}
			if out[i], err = decodeValue(Tag(t), r); err != nil {
				return Value{}, err
			}
		}
		return ArrayOf(out), nil
	case TagObject, TagClass:
		p, err := decodeObject(r)
		if err != nil {
			return Value{}, err
		}
		return Object(p), nil
	default:
		return Value{}, fmt.Errorf("invalid data type %d", tag)
	}
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeInt16(buf *bytes.Buffer, v int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	buf.Write(b[:])
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxShort {
		return fmt.Errorf("string %q too long, max length is %d", s, maxShort)
	}
	writeInt16(buf, int16(len(s)))
	buf.WriteString(s)
	return nil
}

func writeCount(buf *bytes.Buffer, n int) error {
	if n > maxShort {
		return fmt.Errorf("array too long, max length is %d", maxShort)
	}
	writeInt16(buf, int16(n))
	return nil
}

func readInt16(r *bytes.Reader) (int16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return int16(binary.BigEndian.Uint16(b[:])), nil
}

func readInt32(r *bytes.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func readInt64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readInt16(r)
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > r.Len() {
		return "", fmt.Errorf("invalid string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", io.ErrUnexpectedEOF
	}
	return string(b), nil
}

func readCount(r *bytes.Reader) (int, error) {
	n, err := readInt16(r)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid array length %d", n)
	}
	return int(n), nil
}
