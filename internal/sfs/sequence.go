package sfs

import "fmt"

// Vector3 is a 3-component coordinate carried flattened in sequences.
type Vector3 struct {
	X, Y, Z float64
}

// Values returns the vector flattened into consecutive double slots, the
// form sequences and generic arrays carry it in.
func (v Vector3) Values() []Value {
	return []Value{Double(v.X), Double(v.Y), Double(v.Z)}
}

// Quaternion is a 4-component rotation carried flattened in sequences.
type Quaternion struct {
	X, Y, Z, W float64
}

func (q Quaternion) Values() []Value {
	return []Value{Double(q.X), Double(q.Y), Double(q.Z), Double(q.W)}
}

// SequenceReader reads a positionally-typed value tuple, the compact body
// encoding used inside room and user serialization. Reads past the end or
// with a mismatched type return errors that discard the packet being parsed;
// they never affect the connection.
type SequenceReader struct {
	arr []Value
	pos int
}

func NewSequenceReader(arr []Value) *SequenceReader {
	return &SequenceReader{arr: arr}
}

func (r *SequenceReader) HasNext() bool { return r.pos < len(r.arr) }

func (r *SequenceReader) Position() int { return r.pos }

func (r *SequenceReader) next() (Value, error) {
	if !r.HasNext() {
		return Value{}, fmt.Errorf("sequence slot %d: no further elements", r.pos)
	}
	v := r.arr[r.pos]
	r.pos++
	return v, nil
}

func (r *SequenceReader) slotErr(want string, got Tag) error {
	return fmt.Errorf("sequence slot %d: expected %s, got %s", r.pos-1, want, got)
}

func (r *SequenceReader) Int() (int32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	n, ok := v.AsInt()
	if !ok {
		return 0, r.slotErr("int", v.Tag())
	}
	return n, nil
}

func (r *SequenceReader) Long() (int64, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	n, ok := v.AsLong()
	if !ok {
		return 0, r.slotErr("long", v.Tag())
	}
	return n, nil
}

func (r *SequenceReader) Short() (int16, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	n, ok := v.AsShort()
	if !ok {
		return 0, r.slotErr("short", v.Tag())
	}
	return n, nil
}

func (r *SequenceReader) Byte() (byte, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	n, ok := v.AsByte()
	if !ok {
		return 0, r.slotErr("byte", v.Tag())
	}
	return n, nil
}

func (r *SequenceReader) Bool() (bool, error) {
	v, err := r.next()
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, r.slotErr("bool", v.Tag())
	}
	return b, nil
}

func (r *SequenceReader) ByteArray() ([]byte, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	b, ok := v.AsByteArray()
	if !ok {
		return nil, r.slotErr("byte-array", v.Tag())
	}
	return b, nil
}

func (r *SequenceReader) Float() (float32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, r.slotErr("float", v.Tag())
	}
	return f, nil
}

func (r *SequenceReader) Double() (float64, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	f, ok := v.AsDouble()
	if !ok {
		return 0, r.slotErr("double", v.Tag())
	}
	return f, nil
}

func (r *SequenceReader) String() (string, error) {
	v, err := r.next()
	if err != nil {
		return "", err
	}
	s, ok := v.AsString()
	if !ok {
		return "", r.slotErr("string", v.Tag())
	}
	return s, nil
}

func (r *SequenceReader) Object() (*Payload, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	o, ok := v.AsObject()
	if !ok {
		return nil, r.slotErr("object", v.Tag())
	}
	return o, nil
}

func (r *SequenceReader) Raw() (Value, error) {
	return r.next()
}

func (r *SequenceReader) Array() ([]Value, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	a, ok := v.AsArray()
	if !ok {
		return nil, r.slotErr("array", v.Tag())
	}
	return a, nil
}

// Vector3 reads three consecutive double slots.
func (r *SequenceReader) Vector3() (Vector3, error) {
	var v Vector3
	var err error
	if v.X, err = r.Double(); err != nil {
		return v, err
	}
	if v.Y, err = r.Double(); err != nil {
		return v, err
	}
	v.Z, err = r.Double()
	return v, err
}

// Quaternion reads four consecutive double slots.
func (r *SequenceReader) Quaternion() (Quaternion, error) {
	var q Quaternion
	var err error
	if q.X, err = r.Double(); err != nil {
		return q, err
	}
	if q.Y, err = r.Double(); err != nil {
		return q, err
	}
	if q.Z, err = r.Double(); err != nil {
		return q, err
	}
	q.W, err = r.Double()
	return q, err
}

// SequenceWriter builds a positionally-typed value tuple.
type SequenceWriter struct {
	arr []Value
}

func NewSequenceWriter() *SequenceWriter {
	return &SequenceWriter{}
}

func (w *SequenceWriter) WriteInt(v int32) *SequenceWriter {
	w.arr = append(w.arr, Int(v))
	return w
}

func (w *SequenceWriter) WriteLong(v int64) *SequenceWriter {
	w.arr = append(w.arr, Long(v))
	return w
}

func (w *SequenceWriter) WriteShort(v int16) *SequenceWriter {
	w.arr = append(w.arr, Short(v))
	return w
}

func (w *SequenceWriter) WriteByte(v byte) *SequenceWriter {
	w.arr = append(w.arr, Byte(v))
	return w
}

func (w *SequenceWriter) WriteBool(v bool) *SequenceWriter {
	w.arr = append(w.arr, Bool(v))
	return w
}

func (w *SequenceWriter) WriteByteArray(v []byte) *SequenceWriter {
	w.arr = append(w.arr, ByteArray(v))
	return w
}

func (w *SequenceWriter) WriteFloat(v float32) *SequenceWriter {
	w.arr = append(w.arr, Float(v))
	return w
}

func (w *SequenceWriter) WriteDouble(v float64) *SequenceWriter {
	w.arr = append(w.arr, Double(v))
	return w
}

func (w *SequenceWriter) WriteString(v string) *SequenceWriter {
	w.arr = append(w.arr, String(v))
	return w
}

func (w *SequenceWriter) WriteObject(v *Payload) *SequenceWriter {
	if v == nil {
		w.arr = append(w.arr, Null())
		return w
	}
	w.arr = append(w.arr, Object(v))
	return w
}

func (w *SequenceWriter) WriteValue(v Value) *SequenceWriter {
	w.arr = append(w.arr, v)
	return w
}

func (w *SequenceWriter) WriteArray(v []Value) *SequenceWriter {
	w.arr = append(w.arr, ArrayOf(v))
	return w
}

// WriteVector3 flattens the vector into three consecutive double slots; it
// is never written as a single nested value.
func (w *SequenceWriter) WriteVector3(v Vector3) *SequenceWriter {
	w.arr = append(w.arr, v.Values()...)
	return w
}

// WriteQuaternion flattens the rotation into four consecutive double slots.
func (w *SequenceWriter) WriteQuaternion(q Quaternion) *SequenceWriter {
	w.arr = append(w.arr, q.Values()...)
	return w
}

// Values returns the accumulated tuple.
func (w *SequenceWriter) Values() []Value {
	return w.arr
}
