package sfs

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestSequenceWriterReader_RoundTrip(t *testing.T) {
	inner := NewPayload().SetInt("hp", 50)

	values := NewSequenceWriter().
		WriteInt(1000).
		WriteString("gorge").
		WriteShort(3).
		WriteBool(true).
		WriteDouble(2.5).
		WriteObject(inner).
		WriteObject(nil).
		Values()

	r := NewSequenceReader(values)

	id, err := r.Int()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "id", id, int32(1000))

	name, err := r.String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "name", name, "gorge")

	count, err := r.Short()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "count", count, int16(3))

	flag, err := r.Bool()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "flag", flag, true)

	speed, err := r.Double()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "speed", speed, 2.5)

	obj, err := r.Object()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hp, err := obj.GetInt("hp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "hp", hp, int32(50))

	nilObj, err := r.Object()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nilObj != nil {
		t.Error("expected nil object for null slot")
	}

	testutil.AssertEqual(t, "exhausted", r.HasNext(), false)
}

func TestSequenceReader_IntWidening(t *testing.T) {
	values := []Value{Byte(4), Short(300), Int(70000)}
	r := NewSequenceReader(values)

	for i, exp := range []int32{4, 300, 70000} {
		got, err := r.Int()
		if err != nil {
			t.Fatalf("slot %d: unexpected error: %v", i, err)
		}
		testutil.AssertEqual(t, "value", got, exp)
	}
}

func TestSequenceReader_Errors(t *testing.T) {
	t.Run("past end", func(t *testing.T) {
		r := NewSequenceReader(nil)
		_, err := r.Int()
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		r := NewSequenceReader([]Value{String("nope")})
		_, err := r.Int()
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestSequence_Vector3(t *testing.T) {
	in := Vector3{X: 1, Y: -2.5, Z: 10}

	values := NewSequenceWriter().WriteVector3(in).Values()
	testutil.AssertEqual(t, "flattened length", len(values), 3)

	out, err := NewSequenceReader(values).Vector3()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "vector", out, in)
}

func TestSequence_Quaternion(t *testing.T) {
	in := Quaternion{X: 0, Y: 0.5, Z: 0, W: 1}

	values := NewSequenceWriter().WriteQuaternion(in).Values()
	testutil.AssertEqual(t, "flattened length", len(values), 4)

	out, err := NewSequenceReader(values).Quaternion()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "quaternion", out, in)
}
