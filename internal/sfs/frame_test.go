package sfs

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestPacketData_RoundTrip(t *testing.T) {
	d := NewPacketData(0, 1)
	d.Payload.SetString("zn", "JumpStart")

	out, err := ParsePacketData(d.ToPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "channel", out.Channel, byte(0))
	testutil.AssertEqual(t, "packet id", out.PacketID, int16(1))
	testutil.AssertEqual(t, "has error", out.HasError, false)

	zn, err := out.Payload.GetString("zn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "payload field", zn, "JumpStart")
}

func TestPacketData_ErrorEnvelope(t *testing.T) {
	d := NewPacketData(0, 1)
	d.SetError(ErrInvalidZone, "FarFarAway")

	out, err := ParsePacketData(d.ToPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "has error", out.HasError, true)
	testutil.AssertEqual(t, "error code", out.ErrorCode, ErrInvalidZone)
	testutil.AssertEqual(t, "arg count", len(out.ErrorArgs), 1)
	testutil.AssertEqual(t, "arg", out.ErrorArgs[0], "FarFarAway")
}

func TestParsePacketData_MissingFields(t *testing.T) {
	tests := map[string]*Payload{
		"empty":           NewPayload(),
		"missing channel": NewPayload().SetShort("a", 1).SetObject("p", NewPayload()),
		"missing id":      NewPayload().SetByte("c", 0).SetObject("p", NewPayload()),
		"missing payload": NewPayload().SetByte("c", 0).SetShort("a", 1),
	}

	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePacketData(p)
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestErrorCode_String(t *testing.T) {
	tests := map[string]struct {
		code ErrorCode
		exp  string
	}{
		"invalid zone":     {ErrInvalidZone, "INVALID_ZONE"},
		"invalid username": {ErrInvalidUsername, "INVALID_USERNAME"},
		"zone inactive":    {ErrZoneInactive, "ZONE_INACTIVE"},
		"unknown":          {ErrorCode(99), "ERROR_99"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "name", tt.code.String(), tt.exp)
		})
	}
}
