package sfs

import "fmt"

// PacketData is the frame envelope every packet travels in: a channel id, a
// packet id indexing the channel's catalog, the body payload and optional
// error details.
type PacketData struct {
	Channel  byte
	PacketID int16

	HasError  bool
	ErrorCode ErrorCode
	ErrorArgs []string

	Payload *Payload
}

func NewPacketData(channel byte, packetID int16) *PacketData {
	return &PacketData{
		Channel:  channel,
		PacketID: packetID,
		Payload:  NewPayload(),
	}
}

// SetError marks the frame as an error response.
func (d *PacketData) SetError(code ErrorCode, args ...string) {
	d.HasError = true
	d.ErrorCode = code
	d.ErrorArgs = args
}

// ParsePacketData decodes the frame envelope from a payload object.
func ParsePacketData(p *Payload) (*PacketData, error) {
	if !p.Has("c") || !p.Has("a") || !p.Has("p") {
		return nil, fmt.Errorf("invalid packet: missing envelope entries")
	}
	channel, err := p.GetByte("c")
	if err != nil {
		return nil, err
	}
	id, err := p.GetShort("a")
	if err != nil {
		return nil, err
	}
	body, err := p.GetObject("p")
	if err != nil {
		return nil, err
	}
	d := &PacketData{
		Channel:  channel,
		PacketID: id,
		Payload:  body,
	}
	if p.Has("ec") {
		code, err := p.GetShort("ec")
		if err != nil {
			return nil, err
		}
		d.HasError = true
		d.ErrorCode = ErrorCode(code)
		d.ErrorArgs = []string{}
		if p.Has("ep") {
			if d.ErrorArgs, err = p.GetStringArray("ep"); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// ToPayload builds the envelope payload for encoding.
func (d *PacketData) ToPayload() *Payload {
	p := NewPayload()
	p.SetByte("c", d.Channel)
	p.SetShort("a", d.PacketID)
	body := d.Payload
	if body == nil {
		body = NewPayload()
	}
	p.SetObject("p", body)
	if d.HasError {
		p.SetShort("ec", int16(d.ErrorCode))
		args := d.ErrorArgs
		if args == nil {
			args = []string{}
		}
		p.SetStringArray("ep", args)
	}
	return p
}
