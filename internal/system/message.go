package system

import (
	"context"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// Message types.
const (
	MessageTypeBroadcast = 0
	MessageTypeDirect    = 1
	MessageTypeModerator = 2
	MessageTypeAdmin     = 3
	MessageTypeBuddy     = 5
)

// Recipient modes for moderator and admin messages.
const (
	RecipientModeUser = 0
	RecipientModeRoom = 1
	RecipientModeZone = 2
)

// Permission nodes consulted per candidate recipient of tiered
// messages.
const (
	permModeratorMessages = "mmo.servicemessages.moderator"
	permAdminMessages     = "mmo.servicemessages.admin"
)

// MessagePacket is the addressed message envelope. Parse reads the
// serverbound shape (room or recipient addressing); Build writes the
// clientbound shape (resolved sender id plus sender data).
type MessagePacket struct {
	Type            byte
	RoomID          int32
	Recipient       int32
	RecipientString string
	RecipientMode   byte
	Sender          int32
	SenderData      *zones.User
	Message         string
	Parameters      *sfs.Payload
}

func (p *MessagePacket) ID() int16           { return 7 }
func (p *MessagePacket) New() channel.Packet { return &MessagePacket{RoomID: -1} }
func (p *MessagePacket) Synchronous() bool   { return false }

func (p *MessagePacket) Parse(d *sfs.PacketData) error {
	t, err := d.Payload.GetByte("t")
	if err != nil {
		return err
	}
	p.Type = t

	switch t {
	case MessageTypeBroadcast:
		if p.RoomID, err = d.Payload.GetInt("r"); err != nil {
			return err
		}
		if p.Sender, err = d.Payload.GetInt("u"); err != nil {
			return err
		}
	case MessageTypeModerator, MessageTypeAdmin:
		rm, err := d.Payload.GetInt("rm")
		if err != nil {
			return err
		}
		p.RecipientMode = byte(rm)
		if p.RecipientMode == RecipientModeZone {
			if p.RecipientString, err = d.Payload.GetString("rc"); err != nil {
				return err
			}
		} else {
			if p.Recipient, err = d.Payload.GetInt("rc"); err != nil {
				return err
			}
		}
	default:
		if p.Recipient, err = d.Payload.GetInt("rc"); err != nil {
			return err
		}
	}

	if p.Message, err = d.Payload.GetString("m"); err != nil {
		return err
	}
	if d.Payload.Has("p") {
		if p.Parameters, err = d.Payload.GetObject("p"); err != nil {
			return err
		}
	}
	return nil
}

func (p *MessagePacket) Build(d *sfs.PacketData) error {
	d.Payload.SetByte("t", p.Type)
	switch p.Type {
	case MessageTypeBroadcast:
		d.Payload.SetInt("r", p.RoomID)
		d.Payload.SetInt("u", p.Sender)
	default:
		d.Payload.SetInt("u", p.Sender)
		if p.SenderData != nil {
			d.Payload.SetArray("sd", p.SenderData.Values())
		}
	}
	d.Payload.SetString("m", p.Message)
	if p.Parameters != nil {
		d.Payload.SetObject("p", p.Parameters)
	}
	return nil
}

type messageHandler struct {
	deps *Deps
}

func (h *messageHandler) handle(ctx context.Context, s *transport.Session, pkt *MessagePacket) (bool, error) {
	plr := player.FromSession(s)
	if plr == nil {
		return false, nil
	}

	out := &MessagePacket{
		Type:       pkt.Type,
		RoomID:     pkt.RoomID,
		Sender:     s.NumericID(),
		SenderData: senderData(plr),
		Message:    pkt.Message,
		Parameters: pkt.Parameters,
	}

	switch pkt.Type {
	case MessageTypeBroadcast:
		h.broadcast(ctx, s, pkt.RoomID, out)
	case MessageTypeDirect:
		h.sendTo(ctx, h.deps.Server.SessionByNumericID(pkt.Recipient), out)
	case MessageTypeModerator, MessageTypeAdmin:
		h.tiered(ctx, pkt, out)
	case MessageTypeBuddy:
		// Buddy messages are not implemented.
	}
	return true, nil
}

// broadcast forwards to every session whose player is in the room,
// excluding the sender.
func (h *messageHandler) broadcast(ctx context.Context, sender *transport.Session, roomID int32, out *MessagePacket) {
	for _, target := range h.deps.Server.Sessions() {
		if target == sender {
			continue
		}
		tp := player.FromSession(target)
		if tp == nil || !tp.InRoom(roomID) {
			continue
		}
		h.sendTo(ctx, target, out)
	}
}

// tiered delivers moderator and admin messages. Each candidate
// recipient is checked against the tier's permission node individually;
// recipients lacking it are skipped without affecting the rest.
func (h *messageHandler) tiered(ctx context.Context, pkt *MessagePacket, out *MessagePacket) {
	node := permModeratorMessages
	floor := services.LevelModerator
	if pkt.Type == MessageTypeAdmin {
		node = permAdminMessages
		floor = services.LevelAdministrator
	}

	switch pkt.RecipientMode {
	case RecipientModeUser:
		target := h.deps.Server.SessionByNumericID(pkt.Recipient)
		if target == nil {
			return
		}
		tp := player.FromSession(target)
		if tp == nil || !h.deps.Perms.Has(tp.Account(), node, floor) {
			return
		}
		h.sendTo(ctx, target, out)

	case RecipientModeRoom:
		room := h.deps.Zones.RoomByID(pkt.Recipient)
		if room == nil {
			return
		}
		for _, target := range h.deps.Server.Sessions() {
			tp := player.FromSession(target)
			if tp == nil || !tp.InRoom(room.ID()) {
				continue
			}
			if !h.deps.Perms.Has(tp.Account(), node, floor) {
				continue
			}
			h.sendTo(ctx, target, out)
		}

	case RecipientModeZone:
		// Zone-wide service messages are not implemented.
	}
}

func (h *messageHandler) sendTo(ctx context.Context, target *transport.Session, out *MessagePacket) {
	if target == nil {
		return
	}
	if err := sendToSystemChannel(target, out); err != nil {
		log.GetLogger(ctx).Warnf("forwarding message to session %d: %s", target.NumericID(), err)
	}
}

// senderData finds the sender's occupancy entry in the first room they
// are joined to or spectating, if any.
func senderData(plr *player.Player) *zones.User {
	for _, r := range plr.Rooms() {
		if u := r.User(plr.Save().ID); u != nil {
			return u
		}
	}
	return nil
}
