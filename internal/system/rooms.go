package system

import (
	"context"
	"fmt"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// JoinRoomPacket announces a room join, carrying the room and its
// occupant list.
type JoinRoomPacket struct {
	Room     *zones.Room
	Users    []*zones.User
	Resolver zones.VariableResolver
}

func (p *JoinRoomPacket) ID() int16           { return 4 }
func (p *JoinRoomPacket) New() channel.Packet { return &JoinRoomPacket{} }
func (p *JoinRoomPacket) Synchronous() bool   { return false }

func (p *JoinRoomPacket) Parse(d *sfs.PacketData) error { return nil }

func (p *JoinRoomPacket) Build(d *sfs.PacketData) error {
	w := sfs.NewSequenceWriter()
	p.Room.WriteTo(w, false, p.Resolver)
	d.Payload.SetArray("r", w.Values())

	users := make([]sfs.Value, 0, len(p.Users))
	for _, u := range p.Users {
		users = append(users, sfs.ArrayOf(u.Values()))
	}
	d.Payload.SetArray("ul", users)
	return nil
}

// GroupSubscribePacket subscribes the client to a room group.
type GroupSubscribePacket struct {
	GroupID  string
	RoomList []*zones.Room
	Resolver zones.VariableResolver
}

func (p *GroupSubscribePacket) ID() int16           { return 15 }
func (p *GroupSubscribePacket) New() channel.Packet { return &GroupSubscribePacket{} }
func (p *GroupSubscribePacket) Synchronous() bool   { return false }

func (p *GroupSubscribePacket) Parse(d *sfs.PacketData) error { return nil }

func (p *GroupSubscribePacket) Build(d *sfs.PacketData) error {
	d.Payload.SetString("g", p.GroupID)

	rooms := make([]sfs.Value, 0, len(p.RoomList))
	for _, r := range p.RoomList {
		w := sfs.NewSequenceWriter()
		r.WriteTo(w, false, p.Resolver)
		rooms = append(rooms, sfs.ArrayOf(w.Values()))
	}
	d.Payload.SetArray("rl", rooms)
	return nil
}

// SetUserVariablePacket broadcasts a user's variable changes.
type SetUserVariablePacket struct {
	UserID    int32
	Variables []sfs.Value
}

func (p *SetUserVariablePacket) ID() int16           { return 12 }
func (p *SetUserVariablePacket) New() channel.Packet { return &SetUserVariablePacket{} }
func (p *SetUserVariablePacket) Synchronous() bool   { return false }

func (p *SetUserVariablePacket) Parse(d *sfs.PacketData) error {
	id, err := d.Payload.GetInt("u")
	if err != nil {
		return err
	}
	vars, err := d.Payload.GetArray("vl")
	if err != nil {
		return err
	}
	p.UserID = id
	p.Variables = vars
	return nil
}

func (p *SetUserVariablePacket) Build(d *sfs.PacketData) error {
	d.Payload.SetInt("u", p.UserID)
	d.Payload.SetArray("vl", p.Variables)
	return nil
}

// JoinRoom seats the player, announces the join to the client, and
// fires the room join interceptors.
func JoinRoom(ctx context.Context, deps *Deps, s *transport.Session, plr *player.Player, room *zones.Room) error {
	plr.JoinRoom(room)

	pkt := &JoinRoomPacket{
		Room:     room,
		Users:    room.Users(),
		Resolver: deps.Resolver,
	}
	if err := sendToSystemChannel(s, pkt); err != nil {
		return fmt.Errorf("announcing join of room %s: %w", room.Name(), err)
	}

	deps.Hooks.RoomJoin(ctx, &events.RoomJoinEvent{Player: plr, Room: room})
	return nil
}

// SetRoomVariableRequest updates room variables. The same shape is
// broadcast to the room's occupants.
type SetRoomVariableRequest struct {
	RoomID    int32
	Variables []sfs.Value
}

func (p *SetRoomVariableRequest) ID() int16           { return 11 }
func (p *SetRoomVariableRequest) New() channel.Packet { return &SetRoomVariableRequest{} }
func (p *SetRoomVariableRequest) Synchronous() bool   { return false }

func (p *SetRoomVariableRequest) Parse(d *sfs.PacketData) error {
	id, err := d.Payload.GetInt("r")
	if err != nil {
		return err
	}
	vars, err := d.Payload.GetArray("vl")
	if err != nil {
		return err
	}
	p.RoomID = id
	p.Variables = vars
	return nil
}

func (p *SetRoomVariableRequest) Build(d *sfs.PacketData) error {
	d.Payload.SetInt("r", p.RoomID)
	d.Payload.SetArray("vl", p.Variables)
	return nil
}

type roomVariableHandler struct {
	deps *Deps
	ch   *channel.Channel
}

// handle applies variable updates from a room occupant and rebroadcasts
// them to everyone else in the room.
func (h *roomVariableHandler) handle(ctx context.Context, s *transport.Session, pkt *SetRoomVariableRequest) (bool, error) {
	plr := player.FromSession(s)
	if plr == nil {
		return false, nil
	}
	if !plr.InRoom(pkt.RoomID) {
		return true, fmt.Errorf("session %d set variables for room %d it is not in", s.NumericID(), pkt.RoomID)
	}

	room := h.deps.Zones.RoomByID(pkt.RoomID)
	if room == nil {
		return true, fmt.Errorf("room %d does not exist", pkt.RoomID)
	}

	logger := log.GetLogger(ctx)

	var applied []string
	for _, raw := range pkt.Variables {
		seq, ok := raw.AsArray()
		if !ok {
			logger.Warnf("malformed variable entry from session %d", s.NumericID())
			continue
		}
		name, value, err := zones.ParseVariableUpdate(seq)
		if err != nil {
			logger.Warnf("malformed variable entry from session %d: %s", s.NumericID(), err)
			continue
		}

		if v := room.Variable(name); v != nil {
			v.SetValue(value)
		} else {
			room.AddVariable(zones.NewVariable(name, value, false, false))
		}
		applied = append(applied, name)
	}

	if len(applied) > 0 {
		h.deps.Hooks.RoomVariables(ctx, &events.RoomVariablesEvent{Player: plr, Room: room, Names: applied})
	}

	// Fan the update out to the other occupants.
	for _, u := range room.Users() {
		if u.SaveID == plr.Save().ID {
			continue
		}
		target := h.deps.Server.SessionByNumericID(u.NumericID)
		if target == nil {
			continue
		}
		if err := sendToSystemChannel(target, pkt); err != nil {
			logger.Warnf("forwarding variable update to session %d: %s", u.NumericID, err)
		}
	}
	return true, nil
}
