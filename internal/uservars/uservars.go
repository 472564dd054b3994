// Package uservars syncs per-user variables between room occupants over
// the extension channel.
package uservars

import (
	"context"
	"strconv"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// extensionName is the client extension variable updates are addressed
// to.
const extensionName = "we"

// Var is one named variable in an update.
type Var struct {
	Name  string
	Value sfs.Value
}

// SetUserVarsRequest carries a client's own variable changes. Every
// payload key except the extension marker is a variable.
type SetUserVarsRequest struct {
	Vars []Var
}

func (m *SetUserVarsRequest) MessageID() string             { return "SUV" }
func (m *SetUserVarsRequest) ExtensionName() string         { return extensionName }
func (m *SetUserVarsRequest) New() channel.ExtensionMessage { return &SetUserVarsRequest{} }

func (m *SetUserVarsRequest) Parse(p *sfs.Payload) error {
	m.Vars = readVars(p)
	return nil
}

func (m *SetUserVarsRequest) Build(p *sfs.Payload) error {
	writeVars(p, m.Vars)
	return nil
}

// SetPositionalVarsRequest carries a client's position state. Same
// shape as a user variable update, but the values are transient.
type SetPositionalVarsRequest struct {
	Vars []Var
}

func (m *SetPositionalVarsRequest) MessageID() string             { return "SPV" }
func (m *SetPositionalVarsRequest) ExtensionName() string         { return extensionName }
func (m *SetPositionalVarsRequest) New() channel.ExtensionMessage { return &SetPositionalVarsRequest{} }

func (m *SetPositionalVarsRequest) Parse(p *sfs.Payload) error {
	m.Vars = readVars(p)
	return nil
}

func (m *SetPositionalVarsRequest) Build(p *sfs.Payload) error {
	writeVars(p, m.Vars)
	return nil
}

func readVars(p *sfs.Payload) []Var {
	var vars []Var
	for _, key := range p.Keys() {
		if key == "en" {
			continue
		}
		v, _ := p.Get(key)
		vars = append(vars, Var{Name: key, Value: v})
	}
	return vars
}

func writeVars(p *sfs.Payload, vars []Var) {
	for _, v := range vars {
		p.Set(v.Name, v.Value)
	}
}

// VarUpdate is one user's changed variables within a room.
type VarUpdate struct {
	UserID int32
	RoomID int32
	Vars   []Var
}

// UserVarsUpdate pushes variable changes to the other occupants of a
// room. Each entry names the user and room alongside the variables.
type UserVarsUpdate struct {
	Updates    []VarUpdate
	Positional bool
}

func (m *UserVarsUpdate) MessageID() string {
	if m.Positional {
		return "SPV"
	}
	return "SUV"
}
func (m *UserVarsUpdate) ExtensionName() string { return extensionName }
func (m *UserVarsUpdate) New() channel.ExtensionMessage {
	return &UserVarsUpdate{Positional: m.Positional}
}

func (m *UserVarsUpdate) Parse(p *sfs.Payload) error {
	entries, err := p.GetArray("arr")
	if err != nil {
		return err
	}
	for _, raw := range entries {
		obj, ok := raw.AsObject()
		if !ok {
			continue
		}
		update := VarUpdate{}
		if id, err := obj.GetInt("MID"); err == nil {
			update.UserID = id
		}
		if rid, err := obj.GetString("RID"); err == nil {
			n, err := strconv.ParseInt(rid, 10, 32)
			if err != nil {
				return err
			}
			update.RoomID = int32(n)
		}
		for _, key := range obj.Keys() {
			if key == "MID" || key == "RID" {
				continue
			}
			v, _ := obj.Get(key)
			update.Vars = append(update.Vars, Var{Name: key, Value: v})
		}
		m.Updates = append(m.Updates, update)
	}
	return nil
}

func (m *UserVarsUpdate) Build(p *sfs.Payload) error {
	entries := make([]sfs.Value, 0, len(m.Updates))
	for _, update := range m.Updates {
		obj := sfs.NewPayload()
		obj.SetInt("MID", update.UserID)
		if !m.Positional {
			obj.SetString("RID", strconv.FormatInt(int64(update.RoomID), 10))
		}
		for _, v := range update.Vars {
			obj.Set(v.Name, v.Value)
		}
		entries = append(entries, sfs.Object(obj))
	}
	p.SetArray("arr", entries)
	return nil
}

// Deps bundles what the variable sync handlers need.
type Deps struct {
	Server *transport.Server
	Hooks  *events.Hooks
}

// Attach registers the variable sync handlers on a session's extension
// channel.
func Attach(e *channel.ExtensionChannel, deps *Deps) {
	e.Register(&SetUserVarsRequest{})
	e.Register(&SetPositionalVarsRequest{})

	h := &varsHandler{deps: deps}
	e.Handle(channel.TypedExtension(h.handleUserVars))
	e.Handle(channel.TypedExtension(h.handlePositionalVars))
}

// RegisterJoinSync pushes every existing occupant's variables to a
// player joining a room, so the joiner sees the room's current state.
// Called once at startup.
func RegisterJoinSync(hooks *events.Hooks) {
	hooks.OnRoomJoin(func(ctx context.Context, ev *events.RoomJoinEvent) {
		logger := log.GetLogger(ctx)
		joiner := ev.Player.Session()

		for _, usr := range ev.Room.Users() {
			if usr.SaveID == ev.Player.Save().ID {
				continue
			}

			update := &UserVarsUpdate{}
			entry := VarUpdate{
				UserID: usr.NumericID,
				RoomID: ev.Room.ID(),
				Vars:   []Var{{Name: "UID", Value: sfs.String(usr.SaveID)}},
			}
			for _, name := range usr.VariableNames() {
				if v, ok := usr.Variable(name); ok {
					entry.Vars = append(entry.Vars, Var{Name: name, Value: v})
				}
			}
			update.Updates = append(update.Updates, entry)
			if err := channel.SendExtensionTo(joiner, update); err != nil {
				logger.Warnf("syncing user vars to session %d: %s", joiner.NumericID(), err)
				continue
			}

			posNames := usr.PositionalVariableNames()
			if len(posNames) == 0 {
				continue
			}
			positional := &UserVarsUpdate{Positional: true}
			posEntry := VarUpdate{
				UserID: usr.NumericID,
				Vars:   []Var{{Name: "UID", Value: sfs.String(usr.SaveID)}},
			}
			for _, name := range posNames {
				if v, ok := usr.PositionalVariable(name); ok {
					posEntry.Vars = append(posEntry.Vars, Var{Name: name, Value: v})
				}
			}
			positional.Updates = append(positional.Updates, posEntry)
			if err := channel.SendExtensionTo(joiner, positional); err != nil {
				logger.Warnf("syncing positional vars to session %d: %s", joiner.NumericID(), err)
			}
		}
	})
}

type varsHandler struct {
	deps *Deps
}

// handleUserVars applies the changes to the sender's occupancy entry in
// every room they are in, then pushes updates to the other occupants.
func (h *varsHandler) handleUserVars(ctx context.Context, s *transport.Session, msg *SetUserVarsRequest) (bool, error) {
	plr := player.FromSession(s)
	if plr == nil {
		return true, nil
	}

	for _, room := range plr.Rooms() {
		usr := room.User(plr.Save().ID)
		if usr == nil {
			continue
		}

		update := &UserVarsUpdate{}
		for _, v := range msg.Vars {
			usr.SetVariable(v.Name, v.Value)
			update.Updates = append(update.Updates, VarUpdate{
				UserID: usr.NumericID,
				RoomID: room.ID(),
				Vars:   []Var{v},
			})
		}
		h.fanOut(ctx, plr, room, update)
	}
	return true, nil
}

func (h *varsHandler) handlePositionalVars(ctx context.Context, s *transport.Session, msg *SetPositionalVarsRequest) (bool, error) {
	plr := player.FromSession(s)
	if plr == nil {
		return true, nil
	}

	for _, room := range plr.Rooms() {
		usr := room.User(plr.Save().ID)
		if usr == nil {
			continue
		}

		update := &UserVarsUpdate{Positional: true}
		entry := VarUpdate{UserID: usr.NumericID}
		for _, v := range msg.Vars {
			usr.SetPositionalVariable(v.Name, v.Value)
			entry.Vars = append(entry.Vars, v)
		}
		update.Updates = append(update.Updates, entry)
		h.fanOut(ctx, plr, room, update)
	}
	return true, nil
}

func (h *varsHandler) fanOut(ctx context.Context, sender *player.Player, room *zones.Room, update *UserVarsUpdate) {
	logger := log.GetLogger(ctx)
	for _, u := range room.Users() {
		if u.SaveID == sender.Save().ID {
			continue
		}
		target := h.deps.Server.SessionByNumericID(u.NumericID)
		if target == nil {
			continue
		}
		if err := channel.SendExtensionTo(target, update); err != nil {
			logger.Warnf("delivering variable update to session %d: %s", u.NumericID, err)
		}
	}
}
