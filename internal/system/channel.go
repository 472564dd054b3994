package system

import (
	"context"

	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// ChannelID is the system channel's wire id.
const ChannelID = 0

// Deps bundles what the system channel handlers need.
type Deps struct {
	Server   *transport.Server
	Zones    *zones.ZoneManager
	Accounts services.AccountProvider
	Tokens   services.TokenValidator
	Perms    services.PermissionEngine
	Hooks    *events.Hooks

	// Resolver supplies values for dynamic room variables. May be nil,
	// in which case dynamic variables serialize as null.
	Resolver zones.VariableResolver

	// PostJoin runs after a successful login, once the response and
	// group subscriptions have been sent. Automatic room joins hang
	// off this. May be nil.
	PostJoin func(ctx context.Context, s *transport.Session, plr *player.Player) error
}

// NewChannel builds the system channel for a session: login, logout,
// room variables, and message routing.
func NewChannel(s *transport.Session, deps *Deps) *channel.Channel {
	ch := channel.New(ChannelID, s)

	ch.Register(&LoginRequest{})
	ch.Register(&LogoutRequest{})
	ch.Register(&SetRoomVariableRequest{})
	ch.Register(&MessagePacket{})

	login := &loginHandler{deps: deps, ch: ch}
	ch.Handle(channel.Typed(login.handle))

	logout := &logoutHandler{deps: deps, ch: ch}
	ch.Handle(channel.Typed(logout.handle))

	roomVars := &roomVariableHandler{deps: deps, ch: ch}
	ch.Handle(channel.Typed(roomVars.handle))

	messages := &messageHandler{deps: deps}
	ch.Handle(channel.Typed(messages.handle))

	return ch
}

// sendToSystemChannel delivers a packet to another session's system
// channel.
func sendToSystemChannel(target *transport.Session, p channel.Packet) error {
	ch := channel.New(ChannelID, target)
	return ch.Send(p)
}
