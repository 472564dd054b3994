package system

import (
	"context"

	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// LogoutRequest ends a login. The same empty shape is echoed back as
// confirmation before the session is torn down.
type LogoutRequest struct{}

func (p *LogoutRequest) ID() int16           { return 2 }
func (p *LogoutRequest) New() channel.Packet { return &LogoutRequest{} }
func (p *LogoutRequest) Synchronous() bool   { return true }

func (p *LogoutRequest) Parse(d *sfs.PacketData) error { return nil }
func (p *LogoutRequest) Build(d *sfs.PacketData) error { return nil }

type logoutHandler struct {
	deps *Deps
	ch   *channel.Channel
}

func (h *logoutHandler) handle(ctx context.Context, s *transport.Session, pkt *LogoutRequest) (bool, error) {
	plr := player.FromSession(s)
	if plr == nil {
		// Nothing bound, still confirm so the client can retry a login.
		return true, h.ch.Send(&LogoutRequest{})
	}

	plr.LeaveAllRooms()
	player.Unbind(s)
	h.deps.Hooks.Disconnect(ctx, &events.DisconnectEvent{Player: plr, Reason: transport.ReasonLogout})

	err := h.ch.Send(&LogoutRequest{})
	s.CloseWithReason(transport.ReasonLogout)
	return true, err
}

// RegisterDisconnects tears logged-in players down when their session
// drops without a logout: the player leaves its rooms and the
// disconnect interceptors fire.
func RegisterDisconnects(sv *transport.Server, hooks *events.Hooks) {
	sv.OnDisconnect(func(ctx context.Context, s *transport.Session) {
		plr := player.FromSession(s)
		if plr == nil {
			return
		}
		plr.LeaveAllRooms()
		player.Unbind(s)
		hooks.Disconnect(ctx, &events.DisconnectEvent{Player: plr, Reason: s.DisconnectReason()})
	})
}
