package system

import (
	"context"
	"encoding/base32"
	"fmt"
	"slices"
	"strings"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// tokenRedacted replaces the login token in error responses so it never
// round-trips through client error dialogs.
const tokenRedacted = "<token redacted>"

// loginCapability is the token capability required to enter the game.
const loginCapability = "gp"

// LoginRequest asks to enter a zone. The user name field carries the
// base32-encoded session token.
type LoginRequest struct {
	SessionToken string
	ZoneName     string
}

func (p *LoginRequest) ID() int16          { return 1 }
func (p *LoginRequest) New() channel.Packet { return &LoginRequest{} }
func (p *LoginRequest) Synchronous() bool  { return true }

func (p *LoginRequest) Parse(d *sfs.PacketData) error {
	token, err := d.Payload.GetString("un")
	if err != nil {
		return err
	}
	zone, err := d.Payload.GetString("zn")
	if err != nil {
		return err
	}
	p.SessionToken = token
	p.ZoneName = zone
	return nil
}

func (p *LoginRequest) Build(d *sfs.PacketData) error {
	d.Payload.SetString("un", p.SessionToken)
	d.Payload.SetString("zn", p.ZoneName)
	return nil
}

// LoginResponse reports a successful zone entry. Failures are sent as
// an error envelope with an empty body.
type LoginResponse struct {
	ZoneName         string
	RoomList         []*zones.Room
	UserName         string
	SessionNumericID int32
	Privilege        int16
	ReconnectSeconds int16
	Resolver         zones.VariableResolver
}

func (p *LoginResponse) ID() int16          { return 1 }
func (p *LoginResponse) New() channel.Packet { return &LoginResponse{} }
func (p *LoginResponse) Synchronous() bool  { return false }

func (p *LoginResponse) Parse(d *sfs.PacketData) error { return nil }

func (p *LoginResponse) Build(d *sfs.PacketData) error {
	rooms := make([]sfs.Value, 0, len(p.RoomList))
	for _, r := range p.RoomList {
		w := sfs.NewSequenceWriter()
		r.WriteTo(w, false, p.Resolver)
		rooms = append(rooms, sfs.ArrayOf(w.Values()))
	}
	d.Payload.SetArray("rl", rooms)
	d.Payload.SetString("zn", p.ZoneName)
	d.Payload.SetShort("rs", p.ReconnectSeconds)
	d.Payload.SetShort("pi", p.Privilege)
	d.Payload.SetString("un", p.UserName)
	d.Payload.SetInt("id", p.SessionNumericID)
	return nil
}

type loginHandler struct {
	deps *Deps
	ch   *channel.Channel
}

func (h *loginHandler) handle(ctx context.Context, s *transport.Session, pkt *LoginRequest) (bool, error) {
	logger := log.GetLogger(ctx)

	// A session logs in once.
	if player.FromSession(s) != nil {
		return false, nil
	}

	// The token field is base32-encoded on the wire.
	tokenRaw, err := decodeBase32(pkt.SessionToken)
	if err != nil {
		logger.Warnf("login from %s with undecodable token", s.RemoteAddr())
		return true, h.ch.SendError(&LoginResponse{}, sfs.ErrInvalidUsername, tokenRedacted)
	}

	info, err := h.deps.Tokens.Validate(ctx, tokenRaw)
	if err != nil || !slices.Contains(info.Capabilities, loginCapability) {
		logger.Warnf("login from %s rejected: invalid or unprivileged token", s.RemoteAddr())
		return true, h.ch.SendError(&LoginResponse{}, sfs.ErrInvalidUsername, tokenRedacted)
	}

	account, err := h.deps.Accounts.Account(ctx, info.AccountID)
	if err != nil {
		logger.Errorf("account %s failed to log in: %s", info.AccountID, err)
		return true, h.ch.SendError(&LoginResponse{}, sfs.ErrInvalidUsername, tokenRedacted)
	}

	save, err := h.deps.Accounts.Save(ctx, info.AccountID, info.SaveID)
	if err != nil {
		logger.Errorf("account %s failed to log in: save %q was not found", info.AccountID, info.SaveID)
		return true, h.ch.SendError(&LoginResponse{}, sfs.ErrInvalidUsername, tokenRedacted)
	}

	logger.Infof("account login from %s to %s: logging in as %s", s.RemoteAddr(), account.ID, displayName(account))

	zone := h.deps.Zones.Zone(pkt.ZoneName)
	if zone == nil {
		logger.Errorf("account %s failed to log in: zone %q does not exist", account.ID, pkt.ZoneName)
		return true, h.ch.SendError(&LoginResponse{}, sfs.ErrInvalidZone, pkt.ZoneName)
	}
	if !zone.Active() {
		logger.Errorf("account %s failed to log in: zone %q is inactive", account.ID, pkt.ZoneName)
		return true, h.ch.SendError(&LoginResponse{}, sfs.ErrZoneInactive, pkt.ZoneName)
	}

	plr := player.New(s, account, save, zone)

	privilege := account.Level.WireRank()
	if account.Guest {
		privilege = 0
	}

	draft := &events.LoginDraft{
		RoomList:         zone.Rooms(),
		ReconnectSeconds: 5,
		Privilege:        privilege,
	}

	ev := &events.AuthenticateEvent{
		Session: s,
		Account: account,
		Save:    save,
		Zone:    zone,
		Draft:   draft,
	}
	if h.deps.Hooks.Authenticate(ctx, ev) == events.Cancel || draft.HasError {
		logger.Errorf("account %s failed to log in: authentication was rejected", account.ID)
		code, args := draft.ErrorCode, draft.ErrorArgs
		if !draft.HasError {
			code, args = sfs.ErrInvalidUsername, []string{tokenRedacted}
		}
		return true, h.ch.SendError(&LoginResponse{}, code, args...)
	}

	resp := &LoginResponse{
		ZoneName:         zone.Name(),
		RoomList:         draft.RoomList,
		ReconnectSeconds: draft.ReconnectSeconds,
		Privilege:        draft.Privilege,
		Resolver:         h.deps.Resolver,

		// Session details are filled in after interception so
		// interceptors never see token data.
		UserName:         pkt.SessionToken,
		SessionNumericID: s.NumericID(),
	}

	player.Bind(s, plr)
	logger.Infof("account %s joined as %s (save id: %s)", account.ID, save.DisplayName, save.ID)
	h.deps.Hooks.Join(ctx, &events.JoinEvent{Player: plr})

	if err := h.ch.Send(resp); err != nil {
		return true, err
	}

	// Post-join continuation: subscribe the player to the zone's room
	// groups.
	for _, g := range zone.Groups() {
		if err := h.ch.Send(&GroupSubscribePacket{GroupID: g.Name(), RoomList: g.Rooms(), Resolver: h.deps.Resolver}); err != nil {
			return true, err
		}
	}

	if h.deps.PostJoin != nil {
		if err := h.deps.PostJoin(ctx, s, plr); err != nil {
			return true, err
		}
	}
	return true, nil
}

func decodeBase32(s string) (string, error) {
	s = strings.ToUpper(s)
	data, err := base32.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
		if err != nil {
			return "", fmt.Errorf("decoding token: %w", err)
		}
	}
	return string(data), nil
}

func displayName(a *services.Account) string {
	if a.Guest {
		return "guest"
	}
	return a.Username
}
