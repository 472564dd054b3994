// Package events carries the server's interception points. Interceptors
// are plain callbacks run synchronously in registration order against a
// shared mutable event context; cancelable events stop at the first
// interceptor that cancels.
package events

import (
	"context"
	"sync"

	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// Decision is an interceptor's verdict on a cancelable event.
type Decision int

const (
	Continue Decision = iota
	Cancel
)

// LoginDraft is the mutable login response an authenticate interceptor
// may rewrite before it is sent.
type LoginDraft struct {
	HasError  bool
	ErrorCode sfs.ErrorCode
	ErrorArgs []string

	RoomList         []*zones.Room
	ReconnectSeconds int16
	Privilege        int16
}

// Fail marks the draft as an error response.
func (d *LoginDraft) Fail(code sfs.ErrorCode, args ...string) {
	d.HasError = true
	d.ErrorCode = code
	d.ErrorArgs = args
}

// AuthenticateEvent fires after credential checks pass but before the
// login response is sent and the player is bound. Canceling aborts the
// login.
type AuthenticateEvent struct {
	Session *transport.Session
	Account *services.Account
	Save    *services.Save
	Zone    *zones.Zone
	Draft   *LoginDraft
}

// JoinEvent fires after a player is bound to its session.
type JoinEvent struct {
	Player *player.Player
}

// DisconnectEvent fires when a logged-in player's session ends.
type DisconnectEvent struct {
	Player *player.Player
	Reason transport.DisconnectReason
}

// RoomJoinEvent fires after a player is seated in (or starts
// spectating) a room and the join packet has been sent.
type RoomJoinEvent struct {
	Player *player.Player
	Room   *zones.Room
}

// RoomVariablesEvent fires after a player's room variable updates have
// been applied.
type RoomVariablesEvent struct {
	Player *player.Player
	Room   *zones.Room
	Names  []string
}

// ChatEvent fires before a chat message is fanned out. Canceling drops
// the message after the sender has already received its echo.
type ChatEvent struct {
	Player  *player.Player
	Message string
	ClanID  string
}

// Hooks is the interceptor registry. Registration happens at startup;
// firing is safe from any goroutine.
type Hooks struct {
	mu           sync.Mutex
	authenticate []func(ctx context.Context, ev *AuthenticateEvent) Decision
	join         []func(ctx context.Context, ev *JoinEvent)
	disconnect   []func(ctx context.Context, ev *DisconnectEvent)
	roomJoin     []func(ctx context.Context, ev *RoomJoinEvent)
	roomVars     []func(ctx context.Context, ev *RoomVariablesEvent)
	chat         []func(ctx context.Context, ev *ChatEvent) Decision
}

func NewHooks() *Hooks {
	return &Hooks{}
}

func (h *Hooks) OnAuthenticate(f func(ctx context.Context, ev *AuthenticateEvent) Decision) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authenticate = append(h.authenticate, f)
}

func (h *Hooks) OnJoin(f func(ctx context.Context, ev *JoinEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.join = append(h.join, f)
}

func (h *Hooks) OnDisconnect(f func(ctx context.Context, ev *DisconnectEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnect = append(h.disconnect, f)
}

func (h *Hooks) OnRoomJoin(f func(ctx context.Context, ev *RoomJoinEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomJoin = append(h.roomJoin, f)
}

func (h *Hooks) OnRoomVariables(f func(ctx context.Context, ev *RoomVariablesEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomVars = append(h.roomVars, f)
}

func (h *Hooks) OnChat(f func(ctx context.Context, ev *ChatEvent) Decision) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chat = append(h.chat, f)
}

// Authenticate runs the authenticate interceptors in order, stopping at
// the first cancel.
func (h *Hooks) Authenticate(ctx context.Context, ev *AuthenticateEvent) Decision {
	h.mu.Lock()
	fns := append([]func(ctx context.Context, ev *AuthenticateEvent) Decision{}, h.authenticate...)
	h.mu.Unlock()

	for _, f := range fns {
		if f(ctx, ev) == Cancel {
			return Cancel
		}
	}
	return Continue
}

func (h *Hooks) Join(ctx context.Context, ev *JoinEvent) {
	h.mu.Lock()
	fns := append([]func(ctx context.Context, ev *JoinEvent){}, h.join...)
	h.mu.Unlock()

	for _, f := range fns {
		f(ctx, ev)
	}
}

func (h *Hooks) Disconnect(ctx context.Context, ev *DisconnectEvent) {
	h.mu.Lock()
	fns := append([]func(ctx context.Context, ev *DisconnectEvent){}, h.disconnect...)
	h.mu.Unlock()

	for _, f := range fns {
		f(ctx, ev)
	}
}

func (h *Hooks) RoomJoin(ctx context.Context, ev *RoomJoinEvent) {
	h.mu.Lock()
	fns := append([]func(ctx context.Context, ev *RoomJoinEvent){}, h.roomJoin...)
	h.mu.Unlock()

	for _, f := range fns {
		f(ctx, ev)
	}
}

func (h *Hooks) RoomVariables(ctx context.Context, ev *RoomVariablesEvent) {
	h.mu.Lock()
	fns := append([]func(ctx context.Context, ev *RoomVariablesEvent){}, h.roomVars...)
	h.mu.Unlock()

	for _, f := range fns {
		f(ctx, ev)
	}
}

// Chat runs the chat interceptors in order, stopping at the first
// cancel.
func (h *Hooks) Chat(ctx context.Context, ev *ChatEvent) Decision {
	h.mu.Lock()
	fns := append([]func(ctx context.Context, ev *ChatEvent) Decision{}, h.chat...)
	h.mu.Unlock()

	for _, f := range fns {
		if f(ctx, ev) == Cancel {
			return Cancel
		}
	}
	return Continue
}
