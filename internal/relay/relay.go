// Package relay publishes game events to an embedded NATS broker so
// external services can follow session and chat activity.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/zones"
)

// Subjects carrying relayed events.
const (
	SubjectPlayerJoin  = "mmo.players.join"
	SubjectPlayerLeave = "mmo.players.leave"
	SubjectChat        = "mmo.chat.messages"
	SubjectZoneRemoved = "mmo.zones.removed"
	SubjectRoomVars    = "mmo.zones.variables"
)

// Publisher is the broker surface the relay needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type playerEvent struct {
	AccountID string `json:"accountId"`
	SaveID    string `json:"saveId"`
	Zone      string `json:"zone"`
	Reason    string `json:"reason,omitempty"`
}

type chatEvent struct {
	SaveID      string `json:"saveId"`
	DisplayName string `json:"displayName"`
	Message     string `json:"message"`
	ClanID      string `json:"clanId,omitempty"`
}

type zoneEvent struct {
	Zone string `json:"zone"`
}

type roomVarsEvent struct {
	SaveID    string   `json:"saveId"`
	Zone      string   `json:"zone"`
	Room      string   `json:"room"`
	Variables []string `json:"variables"`
}

// Relay forwards hook events onto broker subjects.
type Relay struct {
	pub Publisher
}

// New wires a relay into the event hooks and zone registry. Publish
// failures are logged, never surfaced to gameplay.
func New(pub Publisher, hooks *events.Hooks, zm *zones.ZoneManager) *Relay {
	r := &Relay{pub: pub}

	hooks.OnJoin(func(ctx context.Context, ev *events.JoinEvent) {
		r.publish(ctx, SubjectPlayerJoin, playerEvent{
			AccountID: ev.Player.Account().ID,
			SaveID:    ev.Player.Save().ID,
			Zone:      ev.Player.Zone().Name(),
		})
	})

	hooks.OnDisconnect(func(ctx context.Context, ev *events.DisconnectEvent) {
		r.publish(ctx, SubjectPlayerLeave, playerEvent{
			AccountID: ev.Player.Account().ID,
			SaveID:    ev.Player.Save().ID,
			Zone:      ev.Player.Zone().Name(),
			Reason:    ev.Reason.Code,
		})
	})

	hooks.OnChat(func(ctx context.Context, ev *events.ChatEvent) events.Decision {
		r.publish(ctx, SubjectChat, chatEvent{
			SaveID:      ev.Player.Save().ID,
			DisplayName: ev.Player.Save().DisplayName,
			Message:     ev.Message,
			ClanID:      ev.ClanID,
		})
		return events.Continue
	})

	hooks.OnRoomVariables(func(ctx context.Context, ev *events.RoomVariablesEvent) {
		r.publish(ctx, SubjectRoomVars, roomVarsEvent{
			SaveID:    ev.Player.Save().ID,
			Zone:      ev.Player.Zone().Name(),
			Room:      ev.Room.Name(),
			Variables: ev.Names,
		})
	})

	zm.OnZoneRemoved(func(z *zones.Zone) {
		r.publish(context.Background(), SubjectZoneRemoved, zoneEvent{Zone: z.Name()})
	})

	return r
}

func (r *Relay) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "encoding relay event", "subject", subject, "error", err)
		return
	}
	if err := r.pub.Publish(subject, data); err != nil {
		slog.WarnContext(ctx, "publishing relay event", "subject", subject, "error", err)
	}
}
