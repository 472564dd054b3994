package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/zones"
	"github.com/pixil98/go-testutil"
)

type capturedMessage struct {
	subject string
	data    []byte
}

type capturePublisher struct {
	messages []capturedMessage
}

func (p *capturePublisher) Publish(subject string, data []byte) error {
	p.messages = append(p.messages, capturedMessage{subject: subject, data: data})
	return nil
}

func testPlayer(t *testing.T, zm *zones.ZoneManager) *player.Player {
	t.Helper()

	zone, err := zm.CreateZone("edge", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	account := &services.Account{ID: "acc-a", Username: "alice"}
	save := &services.Save{ID: "save-a", DisplayName: "Alice"}
	return player.New(nil, account, save, zone)
}

func TestRelay_PublishesEvents(t *testing.T) {
	pub := &capturePublisher{}
	hooks := events.NewHooks()
	zm := zones.NewZoneManager()
	New(pub, hooks, zm)

	plr := testPlayer(t, zm)
	ctx := context.Background()

	hooks.Join(ctx, &events.JoinEvent{Player: plr})
	hooks.Chat(ctx, &events.ChatEvent{Player: plr, Message: "hello"})
	hooks.Disconnect(ctx, &events.DisconnectEvent{Player: plr})
	zm.RemoveZone("edge")

	testutil.AssertEqual(t, "message count", len(pub.messages), 4)
	testutil.AssertEqual(t, "join subject", pub.messages[0].subject, SubjectPlayerJoin)
	testutil.AssertEqual(t, "chat subject", pub.messages[1].subject, SubjectChat)
	testutil.AssertEqual(t, "leave subject", pub.messages[2].subject, SubjectPlayerLeave)
	testutil.AssertEqual(t, "zone subject", pub.messages[3].subject, SubjectZoneRemoved)

	var join playerEvent
	if err := json.Unmarshal(pub.messages[0].data, &join); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "join account", join.AccountID, "acc-a")
	testutil.AssertEqual(t, "join save", join.SaveID, "save-a")
	testutil.AssertEqual(t, "join zone", join.Zone, "edge")

	var chat chatEvent
	if err := json.Unmarshal(pub.messages[1].data, &chat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "chat speaker", chat.DisplayName, "Alice")
	testutil.AssertEqual(t, "chat message", chat.Message, "hello")

	var removed zoneEvent
	if err := json.Unmarshal(pub.messages[3].data, &removed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "removed zone", removed.Zone, "edge")
}

func TestRelay_PublishesRoomVariables(t *testing.T) {
	pub := &capturePublisher{}
	hooks := events.NewHooks()
	zm := zones.NewZoneManager()
	New(pub, hooks, zm)

	plr := testPlayer(t, zm)
	group, err := plr.Zone().AddGroup("default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	room, err := group.AddRoom("lobby", false, false, false, 30, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hooks.RoomVariables(context.Background(), &events.RoomVariablesEvent{
		Player: plr,
		Room:   room,
		Names:  []string{"weather", "round"},
	})

	testutil.AssertEqual(t, "message count", len(pub.messages), 1)
	testutil.AssertEqual(t, "subject", pub.messages[0].subject, SubjectRoomVars)

	var ev roomVarsEvent
	if err := json.Unmarshal(pub.messages[0].data, &ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "save", ev.SaveID, "save-a")
	testutil.AssertEqual(t, "room", ev.Room, "lobby")
	testutil.AssertEqual(t, "variable count", len(ev.Variables), 2)
}

// Chat relaying observes but never cancels delivery.
func TestRelay_ChatContinues(t *testing.T) {
	pub := &capturePublisher{}
	hooks := events.NewHooks()
	zm := zones.NewZoneManager()
	New(pub, hooks, zm)

	plr := testPlayer(t, zm)
	decision := hooks.Chat(context.Background(), &events.ChatEvent{Player: plr, Message: "hi"})
	testutil.AssertEqual(t, "decision", decision, events.Continue)
}
