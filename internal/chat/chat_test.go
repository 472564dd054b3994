package chat

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
	"github.com/pixil98/go-testutil"
)

type nullHandshaker struct{}

func (nullHandshaker) Handshake(ctx context.Context, s *transport.Session, first *sfs.PacketData) error {
	return nil
}

type env struct {
	server *transport.Server
	kv     *services.MemoryKVStore
	hooks  *events.Hooks
	zone   *zones.Zone
	room   *zones.Room
}

func newEnv(t *testing.T) *env {
	t.Helper()

	zm := zones.NewZoneManager()
	zone, err := zm.CreateZone("edge", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	group, err := zone.AddGroup("default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	room, err := group.AddRoom("lobby", false, false, false, 30, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shell := services.NewCommandShell()
	shell.Register(&services.ShellCommand{
		Name:        "echo",
		Description: "echoes its arguments",
		Level:       services.LevelPlayer,
		Run: func(ctx context.Context, sc *services.ShellContext, args []string, out func(string)) error {
			out(strings.Join(args, " "))
			return nil
		},
	})

	e := &env{
		kv:    services.NewMemoryKVStore(),
		hooks: events.NewHooks(),
		zone:  zone,
		room:  room,
	}

	deps := &Deps{
		Filter: services.NewWordFilter(
			[]string{"dang"},
			[]string{"heck"},
			[]string{"slur"},
		),
		KV:    e.kv,
		Shell: shell,
		Hooks: e.hooks,
	}

	e.server = transport.NewServer(nullHandshaker{}, func(s *transport.Session) transport.PacketHandler {
		ext := channel.NewExtensionChannel(s)
		Attach(ext, deps)
		return channel.NewMux(ext.Channel())
	})
	deps.Server = e.server
	return e
}

// connect opens a piped connection and binds a player joined to the
// lobby.
func (e *env) connect(t *testing.T, account *services.Account, save *services.Save) net.Conn {
	t.Helper()

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.server.HandleConn(ctx, server)
		close(done)
	}()
	t.Cleanup(func() {
		client.Close()
		cancel()
		<-done
	})

	writeFrame(t, client, sfs.NewPacketData(0, 0))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for session")
		}
		if s := e.sessionFor(client); s != nil {
			plr := player.New(s, account, save, e.zone)
			player.Bind(s, plr)
			plr.JoinRoom(e.room)
			return client
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// sessionFor finds the newest session that has no player bound yet.
func (e *env) sessionFor(client net.Conn) *transport.Session {
	for _, s := range e.server.Sessions() {
		if player.FromSession(s) == nil {
			return s
		}
	}
	return nil
}

func sendChat(t *testing.T, conn net.Conn, message, clanID string) {
	t.Helper()

	params := sfs.NewPayload()
	params.SetString("en", "che")
	params.SetInt("cty", 1)
	params.SetString("chm", message)
	if clanID != "" {
		params.SetString("tgid", clanID)
	}

	d := sfs.NewPacketData(channel.ExtensionChannelID, 13)
	d.Payload.SetString("c", "SCM")
	d.Payload.SetInt("r", -1)
	d.Payload.SetObject("p", params)
	writeFrame(t, conn, d)
}

// readExtension reads one extension carrier and returns the command
// plus its string array body.
func readExtension(t *testing.T, conn net.Conn) (string, []string) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var header [3]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := make([]byte, binary.BigEndian.Uint16(header[1:]))
	if _, err := io.ReadFull(conn, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := sfs.Unmarshal(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := sfs.ParsePacketData(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd, err := d.Payload.GetString("c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params, err := d.Payload.GetObject("p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr, _ := params.GetStringArray("arr")
	return cmd, arr
}

func expectSilence(t *testing.T, conn net.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var buf [1]byte
	if _, err := conn.Read(buf[:]); err == nil {
		t.Error("expected no delivery")
	}
}

func writeFrame(t *testing.T, conn net.Conn, d *sfs.PacketData) {
	t.Helper()

	data, err := sfs.Marshal(d.ToPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame := make([]byte, 0, len(data)+3)
	frame = append(frame, 0)
	frame = binary.BigEndian.AppendUint16(frame, uint16(len(data)))
	frame = append(frame, data...)
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func playerAccount(id, name string) (*services.Account, *services.Save) {
	return &services.Account{
			ID:          id,
			Username:    name,
			ChatEnabled: true,
			Level:       services.LevelPlayer,
		}, &services.Save{
			ID:          "save-" + id,
			DisplayName: name,
		}
}

func TestChat_FanOut(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	sendChat(t, connA, "  hello everyone  ", "")

	cmd, arr := readExtension(t, connA)
	testutil.AssertEqual(t, "echo command", cmd, "SCA")
	testutil.AssertEqual(t, "echo message", arr[3], "hello everyone")

	cmd, arr = readExtension(t, connB)
	testutil.AssertEqual(t, "post command", cmd, "CMR")
	testutil.AssertEqual(t, "post sender id", arr[2], "save-acc-a")
	testutil.AssertEqual(t, "post message", arr[4], "hello everyone")
	testutil.AssertEqual(t, "post sender name", arr[7], "Alice")
}

func TestChat_BlankDropped(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	sendChat(t, connA, "   ", "")
	expectSilence(t, connA)
	expectSilence(t, connB)
}

func TestChat_RecipientStrictness(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	accB.StrictChatFilter = true
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	// "heck" only masks under a strict filter.
	sendChat(t, connA, "oh heck", "")

	_, arr := readExtension(t, connA)
	testutil.AssertEqual(t, "echo unmasked", arr[3], "oh heck")

	_, arr = readExtension(t, connB)
	testutil.AssertEqual(t, "post masked", arr[4], "oh ****")
}

func TestChat_Disabled(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accA.ChatEnabled = false
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	sendChat(t, connA, "hello", "")

	cmd, arr := readExtension(t, connA)
	testutil.AssertEqual(t, "notice command", cmd, "SMM")
	testutil.AssertEqual(t, "notice state", arr[2], "UNSILENCED")
	testutil.AssertEqual(t, "notice message", arr[3], "Chat is not enabled for your account")
	expectSilence(t, connB)
}

func TestChat_InstaMute(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	sendChat(t, connA, "such a slur", "")

	cmd, arr := readExtension(t, connA)
	testutil.AssertEqual(t, "notice command", cmd, "SMM")
	testutil.AssertEqual(t, "notice state", arr[2], "SILENCE")
	if !strings.Contains(arr[3], "{{bannedtime}}") {
		t.Errorf("expected a timed mute message, got %q", arr[3])
	}
	expectSilence(t, connB)

	ctx := context.Background()
	moderation := e.kv.Container("acc-a").Child("moderation")
	muted, _, err := moderation.GetBool(ctx, "isMuted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "muted", muted, true)
	first, _, err := moderation.GetInt64(ctx, "unmuteTimestamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A second trigger while muted keeps the original expiry.
	sendChat(t, connA, "another slur", "")
	readExtension(t, connA) // mute notice

	second, _, err := moderation.GetInt64(ctx, "unmuteTimestamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "expiry unchanged", second, first)
}

func TestChat_MuteExpires(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	ctx := context.Background()
	moderation := e.kv.Container("acc-a").Child("moderation")
	if err := moderation.SetBool(ctx, "isMuted", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := moderation.SetInt64(ctx, "unmuteTimestamp", time.Now().Add(-time.Minute).UnixMilli()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The mute has expired, so chat flows again.
	sendChat(t, connA, "hello again", "")

	cmd, _ := readExtension(t, connA)
	testutil.AssertEqual(t, "echo command", cmd, "SCA")
	cmd, _ = readExtension(t, connB)
	testutil.AssertEqual(t, "post command", cmd, "CMR")
}

func TestChat_CommandShell(t *testing.T) {
	e := newEnv(t)
	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	sendChat(t, connA, "> echo hi there", "")

	cmd, arr := readExtension(t, connA)
	testutil.AssertEqual(t, "post command", cmd, "CMR")
	testutil.AssertEqual(t, "system user id", arr[2], "")
	testutil.AssertEqual(t, "output", arr[4], "hi there")
	testutil.AssertEqual(t, "speaker", arr[7], "[EDGE]")

	// Shell output never fans out.
	expectSilence(t, connB)
}

func TestChat_EventCancel(t *testing.T) {
	e := newEnv(t)
	e.hooks.OnChat(func(ctx context.Context, ev *events.ChatEvent) events.Decision {
		return events.Cancel
	})

	accA, saveA := playerAccount("acc-a", "Alice")
	accB, saveB := playerAccount("acc-b", "Bob")
	connA := e.connect(t, accA, saveA)
	connB := e.connect(t, accB, saveB)

	sendChat(t, connA, "hello", "")
	expectSilence(t, connA)
	expectSilence(t, connB)
}
