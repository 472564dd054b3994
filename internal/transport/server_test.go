package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-testutil"
)

// okHandshaker accepts every connection without sending a response.
type okHandshaker struct{}

func (okHandshaker) Handshake(ctx context.Context, s *Session, first *sfs.PacketData) error {
	return nil
}

// recordingHandler collects every packet it is handed.
type recordingHandler struct {
	packets chan *sfs.PacketData
}

func (h *recordingHandler) HandlePacket(ctx context.Context, s *Session, d *sfs.PacketData) {
	h.packets <- d
}

func writeClientPacket(t *testing.T, conn net.Conn, d *sfs.PacketData) {
	t.Helper()
	data, err := sfs.Marshal(d.ToPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writeFrame(conn, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func startSession(t *testing.T, sv *Server) (net.Conn, func()) {
	t.Helper()

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sv.HandleConn(ctx, server)
		close(done)
	}()

	// First frame is consumed as the handshake.
	writeClientPacket(t, client, sfs.NewPacketData(0, 0))

	cleanup := func() {
		client.Close()
		cancel()
		<-done
	}
	return client, cleanup
}

func waitFor(t *testing.T, name string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", name)
}

func TestServer_PublishesSessionAfterHandshake(t *testing.T) {
	handler := &recordingHandler{packets: make(chan *sfs.PacketData, 8)}
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return handler })

	client, cleanup := startSession(t, sv)
	defer cleanup()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 1 })

	s := sv.Sessions()[0]
	if s.NumericID() == 0 {
		t.Error("expected nonzero numeric id")
	}
	if s.Token() == "" {
		t.Error("expected session token")
	}
	testutil.AssertEqual(t, "lookup by id", sv.SessionByNumericID(s.NumericID()), s)
	testutil.AssertEqual(t, "lookup by token", sv.SessionByToken(s.Token()), s)

	// Frames after the handshake reach the packet handler.
	d := sfs.NewPacketData(0, 7)
	d.Payload.SetString("m", "hi")
	writeClientPacket(t, client, d)

	select {
	case got := <-handler.packets:
		testutil.AssertEqual(t, "packet id", got.PacketID, int16(7))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for packet")
	}
}

func TestServer_DropsSessionOnDisconnect(t *testing.T) {
	handler := &recordingHandler{packets: make(chan *sfs.PacketData, 8)}
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return handler })

	disconnected := make(chan *Session, 1)
	sv.OnDisconnect(func(ctx context.Context, s *Session) {
		disconnected <- s
	})

	client, cleanup := startSession(t, sv)
	defer cleanup()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 1 })
	s := sv.Sessions()[0]

	client.Close()

	select {
	case got := <-disconnected:
		testutil.AssertEqual(t, "disconnected session", got, s)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect hook")
	}

	waitFor(t, "session removal", func() bool { return len(sv.Sessions()) == 0 })
	if sv.SessionByNumericID(s.NumericID()) != nil {
		t.Error("expected session to be removed from directory")
	}
}

func TestServer_HandshakeFailureStaysUnpublished(t *testing.T) {
	sv := NewServer(failHandshaker{}, func(s *Session) PacketHandler { return nil })

	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		sv.HandleConn(context.Background(), server)
		close(done)
	}()

	writeClientPacket(t, client, sfs.NewPacketData(0, 0))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection teardown")
	}

	testutil.AssertEqual(t, "session count", len(sv.Sessions()), 0)
}

// A malformed frame after the handshake is dropped without tearing the
// connection down; later well-formed frames still arrive.
func TestServer_MalformedFrameKeepsConnection(t *testing.T) {
	handler := &recordingHandler{packets: make(chan *sfs.PacketData, 8)}
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return handler })

	client, cleanup := startSession(t, sv)
	defer cleanup()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 1 })

	if err := writeFrame(client, []byte{0xde, 0xad, 0xbe, 0xef}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := sfs.NewPacketData(0, 7)
	writeClientPacket(t, client, d)

	select {
	case got := <-handler.packets:
		testutil.AssertEqual(t, "packet id", got.PacketID, int16(7))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for packet after malformed frame")
	}
	testutil.AssertEqual(t, "session count", len(sv.Sessions()), 1)
}

func TestServer_CloseAllDisconnectsEachSessionOnce(t *testing.T) {
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return nil })

	disconnected := make(chan *Session, 8)
	sv.OnDisconnect(func(ctx context.Context, s *Session) {
		disconnected <- s
	})

	_, cleanupA := startSession(t, sv)
	defer cleanupA()
	_, cleanupB := startSession(t, sv)
	defer cleanupB()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 2 })
	sessions := sv.Sessions()

	sv.CloseAll()

	counts := map[*Session]int{}
	for i := 0; i < 2; i++ {
		select {
		case s := <-disconnected:
			counts[s]++
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for disconnect hooks")
		}
	}
	for _, s := range sessions {
		testutil.AssertEqual(t, "disconnects for session", counts[s], 1)
		testutil.AssertEqual(t, "reason", s.DisconnectReason(), ReasonServerShutdown)
	}

	select {
	case s := <-disconnected:
		t.Errorf("session %d disconnected twice", s.NumericID())
	case <-time.After(100 * time.Millisecond):
	}
	testutil.AssertEqual(t, "session count", len(sv.Sessions()), 0)
}

// Closing a session from both ends at once still fires the disconnect
// hook exactly once.
func TestServer_DoubleCloseFiresOnce(t *testing.T) {
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return nil })

	disconnected := make(chan *Session, 8)
	sv.OnDisconnect(func(ctx context.Context, s *Session) {
		disconnected <- s
	})

	client, cleanup := startSession(t, sv)
	defer cleanup()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 1 })
	s := sv.Sessions()[0]

	s.Close()
	client.Close()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect hook")
	}

	select {
	case <-disconnected:
		t.Error("disconnect hook fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

// The first closer's reason sticks.
func TestSession_CloseWithReasonFirstWins(t *testing.T) {
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return nil })

	_, cleanup := startSession(t, sv)
	defer cleanup()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 1 })
	s := sv.Sessions()[0]

	testutil.AssertEqual(t, "reason before close", s.DisconnectReason(), DisconnectReason{})
	s.CloseWithReason(KickReason("mira"))
	s.CloseWithReason(ReasonLogout)

	r := s.DisconnectReason()
	testutil.AssertEqual(t, "reason code", r.Code, "session.kicked")
	testutil.AssertEqual(t, "reason arg count", len(r.Args), 1)
	testutil.AssertEqual(t, "reason arg", r.Args[0], "mira")
}

type failHandshaker struct{}

func (failHandshaker) Handshake(ctx context.Context, s *Session, first *sfs.PacketData) error {
	return context.Canceled
}

func TestSession_SendAfterCloseFails(t *testing.T) {
	sv := NewServer(okHandshaker{}, func(s *Session) PacketHandler { return nil })

	_, cleanup := startSession(t, sv)
	defer cleanup()

	waitFor(t, "session publish", func() bool { return len(sv.Sessions()) == 1 })
	s := sv.Sessions()[0]

	s.Close()
	if err := s.Send(sfs.NewPacketData(0, 1)); err == nil {
		t.Error("expected error sending on closed session")
	}
}

func TestSession_ObjectBag(t *testing.T) {
	s := &Session{objects: make(map[string]any), closed: make(chan struct{})}

	if s.Object("missing") != nil {
		t.Error("expected nil for missing key")
	}

	s.SetObject("k", 42)
	testutil.AssertEqual(t, "stored value", s.Object("k").(int), 42)

	s.DeleteObject("k")
	if s.Object("k") != nil {
		t.Error("expected nil after delete")
	}
}
