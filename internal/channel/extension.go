package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// Extension channel wire constants. Extension messages ride in a
// carrier packet whose payload names the command and the extension.
const (
	ExtensionChannelID = 1
	extensionPacketID  = 13
)

// ExtensionMessage is one named command multiplexed over the extension
// channel. MessageID is matched against the carrier's command field.
type ExtensionMessage interface {
	MessageID() string
	ExtensionName() string
	New() ExtensionMessage
	Parse(p *sfs.Payload) error
	Build(p *sfs.Payload) error
}

// ExtensionHandler processes parsed extension messages. Returning true
// marks the message handled.
type ExtensionHandler interface {
	Handle(ctx context.Context, s *transport.Session, msg ExtensionMessage) (bool, error)
}

type ExtensionHandlerFunc func(ctx context.Context, s *transport.Session, msg ExtensionMessage) (bool, error)

func (f ExtensionHandlerFunc) Handle(ctx context.Context, s *transport.Session, msg ExtensionMessage) (bool, error) {
	return f(ctx, s, msg)
}

// TypedExtension builds a handler that only fires for messages of type T.
func TypedExtension[T ExtensionMessage](fn func(ctx context.Context, s *transport.Session, msg T) (bool, error)) ExtensionHandler {
	return ExtensionHandlerFunc(func(ctx context.Context, s *transport.Session, msg ExtensionMessage) (bool, error) {
		t, ok := msg.(T)
		if !ok {
			return false, nil
		}
		return fn(ctx, s, t)
	})
}

// ExtensionChannel multiplexes named extension messages over a packet
// channel. It owns the carrier packet registration.
type ExtensionChannel struct {
	ch *Channel

	catalog  []ExtensionMessage
	handlers []ExtensionHandler

	mu      sync.Mutex
	waiters []*extWaiter
}

type extWaiter struct {
	match func(ExtensionMessage) bool
	ch    chan ExtensionMessage
}

// NewExtensionChannel builds the extension channel for a session and
// wires the carrier packet into it.
func NewExtensionChannel(s *transport.Session) *ExtensionChannel {
	e := &ExtensionChannel{
		ch: New(ExtensionChannelID, s),
	}
	e.ch.Register(&extensionFrame{})
	e.ch.Handle(Typed(e.handleFrame))
	return e
}

// Channel returns the underlying packet channel, for mux registration.
func (e *ExtensionChannel) Channel() *Channel { return e.ch }

func (e *ExtensionChannel) Register(msg ExtensionMessage) {
	e.catalog = append(e.catalog, msg)
}

func (e *ExtensionChannel) Handle(h ExtensionHandler) {
	e.handlers = append(e.handlers, h)
}

// Send wraps the message in a carrier frame and writes it.
func (e *ExtensionChannel) Send(msg ExtensionMessage) error {
	params := sfs.NewPayload()
	if err := msg.Build(params); err != nil {
		return fmt.Errorf("building extension message %s: %w", msg.MessageID(), err)
	}
	params.SetString("en", msg.ExtensionName())

	return e.ch.Send(&extensionFrame{
		cmd:    msg.MessageID(),
		room:   -1,
		params: params,
	})
}

// SendExtensionTo delivers a single extension message to a session
// without building channel state, for fan-out to other sessions.
func SendExtensionTo(s *transport.Session, msg ExtensionMessage) error {
	params := sfs.NewPayload()
	if err := msg.Build(params); err != nil {
		return fmt.Errorf("building extension message %s: %w", msg.MessageID(), err)
	}
	params.SetString("en", msg.ExtensionName())

	frame := &extensionFrame{
		cmd:    msg.MessageID(),
		room:   -1,
		params: params,
	}
	d := sfs.NewPacketData(ExtensionChannelID, frame.ID())
	if err := frame.Build(d); err != nil {
		return err
	}
	return s.Send(d)
}

// SendAndAwait sends a message and blocks until an inbound extension
// message satisfies match, the context is canceled, or the await
// timeout elapses.
func (e *ExtensionChannel) SendAndAwait(ctx context.Context, msg ExtensionMessage, match func(ExtensionMessage) bool) (ExtensionMessage, error) {
	w := &extWaiter{
		match: match,
		ch:    make(chan ExtensionMessage, 1),
	}

	e.mu.Lock()
	e.waiters = append(e.waiters, w)
	e.mu.Unlock()

	defer e.removeWaiter(w)

	if err := e.Send(msg); err != nil {
		return nil, err
	}

	select {
	case m := <-w.ch:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(AwaitTimeout):
		return nil, fmt.Errorf("timed out waiting for extension reply")
	}
}

func (e *ExtensionChannel) removeWaiter(w *extWaiter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cand := range e.waiters {
		if cand == w {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}

func (e *ExtensionChannel) claim(msg ExtensionMessage) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, w := range e.waiters {
		if w.match(msg) {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			w.ch <- msg
			return true
		}
	}
	return false
}

func (e *ExtensionChannel) handleFrame(ctx context.Context, s *transport.Session, frame *extensionFrame) (bool, error) {
	logger := log.GetLogger(ctx)

	var proto ExtensionMessage
	for _, cand := range e.catalog {
		if cand.MessageID() == frame.cmd {
			proto = cand
			break
		}
	}
	if proto == nil {
		return false, nil
	}

	msg := proto.New()
	if err := msg.Parse(frame.params); err != nil {
		return true, fmt.Errorf("parsing extension message %s: %w", frame.cmd, err)
	}

	if e.claim(msg) {
		return true, nil
	}

	handled := false
	for _, h := range e.handlers {
		ok, err := h.Handle(ctx, s, msg)
		if err != nil {
			logger.Errorf("handling extension message %s for session %d: %s", frame.cmd, s.NumericID(), err)
			continue
		}
		if ok {
			handled = true
			break
		}
	}

	if !handled {
		logger.Debugf("unhandled extension message %s from session %d", frame.cmd, s.NumericID())
	}
	return true, nil
}

// extensionFrame is the carrier packet for extension messages.
type extensionFrame struct {
	cmd    string
	room   int32
	params *sfs.Payload
}

func (f *extensionFrame) ID() int16         { return extensionPacketID }
func (f *extensionFrame) New() Packet       { return &extensionFrame{} }
func (f *extensionFrame) Synchronous() bool { return false }

func (f *extensionFrame) Parse(d *sfs.PacketData) error {
	cmd, err := d.Payload.GetString("c")
	if err != nil {
		return err
	}

	params, err := d.Payload.GetObject("p")
	if err != nil {
		return err
	}

	f.cmd = cmd
	f.params = params
	f.room = -1
	if room, err := d.Payload.GetInt("r"); err == nil {
		f.room = room
	}
	return nil
}

func (f *extensionFrame) Build(d *sfs.PacketData) error {
	d.Payload.SetString("c", f.cmd)
	d.Payload.SetInt("r", f.room)
	d.Payload.SetObject("p", f.params)
	return nil
}
