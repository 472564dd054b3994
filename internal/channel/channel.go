package channel

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// AwaitTimeout bounds how long SendAndAwait waits for a reply.
const AwaitTimeout = 5 * time.Second

// Channel is one packet channel bound to a session. It holds the packet
// catalog, the handler chain, and any one-shot reply waiters.
type Channel struct {
	id      byte
	session *transport.Session

	catalog  []Packet
	handlers []Handler

	mu      sync.Mutex
	waiters []*waiter
}

type waiter struct {
	match func(Packet) bool
	ch    chan Packet
}

func New(id byte, s *transport.Session) *Channel {
	return &Channel{
		id:      id,
		session: s,
	}
}

func (c *Channel) ID() byte { return c.id }

func (c *Channel) Session() *transport.Session { return c.session }

// Register adds a packet prototype to the catalog. Registration happens
// at channel construction, before any frame is dispatched.
func (c *Channel) Register(p Packet) {
	c.catalog = append(c.catalog, p)
}

// Handle appends a handler to the chain. Handlers run in registration
// order until one reports the packet handled.
func (c *Channel) Handle(h Handler) {
	c.handlers = append(c.handlers, h)
}

// Send builds the packet and writes it to the session.
func (c *Channel) Send(p Packet) error {
	d := sfs.NewPacketData(c.id, p.ID())
	if err := p.Build(d); err != nil {
		return fmt.Errorf("building packet %d:%d: %w", c.id, p.ID(), err)
	}
	return c.session.Send(d)
}

// SendError builds the packet and writes it with an error envelope.
func (c *Channel) SendError(p Packet, code sfs.ErrorCode, args ...string) error {
	d := sfs.NewPacketData(c.id, p.ID())
	if err := p.Build(d); err != nil {
		return fmt.Errorf("building packet %d:%d: %w", c.id, p.ID(), err)
	}
	d.SetError(code, args...)
	return c.session.Send(d)
}

// SendAndAwait sends a packet and blocks until an inbound packet on this
// channel satisfies match, the context is canceled, or the await timeout
// elapses. The matched packet is consumed before regular handlers see it.
func (c *Channel) SendAndAwait(ctx context.Context, p Packet, match func(Packet) bool) (Packet, error) {
	w := &waiter{
		match: match,
		ch:    make(chan Packet, 1),
	}

	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	defer c.removeWaiter(w)

	if err := c.Send(p); err != nil {
		return nil, err
	}

	select {
	case pkt := <-w.ch:
		return pkt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(AwaitTimeout):
		return nil, fmt.Errorf("timed out waiting for reply on channel %d", c.id)
	}
}

func (c *Channel) removeWaiter(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cand := range c.waiters {
		if cand == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// claim hands the packet to the first matching waiter, if any.
func (c *Channel) claim(pkt Packet) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w.match(pkt) {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			w.ch <- pkt
			return true
		}
	}
	return false
}

// dispatch routes one frame. It reports false when no catalog entry
// recognizes the frame.
func (c *Channel) dispatch(ctx context.Context, d *sfs.PacketData) bool {
	var proto Packet
	for _, cand := range c.catalog {
		if cand.ID() != d.PacketID {
			continue
		}
		if m, ok := cand.(Matcher); ok && !m.Matches(d) {
			continue
		}
		proto = cand
		break
	}
	if proto == nil {
		return false
	}

	logger := log.GetLogger(ctx)

	pkt := proto.New()
	if err := pkt.Parse(d); err != nil {
		logger.Warnf("parsing packet %d:%d from session %d: %s", c.id, d.PacketID, c.session.NumericID(), err)
		return true
	}

	if c.claim(pkt) {
		return true
	}

	if pkt.Synchronous() {
		c.runHandlers(ctx, d, pkt)
	} else {
		go c.runHandlers(ctx, d, pkt)
	}
	return true
}

func (c *Channel) runHandlers(ctx context.Context, d *sfs.PacketData, pkt Packet) {
	logger := log.GetLogger(ctx)

	handled := false
	for _, h := range c.handlers {
		ok, err := h.Handle(ctx, c.session, pkt)
		if err != nil {
			logger.Errorf("handling packet %d:%d for session %d: %s", c.id, d.PacketID, c.session.NumericID(), err)
			continue
		}
		if ok {
			handled = true
			break
		}
	}

	if !handled {
		logger.Debugf("unhandled packet %d:%d from session %d: %s", c.id, d.PacketID, c.session.NumericID(), dumpPacket(d))
	}
}

// dumpPacket renders the frame as hex for unhandled-packet logging.
func dumpPacket(d *sfs.PacketData) string {
	data, err := sfs.Marshal(d.ToPayload())
	if err != nil {
		return "<unencodable>"
	}
	return hex.EncodeToString(data)
}
