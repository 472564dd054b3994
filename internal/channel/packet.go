package channel

import (
	"context"

	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// Packet is one message type carried on a channel. Implementations are
// registered as prototypes; New produces the instance a frame is parsed
// into.
type Packet interface {
	ID() int16
	New() Packet
	Parse(d *sfs.PacketData) error
	Build(d *sfs.PacketData) error

	// Synchronous packets are handled inline on the session's read
	// goroutine, so their handlers finish before the next frame is read.
	Synchronous() bool
}

// Matcher is implemented by packets that share an id and need payload
// inspection to tell them apart.
type Matcher interface {
	Matches(d *sfs.PacketData) bool
}

// Handler processes parsed packets. Returning true marks the packet as
// handled; false passes it to the next handler.
type Handler interface {
	Handle(ctx context.Context, s *transport.Session, pkt Packet) (bool, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, s *transport.Session, pkt Packet) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, s *transport.Session, pkt Packet) (bool, error) {
	return f(ctx, s, pkt)
}

// Typed builds a handler that only fires for packets of type T.
func Typed[T Packet](fn func(ctx context.Context, s *transport.Session, pkt T) (bool, error)) Handler {
	return HandlerFunc(func(ctx context.Context, s *transport.Session, pkt Packet) (bool, error) {
		t, ok := pkt.(T)
		if !ok {
			return false, nil
		}
		return fn(ctx, s, t)
	})
}
