package channel

import (
	"context"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// Mux routes a session's inbound frames to its channels by channel id.
// It implements transport.PacketHandler.
type Mux struct {
	channels map[byte]*Channel
}

func NewMux(channels ...*Channel) *Mux {
	m := &Mux{
		channels: make(map[byte]*Channel, len(channels)),
	}
	for _, c := range channels {
		m.channels[c.ID()] = c
	}
	return m
}

// Channel returns the channel with the given id, or nil.
func (m *Mux) Channel(id byte) *Channel {
	return m.channels[id]
}

func (m *Mux) HandlePacket(ctx context.Context, s *transport.Session, d *sfs.PacketData) {
	c := m.channels[d.Channel]
	if c == nil {
		log.GetLogger(ctx).Debugf("packet for unknown channel %d from session %d: %s", d.Channel, s.NumericID(), dumpPacket(d))
		return
	}

	if !c.dispatch(ctx, d) {
		log.GetLogger(ctx).Debugf("unknown packet %d:%d from session %d: %s", d.Channel, d.PacketID, s.NumericID(), dumpPacket(d))
	}
}
