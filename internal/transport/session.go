package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"sync"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/sirupsen/logrus"
)

// PacketHandler receives every decoded frame for a session after the
// handshake completes.
type PacketHandler interface {
	HandlePacket(ctx context.Context, s *Session, d *sfs.PacketData)
}

// DisconnectReason describes why a session was torn down: a reason code
// plus ordered arguments carried into teardown messaging.
type DisconnectReason struct {
	Code string
	Args []string
}

var (
	ReasonConnectionLost = DisconnectReason{Code: "connection.lost"}
	ReasonServerShutdown = DisconnectReason{Code: "server.shutdown"}
	ReasonLogout         = DisconnectReason{Code: "session.logout"}
)

// KickReason builds the disconnect reason for an administrative kick.
func KickReason(by string) DisconnectReason {
	return DisconnectReason{Code: "session.kicked", Args: []string{by}}
}

// Session is a single connected client. It owns the connection, a write
// lock, and a bag of objects that higher layers attach to it.
type Session struct {
	conn      net.Conn
	server    *Server
	logger    logrus.FieldLogger
	token     string
	numericID int32

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}

	mu      sync.Mutex
	objects map[string]any
	handler PacketHandler
	reason  DisconnectReason
}

// Token returns the session token issued during the handshake.
func (s *Session) Token() string { return s.token }

// NumericID returns the session's nonzero numeric identifier.
func (s *Session) NumericID() int32 { return s.numericID }

func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// SetObject attaches a value to the session under the given key.
func (s *Session) SetObject(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = v
}

// Object returns the value attached under the given key, or nil.
func (s *Session) Object(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

func (s *Session) DeleteObject(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
}

// Send encodes the packet and writes it as a single frame. It is safe
// to call from multiple goroutines.
func (s *Session) Send(d *sfs.PacketData) error {
	data, err := sfs.Marshal(d.ToPayload())
	if err != nil {
		return fmt.Errorf("encoding packet %d:%d: %w", d.Channel, d.PacketID, err)
	}

	s.logger.Debugf("S->C %s %d:%d (%d bytes)", s.RemoteAddr(), d.Channel, d.PacketID, len(data))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.closed:
		return fmt.Errorf("session %d is closed", s.numericID)
	default:
	}

	if err := writeFrame(s.conn, data); err != nil {
		return fmt.Errorf("sending packet %d:%d: %w", d.Channel, d.PacketID, err)
	}
	return nil
}

// Close tears the session down as a lost connection. See
// CloseWithReason.
func (s *Session) Close() {
	s.CloseWithReason(ReasonConnectionLost)
}

// CloseWithReason tears the session down exactly once: the reason is
// recorded, the connection is closed, and the session is removed from
// the server directory. The first caller's reason wins.
func (s *Session) CloseWithReason(r DisconnectReason) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.reason = r
		s.mu.Unlock()

		close(s.closed)
		if err := s.conn.Close(); err != nil {
			s.logger.Debugf("closing connection %s: %s", s.RemoteAddr(), err)
		}
		s.server.dropSession(s)
	})
}

// DisconnectReason reports why the session was closed. Before teardown
// it is the zero value.
func (s *Session) DisconnectReason() DisconnectReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// decodePacket turns a raw frame body into a packet envelope.
func (s *Session) decodePacket(data []byte) (*sfs.PacketData, error) {
	payload, err := sfs.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	d, err := sfs.ParsePacketData(payload)
	if err != nil {
		return nil, fmt.Errorf("parsing frame envelope: %w", err)
	}
	return d, nil
}

// readPacket reads and decodes the next frame from the wire. Used for
// the handshake, where a malformed first frame drops the connection.
func (s *Session) readPacket() (*sfs.PacketData, error) {
	data, err := readFrame(s.conn)
	if err != nil {
		return nil, err
	}

	d, err := s.decodePacket(data)
	if err != nil {
		s.logger.Debugf("C->S %s malformed frame: %s", s.RemoteAddr(), hex.EncodeToString(data))
		return nil, err
	}

	s.logger.Debugf("C->S %s %d:%d (%d bytes)", s.RemoteAddr(), d.Channel, d.PacketID, len(data))
	return d, nil
}

// readLoop pumps frames into the packet handler until the connection
// drops or the context is canceled. Malformed frames are logged with a
// hex dump and dropped; only framing and I/O failures end the loop.
func (s *Session) readLoop(ctx context.Context) {
	logger := log.GetLogger(ctx)

	for {
		data, err := readFrame(s.conn)
		if err != nil {
			if !s.Closed() && ctx.Err() == nil {
				logger.Debugf("session %d read: %s", s.numericID, err)
			}
			return
		}

		d, err := s.decodePacket(data)
		if err != nil {
			logger.Warnf("session %d dropping malformed frame: %s (%s)", s.numericID, err, hex.EncodeToString(data))
			continue
		}
		logger.Debugf("C->S %s %d:%d (%d bytes)", s.RemoteAddr(), d.Channel, d.PacketID, len(data))

		s.mu.Lock()
		handler := s.handler
		s.mu.Unlock()
		if handler == nil {
			logger.Warnf("session %d has no packet handler, dropping %d:%d", s.numericID, d.Channel, d.PacketID)
			continue
		}

		handler.HandlePacket(ctx, s, d)
	}
}
