package transport

import (
	"context"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
)

// Handshaker negotiates the first packet of a connection. It sends the
// handshake response itself; returning an error drops the connection
// before the session is published in the directory.
type Handshaker interface {
	Handshake(ctx context.Context, s *Session, first *sfs.PacketData) error
}

// HandlerFactory builds the packet handler for a freshly handshaken
// session.
type HandlerFactory func(s *Session) PacketHandler

// Server owns the session directory and the per-connection lifecycle.
// Listeners accept connections and hand them to HandleConn.
type Server struct {
	handshaker Handshaker
	factory    HandlerFactory

	wg sync.WaitGroup

	mu           sync.Mutex
	byNumericID  map[int32]*Session
	byToken      map[string]*Session
	onDisconnect []func(ctx context.Context, s *Session)
}

func NewServer(handshaker Handshaker, factory HandlerFactory) *Server {
	return &Server{
		handshaker:  handshaker,
		factory:     factory,
		byNumericID: make(map[int32]*Session),
		byToken:     make(map[string]*Session),
	}
}

// OnDisconnect registers a callback invoked after a published session
// is torn down. Callbacks run in registration order.
func (sv *Server) OnDisconnect(f func(ctx context.Context, s *Session)) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.onDisconnect = append(sv.onDisconnect, f)
}

// Sessions returns a snapshot of all published sessions.
func (sv *Server) Sessions() []*Session {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	out := make([]*Session, 0, len(sv.byNumericID))
	for _, s := range sv.byNumericID {
		out = append(out, s)
	}
	return out
}

// SessionByNumericID looks a session up by its numeric identifier.
func (sv *Server) SessionByNumericID(id int32) *Session {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.byNumericID[id]
}

// SessionByToken looks a session up by its session token.
func (sv *Server) SessionByToken(token string) *Session {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.byToken[token]
}

// HandleConn runs a connection to completion: handshake, directory
// registration, read loop, teardown. It returns when the connection
// drops or ctx is canceled.
func (sv *Server) HandleConn(ctx context.Context, conn net.Conn) {
	sv.wg.Add(1)
	defer sv.wg.Done()

	logger := log.GetLogger(ctx)

	s := &Session{
		conn:    conn,
		server:  sv,
		logger:  logger,
		closed:  make(chan struct{}),
		objects: make(map[string]any),
	}
	sv.assignIdentity(s)
	defer s.Close()

	// Close the connection when the server shuts down so the blocking
	// read below unblocks.
	stop := context.AfterFunc(ctx, func() { s.CloseWithReason(ReasonServerShutdown) })
	defer stop()

	first, err := s.readPacket()
	if err != nil {
		logger.Debugf("connection %s dropped before handshake: %s", s.RemoteAddr(), err)
		return
	}

	if err := sv.handshaker.Handshake(ctx, s, first); err != nil {
		logger.Warnf("handshake with %s failed: %s", s.RemoteAddr(), err)
		return
	}

	s.mu.Lock()
	s.handler = sv.factory(s)
	s.mu.Unlock()

	sv.publish(s)
	logger.Infof("session %d connected from %s", s.NumericID(), s.RemoteAddr())

	s.readLoop(ctx)
	s.Close()

	logger.Infof("session %d disconnected", s.NumericID())
	for _, f := range sv.disconnectHooks() {
		f(ctx, s)
	}
}

// Wait blocks until every connection handled by the server has finished,
// or the timeout elapses.
func (sv *Server) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		sv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// CloseAll force-closes every published session.
func (sv *Server) CloseAll() {
	for _, s := range sv.Sessions() {
		s.CloseWithReason(ReasonServerShutdown)
	}
}

// assignIdentity gives the session a unique token and a unique nonzero
// numeric id.
func (sv *Server) assignIdentity(s *Session) {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	for {
		token := uuid.NewString()
		if _, taken := sv.byToken[token]; !taken {
			s.token = token
			break
		}
	}

	for {
		id := rand.Int32()
		if id == 0 {
			continue
		}
		if _, taken := sv.byNumericID[id]; !taken {
			s.numericID = id
			break
		}
	}
}

func (sv *Server) publish(s *Session) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.byNumericID[s.numericID] = s
	sv.byToken[s.token] = s
}

func (sv *Server) dropSession(s *Session) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	delete(sv.byNumericID, s.numericID)
	delete(sv.byToken, s.token)
}

func (sv *Server) disconnectHooks() []func(ctx context.Context, s *Session) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return append([]func(ctx context.Context, s *Session){}, sv.onDisconnect...)
}
