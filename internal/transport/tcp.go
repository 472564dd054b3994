package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/pixil98/go-log"
)

// TcpListener accepts raw socket connections and hands them to the
// server. It implements service.Worker.
type TcpListener struct {
	port   uint16
	server *Server
}

func NewTcpListener(port uint16, server *Server) *TcpListener {
	return &TcpListener{
		port:   port,
		server: server,
	}
}

func (l *TcpListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	logger := log.GetLogger(ctx)
	logger.Infof("accepting connections on port %d", l.port)

	// Shared context for all connections so they are canceled together
	// on shutdown.
	connCtx, cancelConns := context.WithCancel(context.Background())
	connCtx = log.SetLogger(connCtx, logger)
	defer cancelConns()

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
			cancelConns()
		case <-done:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		go l.server.HandleConn(connCtx, conn)
	}
}
