package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-log"
)

// WebSocketListener exposes the same wire protocol over websocket
// binary messages, for clients that cannot open a raw socket. It
// implements service.Worker.
type WebSocketListener struct {
	port   uint16
	path   string
	server *Server
}

func NewWebSocketListener(port uint16, path string, server *Server) *WebSocketListener {
	if path == "" {
		path = "/"
	}
	return &WebSocketListener{
		port:   port,
		path:   path,
		server: server,
	}
}

func (l *WebSocketListener) Start(ctx context.Context) error {
	logger := log.GetLogger(ctx)

	connCtx, cancelConns := context.WithCancel(context.Background())
	connCtx = log.SetLogger(connCtx, logger)
	defer cancelConns()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// The wire protocol carries its own session auth.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc(l.path, func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("upgrading websocket from %s: %s", r.RemoteAddr, err)
			return
		}
		l.server.HandleConn(connCtx, newWsConn(ws))
	})

	svr := &http.Server{
		Addr:    fmt.Sprintf(":%d", l.port),
		Handler: mux,
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			svr.Shutdown(shutdownCtx)
			cancelConns()
		case <-done:
		}
	}()

	logger.Infof("accepting websocket connections on port %d path %s", l.port, l.path)

	err := svr.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket on port %d: %w", l.port, err)
	}
	return nil
}

// wsConn adapts a websocket connection to net.Conn so the framing layer
// can treat both listener types the same. Binary messages are exposed
// as a byte stream.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader
}

func newWsConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			msgType, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
