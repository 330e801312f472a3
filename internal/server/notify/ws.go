package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// EchoPrefix is prepended to inbound text frames sent back to the client.
const EchoPrefix = "Message received: "

var ErrTransportClosed = errors.New("transport closed")

// WSTransport serializes writes to a websocket connection. gorilla allows
// one concurrent writer, while broadcasts, echoes and pings come from
// different goroutines.
type WSTransport struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func NewWSTransport(conn *websocket.Conn) *WSTransport {
	return &WSTransport{conn: conn}
}

func (t *WSTransport) WriteText(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *WSTransport) ping() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close sends a close frame (best effort) and closes the connection.
// Subsequent calls are no-ops.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}

// ServeConn registers conn with reg and blocks until the peer disconnects,
// a read fails, or ctx is done. Inbound text frames are echoed with
// EchoPrefix. The connection is always deregistered and closed on return.
func ServeConn(ctx context.Context, reg *Registry, conn *websocket.Conn, log logging.Logger) {
	t := NewWSTransport(conn)
	h := reg.Connect(t)
	defer reg.Disconnect(h)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go keepAlive(ctx, t, conn)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug(ctx, "websocket closed", "conn", h.ID(), "error", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}
		if err := t.WriteText(append([]byte(EchoPrefix), data...)); err != nil {
			return
		}
	}
}

// keepAlive pings until ctx is done; on ctx cancellation it closes the
// transport so a blocked ReadMessage returns.
func keepAlive(ctx context.Context, t *WSTransport, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = t.Close()
			return
		case <-ticker.C:
			if err := t.ping(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
