// Package ws adapts a gorilla websocket connection to the realtime core. The
// read pump feeds frames to the session handler in arrival order; the write
// pump owns the socket for outgoing frames and keepalive pings.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"match-mate/domain"
	"match-mate/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Conn is one websocket connection seen as an event sink. Consume never
// blocks: when the send buffer is full the frame is dropped for this
// connection and the caller is told why.
type Conn struct {
	id   string
	log  *slog.Logger
	conn *websocket.Conn

	send chan domain.Frame
	once sync.Once
	done chan struct{}
}

func NewConn(log *slog.Logger, conn *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		log:  log,
		conn: conn,
		send: make(chan domain.Frame, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Consume(_ context.Context, f domain.Frame) error {
	select {
	case <-c.done:
		return errors.ErrSessionClosed
	default:
	}

	select {
	case c.send <- f:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// shutdown unblocks Consume and stops the write pump. Safe to call from both
// pumps.
func (c *Conn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump reads frames until the peer disconnects, handing each one to
// handle. It blocks the caller; run WritePump in its own goroutine first.
func (c *Conn) ReadPump(ctx context.Context, handle func(context.Context, domain.Frame) error) {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Unexpected websocket close", "conn", c.id, "error", err)
			}
			return
		}

		var f domain.Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Debug("Discarding unparseable frame", "conn", c.id, "error", err)
			continue
		}
		if err := handle(ctx, f); err != nil {
			c.log.Info("Session over, closing read pump", "conn", c.id, "error", err)
			return
		}
	}
}

// WritePump drains the send buffer onto the socket and pings the peer to keep
// the connection alive. It exits when shutdown is called or a write fails.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.log.Debug("Write failed, closing connection", "conn", c.id, "error", err)
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		}
	}
}
