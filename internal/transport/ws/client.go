package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one live WebSocket connection with its outbound queue.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	quit   chan struct{}
	server *Server

	closeOnce sync.Once
}

// trySend queues a frame without blocking. A full queue means the client
// is not draining; the frame is dropped and the connection closed so the
// pumps can unwind. The send channel is never closed, so a concurrent
// trySend during teardown is safe.
func (c *client) trySend(msg []byte) {
	select {
	case <-c.quit:
	case c.send <- msg:
	default:
		c.server.logger.Warn("send queue full, dropping client",
			zap.String("conn_id", c.id),
		)
		c.close()
	}
}

// close tears the connection down. Idempotent; the read pump's exit path
// handles deregistration.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		_ = c.conn.Close()
	})
}

// readPump reads frames until the connection dies, feeding each one to
// the handler. Runs as the connection's owning goroutine: its exit
// triggers deregistration and departure processing.
func (c *client) readPump() {
	defer func() {
		c.server.remove(c)
		c.close()
	}()

	cfg := c.server.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debug("read error",
					zap.String("conn_id", c.id),
					zap.Error(err),
				)
			}
			return
		}
		c.server.handler.HandleMessage(c.id, data)
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings. One writer per connection; gorilla allows at most one concurrent
// writer.
func (c *client) writePump() {
	cfg := c.server.cfg
	ticker := time.NewTicker(cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
