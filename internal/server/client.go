package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leadstream/leadstream/internal/types"
	"github.com/teris-io/shortid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096

	presenceOpTimeout = 2 * time.Second
)

// Client is one authenticated WebSocket connection. The resolved user
// identity is attached at construction and never changes for the
// connection's lifetime.
type Client struct {
	id       string
	conn     *websocket.Conn
	hub      *Hub
	log      *log.Logger
	user     types.User
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, h *Hub, l *log.Logger) *Client {
	return &Client{
		id:   shortid.MustGenerate(),
		conn: conn,
		hub:  h,
		log:  l,
		user: user,
		send: make(chan *ServerMessage, 256),
		stop: make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Printf("warning: dropping malformed message from %q: %v", c.user.Name, err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c

		// Availability updates touch only the presence store, so they
		// are handled on the connection's own goroutine instead of the
		// hub loop.
		if msg.Availability != nil {
			ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
			c.hub.presence.SetAvailability(ctx, c.user.Id, msg.Availability.Status)
			cancel()
			continue
		}

		select {
		case c.hub.inboundChan <- &msg:
		case <-c.stop:
			return
		default:
			c.log.Printf("inbound channel full, rejecting message from %q", c.user.Name)
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	}
}

// queueMessage enqueues a message for delivery, dropping it when the
// client's send buffer is full. Fan-out is fire-and-forget.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for %q, dropping message", c.user.Name)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.hub.deregisterChan <- c

	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	c.hub.presence.MarkOffline(ctx, c.user.Id)
	cancel()

	c.stopClient()
}
