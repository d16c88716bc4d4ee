package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one websocket connection.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan ServerMessage
	hub  *Hub
	log  *logrus.Entry

	filterMu sync.RWMutex
	filter   SubscriptionFilter

	sendMu sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan ServerMessage, sendBufferSize),
		hub:  hub,
		log:  hub.log.WithField("client_id", id),
	}
}

// TrySend queues msg without blocking. It reports false when the client's
// buffer is full.
func (c *Client) TrySend(msg ServerMessage) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend stops the write pump. Safe to call more than once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Filter returns the client's current subscription.
func (c *Client) Filter() SubscriptionFilter {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter
}

func (c *Client) setFilter(f SubscriptionFilter) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	c.filter = f
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		var f SubscriptionFilter
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &f); err != nil {
				c.reply(MessageTypeError, map[string]string{"error": "invalid subscription"})
				return
			}
		}
		c.setFilter(f)
		c.reply(MessageTypeSubscribed, f)
	case MessageTypeUnsubscribe:
		c.setFilter(SubscriptionFilter{})
		c.reply(MessageTypeSubscribed, SubscriptionFilter{})
	case MessageTypeHeartbeat:
		c.reply(MessageTypeHeartbeat, nil)
	default:
		c.reply(MessageTypeError, map[string]string{"error": "unknown message type " + msg.Type})
	}
}

func (c *Client) reply(msgType string, payload interface{}) {
	c.TrySend(ServerMessage{Type: msgType, Payload: payload, Timestamp: time.Now().UTC()})
}
