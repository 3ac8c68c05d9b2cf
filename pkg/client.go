package pkg

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Client is one relay connection. rooms and closed are guarded by the
// manager's lock.
type Client struct {
	manager *Manager
	uuid    uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	rooms   []*Room
	closed  bool
}

func NewClient(manager *Manager, conn *websocket.Conn) *Client {
	return &Client{
		manager: manager,
		uuid:    uuid.New(),
		conn:    conn,
		send:    make(chan []byte, manager.config.SendBuffer),
		rooms:   make([]*Room, 0, 1),
	}
}

func (c *Client) logFields() log.Fields {
	fields := log.Fields{"client": c.uuid}
	if c.conn != nil {
		fields["remote"] = c.conn.RemoteAddr().String()
	}
	return fields
}

func (c *Client) read() {
	defer c.manager.Remove(c)

	config := c.manager.config
	c.conn.SetReadLimit(config.MaxMessageSize)
	if config.PongWait > 0 {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		})
	}

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				log.WithFields(c.logFields()).Error("Transport error: ", err)
			}
			break
		}

		err = c.manager.HandleMessage(c, message)
		if err != nil {
			if errors.Is(err, ErrMalformedMessage) ||
				errors.Is(err, ErrMissingField) {
				RelayMalformedCounter.Inc()
			}
			log.WithFields(c.logFields()).Warn("Dropped message: ", err)
		}
	}
}

func (c *Client) write() {
	config := c.manager.config

	var ping <-chan time.Time
	if period := config.PingPeriod(); period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			err := c.conn.WriteMessage(websocket.TextMessage, message)
			if err != nil {
				log.WithFields(c.logFields()).Error("Failed to write message: ", err)
				return
			}

		case <-ping:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				log.WithFields(c.logFields()).Debug("Failed to write ping: ", err)
				return
			}
		}
	}
}
