package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"blogchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// A 1000-character Korean message plus the JSON envelope fits in 4KiB.
	maxFrameSize = 4096
)

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	identity models.Identity
	conn     *websocket.Conn
	hub      *Hub
	send     chan models.ServerEvent

	closeOnce sync.Once
}

func NewWebSocketClient(hub *Hub, conn *websocket.Conn, identity models.Identity) *WebSocketClient {
	return &WebSocketClient{
		identity: identity,
		conn:     conn,
		hub:      hub,
		send:     make(chan models.ServerEvent, 256),
	}
}

func (c *WebSocketClient) Identity() models.Identity { return c.identity }
func (c *WebSocketClient) Send() chan<- models.ServerEvent { return c.send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the send channel, which stops the write pump and closes the
// underlying connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump decodes inbound frames and hands them to the hub. It owns the
// read side of the connection and unregisters the client on exit.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.UnregisterCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var action models.ClientAction
		if err := json.Unmarshal(payload, &action); err != nil {
			log.Printf("Error decoding JSON from client %s: %v", c.identity.ConnID, err)
			continue
		}

		c.hub.ActionCh <- InboundAction{Client: c, Action: action}
	}
}

// writePump serializes events from the send channel onto the socket and
// keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("Error encoding JSON for client %s: %v", c.identity.ConnID, err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
