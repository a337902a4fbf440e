package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client represents a single WebSocket connection. Every browser tab of a
// session joins the room named by the session id.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	RoomID string
	Locale string

	mu     sync.Mutex
	closed bool
}

// Deliver queues message without blocking. It reports false when the
// client is gone or its buffer is full.
func (c *Client) Deliver(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub maintains active rooms and broadcasts messages.
type Hub struct {
	Rooms      map[string]map[*Client]bool // roomID -> set of clients
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *RoomMessage
	mu         sync.RWMutex
	done       chan struct{}
}

// RoomMessage carries a message destined for a specific room.
type RoomMessage struct {
	RoomID  string
	Message []byte
}

// NewHub creates and returns a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *RoomMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run handles register, unregister, and broadcast events until ctx is done,
// then disconnects every client. It should be launched as a goroutine.
func (h *Hub) Run(ctx context.Context) {
	log := logger.Get()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for roomID, clients := range h.Rooms {
				for client := range clients {
					client.close()
				}
				delete(h.Rooms, roomID)
			}
			h.mu.Unlock()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.RoomID] == nil {
				h.Rooms[client.RoomID] = make(map[*Client]bool)
			}
			h.Rooms[client.RoomID][client] = true
			h.mu.Unlock()

			log.Info("client registered", zap.String("session_id", client.RoomID))

		case client := <-h.Unregister:
			h.remove(client)
			log.Info("client unregistered", zap.String("session_id", client.RoomID))

		case msg := <-h.Broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.Rooms[msg.RoomID] {
				if !client.Deliver(msg.Message) {
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			// A client that cannot keep up is disconnected; the browser
			// reconnects and receives the current snapshot.
			for _, client := range slow {
				log.Warn("dropping slow websocket client", zap.String("session_id", client.RoomID))
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.Rooms[client.RoomID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.close()
			if len(clients) == 0 {
				delete(h.Rooms, client.RoomID)
			}
		}
	}
}

// Publish queues message for every client in roomID.
func (h *Hub) Publish(roomID string, message []byte) {
	select {
	case h.Broadcast <- &RoomMessage{RoomID: roomID, Message: message}:
	case <-h.done:
	}
}

// RoomSize returns the number of clients in roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Rooms[roomID])
}

// ReadPump reads messages from the WebSocket connection. It is intended to be
// run in a per-client goroutine. The provided handler is called for each
// incoming message.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				logger.Get().Warn("unexpected websocket close",
					zap.String("session_id", c.RoomID),
					zap.Error(err),
				)
			}
			break
		}
		handler(c, message)
	}
}

// WritePump sends messages from the Send channel to the WebSocket connection.
// It also sends periodic pings to keep the connection alive. It is intended to
// be run in a per-client goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
