package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. The connection
// id doubles as the player id once the client joins a room.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	room      *Room
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper around an upgraded socket.
func NewConnection(id string, conn *websocket.Conn, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 256),
		server: server,
		logger: logger.WithPrefix("conn").With("player", id),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the connection's player id.
func (c *Connection) ID() string {
	return c.id
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Done is closed when the connection shuts down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Send queues a message for delivery. Sends are fire-and-forget: a full
// buffer closes the connection rather than blocking the room.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel closed during shutdown.
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetRoom associates this connection with a room.
func (c *Connection) SetRoom(room *Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// Room returns the associated room, if any.
func (c *Connection) Room() *Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleRaw(raw)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleRaw is the dispatch boundary: no inbound message may crash the room.
// Malformed envelopes and handler panics are reported back as generic errors.
func (c *Connection) handleRaw(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic handling message", "panic", r)
			c.sendError("Unexpected error")
		}
	}()

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	c.handleMessage(&msg)
}

// handleMessage routes an inbound message. Lobby creation and joining go to
// the server registry; everything else requires an existing room binding.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeCreateLobby:
		var payload CreateLobbyPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("Invalid message format")
			return
		}
		c.server.CreateLobby(c, payload)

	case MessageTypeJoinLobby:
		var payload JoinLobbyPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("Invalid message format")
			return
		}
		c.server.JoinLobby(c, payload)

	case MessageTypeLeaveLobby:
		room := c.Room()
		if room == nil {
			c.sendError("Not in lobby")
			return
		}
		room.HandleLeave(c.id)
		c.SetRoom(nil)

	case MessageTypeStartGame:
		c.withRoom(func(room *Room) { room.HandleStartGame(c.id) })

	case MessageTypeReady:
		c.withRoom(func(room *Room) { room.HandleReady(c.id) })

	case MessageTypeSubmitBid:
		var payload SubmitBidPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("Invalid message format")
			return
		}
		c.withRoom(func(room *Room) { room.HandleSubmitBid(c.id, payload.Bid) })

	case MessageTypePlayCard:
		var payload PlayCardPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("Invalid message format")
			return
		}
		c.withRoom(func(room *Room) { room.HandlePlayCard(c.id, payload.CardID) })

	case MessageTypeKickPlayer:
		var payload KickPlayerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("Invalid message format")
			return
		}
		c.withRoom(func(room *Room) { room.HandleKick(c.id, payload.PlayerID) })

	case MessageTypeChat:
		var payload ChatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("Invalid message format")
			return
		}
		c.withRoom(func(room *Room) { room.HandleChat(c.id, payload.Message) })

	default:
		c.sendError("Unknown message type")
	}
}

func (c *Connection) withRoom(fn func(*Room)) {
	room := c.Room()
	if room == nil {
		c.sendError("Not in lobby")
		return
	}
	fn(room)
}

// sendError sends an error message to the client.
func (c *Connection) sendError(message string) {
	msg, err := NewMessage(MessageTypeError, ErrorPayload{Message: message})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.Send(msg)
}
