package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cardmasters/kachuful/internal/server" // Reuse message types
)

// Client is the WebSocket client side of the lobby protocol.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once

	eventHandlers map[server.MessageType][]EventHandler
}

// EventHandler is a function that handles incoming messages.
type EventHandler func(*server.Message)

// NewClient creates a client for the given server URL.
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		send:          make(chan *server.Message, 256),
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[server.MessageType][]EventHandler),
	}
}

// Connect establishes the WebSocket connection and starts the pumps.
func (c *Client) Connect() error {
	c.logger.Info("Connecting to server", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
			c.connected = false
		}

		close(c.send)
		close(c.receive)

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendMessage queues a message for the server.
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleMessage(msg *server.Message) {
	c.mu.RLock()
	handlers, exists := c.eventHandlers[msg.Type]
	c.mu.RUnlock()

	if exists {
		for _, handler := range handlers {
			go handler(msg) // Handle asynchronously
		}
	} else {
		c.logger.Debug("No handler for message type", "type", msg.Type)
	}
}

// AddEventHandler registers a handler for a message type.
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// CreateLobby asks the server for a fresh lobby with this client as host.
func (c *Client) CreateLobby(hostName, avatar string, maxPlayers int) error {
	msg, err := server.NewMessage(server.MessageTypeCreateLobby, server.CreateLobbyPayload{
		HostName:   hostName,
		MaxPlayers: maxPlayers,
		Avatar:     avatar,
	})
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// JoinLobby joins an existing lobby by code.
func (c *Client) JoinLobby(code, playerName, avatar string) error {
	msg, err := server.NewMessage(server.MessageTypeJoinLobby, server.JoinLobbyPayload{
		LobbyCode:  code,
		PlayerName: playerName,
		Avatar:     avatar,
	})
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// LeaveLobby leaves the current lobby.
func (c *Client) LeaveLobby() error {
	msg, err := server.NewMessage(server.MessageTypeLeaveLobby, nil)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// StartGame requests a game start (host only).
func (c *Client) StartGame() error {
	msg, err := server.NewMessage(server.MessageTypeStartGame, nil)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// Ready marks this player as ready.
func (c *Client) Ready() error {
	msg, err := server.NewMessage(server.MessageTypeReady, nil)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// SubmitBid submits a bid for the current round.
func (c *Client) SubmitBid(bid int) error {
	msg, err := server.NewMessage(server.MessageTypeSubmitBid, server.SubmitBidPayload{Bid: bid})
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// PlayCard plays a card into the current trick.
func (c *Client) PlayCard(cardID string) error {
	msg, err := server.NewMessage(server.MessageTypePlayCard, server.PlayCardPayload{CardID: cardID})
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// KickPlayer removes a player from the lobby (host only).
func (c *Client) KickPlayer(playerID string) error {
	msg, err := server.NewMessage(server.MessageTypeKickPlayer, server.KickPlayerPayload{PlayerID: playerID})
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// Chat sends a chat line to the lobby.
func (c *Client) Chat(message string) error {
	msg, err := server.NewMessage(server.MessageTypeChat, server.ChatPayload{Message: message})
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}
