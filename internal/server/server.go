package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cardmasters/kachuful/internal/game"
)

// Server accepts WebSocket connections and routes them into rooms. It owns
// the lobby registry; everything after create/join is the room's business.
type Server struct {
	config      *ServerConfig
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	rooms       map[string]*Room
	roomsMu     sync.RWMutex
	logger      *log.Logger
	clock       quartz.Clock
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates a server from a validated config.
func NewServer(config *ServerConfig, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		rooms:       make(map[string]*Room),
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the connection loop and serves HTTP until the listener fails
// or the process is stopped.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	addr := s.config.GetServerAddress()
	s.logger.Info("Starting WebSocket server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// Stop closes all connections and stops the connection loop.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)

				// A vanished connection is a disconnect as far as its
				// room is concerned.
				if room := conn.Room(); room != nil {
					room.HandleDisconnect(conn.ID())
				}
				_ = conn.Close() // Ignore close errors during unregistration
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// CreateLobby allocates a fresh room with a unique code and seats the
// creator as host.
func (s *Server) CreateLobby(c *Connection, payload CreateLobbyPayload) {
	if payload.HostName == "" {
		c.sendError("Player name is required")
		return
	}

	room := s.allocateRoom()
	room.HandleCreate(c, payload)
}

// JoinLobby resolves the lobby code and hands the connection to the room.
func (s *Server) JoinLobby(c *Connection, payload JoinLobbyPayload) {
	if payload.PlayerName == "" {
		c.sendError("Player name is required")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(payload.LobbyCode))
	s.roomsMu.RLock()
	room, ok := s.rooms[code]
	s.roomsMu.RUnlock()
	if !ok {
		c.sendError("Invalid lobby code")
		return
	}

	room.HandleJoin(c, payload)
}

// RoomCount returns the number of active lobbies.
func (s *Server) RoomCount() int {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	return len(s.rooms)
}

// allocateRoom registers a room under a code no other lobby is using.
func (s *Server) allocateRoom() *Room {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()

	code := GenerateLobbyCode()
	for _, taken := s.rooms[code]; taken; _, taken = s.rooms[code] {
		code = GenerateLobbyCode()
	}

	room := NewRoom(code, s.roomRules(), s.clock, s.logger, s.removeRoom)
	s.rooms[code] = room
	return room
}

func (s *Server) removeRoom(code string) {
	s.roomsMu.Lock()
	delete(s.rooms, code)
	s.roomsMu.Unlock()
}

func (s *Server) roomRules() RoomRules {
	return RoomRules{
		MaxPlayers:                s.config.Game.MaxPlayers,
		HandSequence:              s.config.Game.HandSequence,
		Scoring:                   s.config.ScoreModel(),
		TrumpPolicy:               game.TrumpPolicy(s.config.Game.TrumpRotation),
		DisableLastBidRestriction: s.config.Game.DisableLastBidRestriction,
		RoundDelay:                time.Duration(s.config.Game.RoundDelaySeconds) * time.Second,
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(uuid.NewString(), conn, s, s.logger)
	s.register <- client
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}
