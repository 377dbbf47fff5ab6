package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cardmasters/kachuful/internal/client"
	"github.com/cardmasters/kachuful/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"kachuful-client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" long:"server" help:"Server URL to connect to (overrides config)"`
	Name     string `short:"n" long:"name" help:"Player name (overrides config)"`
	Avatar   string `long:"avatar" help:"Preferred avatar emoji"`
	Join     string `short:"j" long:"join" help:"Lobby code to join on startup"`
	Create   bool   `long:"create" help:"Create a lobby on startup"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

// session tracks what the event handlers have told us so the command loop
// can act on indices instead of raw card ids.
type session struct {
	mu       sync.Mutex
	selfID   string
	lastHand server.HandUpdatePayload
	state    server.GameState
}

func (s *session) setSelf(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfID = id
}

func (s *session) self() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfID
}

func (s *session) setHand(hand server.HandUpdatePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHand = hand
}

func (s *session) hand() server.HandUpdatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHand
}

func (s *session) setState(state server.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *session) gameState() server.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := client.LoadClientConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Server != "" {
		cfg.Server.URL = CLI.Server
	}
	if CLI.Name != "" {
		cfg.Player.Name = CLI.Name
	}
	if CLI.Avatar != "" {
		cfg.Player.Avatar = CLI.Avatar
	}
	if CLI.LogLevel != "" {
		cfg.UI.LogLevel = CLI.LogLevel
	}

	if cfg.Player.Name == "" {
		fmt.Print("Enter your player name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		cfg.Player.Name = strings.TrimSpace(input)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.New(logFile)
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}

	wsClient := client.NewClient(cfg.Server.URL, logger)
	sess := &session{}
	registerHandlers(wsClient, sess)

	if err := wsClient.Connect(); err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = wsClient.Disconnect() }()

	switch {
	case CLI.Create:
		_ = wsClient.CreateLobby(cfg.Player.Name, cfg.Player.Avatar, 0)
	case CLI.Join != "":
		_ = wsClient.JoinLobby(strings.ToUpper(CLI.Join), cfg.Player.Name, cfg.Player.Avatar)
	default:
		fmt.Println("Type 'create' to open a lobby or 'join CODE' to join one. 'help' lists commands.")
	}

	commandLoop(wsClient, sess, cfg.Player.Name, cfg.Player.Avatar)
}

func registerHandlers(c *client.Client, sess *session) {
	printHandler := func(render func(msg *server.Message) string) client.EventHandler {
		return func(msg *server.Message) {
			if out := render(msg); out != "" {
				fmt.Println(out)
			}
		}
	}

	c.AddEventHandler(server.MessageTypeLobbyCreated, printHandler(func(msg *server.Message) string {
		var lobby server.LobbyInfo
		if json.Unmarshal(msg.Payload, &lobby) != nil {
			return ""
		}
		sess.setSelf(lobby.HostID)
		return fmt.Sprintf("Lobby created. Share this code: %s", client.FormatLobbyCode(lobby.Code))
	}))

	c.AddEventHandler(server.MessageTypeLobbyJoined, printHandler(func(msg *server.Message) string {
		var state server.GameState
		if json.Unmarshal(msg.Payload, &state) != nil {
			return ""
		}
		// This message is unicast to the joiner, who is the newest member.
		if len(state.Players) > 0 {
			sess.setSelf(state.Players[len(state.Players)-1].ID)
		}
		sess.setState(state)
		return client.RenderLobby(state)
	}))

	c.AddEventHandler(server.MessageTypeGameState, func(msg *server.Message) {
		var state server.GameState
		if json.Unmarshal(msg.Payload, &state) != nil {
			return
		}
		sess.setState(state)
		if state.Status == server.StatusPlaying {
			fmt.Println(client.RenderTable(state, sess.self()))
		} else {
			fmt.Println(client.RenderLobby(state))
		}
	})

	c.AddEventHandler(server.MessageTypeHandUpdate, func(msg *server.Message) {
		var hand server.HandUpdatePayload
		if json.Unmarshal(msg.Payload, &hand) != nil {
			return
		}
		sess.setSelf(hand.PlayerID)
		sess.setHand(hand)
		fmt.Println(client.RenderHand(hand))
	})

	c.AddEventHandler(server.MessageTypeGameStarted, printHandler(func(msg *server.Message) string {
		var started server.GameStartedPayload
		if json.Unmarshal(msg.Payload, &started) != nil {
			return ""
		}
		return fmt.Sprintf("Game on! Round %d, bidding begins.", started.Round)
	}))

	c.AddEventHandler(server.MessageTypeGameEnded, printHandler(func(msg *server.Message) string {
		var ended server.GameEndedPayload
		if json.Unmarshal(msg.Payload, &ended) != nil {
			return ""
		}
		return client.RenderGameEnd(ended)
	}))

	c.AddEventHandler(server.MessageTypePlayerJoined, printHandler(func(msg *server.Message) string {
		var player server.PlayerInfo
		if json.Unmarshal(msg.Payload, &player) != nil {
			return ""
		}
		return fmt.Sprintf("%s %s joined", player.Avatar, player.Name)
	}))

	c.AddEventHandler(server.MessageTypePlayerLeft, printHandler(func(msg *server.Message) string {
		var left server.PlayerLeftPayload
		if json.Unmarshal(msg.Payload, &left) != nil {
			return ""
		}
		return fmt.Sprintf("%s left", left.PlayerName)
	}))

	c.AddEventHandler(server.MessageTypePlayerKicked, printHandler(func(msg *server.Message) string {
		var kicked server.PlayerLeftPayload
		if json.Unmarshal(msg.Payload, &kicked) != nil {
			return ""
		}
		return fmt.Sprintf("%s was kicked", kicked.PlayerName)
	}))

	c.AddEventHandler(server.MessageTypeHostChanged, printHandler(func(msg *server.Message) string {
		var changed server.HostChangedPayload
		if json.Unmarshal(msg.Payload, &changed) != nil {
			return ""
		}
		return fmt.Sprintf("%s is now the host", changed.NewHostName)
	}))

	c.AddEventHandler(server.MessageTypeChat, printHandler(func(msg *server.Message) string {
		var chat server.ChatPayload
		if json.Unmarshal(msg.Payload, &chat) != nil {
			return ""
		}
		return client.RenderChat(chat)
	}))

	c.AddEventHandler(server.MessageTypeLobbyDestroyed, printHandler(func(msg *server.Message) string {
		return "The lobby was closed."
	}))

	c.AddEventHandler(server.MessageTypeError, printHandler(func(msg *server.Message) string {
		var payload server.ErrorPayload
		if json.Unmarshal(msg.Payload, &payload) != nil {
			return ""
		}
		return client.RenderError(payload.Message)
	}))
}

func commandLoop(c *client.Client, sess *session, name, avatar string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		var err error
		switch cmd {
		case "create":
			err = c.CreateLobby(name, avatar, 0)
		case "join":
			if len(args) != 1 {
				fmt.Println("usage: join CODE")
				continue
			}
			err = c.JoinLobby(strings.ToUpper(args[0]), name, avatar)
		case "start":
			err = c.StartGame()
		case "ready":
			err = c.Ready()
		case "bid":
			if len(args) != 1 {
				fmt.Println("usage: bid N")
				continue
			}
			var bid int
			if bid, err = strconv.Atoi(args[0]); err != nil {
				fmt.Println("usage: bid N")
				continue
			}
			err = c.SubmitBid(bid)
		case "play":
			if len(args) != 1 {
				fmt.Println("usage: play N (number from your hand)")
				continue
			}
			cardID, ok := resolveCard(sess.hand(), args[0])
			if !ok {
				fmt.Println("No such card in your hand")
				continue
			}
			err = c.PlayCard(cardID)
		case "kick":
			if len(args) != 1 {
				fmt.Println("usage: kick NAME")
				continue
			}
			targetID, ok := resolvePlayer(sess.gameState(), args[0])
			if !ok {
				fmt.Println("No such player")
				continue
			}
			err = c.KickPlayer(targetID)
		case "say":
			err = c.Chat(strings.Join(args, " "))
		case "leave":
			err = c.LeaveLobby()
		case "help":
			fmt.Println("commands: create, join CODE, start, ready, bid N, play N, kick NAME, say MSG, leave, quit")
		case "quit", "exit":
			return
		default:
			fmt.Printf("Unknown command %q (try 'help')\n", cmd)
			continue
		}
		if err != nil {
			fmt.Printf("Failed to send: %v\n", err)
		}
	}
}

// resolveCard turns a 1-based hand index (or a raw card id) into a card id.
func resolveCard(hand server.HandUpdatePayload, arg string) (string, bool) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > len(hand.Cards) {
			return "", false
		}
		return hand.Cards[idx-1].ID, true
	}
	for _, c := range hand.Cards {
		if c.ID == arg {
			return c.ID, true
		}
	}
	return "", false
}

// resolvePlayer matches a player by name, case-insensitively.
func resolvePlayer(state server.GameState, name string) (string, bool) {
	for _, p := range state.Players {
		if strings.EqualFold(p.Name, name) {
			return p.ID, true
		}
	}
	return "", false
}
