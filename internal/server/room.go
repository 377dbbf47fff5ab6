package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardmasters/kachuful/internal/game"
)

// client is the room's view of a connection. Connections implement it; room
// tests substitute fakes.
type client interface {
	ID() string
	Send(*Message) error
	Close() error
}

// RoomRules is the rules slice of the server config handed to each room.
type RoomRules struct {
	MaxPlayers                int
	HandSequence              []int
	Scoring                   game.ScoreModel
	TrumpPolicy               game.TrumpPolicy
	DisableLastBidRestriction bool
	RoundDelay                time.Duration

	// Seed pins the engine's shuffle for tests. Empty means a per-game
	// seed derived from the lobby code and start time.
	Seed string
}

// Room is the per-lobby session coordinator. It owns the members, their
// connections, and the engine instance once a game starts, and it is the
// only place engine snapshots are translated into network messages.
//
// All inbound handling is serialized by a single mutex, so the room behaves
// as one logical actor; different rooms process messages in parallel.
type Room struct {
	mu     sync.Mutex
	code   string
	rules  RoomRules
	logger *log.Logger
	clock  quartz.Clock

	status     LobbyStatus
	hostID     string
	maxPlayers int
	createdAt  int64
	startedAt  *int64

	players []*PlayerInfo // join order; seat order once a game starts
	clients map[string]client
	avatars *avatarPool

	engine *game.Engine
	latest game.Snapshot

	// roundTimer auto-advances round_end → bidding. At most one timer is
	// in flight; it is stopped on every phase change that invalidates it.
	roundTimer *quartz.Timer

	onDestroy func(code string)
}

// NewRoom creates an empty lobby with the given code.
func NewRoom(code string, rules RoomRules, clock quartz.Clock, logger *log.Logger, onDestroy func(code string)) *Room {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Room{
		code:       code,
		rules:      rules,
		logger:     logger.WithPrefix("room").With("lobby", code),
		clock:      clock,
		status:     StatusLobby,
		maxPlayers: rules.MaxPlayers,
		createdAt:  time.Now().UnixMilli(),
		clients:    make(map[string]client),
		avatars:    newAvatarPool(nil),
		onDestroy:  onDestroy,
	}
}

// Code returns the lobby code.
func (r *Room) Code() string {
	return r.code
}

// HandleCreate seats the creating connection as host.
func (r *Room) HandleCreate(c client, payload CreateLobbyPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) > 0 {
		r.sendErrorTo(c, "Lobby already exists")
		return
	}
	if payload.MaxPlayers >= game.MinPlayers && payload.MaxPlayers <= game.MaxPlayers {
		r.maxPlayers = payload.MaxPlayers
	}

	host := r.addPlayer(c, payload.HostName, payload.Avatar, true)
	r.hostID = host.ID
	r.logger.Info("Lobby created", "host", payload.HostName)

	r.sendTo(c.ID(), MessageTypeLobbyCreated, LobbyInfo{
		Code:        r.code,
		HostID:      r.hostID,
		HostName:    host.Name,
		PlayerCount: len(r.players),
		MaxPlayers:  r.maxPlayers,
		CreatedAt:   r.createdAt,
		Status:      r.status,
	})
	r.broadcastGameState()
}

// HandleJoin admits a player, rejecting a wrong code, a full room, or a game
// already in progress.
func (r *Room) HandleJoin(c client, payload JoinLobbyPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !equalCode(payload.LobbyCode, r.code) {
		r.sendErrorTo(c, "Invalid lobby code")
		return
	}
	if r.findPlayer(c.ID()) != nil {
		r.sendErrorTo(c, "Already in lobby")
		return
	}
	if len(r.players) >= r.maxPlayers {
		r.sendErrorTo(c, "Lobby is full")
		return
	}
	if r.status != StatusLobby {
		r.sendErrorTo(c, "Game already in progress")
		return
	}

	player := r.addPlayer(c, payload.PlayerName, payload.Avatar, false)
	r.logger.Info("Player joined", "player", player.Name)

	r.broadcast(MessageTypePlayerJoined, *player)
	r.sendTo(c.ID(), MessageTypeLobbyJoined, r.buildGameState())
	r.broadcastGameState()
}

// HandleLeave removes a player who asked to leave. During an active game the
// seat is kept so the engine's turn order stays valid; the player is only
// marked disconnected.
func (r *Room) HandleLeave(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropPlayer(playerID, MessageTypePlayerLeft)
}

// HandleDisconnect handles a connection going away without a leave message.
func (r *Room) HandleDisconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findPlayer(playerID) == nil {
		return
	}
	r.dropPlayer(playerID, MessageTypePlayerLeft)
}

// HandleKick removes a player at the host's request and force-closes their
// connection. Host-only; the host cannot be kicked.
func (r *Room) HandleKick(kickerID, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kicker := r.findPlayer(kickerID)
	if kicker == nil {
		r.sendError(kickerID, "Player not found")
		return
	}
	if !kicker.IsHost {
		r.sendError(kickerID, "Only host can kick players")
		return
	}
	target := r.findPlayer(targetID)
	if target == nil {
		r.sendError(kickerID, "Player to kick not found")
		return
	}
	if target.IsHost {
		r.sendError(kickerID, "Cannot kick the host")
		return
	}
	if r.status != StatusLobby {
		r.sendError(kickerID, "Cannot kick players during a game")
		return
	}

	name := target.Name
	conn := r.clients[targetID]
	r.removePlayer(targetID)
	r.broadcast(MessageTypePlayerKicked, PlayerLeftPayload{PlayerID: targetID, PlayerName: name})
	if conn != nil {
		_ = conn.Close()
	}
	r.broadcastGameState()
}

// HandleReady marks a player ready; when everyone is ready and the table has
// enough players, the game starts without waiting for the host.
func (r *Room) HandleReady(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		r.sendError(playerID, "Player not found")
		return
	}
	if r.status != StatusLobby {
		return
	}
	player.Status = PlayerReady

	allReady := true
	for _, p := range r.players {
		if p.Status != PlayerReady {
			allReady = false
			break
		}
	}
	if allReady && len(r.players) >= game.MinPlayers {
		r.startGame()
		return
	}
	r.broadcastGameState()
}

// HandleStartGame starts the game at the host's request.
func (r *Room) HandleStartGame(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		r.sendError(playerID, "Player not found")
		return
	}
	if !player.IsHost {
		r.sendError(playerID, "Only host can start game")
		return
	}
	if len(r.players) < game.MinPlayers {
		r.sendError(playerID, fmt.Sprintf("Need at least %d players to start", game.MinPlayers))
		return
	}
	if r.status != StatusLobby {
		r.sendError(playerID, "Game already started")
		return
	}

	r.startGame()
}

// HandleSubmitBid forwards a bid to the engine. The engine is the sole
// source of turn-order truth; the room only translates the outcome.
func (r *Room) HandleSubmitBid(playerID string, bid int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		r.sendError(playerID, "Game not started")
		return
	}

	snap, err := r.engine.SubmitBid(playerID, bid)
	if err != nil {
		var bidErr *game.IllegalBidError
		if errors.As(err, &bidErr) {
			r.sendError(playerID, bidErr.Reason)
			return
		}
		r.logger.Error("Bid failed", "player", playerID, "error", err)
		r.sendError(playerID, "Unexpected error")
		return
	}

	r.latest = snap
	r.broadcastGameState()
	r.sendHandUpdates()
}

// HandlePlayCard forwards a card play to the engine and reacts to the phase
// it lands in: scheduling the round transition or finishing the game.
func (r *Room) HandlePlayCard(playerID, cardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		r.sendError(playerID, "Game not started")
		return
	}

	result, err := r.engine.PlayCard(playerID, cardID)
	if err != nil {
		var playErr *game.IllegalPlayError
		if errors.As(err, &playErr) {
			r.sendError(playerID, playErr.Reason)
			return
		}
		r.logger.Error("Play failed", "player", playerID, "error", err)
		r.sendError(playerID, "Unexpected error")
		return
	}

	r.latest = result.Snapshot
	if result.TrickResolved {
		r.logger.Debug("Trick resolved", "winner", result.WinnerID)
	}

	r.broadcastGameState()
	r.sendHandUpdates()

	switch result.Snapshot.Phase {
	case game.PhaseRoundEnd:
		r.scheduleRoundAdvance()
	case game.PhaseCompleted:
		r.finishGame()
	}
}

// HandleChat relays a chat line with the sender's name attached.
func (r *Room) HandleChat(playerID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		return
	}
	r.broadcast(MessageTypeChat, ChatPayload{
		Message:    message,
		PlayerID:   playerID,
		PlayerName: player.Name,
	})
}

// State returns a copy of the current broadcastable projection.
func (r *Room) State() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildGameState()
}

func (r *Room) addPlayer(c client, name, avatar string, isHost bool) *PlayerInfo {
	player := &PlayerInfo{
		ID:       c.ID(),
		Name:     name,
		Status:   PlayerConnected,
		Avatar:   r.avatars.Assign(c.ID(), avatar),
		IsHost:   isHost,
		JoinedAt: time.Now().UnixMilli(),
	}
	r.players = append(r.players, player)
	r.clients[c.ID()] = c
	if conn, ok := c.(*Connection); ok {
		conn.SetRoom(r)
	}
	return player
}

// dropPlayer implements leave/disconnect. Mid-game the seat stays occupied
// so play can continue or resume; removal only happens pre-game.
func (r *Room) dropPlayer(playerID string, reason MessageType) {
	player := r.findPlayer(playerID)
	if player == nil {
		return
	}
	wasHost := player.IsHost
	name := player.Name

	// Broadcast before dropping the connection so the leaver gets the
	// confirmation too.
	r.broadcast(reason, PlayerLeftPayload{PlayerID: playerID, PlayerName: name})

	if r.status == StatusLobby {
		r.removePlayer(playerID)
	} else {
		player.Status = PlayerDisconnected
		delete(r.clients, playerID)
	}

	if r.connectedCount() == 0 {
		r.destroy()
		return
	}
	if wasHost {
		r.migrateHost(playerID)
	}
	r.broadcastGameState()
}

func (r *Room) findPlayer(playerID string) *PlayerInfo {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayer(playerID string) {
	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	r.avatars.Release(playerID)
	delete(r.clients, playerID)
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Status != PlayerDisconnected {
			n++
		}
	}
	return n
}

// migrateHost promotes the earliest-joined remaining connected player.
func (r *Room) migrateHost(oldHostID string) {
	var newHost *PlayerInfo
	for _, p := range r.players {
		if p.ID == oldHostID || p.Status == PlayerDisconnected {
			continue
		}
		if newHost == nil || p.JoinedAt < newHost.JoinedAt {
			newHost = p
		}
	}
	if newHost == nil {
		return
	}

	if old := r.findPlayer(oldHostID); old != nil {
		old.IsHost = false
	}
	newHost.IsHost = true
	r.hostID = newHost.ID
	r.logger.Info("Host migrated", "newHost", newHost.Name)

	r.broadcast(MessageTypeHostChanged, HostChangedPayload{
		OldHostID:   oldHostID,
		NewHostID:   newHost.ID,
		NewHostName: newHost.Name,
	})
}

// startGame builds the engine config from current membership, with the
// host's seat as the dealer offset, and deals the first round.
func (r *Room) startGame() {
	r.status = StatusStarting

	players := make([]game.PlayerConfig, len(r.players))
	dealerIndex := 0
	for i, p := range r.players {
		players[i] = game.PlayerConfig{ID: p.ID, Name: p.Name}
		if p.ID == r.hostID {
			dealerIndex = i
		}
	}

	seed := r.rules.Seed
	if seed == "" {
		seed = fmt.Sprintf("%s-%d", r.code, time.Now().UnixNano())
	}

	engine, err := game.NewEngine(game.Config{
		Players:                   players,
		HandSequence:              clampHandSequence(r.rules.HandSequence, len(players)),
		Scoring:                   r.rules.Scoring,
		TrumpPolicy:               r.rules.TrumpPolicy,
		DisableLastBidRestriction: r.rules.DisableLastBidRestriction,
		InitialDealerIndex:        dealerIndex,
		Seed:                      seed,
	})
	if err != nil {
		// Config comes from validated server settings; reaching this is
		// a deployment bug, not user input.
		r.logger.Error("Failed to build engine", "error", err)
		r.status = StatusLobby
		r.sendError(r.hostID, "Unexpected error")
		return
	}

	snap, err := engine.Start()
	if err != nil {
		r.logger.Error("Failed to start engine", "error", err)
		r.status = StatusLobby
		r.sendError(r.hostID, "Unexpected error")
		return
	}

	r.engine = engine
	r.latest = snap
	r.status = StatusPlaying
	now := time.Now().UnixMilli()
	r.startedAt = &now
	for _, p := range r.players {
		p.Status = PlayerPlaying
	}
	r.clearRoundTimer()

	r.logger.Info("Game started", "players", len(players), "rounds", len(r.rules.HandSequence))
	r.broadcast(MessageTypeGameStarted, GameStartedPayload{
		Round:       snap.RoundIndex + 1,
		CurrentTurn: snap.PendingPlayerID,
	})
	r.broadcastGameState()
	r.sendHandUpdates()
}

// scheduleRoundAdvance arms the single cancelable round-transition timer.
func (r *Room) scheduleRoundAdvance() {
	r.clearRoundTimer()
	r.roundTimer = r.clock.AfterFunc(r.rules.RoundDelay, r.advanceRound)
}

// advanceRound fires from the timer goroutine. The phase is re-checked
// under the lock: a torn-down lobby or a finished game makes it a no-op.
func (r *Room) advanceRound() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roundTimer = nil
	if r.status != StatusPlaying || r.engine == nil || r.engine.Phase() != game.PhaseRoundEnd {
		return
	}

	snap, err := r.engine.StartNextRound()
	if err != nil {
		r.logger.Error("Failed to start next round", "error", err)
		return
	}
	r.latest = snap
	r.logger.Info("Round advanced", "round", snap.RoundIndex+1)
	r.broadcastGameState()
	r.sendHandUpdates()
}

func (r *Room) clearRoundTimer() {
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
}

// finishGame marks the lobby finished and broadcasts final standings. The
// winner is the player with the maximum cumulative score.
func (r *Room) finishGame() {
	r.clearRoundTimer()
	r.status = StatusFinished

	var winner *PlayerInfo
	finalScores := make([]FinalScore, 0, len(r.players))
	for _, p := range r.players {
		score := r.latest.Scores[p.ID]
		finalScores = append(finalScores, FinalScore{ID: p.ID, Name: p.Name, Score: score})
		if winner == nil || score > r.latest.Scores[winner.ID] {
			winner = p
		}
	}

	winnerID := ""
	if winner != nil {
		winnerID = winner.ID
	}
	r.logger.Info("Game ended", "winner", winnerID)
	r.broadcast(MessageTypeGameEnded, GameEndedPayload{
		Winner:      winnerID,
		FinalScores: finalScores,
	})
	r.broadcastGameState()
}

func (r *Room) destroy() {
	r.clearRoundTimer()
	r.engine = nil
	r.broadcast(MessageTypeLobbyDestroyed, ErrorPayload{Message: "Lobby has been destroyed"})
	r.logger.Info("Lobby destroyed")
	if r.onDestroy != nil {
		r.onDestroy(r.code)
	}
}

// syncFromSnapshot copies the engine projection into the broadcastable
// state. PlayerInfo has no card field, so this cannot leak a hand.
func (r *Room) syncPlayers() {
	if r.engine == nil {
		return
	}
	for _, p := range r.players {
		p.Score = r.latest.Scores[p.ID]
		p.Bid = r.latest.Bids[p.ID]
		p.TricksWon = r.latest.TricksWon[p.ID]
		for _, view := range r.latest.Players {
			if view.ID == p.ID {
				p.HandCount = view.HandCount
				break
			}
		}
	}
}

func (r *Room) buildGameState() GameState {
	r.syncPlayers()

	players := make([]PlayerInfo, len(r.players))
	for i, p := range r.players {
		players[i] = *p
	}

	state := GameState{
		LobbyCode:    r.code,
		HostID:       r.hostID,
		Status:       r.status,
		Players:      players,
		MaxPlayers:   r.maxPlayers,
		CreatedAt:    r.createdAt,
		StartedAt:    r.startedAt,
		HandSequence: r.rules.HandSequence,
		Phase:        game.PhaseIdle,
	}

	if r.engine != nil {
		snap := r.latest
		state.Phase = snap.Phase
		state.Round = snap.RoundIndex + 1
		state.HandSize = snap.HandSize
		state.Trump = snap.Trump
		state.CurrentTurn = snap.PendingPlayerID
		state.PendingAction = snap.PendingAction
		state.Bids = snap.Bids
		state.TricksWon = snap.TricksWon
		state.CurrentTrick = snap.CurrentTrick
		state.LastTrickWinner = snap.LastTrickWinner
		state.DeckCount = snap.DeckCount
		state.History = snap.History
		state.StateVersion = snap.Version
	}
	return state
}

// sendHandUpdates unicasts each connected player their own cards plus the
// currently playable subset. No other connection ever sees these payloads.
func (r *Room) sendHandUpdates() {
	if r.engine == nil {
		return
	}
	for _, p := range r.players {
		c, ok := r.clients[p.ID]
		if !ok {
			continue
		}
		view, err := r.engine.PlayerView(p.ID)
		if err != nil {
			r.logger.Error("Failed to build player view", "player", p.ID, "error", err)
			continue
		}
		msg, err := NewMessage(MessageTypeHandUpdate, HandUpdatePayload{
			PlayerID:        p.ID,
			Cards:           view.Cards,
			PlayableCardIDs: r.playableCardIDs(p.ID, view),
		})
		if err != nil {
			continue
		}
		_ = c.Send(msg)
	}
}

// playableCardIDs computes the legal-move subset for one player. Off-turn
// the whole hand is reported as playable (informational only); on-turn with
// a led suit the player must follow it when they can.
func (r *Room) playableCardIDs(playerID string, view game.PlayerView) []string {
	all := make([]string, len(view.Cards))
	for i, c := range view.Cards {
		all[i] = c.ID
	}

	snap := r.latest
	if snap.PendingPlayerID != playerID || snap.PendingAction != game.ActionPlay {
		return all
	}
	if len(snap.CurrentTrick) == 0 {
		return all
	}

	leadSuit := snap.CurrentTrick[0].Card.Suit
	matching := make([]string, 0, len(view.Cards))
	for _, c := range view.Cards {
		if c.Suit == leadSuit {
			matching = append(matching, c.ID)
		}
	}
	if len(matching) == 0 {
		return all
	}
	return matching
}

func (r *Room) broadcastGameState() {
	r.broadcast(MessageTypeGameState, r.buildGameState())
}

func (r *Room) broadcast(messageType MessageType, payload any) {
	msg, err := NewMessage(messageType, payload)
	if err != nil {
		r.logger.Error("Failed to create broadcast message", "type", messageType, "error", err)
		return
	}
	for _, c := range r.clients {
		_ = c.Send(msg)
	}
}

func (r *Room) sendTo(playerID string, messageType MessageType, payload any) {
	c, ok := r.clients[playerID]
	if !ok {
		return
	}
	msg, err := NewMessage(messageType, payload)
	if err != nil {
		r.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	_ = c.Send(msg)
}

func (r *Room) sendError(playerID, message string) {
	r.sendTo(playerID, MessageTypeError, ErrorPayload{Message: message})
}

func (r *Room) sendErrorTo(c client, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	_ = c.Send(msg)
}

func equalCode(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// clampHandSequence caps hand sizes to what one deck can deal to the table.
func clampHandSequence(sequence []int, playerCount int) []int {
	maxHand := 52 / playerCount
	out := make([]int, len(sequence))
	for i, size := range sequence {
		if size > maxHand {
			size = maxHand
		}
		out[i] = size
	}
	return out
}
