package server

import (
	"encoding/json"
	"time"

	"github.com/cardmasters/kachuful/internal/deck"
	"github.com/cardmasters/kachuful/internal/game"
)

// Message is the wire envelope for every client and server message.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// NewMessage creates a message with the payload marshalled and the current
// timestamp in epoch milliseconds.
func NewMessage(messageType MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Payload:   data,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client → Server payloads

type CreateLobbyPayload struct {
	HostName   string `json:"hostName"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

type JoinLobbyPayload struct {
	LobbyCode  string `json:"lobbyCode"`
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar,omitempty"`
}

type SubmitBidPayload struct {
	Bid int `json:"bid"`
}

type PlayCardPayload struct {
	CardID         string `json:"cardId"`
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
}

type KickPlayerPayload struct {
	PlayerID string `json:"playerId"`
}

type ChatPayload struct {
	Message    string `json:"message"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

// Server → Client payloads

// LobbyStatus is the room lifecycle, distinct from the engine phase.
type LobbyStatus string

const (
	StatusLobby    LobbyStatus = "lobby"
	StatusStarting LobbyStatus = "starting"
	StatusPlaying  LobbyStatus = "playing"
	StatusFinished LobbyStatus = "finished"
)

// PlayerStatus is a player's connection/readiness state within the room.
type PlayerStatus string

const (
	PlayerConnected    PlayerStatus = "connected"
	PlayerReady        PlayerStatus = "ready"
	PlayerPlaying      PlayerStatus = "playing"
	PlayerDisconnected PlayerStatus = "disconnected"
)

// PlayerInfo is the broadcastable view of one player. It deliberately has no
// card field at all, so hands cannot leak through shared payloads.
type PlayerInfo struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    PlayerStatus `json:"status"`
	Score     int          `json:"score"`
	HandCount int          `json:"handCount"`
	Bid       *int         `json:"bid"`
	TricksWon int          `json:"tricksWon"`
	Avatar    string       `json:"avatar,omitempty"`
	IsHost    bool         `json:"isHost"`
	JoinedAt  int64        `json:"joinedAt"`
}

// GameState is the full room projection broadcast to every connection. The
// engine fields are copied from the latest snapshot by syncFromSnapshot;
// hands are delivered separately per connection via hand_update.
type GameState struct {
	LobbyCode    string        `json:"lobbyCode"`
	HostID       string        `json:"hostId"`
	Status       LobbyStatus   `json:"status"`
	Players      []PlayerInfo  `json:"players"`
	MaxPlayers   int           `json:"maxPlayers"`
	CreatedAt    int64         `json:"createdAt"`
	StartedAt    *int64        `json:"startedAt"`
	HandSequence []int         `json:"handSequence"`

	Phase           game.Phase         `json:"phase"`
	Round           int                `json:"round"`
	HandSize        int                `json:"handSize"`
	Trump           *deck.Suit         `json:"trump"`
	CurrentTurn     string             `json:"currentTurn,omitempty"`
	PendingAction   game.PendingAction `json:"pendingAction"`
	Bids            map[string]*int    `json:"bids"`
	TricksWon       map[string]int     `json:"tricksWon"`
	CurrentTrick    []game.TrickPlay   `json:"currentTrick"`
	LastTrickWinner string             `json:"lastTrickWinner,omitempty"`
	DeckCount       int                `json:"deckCount"`
	History         []game.Event       `json:"history"`
	StateVersion    uint64             `json:"stateVersion"`
}

// LobbyInfo is sent to the host when a lobby is created.
type LobbyInfo struct {
	Code        string      `json:"code"`
	HostID      string      `json:"hostId"`
	HostName    string      `json:"hostName"`
	PlayerCount int         `json:"playerCount"`
	MaxPlayers  int         `json:"maxPlayers"`
	CreatedAt   int64       `json:"createdAt"`
	Status      LobbyStatus `json:"status"`
}

// HandUpdatePayload is unicast to exactly one connection: the owner of the
// cards. PlayableCardIDs is the legal-move subset when it is that player's
// turn, or the full hand as informational data otherwise.
type HandUpdatePayload struct {
	PlayerID        string             `json:"playerId"`
	Cards           []deck.VisibleCard `json:"cards"`
	PlayableCardIDs []string           `json:"playableCardIds"`
}

type PlayerLeftPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type HostChangedPayload struct {
	OldHostID   string `json:"oldHostId"`
	NewHostID   string `json:"newHostId"`
	NewHostName string `json:"newHostName"`
}

type GameStartedPayload struct {
	Round       int    `json:"round"`
	CurrentTurn string `json:"currentTurn"`
}

type FinalScore struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameEndedPayload struct {
	Winner      string       `json:"winner"`
	FinalScores []FinalScore `json:"finalScores"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
