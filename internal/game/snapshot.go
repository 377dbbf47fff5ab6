package game

import "github.com/cardmasters/kachuful/internal/deck"

// Phase is the engine's lifecycle phase. Transitions:
// idle → bidding → playing → scoring → (round_end → bidding)* → completed.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseBidding   Phase = "bidding"
	PhasePlaying   Phase = "playing"
	PhaseScoring   Phase = "scoring"
	PhaseRoundEnd  Phase = "round_end"
	PhaseCompleted Phase = "completed"
)

// PendingAction names what the pending player is expected to do.
type PendingAction string

const (
	ActionBid  PendingAction = "bid"
	ActionPlay PendingAction = "play"
	ActionNone PendingAction = "none"
)

// PlayerView is one player's entry in a snapshot. Cards is populated only
// when the snapshot was requested with this player's id as viewer.
type PlayerView struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	SeatIndex int                `json:"seatIndex"`
	Score     int                `json:"score"`
	Bid       *int               `json:"bid"`
	TricksWon int                `json:"tricksWon"`
	HandCount int                `json:"handCount"`
	Cards     []deck.VisibleCard `json:"cards"`
}

// TrickPlay is one card played into the current trick.
type TrickPlay struct {
	PlayerID string           `json:"playerId"`
	Card     deck.VisibleCard `json:"card"`
}

// Snapshot is a point-in-time projection of engine state. All slices and
// maps are fresh copies; mutating a snapshot never touches the engine.
type Snapshot struct {
	Phase           Phase           `json:"phase"`
	RoundIndex      int             `json:"roundIndex"`
	HandSize        int             `json:"handSize"`
	DealerID        string          `json:"dealerId"`
	LeadPlayerID    string          `json:"leadPlayerId"`
	Trump           *deck.Suit      `json:"trump"`
	PendingPlayerID string          `json:"pendingPlayerId"`
	PendingAction   PendingAction   `json:"pendingAction"`
	Bids            map[string]*int `json:"bids"`
	TricksWon       map[string]int  `json:"tricksWon"`
	Scores          map[string]int  `json:"scores"`
	Players         []PlayerView    `json:"players"`
	CurrentTrick    []TrickPlay     `json:"currentTrick"`
	LastTrickWinner string          `json:"lastTrickWinner"`
	DeckCount       int             `json:"deckCount"`
	History         []Event         `json:"history"`
	Version         uint64          `json:"stateVersion"`
}

// PlayResult is what PlayCard returns: the new snapshot plus whether the
// play completed a trick and who took it.
type PlayResult struct {
	Snapshot      Snapshot
	TrickResolved bool
	WinnerID      string
}
