package game

import (
	"fmt"

	"github.com/cardmasters/kachuful/internal/deck"
)

// Player count limits for a single table with one deck.
const (
	MinPlayers = 3
	MaxPlayers = 7
)

// TrumpPolicy controls how the trump suit is chosen each round.
type TrumpPolicy string

const (
	// TrumpRotate cycles deterministically through the four suits as a
	// function of round index and initial dealer offset. The default.
	TrumpRotate TrumpPolicy = "rotate"
	// TrumpFixed uses the configured FixedTrump every round.
	TrumpFixed TrumpPolicy = "fixed"
	// TrumpRandom draws a suit from the engine's random source each round.
	TrumpRandom TrumpPolicy = "random"
	// TrumpNone plays all rounds without trump.
	TrumpNone TrumpPolicy = "none"
)

// PlayerConfig identifies one seat at the table.
type PlayerConfig struct {
	ID   string
	Name string
}

// Config describes a complete game. The zero values of TrumpPolicy and
// LastBidRestriction are normalized by NewEngine to the rule-book defaults
// (rotate, restriction on); use the Disable flag to opt out.
type Config struct {
	Players      []PlayerConfig
	HandSequence []int
	Scoring      ScoreModel

	// DisableLastBidRestriction lifts the rule that forbids the final
	// bidder from making total bids equal total tricks.
	DisableLastBidRestriction bool

	TrumpPolicy TrumpPolicy
	FixedTrump  *deck.Suit

	// InitialDealerIndex is the seat of the round-0 dealer.
	InitialDealerIndex int

	// Seed makes shuffles and random trump selection reproducible. Empty
	// means the engine's fixed default seed.
	Seed string

	// PresetDeck bypasses shuffling entirely; used by tests that need
	// exact hands.
	PresetDeck []deck.Card
}

// Validate checks the parts of the config that would otherwise surface as
// invariant violations mid-game.
func (c *Config) Validate() error {
	if len(c.Players) < MinPlayers || len(c.Players) > MaxPlayers {
		return fmt.Errorf("kachuful requires between %d and %d players, got %d", MinPlayers, MaxPlayers, len(c.Players))
	}
	seen := make(map[string]bool, len(c.Players))
	for _, p := range c.Players {
		if p.ID == "" {
			return fmt.Errorf("player %q has an empty id", p.Name)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate player id %s", p.ID)
		}
		seen[p.ID] = true
	}
	if len(c.HandSequence) == 0 {
		return fmt.Errorf("hand sequence cannot be empty")
	}
	for i, size := range c.HandSequence {
		if size < 1 {
			return fmt.Errorf("hand sequence entry %d must be at least 1, got %d", i, size)
		}
	}
	if c.Scoring == nil {
		return fmt.Errorf("scoring model is required")
	}
	switch c.TrumpPolicy {
	case "", TrumpRotate, TrumpFixed, TrumpRandom, TrumpNone:
	default:
		return fmt.Errorf("unknown trump policy %q", c.TrumpPolicy)
	}
	if c.TrumpPolicy == TrumpFixed && c.FixedTrump == nil {
		return fmt.Errorf("fixed trump policy requires a trump suit")
	}
	if c.InitialDealerIndex < 0 || c.InitialDealerIndex >= len(c.Players) {
		return fmt.Errorf("initial dealer index %d out of range", c.InitialDealerIndex)
	}
	return nil
}
