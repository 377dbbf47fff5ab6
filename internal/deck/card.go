package deck

import "fmt"

// Suit represents a card suit. Ordering matters: hands are sorted
// clubs < diamonds < hearts < spades.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists all suits in canonical order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the wire name of the suit.
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	case Spades:
		return "spades"
	default:
		return "?"
	}
}

// Symbol returns the glyph for the suit.
func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds).
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// MarshalText implements encoding.TextMarshaler so suits serialize as their
// wire names in JSON payloads.
func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Suit) UnmarshalText(text []byte) error {
	switch string(text) {
	case "clubs":
		*s = Clubs
	case "diamonds":
		*s = Diamonds
	case "hearts":
		*s = Hearts
	case "spades":
		*s = Spades
	default:
		return fmt.Errorf("unknown suit %q", text)
	}
	return nil
}

// Rank represents a card rank. 11-14 denote J, Q, K, A; aces are always high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Label returns the display form of the rank ("2".."10", "J", "Q", "K", "A").
func (r Rank) Label() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Card is an immutable playing card. ID is derived from suit and rank and is
// unique within a deck.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// CardID builds the canonical id for a suit/rank pair, e.g. "spades-14".
func CardID(suit Suit, rank Rank) string {
	return fmt.Sprintf("%s-%d", suit, int(rank))
}

// NewCard creates a card with its derived id.
func NewCard(suit Suit, rank Rank) Card {
	return Card{ID: CardID(suit, rank), Suit: suit, Rank: rank}
}

// String returns the short display form of a card (e.g. "A♠").
func (c Card) String() string {
	return c.Rank.Label() + c.Suit.Symbol()
}

// VisibleCard is a card enriched with display fields. It is the only card
// representation ever serialized to the card's owner; opponents' cards are
// omitted entirely rather than masked.
type VisibleCard struct {
	Card
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
}

// Visible converts a card to its displayable form.
func Visible(c Card) VisibleCard {
	return VisibleCard{
		Card:   c,
		Label:  c.String(),
		Symbol: c.Suit.Symbol(),
	}
}
