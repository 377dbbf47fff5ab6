package deck

import (
	"errors"
	"sort"

	"github.com/cardmasters/kachuful/internal/randutil"
)

// ErrInsufficientCards is returned when a deal asks for more cards than the
// deck holds.
var ErrInsufficientCards = errors.New("insufficient cards to complete dealing")

// NewStandardDeck returns the 52-card deck in fixed enumeration order:
// suits in canonical order, ranks ascending within each suit.
func NewStandardDeck() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Shuffle returns a shuffled copy of the deck using a Fisher-Yates pass
// driven by the provided source, iterating from the last index down to 1 and
// swapping with an index drawn from [0, i]. The input slice is not mutated.
func Shuffle(cards []Card, src randutil.Source) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(src.Next() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Deal distributes handSize cards to each of playerCount players, consuming
// the deck front to back in round-robin order (card position outer, player
// inner). Hands come back sorted; the second return value is the untouched
// remainder of the deck.
func Deal(cards []Card, playerCount, handSize int) ([][]Card, []Card, error) {
	if playerCount*handSize > len(cards) {
		return nil, nil, ErrInsufficientCards
	}

	hands := make([][]Card, playerCount)
	for i := range hands {
		hands[i] = make([]Card, 0, handSize)
	}

	idx := 0
	for pos := 0; pos < handSize; pos++ {
		for p := 0; p < playerCount; p++ {
			hands[p] = append(hands[p], cards[idx])
			idx++
		}
	}

	for i := range hands {
		SortHand(hands[i])
	}

	remaining := make([]Card, len(cards)-idx)
	copy(remaining, cards[idx:])
	return hands, remaining, nil
}

// SortHand orders a hand in place by suit then ascending rank, so a player's
// hand display order is deterministic regardless of deal order.
func SortHand(hand []Card) {
	sort.SliceStable(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return hand[i].Suit < hand[j].Suit
		}
		return hand[i].Rank < hand[j].Rank
	})
}
