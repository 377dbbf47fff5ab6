package game

import (
	"errors"
	"fmt"

	"github.com/cardmasters/kachuful/internal/deck"
	"github.com/cardmasters/kachuful/internal/randutil"
)

// playerState is the engine-private per-seat state. The hand slice is owned
// exclusively by the engine and never escapes; snapshots copy it.
type playerState struct {
	id        string
	name      string
	seat      int
	hand      []deck.Card
	bid       *int
	tricksWon int
	score     int
}

type trickPlay struct {
	playerID string
	card     deck.Card
}

// Engine is the rules state machine for one game. It is created when the
// host starts the game, lives for every round of that game, and is
// discarded afterwards; it is never reused. The engine performs no locking:
// the owner serializes access (one logical actor per room).
type Engine struct {
	cfg Config
	rng randutil.Source

	players      []*playerState
	phase        Phase
	roundIndex   int
	handSize     int
	dealerIndex  int
	leadIndex    int
	pendingIndex int
	trump        *deck.Suit
	deckRest     []deck.Card
	trick        []trickPlay
	lastWinner   string
	history      historyRing
	version      uint64
	eventSeq     uint64
}

// NewEngine validates the config and builds an idle engine. Call Start to
// deal the first round.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TrumpPolicy == "" {
		cfg.TrumpPolicy = TrumpRotate
	}

	e := &Engine{
		cfg:          cfg,
		rng:          randutil.NewFromSeed(cfg.Seed),
		phase:        PhaseIdle,
		roundIndex:   -1,
		leadIndex:    -1,
		pendingIndex: -1,
		dealerIndex:  cfg.InitialDealerIndex,
	}
	for i, p := range cfg.Players {
		e.players = append(e.players, &playerState{id: p.ID, name: p.Name, seat: i})
	}
	return e, nil
}

// Start deals round 0 and opens bidding. Calling it twice is a programmer
// error, not a rule violation.
func (e *Engine) Start() (Snapshot, error) {
	if e.phase != PhaseIdle {
		return Snapshot{}, errors.New("game already started")
	}
	return e.startRound(e.roundIndex + 1)
}

// StartNextRound re-deals once the current round has ended. It fails out of
// phase or when the hand sequence is exhausted.
func (e *Engine) StartNextRound() (Snapshot, error) {
	if e.phase != PhaseRoundEnd {
		return Snapshot{}, errors.New("cannot start next round until the current round has ended")
	}
	if e.roundIndex+1 >= len(e.cfg.HandSequence) {
		return Snapshot{}, errors.New("all rounds already completed")
	}
	return e.startRound(e.roundIndex + 1)
}

// SubmitBid records the pending player's contract. Bids are collected in
// seating order starting left of the dealer; once all are in, play opens
// with the lead player.
func (e *Engine) SubmitBid(playerID string, amount int) (Snapshot, error) {
	if e.phase != PhaseBidding {
		return Snapshot{}, &IllegalBidError{Reason: "bids are only allowed during the bidding phase"}
	}

	idx, err := e.playerIndex(playerID)
	if err != nil {
		return Snapshot{}, err
	}
	if e.pendingIndex != idx {
		return Snapshot{}, &IllegalBidError{Reason: "it is not your turn to bid"}
	}
	if amount < 0 || amount > e.handSize {
		return Snapshot{}, &IllegalBidError{Reason: fmt.Sprintf("bid must be between 0 and %d", e.handSize)}
	}

	player := e.players[idx]
	if player.bid != nil {
		return Snapshot{}, &IllegalBidError{Reason: "bid already submitted"}
	}

	if !e.cfg.DisableLastBidRestriction && e.remainingBidders() == 1 {
		sum := 0
		for _, p := range e.players {
			if p.bid != nil {
				sum += *p.bid
			}
		}
		if sum+amount == e.handSize {
			return Snapshot{}, &IllegalBidError{Reason: "last bidder cannot make total bids equal total tricks"}
		}
	}

	bid := amount
	player.bid = &bid
	e.logEvent(EventBidSubmitted, map[string]any{"playerId": playerID, "amount": amount})
	e.advancePending()

	if e.remainingBidders() == 0 {
		e.phase = PhasePlaying
		e.pendingIndex = e.leadIndex
		e.trick = e.trick[:0]
	}

	return e.snapshot(""), nil
}

// PlayCard plays a card from the pending player's hand into the current
// trick, enforcing follow-suit. When the trick is full it resolves
// immediately; the result reports the winner in that case.
func (e *Engine) PlayCard(playerID, cardID string) (PlayResult, error) {
	if e.phase != PhasePlaying {
		return PlayResult{}, &IllegalPlayError{Reason: "cards can only be played during the playing phase"}
	}

	idx, err := e.playerIndex(playerID)
	if err != nil {
		return PlayResult{}, err
	}
	if e.pendingIndex != idx {
		return PlayResult{}, &IllegalPlayError{Reason: "it is not your turn"}
	}

	player := e.players[idx]
	cardIdx := -1
	for i, c := range player.hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx == -1 {
		return PlayResult{}, &IllegalPlayError{Reason: "card not found in hand"}
	}

	card := player.hand[cardIdx]
	if len(e.trick) > 0 {
		leadSuit := e.trick[0].card.Suit
		if card.Suit != leadSuit && e.holdsSuit(player, leadSuit) {
			return PlayResult{}, &IllegalPlayError{Reason: "must follow suit when possible"}
		}
	}

	player.hand = append(player.hand[:cardIdx], player.hand[cardIdx+1:]...)
	e.trick = append(e.trick, trickPlay{playerID: playerID, card: card})
	e.logEvent(EventCardPlayed, map[string]any{"playerId": playerID, "cardId": cardID})

	result := PlayResult{}
	if len(e.trick) == len(e.players) {
		result.WinnerID = e.resolveTrick()
		result.TrickResolved = true
	} else {
		e.advancePending()
	}
	result.Snapshot = e.snapshot("")
	return result, nil
}

// Snapshot returns the current state projected for the given viewer. Cards
// are populated only for the viewer's own entry; pass an empty viewer id
// for a fully card-less projection.
func (e *Engine) Snapshot(viewerID string) Snapshot {
	return e.snapshot(viewerID)
}

// PlayerView returns a single player's entry including their own cards.
func (e *Engine) PlayerView(playerID string) (PlayerView, error) {
	snap := e.snapshot(playerID)
	for _, pv := range snap.Players {
		if pv.ID == playerID {
			return pv, nil
		}
	}
	return PlayerView{}, fmt.Errorf("player %s not found in engine state", playerID)
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

func (e *Engine) startRound(roundIndex int) (Snapshot, error) {
	n := len(e.players)
	handSize := e.cfg.HandSequence[roundIndex]

	base := e.cfg.PresetDeck
	var working []deck.Card
	if base != nil {
		working = make([]deck.Card, len(base))
		copy(working, base)
	} else {
		working = deck.Shuffle(deck.NewStandardDeck(), e.rng)
	}

	hands, remaining, err := deck.Deal(working, n, handSize)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hand size %d too large for the deck: %w", handSize, err)
	}

	e.roundIndex = roundIndex
	e.handSize = handSize
	e.dealerIndex = (e.cfg.InitialDealerIndex + roundIndex) % n
	e.leadIndex = (e.dealerIndex + 1) % n
	e.pendingIndex = e.leadIndex
	e.trump = e.determineTrump(roundIndex)
	e.deckRest = remaining
	e.trick = nil
	e.lastWinner = ""
	e.phase = PhaseBidding

	for i, p := range e.players {
		p.hand = hands[i]
		p.bid = nil
		p.tricksWon = 0
	}

	e.logEvent(EventRoundStarted, map[string]any{
		"roundIndex": roundIndex,
		"handSize":   handSize,
		"trump":      trumpName(e.trump),
	})
	return e.snapshot(""), nil
}

// resolveTrick scans the completed trick for its winner: trump beats any
// non-trump and lower trump; otherwise the highest card of the led suit
// wins. The winner leads the next trick. Completes the round when every
// hand is empty.
func (e *Engine) resolveTrick() string {
	leadSuit := e.trick[0].card.Suit
	winning := e.trick[0]
	for _, contender := range e.trick[1:] {
		if e.trump != nil && contender.card.Suit == *e.trump {
			if winning.card.Suit != *e.trump || contender.card.Rank > winning.card.Rank {
				winning = contender
			}
			continue
		}
		if e.trump != nil && winning.card.Suit == *e.trump {
			continue
		}
		if contender.card.Suit == leadSuit && winning.card.Suit == leadSuit && contender.card.Rank > winning.card.Rank {
			winning = contender
		}
	}

	winnerIdx, err := e.playerIndex(winning.playerID)
	if err != nil {
		// Trick plays always come from seated players.
		panic(err)
	}
	winner := e.players[winnerIdx]
	winner.tricksWon++
	e.lastWinner = winner.id
	e.leadIndex = winnerIdx
	e.pendingIndex = winnerIdx
	e.trick = e.trick[:0]
	e.logEvent(EventTrickResolved, map[string]any{"winnerId": winner.id})

	roundOver := true
	for _, p := range e.players {
		if len(p.hand) > 0 {
			roundOver = false
			break
		}
	}
	if roundOver {
		e.completeRound()
	}
	return winner.id
}

func (e *Engine) completeRound() {
	e.phase = PhaseScoring

	bids := make(map[string]int, len(e.players))
	tricks := make(map[string]int, len(e.players))
	for _, p := range e.players {
		bid := 0
		if p.bid != nil {
			bid = *p.bid
		}
		bids[p.id] = bid
		tricks[p.id] = p.tricksWon
	}

	delta := ScoreRound(e.cfg.Scoring, bids, tricks)
	for _, p := range e.players {
		p.score += delta[p.id]
	}
	e.logEvent(EventRoundScored, map[string]any{"delta": delta})

	e.pendingIndex = -1
	if e.roundIndex+1 >= len(e.cfg.HandSequence) {
		e.phase = PhaseCompleted
		return
	}
	e.phase = PhaseRoundEnd
}

func (e *Engine) determineTrump(roundIndex int) *deck.Suit {
	switch e.cfg.TrumpPolicy {
	case TrumpFixed:
		if e.cfg.FixedTrump == nil {
			return nil
		}
		s := *e.cfg.FixedTrump
		return &s
	case TrumpNone:
		return nil
	case TrumpRandom:
		s := deck.Suits[int(e.rng.Next()*float64(len(deck.Suits)))]
		return &s
	default:
		s := deck.Suits[(roundIndex+e.cfg.InitialDealerIndex)%len(deck.Suits)]
		return &s
	}
}

func (e *Engine) advancePending() {
	if e.pendingIndex < 0 {
		return
	}
	e.pendingIndex = (e.pendingIndex + 1) % len(e.players)
}

func (e *Engine) remainingBidders() int {
	n := 0
	for _, p := range e.players {
		if p.bid == nil {
			n++
		}
	}
	return n
}

func (e *Engine) holdsSuit(p *playerState, suit deck.Suit) bool {
	for _, c := range p.hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

func (e *Engine) playerIndex(playerID string) (int, error) {
	for i, p := range e.players {
		if p.id == playerID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("player %s not found in engine state", playerID)
}

func (e *Engine) snapshot(viewerID string) Snapshot {
	e.version++

	players := make([]PlayerView, len(e.players))
	bids := make(map[string]*int, len(e.players))
	tricksWon := make(map[string]int, len(e.players))
	scores := make(map[string]int, len(e.players))
	for i, p := range e.players {
		var cards []deck.VisibleCard
		if viewerID != "" && viewerID == p.id {
			cards = make([]deck.VisibleCard, len(p.hand))
			for j, c := range p.hand {
				cards[j] = deck.Visible(c)
			}
		} else {
			cards = []deck.VisibleCard{}
		}
		players[i] = PlayerView{
			ID:        p.id,
			Name:      p.name,
			SeatIndex: p.seat,
			Score:     p.score,
			Bid:       copyBid(p.bid),
			TricksWon: p.tricksWon,
			HandCount: len(p.hand),
			Cards:     cards,
		}
		bids[p.id] = copyBid(p.bid)
		tricksWon[p.id] = p.tricksWon
		scores[p.id] = p.score
	}

	trick := make([]TrickPlay, len(e.trick))
	for i, play := range e.trick {
		trick[i] = TrickPlay{PlayerID: play.playerID, Card: deck.Visible(play.card)}
	}

	var trump *deck.Suit
	if e.trump != nil {
		s := *e.trump
		trump = &s
	}

	pendingAction := ActionNone
	switch e.phase {
	case PhaseBidding:
		pendingAction = ActionBid
	case PhasePlaying:
		pendingAction = ActionPlay
	}

	return Snapshot{
		Phase:           e.phase,
		RoundIndex:      e.roundIndex,
		HandSize:        e.handSize,
		DealerID:        e.playerIDAt(e.dealerIndex),
		LeadPlayerID:    e.playerIDAt(e.leadIndex),
		Trump:           trump,
		PendingPlayerID: e.playerIDAt(e.pendingIndex),
		PendingAction:   pendingAction,
		Bids:            bids,
		TricksWon:       tricksWon,
		Scores:          scores,
		Players:         players,
		CurrentTrick:    trick,
		LastTrickWinner: e.lastWinner,
		DeckCount:       len(e.deckRest),
		History:         e.history.list(),
		Version:         e.version,
	}
}

func (e *Engine) playerIDAt(idx int) string {
	if idx < 0 || idx >= len(e.players) || e.phase == PhaseIdle {
		return ""
	}
	return e.players[idx].id
}

func copyBid(bid *int) *int {
	if bid == nil {
		return nil
	}
	v := *bid
	return &v
}

func trumpName(s *deck.Suit) any {
	if s == nil {
		return nil
	}
	return s.String()
}
