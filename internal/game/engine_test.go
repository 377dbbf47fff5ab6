package game

import (
	"errors"
	"testing"

	"github.com/cardmasters/kachuful/internal/deck"
)

var basePlayers = []PlayerConfig{
	{ID: "p1", Name: "Player 1"},
	{ID: "p2", Name: "Player 2"},
	{ID: "p3", Name: "Player 3"},
}

func standardConfig(mutate ...func(*Config)) Config {
	cfg := Config{
		Players:      basePlayers,
		HandSequence: []int{2},
		Scoring:      NewStandardScoring(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return cfg
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func mustBid(t *testing.T, e *Engine, playerID string, amount int) {
	t.Helper()
	if _, err := e.SubmitBid(playerID, amount); err != nil {
		t.Fatalf("SubmitBid(%s, %d): %v", playerID, amount, err)
	}
}

func mustPlay(t *testing.T, e *Engine, playerID, cardID string) PlayResult {
	t.Helper()
	result, err := e.PlayCard(playerID, cardID)
	if err != nil {
		t.Fatalf("PlayCard(%s, %s): %v", playerID, cardID, err)
	}
	return result
}

func card(id string, suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.Card{ID: id, Suit: suit, Rank: rank}
}

func TestStartDealsDeterministicHands(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) { c.Seed = "42" }))
	snap, err := e.Start()
	if err != nil {
		t.Fatal(err)
	}

	if snap.Phase != PhaseBidding {
		t.Errorf("phase = %s, want bidding", snap.Phase)
	}
	for _, p := range snap.Players {
		if p.HandCount != 2 {
			t.Errorf("player %s handCount = %d, want 2", p.ID, p.HandCount)
		}
	}

	// Same seed, same deal.
	e2 := mustEngine(t, standardConfig(func(c *Config) { c.Seed = "42" }))
	if _, err := e2.Start(); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		a, err := e.PlayerView(id)
		if err != nil {
			t.Fatal(err)
		}
		b, err := e2.PlayerView(id)
		if err != nil {
			t.Fatal(err)
		}
		if len(a.Cards) != len(b.Cards) {
			t.Fatalf("player %s hand sizes differ", id)
		}
		for i := range a.Cards {
			if a.Cards[i].ID != b.Cards[i].ID {
				t.Errorf("player %s card %d differs: %s vs %s", id, i, a.Cards[i].ID, b.Cards[i].ID)
			}
		}
	}
}

func TestStartTwiceFails(t *testing.T) {
	e := mustEngine(t, standardConfig())
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Start(); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestDealAccountsForEveryCard(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{8}
		c.Seed = "audit"
	}))
	snap, err := e.Start()
	if err != nil {
		t.Fatal(err)
	}

	total := snap.DeckCount
	for _, p := range snap.Players {
		total += p.HandCount
	}
	if total != 52 {
		t.Errorf("hands + deck = %d, want 52", total)
	}
}

func TestBiddingOrderStartsLeftOfDealer(t *testing.T) {
	e := mustEngine(t, standardConfig())
	snap, err := e.Start()
	if err != nil {
		t.Fatal(err)
	}

	// Dealer defaults to p1, so p2 bids first.
	if snap.PendingPlayerID != "p2" {
		t.Errorf("first bidder = %s, want p2", snap.PendingPlayerID)
	}
	if snap.PendingAction != ActionBid {
		t.Errorf("pendingAction = %s, want bid", snap.PendingAction)
	}

	if _, err := e.SubmitBid("p1", 0); err == nil {
		t.Error("out-of-turn bid should fail")
	}
}

func TestLastBidRestriction(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) { c.Seed = "99" }))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}

	// Order: p2, p3, p1 because the dealer defaults to p1.
	mustBid(t, e, "p2", 1)
	mustBid(t, e, "p3", 0)

	// Hand size 2, sum so far 1: p1 may not bid 1.
	_, err := e.SubmitBid("p1", 1)
	var bidErr *IllegalBidError
	if !errors.As(err, &bidErr) {
		t.Fatalf("expected IllegalBidError, got %v", err)
	}

	// Any other legal value is fine.
	snap, err := e.SubmitBid("p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != PhasePlaying {
		t.Errorf("phase = %s, want playing after all bids", snap.Phase)
	}
}

func TestLastBidRestrictionCanBeDisabled(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) {
		c.Seed = "99"
		c.DisableLastBidRestriction = true
	}))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}

	mustBid(t, e, "p2", 1)
	mustBid(t, e, "p3", 0)
	if _, err := e.SubmitBid("p1", 1); err != nil {
		t.Errorf("bid should be allowed with restriction disabled: %v", err)
	}
}

func TestBidRange(t *testing.T) {
	e := mustEngine(t, standardConfig())
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}

	for _, amount := range []int{-1, 3} {
		_, err := e.SubmitBid("p2", amount)
		var bidErr *IllegalBidError
		if !errors.As(err, &bidErr) {
			t.Errorf("bid %d: expected IllegalBidError, got %v", amount, err)
		}
	}
}

func TestTrickResolutionByLedSuit(t *testing.T) {
	presetDeck := []deck.Card{
		card("p1-heart-10", deck.Hearts, deck.Ten),
		card("p2-heart-8", deck.Hearts, deck.Eight),
		card("p3-club-a", deck.Clubs, deck.Ace),
	}

	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{1}
		c.TrumpPolicy = TrumpNone
		c.PresetDeck = presetDeck
	}))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	mustBid(t, e, "p2", 1)
	mustBid(t, e, "p3", 1)
	mustBid(t, e, "p1", 0)

	mustPlay(t, e, "p2", "p2-heart-8")
	mustPlay(t, e, "p3", "p3-club-a")
	result := mustPlay(t, e, "p1", "p1-heart-10")

	if !result.TrickResolved {
		t.Fatal("trick should have resolved")
	}
	if result.WinnerID != "p1" {
		t.Errorf("winner = %s, want p1 (highest of led suit; off-suit ace cannot win)", result.WinnerID)
	}
}

func TestTrumpBeatsLedSuit(t *testing.T) {
	presetDeck := []deck.Card{
		card("p1-heart-2", deck.Hearts, deck.Two),
		card("p2-club-9", deck.Clubs, deck.Nine),
		card("p3-spade-3", deck.Spades, deck.Three),
	}

	spades := deck.Spades
	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{1}
		c.TrumpPolicy = TrumpFixed
		c.FixedTrump = &spades
		c.PresetDeck = presetDeck
	}))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	mustBid(t, e, "p2", 1)
	mustBid(t, e, "p3", 1)
	mustBid(t, e, "p1", 0)

	mustPlay(t, e, "p2", "p2-club-9")
	mustPlay(t, e, "p3", "p3-spade-3")
	result := mustPlay(t, e, "p1", "p1-heart-2")

	if result.WinnerID != "p3" {
		t.Errorf("winner = %s, want p3 (lone trump wins regardless of rank)", result.WinnerID)
	}
}

func TestHigherTrumpWins(t *testing.T) {
	presetDeck := []deck.Card{
		card("p1-spade-k", deck.Spades, deck.King),
		card("p2-club-9", deck.Clubs, deck.Nine),
		card("p3-spade-3", deck.Spades, deck.Three),
	}

	spades := deck.Spades
	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{1}
		c.TrumpPolicy = TrumpFixed
		c.FixedTrump = &spades
		c.PresetDeck = presetDeck
	}))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	mustBid(t, e, "p2", 1)
	mustBid(t, e, "p3", 1)
	mustBid(t, e, "p1", 0)

	mustPlay(t, e, "p2", "p2-club-9")
	mustPlay(t, e, "p3", "p3-spade-3")
	result := mustPlay(t, e, "p1", "p1-spade-k")

	if result.WinnerID != "p1" {
		t.Errorf("winner = %s, want p1 (higher trump)", result.WinnerID)
	}
}

func TestStandardScoringFullRound(t *testing.T) {
	presetDeck := []deck.Card{
		card("p1-heart-a", deck.Hearts, deck.Ace),
		card("p2-heart-k", deck.Hearts, deck.King),
		card("p3-club-q", deck.Clubs, deck.Queen),
	}

	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{1}
		c.TrumpPolicy = TrumpNone
		c.PresetDeck = presetDeck
	}))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	mustBid(t, e, "p2", 1)
	mustBid(t, e, "p3", 0)
	mustBid(t, e, "p1", 1)

	mustPlay(t, e, "p2", "p2-heart-k")
	mustPlay(t, e, "p3", "p3-club-q")
	result := mustPlay(t, e, "p1", "p1-heart-a")

	if result.Snapshot.Phase != PhaseCompleted {
		t.Fatalf("phase = %s, want completed", result.Snapshot.Phase)
	}
	want := map[string]int{"p1": 11, "p2": 0, "p3": 10}
	for id, score := range want {
		if result.Snapshot.Scores[id] != score {
			t.Errorf("score[%s] = %d, want %d", id, result.Snapshot.Scores[id], score)
		}
	}
}

func TestFollowSuitEnforced(t *testing.T) {
	presetDeck := []deck.Card{
		card("p1-heart-a", deck.Hearts, deck.Ace),
		card("p2-heart-k", deck.Hearts, deck.King),
		card("p3-heart-q", deck.Hearts, deck.Queen),
		card("p1-club-2", deck.Clubs, deck.Two),
		card("p2-diamond-4", deck.Diamonds, deck.Four),
		card("p3-club-9", deck.Clubs, deck.Nine),
	}

	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{2}
		c.TrumpPolicy = TrumpNone
		c.PresetDeck = presetDeck
	}))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	mustBid(t, e, "p2", 0)
	mustBid(t, e, "p3", 0)
	mustBid(t, e, "p1", 0)

	mustPlay(t, e, "p2", "p2-heart-k")

	// p3 holds the led suit and may not slough the club.
	_, err := e.PlayCard("p3", "p3-club-9")
	var playErr *IllegalPlayError
	if !errors.As(err, &playErr) {
		t.Fatalf("expected IllegalPlayError, got %v", err)
	}

	// A player out of the led suit may play anything: p3 follows hearts,
	// then p1 wins the trick and leads a club that p2 cannot follow.
	mustPlay(t, e, "p3", "p3-heart-q")
	result := mustPlay(t, e, "p1", "p1-heart-a")
	if result.WinnerID != "p1" {
		t.Fatalf("winner = %s, want p1", result.WinnerID)
	}
	mustPlay(t, e, "p1", "p1-club-2")
	if _, err := e.PlayCard("p2", "p2-diamond-4"); err != nil {
		t.Errorf("void in led suit should play anything: %v", err)
	}
}

func TestPlayOutOfTurn(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) { c.Seed = "turn" }))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	mustBid(t, e, "p2", 0)
	mustBid(t, e, "p3", 0)
	mustBid(t, e, "p1", 1)

	view, err := e.PlayerView("p3")
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.PlayCard("p3", view.Cards[0].ID)
	var playErr *IllegalPlayError
	if !errors.As(err, &playErr) {
		t.Errorf("expected IllegalPlayError for out-of-turn play, got %v", err)
	}
}

func TestRoundProgressionAndTrumpRotation(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) {
		c.HandSequence = []int{1, 1, 1}
		c.Seed = "rotate"
	}))
	snap, err := e.Start()
	if err != nil {
		t.Fatal(err)
	}

	// Round 0 with dealer offset 0 rotates trump starting at clubs.
	if snap.Trump == nil || *snap.Trump != deck.Clubs {
		t.Errorf("round 0 trump = %v, want clubs", snap.Trump)
	}
	if snap.DealerID != "p1" || snap.LeadPlayerID != "p2" {
		t.Errorf("round 0 dealer/lead = %s/%s, want p1/p2", snap.DealerID, snap.LeadPlayerID)
	}

	snap = playRoundToEnd(t, e, snap)
	if snap.Phase != PhaseRoundEnd {
		t.Fatalf("phase = %s, want round_end", snap.Phase)
	}

	snap, err = e.StartNextRound()
	if err != nil {
		t.Fatal(err)
	}
	if snap.RoundIndex != 1 {
		t.Errorf("roundIndex = %d, want 1", snap.RoundIndex)
	}
	if snap.Trump == nil || *snap.Trump != deck.Diamonds {
		t.Errorf("round 1 trump = %v, want diamonds", snap.Trump)
	}
	// Dealer advances with each round.
	if snap.DealerID != "p2" || snap.LeadPlayerID != "p3" {
		t.Errorf("round 1 dealer/lead = %s/%s, want p2/p3", snap.DealerID, snap.LeadPlayerID)
	}
}

func TestStartNextRoundOutOfPhase(t *testing.T) {
	e := mustEngine(t, standardConfig())
	if _, err := e.StartNextRound(); err == nil {
		t.Error("StartNextRound before Start should fail")
	}
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.StartNextRound(); err == nil {
		t.Error("StartNextRound during bidding should fail")
	}
}

func TestSnapshotHidesOpponentCards(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) { c.Seed = "privacy" }))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}

	snap := e.Snapshot("p1")
	for _, p := range snap.Players {
		if p.ID == "p1" {
			if len(p.Cards) != 2 {
				t.Errorf("viewer's own cards missing: %d", len(p.Cards))
			}
			continue
		}
		if len(p.Cards) != 0 {
			t.Errorf("player %s cards leaked to viewer p1", p.ID)
		}
	}

	// No viewer: nobody's cards.
	for _, p := range e.Snapshot("").Players {
		if len(p.Cards) != 0 {
			t.Errorf("player %s cards leaked in viewerless snapshot", p.ID)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) { c.Seed = "alias" }))
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}

	snap := e.Snapshot("p1")
	snap.Scores["p1"] = 999
	for i := range snap.Players {
		snap.Players[i].HandCount = 0
	}

	fresh := e.Snapshot("p1")
	if fresh.Scores["p1"] == 999 {
		t.Error("mutating a snapshot leaked into the engine")
	}
	for _, p := range fresh.Players {
		if p.HandCount != 2 {
			t.Errorf("player %s handCount corrupted to %d", p.ID, p.HandCount)
		}
	}
}

func TestSnapshotVersionMonotonic(t *testing.T) {
	e := mustEngine(t, standardConfig())
	if _, err := e.Start(); err != nil {
		t.Fatal(err)
	}

	prev := e.Snapshot("").Version
	for i := 0; i < 5; i++ {
		v := e.Snapshot("").Version
		if v <= prev {
			t.Fatalf("version did not increase: %d then %d", prev, v)
		}
		prev = v
	}
}

func TestRandomTrumpIsSeeded(t *testing.T) {
	cfgA := standardConfig(func(c *Config) {
		c.TrumpPolicy = TrumpRandom
		c.Seed = "trump-seed"
	})
	cfgB := standardConfig(func(c *Config) {
		c.TrumpPolicy = TrumpRandom
		c.Seed = "trump-seed"
	})

	a := mustEngine(t, cfgA)
	b := mustEngine(t, cfgB)
	snapA, err := a.Start()
	if err != nil {
		t.Fatal(err)
	}
	snapB, err := b.Start()
	if err != nil {
		t.Fatal(err)
	}

	if snapA.Trump == nil || snapB.Trump == nil || *snapA.Trump != *snapB.Trump {
		t.Errorf("random trump not reproducible: %v vs %v", snapA.Trump, snapB.Trump)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too few players", func(c *Config) { c.Players = basePlayers[:2] }},
		{"empty hand sequence", func(c *Config) { c.HandSequence = nil }},
		{"zero hand size", func(c *Config) { c.HandSequence = []int{0} }},
		{"nil scoring", func(c *Config) { c.Scoring = nil }},
		{"duplicate ids", func(c *Config) {
			c.Players = []PlayerConfig{{ID: "x"}, {ID: "x"}, {ID: "y"}}
		}},
		{"fixed trump without suit", func(c *Config) { c.TrumpPolicy = TrumpFixed }},
		{"dealer out of range", func(c *Config) { c.InitialDealerIndex = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := standardConfig(tt.mutate)
			if _, err := NewEngine(cfg); err == nil {
				t.Error("expected config error")
			}
		})
	}
}

func TestHandSizeTooLargeForDeck(t *testing.T) {
	e := mustEngine(t, standardConfig(func(c *Config) { c.HandSequence = []int{20} }))
	if _, err := e.Start(); err == nil {
		t.Error("dealing 3x20 from 52 cards should fail")
	}
}

// playRoundToEnd drives a one-card round from bidding to its end, bidding
// zero everywhere except a last-bidder adjustment for the restriction.
func playRoundToEnd(t *testing.T, e *Engine, snap Snapshot) Snapshot {
	t.Helper()

	for snap.Phase == PhaseBidding {
		bidder := snap.PendingPlayerID
		amount := 0
		if sum, remaining := bidSum(snap), remainingBids(snap); remaining == 1 && sum+amount == snap.HandSize {
			amount = 1
		}
		var err error
		snap, err = e.SubmitBid(bidder, amount)
		if err != nil {
			t.Fatal(err)
		}
	}

	for snap.Phase == PhasePlaying {
		current := snap.PendingPlayerID
		view, err := e.PlayerView(current)
		if err != nil {
			t.Fatal(err)
		}
		cardID := view.Cards[0].ID
		if len(snap.CurrentTrick) > 0 {
			lead := snap.CurrentTrick[0].Card.Suit
			for _, c := range view.Cards {
				if c.Suit == lead {
					cardID = c.ID
					break
				}
			}
		}
		result, err := e.PlayCard(current, cardID)
		if err != nil {
			t.Fatal(err)
		}
		snap = result.Snapshot
	}
	return snap
}

func bidSum(snap Snapshot) int {
	sum := 0
	for _, bid := range snap.Bids {
		if bid != nil {
			sum += *bid
		}
	}
	return sum
}

func remainingBids(snap Snapshot) int {
	n := 0
	for _, bid := range snap.Bids {
		if bid == nil {
			n++
		}
	}
	return n
}
