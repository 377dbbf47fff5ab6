package game

// ScoreModel maps a player's (bid, tricks won) pair to a point delta for the
// round. The three variants form a closed set; new models are added here,
// not by callers.
type ScoreModel interface {
	// Score returns the point delta for one player.
	Score(bid, won int) int
	// Kind returns the model's tag for configs and logs.
	Kind() string
}

// StandardScoring awards HitPoints + bid on an exact bid, nothing otherwise.
type StandardScoring struct {
	HitPoints int
}

// NewStandardScoring returns the standard model with the usual 10-point bonus.
func NewStandardScoring() StandardScoring {
	return StandardScoring{HitPoints: 10}
}

func (m StandardScoring) Score(bid, won int) int {
	if bid == won {
		return m.HitPoints + bid
	}
	return 0
}

func (m StandardScoring) Kind() string { return "standard" }

// PenaltyScoring awards like StandardScoring on a hit and subtracts
// PenaltyPerTrick for every trick of error on a miss.
type PenaltyScoring struct {
	HitPoints       int
	PenaltyPerTrick int
}

// NewPenaltyScoring returns the penalty model with defaults of 10 hit points
// and 1 point per trick of error.
func NewPenaltyScoring() PenaltyScoring {
	return PenaltyScoring{HitPoints: 10, PenaltyPerTrick: 1}
}

func (m PenaltyScoring) Score(bid, won int) int {
	if bid == won {
		return m.HitPoints + bid
	}
	diff := won - bid
	if diff < 0 {
		diff = -diff
	}
	return -diff * m.PenaltyPerTrick
}

func (m PenaltyScoring) Kind() string { return "penalty" }

// MultiplierScoring awards max(HitFloor, bid) * Multiplier on a hit, nothing
// otherwise. HitFloor keeps zero bids worth something when configured.
type MultiplierScoring struct {
	Multiplier int
	HitFloor   int
}

func (m MultiplierScoring) Score(bid, won int) int {
	if bid != won {
		return 0
	}
	base := bid
	if m.HitFloor > base {
		base = m.HitFloor
	}
	return base * m.Multiplier
}

func (m MultiplierScoring) Kind() string { return "multiplier" }

// ScoreRound applies the model to every player present in bids and returns
// the per-player delta map. Deltas are added to cumulative scores by the
// engine; this function never sees the running totals.
func ScoreRound(model ScoreModel, bids, tricksWon map[string]int) map[string]int {
	delta := make(map[string]int, len(bids))
	for playerID, bid := range bids {
		delta[playerID] = model.Score(bid, tricksWon[playerID])
	}
	return delta
}
