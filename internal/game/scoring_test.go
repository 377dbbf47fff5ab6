package game

import "testing"

func TestStandardScoring(t *testing.T) {
	model := NewStandardScoring()

	tests := []struct {
		name     string
		bid, won int
		want     int
	}{
		{"hit zero bid", 0, 0, 10},
		{"hit high bid", 5, 5, 15},
		{"miss over", 2, 3, 0},
		{"miss under", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := model.Score(tt.bid, tt.won); got != tt.want {
				t.Errorf("Score(%d, %d) = %d, want %d", tt.bid, tt.won, got, tt.want)
			}
		})
	}
}

func TestPenaltyScoring(t *testing.T) {
	model := NewPenaltyScoring()

	tests := []struct {
		name     string
		bid, won int
		want     int
	}{
		{"hit", 3, 3, 13},
		{"miss by one over", 2, 3, -1},
		{"miss by two under", 4, 2, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := model.Score(tt.bid, tt.won); got != tt.want {
				t.Errorf("Score(%d, %d) = %d, want %d", tt.bid, tt.won, got, tt.want)
			}
		})
	}
}

func TestPenaltyScoringCustomPenalty(t *testing.T) {
	model := PenaltyScoring{HitPoints: 10, PenaltyPerTrick: 5}
	if got := model.Score(1, 3); got != -10 {
		t.Errorf("Score(1, 3) = %d, want -10", got)
	}
}

func TestMultiplierScoring(t *testing.T) {
	tests := []struct {
		name     string
		model    MultiplierScoring
		bid, won int
		want     int
	}{
		{"hit", MultiplierScoring{Multiplier: 5}, 3, 3, 15},
		{"hit below floor", MultiplierScoring{Multiplier: 5, HitFloor: 2}, 0, 0, 10},
		{"miss", MultiplierScoring{Multiplier: 5}, 2, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.model.Score(tt.bid, tt.won); got != tt.want {
				t.Errorf("Score(%d, %d) = %d, want %d", tt.bid, tt.won, got, tt.want)
			}
		})
	}
}

func TestScoreRound(t *testing.T) {
	bids := map[string]int{"p1": 1, "p2": 1, "p3": 0}
	tricks := map[string]int{"p1": 1, "p2": 0, "p3": 0}

	delta := ScoreRound(NewStandardScoring(), bids, tricks)

	want := map[string]int{"p1": 11, "p2": 0, "p3": 10}
	for id, w := range want {
		if delta[id] != w {
			t.Errorf("delta[%s] = %d, want %d", id, delta[id], w)
		}
	}
}
