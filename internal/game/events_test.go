package game

import (
	"fmt"
	"testing"
)

func TestHistoryRingUnderCapacity(t *testing.T) {
	var h historyRing
	for i := 0; i < 5; i++ {
		h.push(Event{ID: fmt.Sprintf("e%d", i)})
	}

	got := h.list()
	if len(got) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(got))
	}
	for i, e := range got {
		if e.ID != fmt.Sprintf("e%d", i) {
			t.Errorf("entry %d = %s, out of order", i, e.ID)
		}
	}
}

func TestHistoryRingDropsOldestFirst(t *testing.T) {
	var h historyRing
	for i := 0; i < maxHistory+10; i++ {
		h.push(Event{ID: fmt.Sprintf("e%d", i)})
	}

	got := h.list()
	if len(got) != maxHistory {
		t.Fatalf("expected %d entries, got %d", maxHistory, len(got))
	}
	if got[0].ID != "e10" {
		t.Errorf("oldest entry = %s, want e10", got[0].ID)
	}
	if got[len(got)-1].ID != fmt.Sprintf("e%d", maxHistory+9) {
		t.Errorf("newest entry = %s, want e%d", got[len(got)-1].ID, maxHistory+9)
	}
}
