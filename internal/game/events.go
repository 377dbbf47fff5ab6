package game

import (
	"fmt"
	"time"
)

// EventType represents an engine history event type.
type EventType string

// Event types recorded in the engine history.
const (
	EventRoundStarted  EventType = "round_started"
	EventBidSubmitted  EventType = "bid_submitted"
	EventCardPlayed    EventType = "card_played"
	EventTrickResolved EventType = "trick_resolved"
	EventRoundScored   EventType = "round_scored"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is one entry in the engine's bounded history.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// maxHistory caps the engine history; oldest entries are dropped first.
const maxHistory = 30

// historyRing is a fixed-capacity ring buffer of events: a flat array plus a
// write cursor, not a growing slice with post-hoc truncation.
type historyRing struct {
	entries [maxHistory]Event
	start   int
	count   int
}

func (h *historyRing) push(e Event) {
	if h.count < maxHistory {
		h.entries[(h.start+h.count)%maxHistory] = e
		h.count++
		return
	}
	h.entries[h.start] = e
	h.start = (h.start + 1) % maxHistory
}

// list returns the events oldest-first as a fresh slice.
func (h *historyRing) list() []Event {
	out := make([]Event, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.entries[(h.start+i)%maxHistory]
	}
	return out
}

func (e *Engine) logEvent(t EventType, payload map[string]any) {
	e.eventSeq++
	e.history.push(Event{
		ID:        fmt.Sprintf("%s-%d", t, e.eventSeq),
		Type:      t,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	})
}
