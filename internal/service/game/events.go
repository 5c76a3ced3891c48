package game

import "time"

// Event types appended to the match history.
const (
	EventDeal           = "DEAL"
	EventCardPlayed     = "CARD_PLAYED"
	EventRoundWon       = "ROUND_WON"
	EventCanto          = "CANTO"
	EventResponse       = "RESPONSE"
	EventEnvidoResolved = "ENVIDO_RESOLVED"
	EventHandEnd        = "HAND_END"
	EventGameEnd        = "GAME_END"
	EventPrivateThought = "PRIVATE_THOUGHT"
)

// Event is one append-only history record. Private records (a seat's internal
// reasoning) are only exposed to privileged observers.
type Event struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
	Public    bool                   `json:"public"`
}

func (e *Engine) logEvent(typ string, public bool, data map[string]interface{}) {
	e.history = append(e.history, Event{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		Public:    public,
	})
}

func (e *Engine) publicHistory() []Event {
	out := make([]Event, 0, len(e.history))
	for _, ev := range e.history {
		if ev.Public {
			out = append(out, ev)
		}
	}
	return out
}

func (e *Engine) privateThoughts() []Event {
	out := make([]Event, 0)
	for _, ev := range e.history {
		if ev.Type == EventPrivateThought {
			out = append(out, ev)
		}
	}
	return out
}
