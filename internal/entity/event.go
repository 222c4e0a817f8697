package entity

import "time"

const (
	EventRegistered = "registered"
	EventWaiting    = "waiting"
	EventPaired     = "paired"
	EventMove       = "move"
	EventQuit       = "quit"
)

// Event describes a session lifecycle change published to the event sink.
type Event struct {
	Type     string    `json:"type"`
	GameID   string    `json:"gameId,omitempty"`
	Player   string    `json:"player"`
	Opponent string    `json:"opponent,omitempty"`
	State    string    `json:"state,omitempty"`
	At       time.Time `json:"at"`
}

func NewEvent(eventType, player string, game *Game) *Event {
	event := &Event{
		Type:   eventType,
		Player: player,
		At:     time.Now().UTC(),
	}

	if game != nil {
		event.GameID = game.ID
		event.State = game.State

		if game.IsInProgress() {
			event.Opponent = game.Opponent(player)
		}
	}

	return event
}
