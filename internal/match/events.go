// internal/match/events.go
//
// Match events and the guess log.
// Responsibilities:
//   - Define the events pushed to subscribers.
//   - Render log lines for each evaluated guess.
//   - Manage subscriptions with non-blocking fan-out.

package match

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberduel/apps/go-server/internal/game"
)

// EventType names what happened in a match.
type EventType string

const (
	EventSnapshot     EventType = "snapshot" // sent once when a stream opens
	EventRoundStarted EventType = "round_started"
	EventOutcome      EventType = "outcome"
	EventRoundAborted EventType = "round_aborted" // the computer could not move
)

// Event is pushed to subscribers after every state change.
type Event struct {
	Type    EventType     `json:"type"`
	Outcome *game.Outcome `json:"outcome,omitempty"`
	Round   Snapshot      `json:"round"`
}

// LogEntry is one line of the guess log.
type LogEntry struct {
	By        game.Player      `json:"by"`
	Guess     int              `json:"guess"`
	Kind      game.OutcomeKind `json:"kind"`
	Direction game.Direction   `json:"direction,omitempty"`
	Message   string           `json:"message"`
}

func newLogEntry(o game.Outcome) LogEntry {
	name := "Player"
	if o.By == game.Computer {
		name = "Computer"
	}
	msg := fmt.Sprintf("%s guessed: %d. ", name, o.Guess)
	switch o.Kind {
	case game.OutcomeWin:
		msg += name + " got it right!"
	case game.OutcomeExhausted:
		msg += fmt.Sprintf("Out of attempts, the correct number was %d.", *o.Secret)
	default:
		if o.Direction == game.TooLow {
			msg += "Too Low!"
		} else {
			msg += "Too High!"
		}
	}
	return LogEntry{By: o.By, Guess: o.Guess, Kind: o.Kind, Direction: o.Direction, Message: msg}
}

// Subscribe returns a channel of events and a function that ends the subscription.
// Slow subscribers miss events rather than block the match.
func (m *Match) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	var once bool
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if once {
			return
		}
		once = true
		if c, ok := m.subs[id]; ok {
			close(c)
			delete(m.subs, id)
		}
	}
}

func (m *Match) publishLocked(ev Event) {
	for id, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("matchId", m.id).Uint64("subscriber", id).Str("event", string(ev.Type)).Msg("subscriber full, event dropped")
		}
	}
}
