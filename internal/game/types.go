// internal/game/types.go
//
// Core type definitions for the number-guessing engine.
// Defines:
//   - Player: who submits a guess (human or computer).
//   - Direction: hint returned for a miss (too low / too high).
//   - Outcome: result of one evaluated guess (hint, win, exhausted).
//   - Config: immutable bounds and attempt budget of a round.
//   - State: coarse session state (idle, active, concluded).

package game

import "fmt"

// Player identifies the party submitting a guess.
type Player int

const (
	Human Player = iota
	Computer
)

// String returns the lowercase player name used in JSON and logs.
func (p Player) String() string {
	if p == Computer {
		return "computer"
	}
	return "human"
}

// Other returns the opposing player.
func (p Player) Other() Player {
	if p == Human {
		return Computer
	}
	return Human
}

// MarshalText lets Player serialize as "human"/"computer".
func (p Player) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Player) UnmarshalText(b []byte) error {
	switch string(b) {
	case "human":
		*p = Human
	case "computer":
		*p = Computer
	default:
		return fmt.Errorf("unknown player %q", b)
	}
	return nil
}

// Direction is the hint given after a miss.
//   - TooLow:  the guess is below the secret.
//   - TooHigh: the guess is above the secret.
type Direction int

const (
	NoDirection Direction = iota
	TooLow
	TooHigh
)

func (d Direction) String() string {
	switch d {
	case TooLow:
		return "too_low"
	case TooHigh:
		return "too_high"
	}
	return ""
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "too_low":
		*d = TooLow
	case "too_high":
		*d = TooHigh
	case "":
		*d = NoDirection
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// OutcomeKind classifies an evaluated guess.
type OutcomeKind string

const (
	OutcomeHint      OutcomeKind = "hint"
	OutcomeWin       OutcomeKind = "win"
	OutcomeExhausted OutcomeKind = "exhausted"
)

// Outcome is the result of a single SubmitGuess call.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	By           Player      `json:"by"`                  // who guessed
	Guess        int         `json:"guess"`               // the evaluated value
	Direction    Direction   `json:"direction,omitempty"` // set for hints only
	Secret       *int        `json:"secret,omitempty"`    // revealed on terminal outcomes
	AttemptsUsed int         `json:"attemptsUsed"`
	AttemptsLeft int         `json:"attemptsLeft"`
}

// Terminal reports whether the outcome ended the round.
func (o Outcome) Terminal() bool { return o.Kind == OutcomeWin || o.Kind == OutcomeExhausted }

// Config holds the bounds and attempt budget of one round.
// Min and Max are inclusive.
type Config struct {
	Min         int `json:"min"`
	Max         int `json:"max"`
	MaxAttempts int `json:"maxAttempts"`
}

// DefaultConfig matches the classic 1..100 game with 12 shared attempts.
func DefaultConfig() Config {
	return Config{Min: 1, Max: 100, MaxAttempts: 12}
}

// Validate checks Min < Max and MaxAttempts >= 1.
func (c Config) Validate() error {
	if c.Min >= c.Max {
		return fmt.Errorf("%w: min %d must be below max %d", ErrInvalidConfiguration, c.Min, c.Max)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: maxAttempts must be at least 1, got %d", ErrInvalidConfiguration, c.MaxAttempts)
	}
	return nil
}

// Contains reports whether v lies within [Min, Max].
func (c Config) Contains(v int) bool { return v >= c.Min && v <= c.Max }

// State is the coarse lifecycle state of a Session.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateWon       State = "won"
	StateExhausted State = "exhausted"
)

// Concluded reports whether a round has finished.
func (s State) Concluded() bool { return s == StateWon || s == StateExhausted }

// RoundHandle identifies one started round of a Session.
// Generation increases with every StartRound.
type RoundHandle struct {
	Generation uint64 `json:"generation"`
	Config     Config `json:"config"`
}
