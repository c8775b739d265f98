// internal/game/engine.go
//
// Core game engine for a single human-vs-computer session.
// Responsibilities:
//   - Start rounds with a validated Config and a uniformly drawn secret.
//   - Evaluate guesses from either player and emit hint/win/exhausted outcomes.
//   - Enforce turn order and reject guesses for inactive rounds without mutating state.
//   - Own the computer Strategy and reset it with every round.
//
// Notes:
//   - A Session is not safe for concurrent use; callers serialize access
//     (see internal/match).
//   - Generation increments on every StartRound so delayed callbacks can detect
//     that the round they were scheduled for is gone.
package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Session holds the state of one human-vs-computer game across rounds.
type Session struct {
	cfg        Config
	secret     int
	attempts   int
	turn       Player
	state      State
	generation uint64
	strategy   *Strategy
}

// NewSession returns an idle session. No guess is accepted until StartRound.
func NewSession() *Session {
	return &Session{state: StateIdle, strategy: &Strategy{}}
}

// StartRound validates cfg, draws a secret in [cfg.Min, cfg.Max] and resets
// all round state. The human always moves first.
func (s *Session) StartRound(cfg Config) (RoundHandle, error) {
	if err := cfg.Validate(); err != nil {
		return RoundHandle{}, err
	}
	secret, err := randomInRange(cfg.Min, cfg.Max)
	if err != nil {
		return RoundHandle{}, err
	}
	return s.begin(cfg, secret), nil
}

// StartRoundWithSecret is StartRound with a caller-chosen secret.
// Used for tests and fixed-secret debugging.
func (s *Session) StartRoundWithSecret(cfg Config, secret int) (RoundHandle, error) {
	if err := cfg.Validate(); err != nil {
		return RoundHandle{}, err
	}
	if !cfg.Contains(secret) {
		return RoundHandle{}, fmt.Errorf("%w: secret %d outside [%d, %d]", ErrInvalidConfiguration, secret, cfg.Min, cfg.Max)
	}
	return s.begin(cfg, secret), nil
}

func (s *Session) begin(cfg Config, secret int) RoundHandle {
	s.cfg = cfg
	s.secret = secret
	s.attempts = 0
	s.turn = Human
	s.state = StateActive
	s.generation++
	s.strategy.Reset(cfg.Min, cfg.Max)
	return RoundHandle{Generation: s.generation, Config: cfg}
}

// SubmitGuess evaluates value on behalf of who.
//
// Rejections (no state change):
//   - ErrRoundInactive if no round is active.
//   - ErrNotYourTurn if who does not hold the turn.
//   - ErrOutOfRange if value lies outside the round bounds.
//
// State transitions:
//   - value == secret → OutcomeWin, round concluded.
//   - attempts used up → OutcomeExhausted with the secret revealed.
//   - otherwise → OutcomeHint and the turn passes to the other player.
func (s *Session) SubmitGuess(value int, who Player) (Outcome, error) {
	if s.state != StateActive {
		return Outcome{}, ErrRoundInactive
	}
	if who != s.turn {
		return Outcome{}, fmt.Errorf("%w: %s to play", ErrNotYourTurn, s.turn)
	}
	if !s.cfg.Contains(value) {
		return Outcome{}, fmt.Errorf("%w: %d outside [%d, %d]", ErrOutOfRange, value, s.cfg.Min, s.cfg.Max)
	}

	s.attempts++
	out := Outcome{By: who, Guess: value, AttemptsUsed: s.attempts}

	switch {
	case value == s.secret:
		s.state = StateWon
		out.Kind = OutcomeWin
		out.Secret = s.revealed()
	case s.attempts >= s.cfg.MaxAttempts:
		s.state = StateExhausted
		out.Kind = OutcomeExhausted
		out.Secret = s.revealed()
	default:
		out.Kind = OutcomeHint
		out.Direction = TooHigh
		if value < s.secret {
			out.Direction = TooLow
		}
		s.turn = s.turn.Other()
	}
	out.AttemptsLeft = s.AttemptsLeft()
	return out, nil
}

// NextComputerGuess asks the strategy for the computer's next value.
func (s *Session) NextComputerGuess() (int, error) {
	if s.state != StateActive {
		return 0, ErrRoundInactive
	}
	if s.turn != Computer {
		return 0, fmt.Errorf("%w: %s to play", ErrNotYourTurn, s.turn)
	}
	return s.strategy.NextGuess()
}

// ReportComputerFeedback hands the hint for the computer's last guess to the strategy.
func (s *Session) ReportComputerFeedback(d Direction) error {
	if s.state != StateActive {
		return ErrRoundInactive
	}
	return s.strategy.ReportFeedback(d)
}

// PlayComputerTurn runs one full computer move: guess, evaluate, feed back the hint.
func (s *Session) PlayComputerTurn() (Outcome, error) {
	guess, err := s.NextComputerGuess()
	if err != nil {
		return Outcome{}, err
	}
	out, err := s.SubmitGuess(guess, Computer)
	if err != nil {
		return Outcome{}, err
	}
	if out.Kind == OutcomeHint {
		if err := s.ReportComputerFeedback(out.Direction); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Abort ends the active round without a result and returns the session to
// idle. The generation is kept, so callbacks scheduled for the round see it
// as inactive. No-op when no round is active.
func (s *Session) Abort() {
	if s.state != StateActive {
		return
	}
	s.state = StateIdle
	s.strategy.Reset(s.cfg.Min, s.cfg.Max)
}

// State returns the coarse lifecycle state.
func (s *Session) State() State { return s.state }

// Active reports whether guesses are currently accepted.
func (s *Session) Active() bool { return s.state == StateActive }

// Turn returns the player expected to guess next.
func (s *Session) Turn() Player { return s.turn }

// AttemptsUsed returns the number of evaluated guesses this round.
func (s *Session) AttemptsUsed() int { return s.attempts }

// AttemptsLeft returns the remaining shared budget.
func (s *Session) AttemptsLeft() int {
	if s.state == StateIdle {
		return 0
	}
	return s.cfg.MaxAttempts - s.attempts
}

// Generation returns the number of rounds started so far.
func (s *Session) Generation() uint64 { return s.generation }

// Config returns the current round configuration.
func (s *Session) Config() Config { return s.cfg }

// Secret reveals the secret once the round has concluded.
func (s *Session) Secret() (int, bool) {
	if !s.state.Concluded() {
		return 0, false
	}
	return s.secret, true
}

// Strategy exposes the computer's search state (read-only use).
func (s *Session) Strategy() *Strategy { return s.strategy }

func (s *Session) revealed() *int {
	v := s.secret
	return &v
}

// randomInRange returns a uniform integer in [min, max] using crypto/rand.
func randomInRange(min, max int) (int, error) {
	lo := big.NewInt(int64(min))
	span := new(big.Int).Sub(big.NewInt(int64(max)), lo)
	span.Add(span, big.NewInt(1)) // max-min+1 exceeds int64 for the full range
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("draw secret: %w", err)
	}
	return int(n.Add(n, lo).Int64()), nil
}
