// internal/game/strategy.go
//
// Computer opponent: bisection over the remaining candidate interval.
//
// Each NextGuess picks the midpoint of [lower, upper]; the hint for that guess
// is fed back through ReportFeedback, which drops the half that cannot hold the
// secret. With honest feedback the secret is found within
// floor(log2(max-min+1))+1 guesses. Bound arithmetic never overflows, so the
// full int range is searchable.

package game

import "math"

// Strategy holds the computer's search bounds for a single round.
type Strategy struct {
	lower   int
	upper   int
	history []int
	pending bool // a guess was handed out and has no feedback yet
	empty   bool // feedback ruled out an int extreme; no candidates remain
}

// NewStrategy returns a strategy covering [min, max].
func NewStrategy(min, max int) *Strategy {
	s := &Strategy{}
	s.Reset(min, max)
	return s
}

// Reset restores the full range and clears the history.
func (s *Strategy) Reset(min, max int) {
	s.lower, s.upper = min, max
	s.history = s.history[:0]
	s.pending = false
	s.empty = false
}

// NextGuess returns floor((lower+upper)/2) and records it.
func (s *Strategy) NextGuess() (int, error) {
	if s.pending {
		return 0, ErrFeedbackPending
	}
	if s.empty || s.lower > s.upper {
		return 0, ErrNoCandidates
	}
	guess := midpoint(s.lower, s.upper)
	s.history = append(s.history, guess)
	s.pending = true
	return guess, nil
}

// ReportFeedback narrows the bounds using the hint for the last guess.
func (s *Strategy) ReportFeedback(d Direction) error {
	if !s.pending || len(s.history) == 0 {
		return ErrNoPendingGuess
	}
	last := s.history[len(s.history)-1]
	switch d {
	case TooLow:
		if last == math.MaxInt {
			s.empty = true
		} else {
			s.lower = last + 1
		}
	case TooHigh:
		if last == math.MinInt {
			s.empty = true
		} else {
			s.upper = last - 1
		}
	default:
		return ErrNoPendingGuess
	}
	s.pending = false
	return nil
}

// Bounds returns the current candidate interval.
func (s *Strategy) Bounds() (lower, upper int) { return s.lower, s.upper }

// History returns a copy of past guesses, oldest first.
func (s *Strategy) History() []int {
	out := make([]int, len(s.history))
	copy(out, s.history)
	return out
}

// midpoint returns floor((a+b)/2) without forming a+b.
// Arithmetic shifts floor negative halves as well.
func midpoint(a, b int) int {
	return a>>1 + b>>1 + a&b&1
}
