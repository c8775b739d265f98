// internal/game/input.go
//
// Raw-input validation for human guesses.
// Responsibilities:
//   - Turn typed text into an integer (ErrNotANumber otherwise).
//   - Range-check it against the round bounds (ErrOutOfRange).

package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGuess turns raw human input into a guess for cfg.
// Empty or non-numeric text yields ErrNotANumber, values outside the bounds
// ErrOutOfRange. Neither touches a Session.
func ParseGuess(raw string, cfg Config) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrNotANumber
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if !cfg.Contains(v) {
		return 0, fmt.Errorf("%w: enter a number from %d to %d", ErrOutOfRange, cfg.Min, cfg.Max)
	}
	return v, nil
}
